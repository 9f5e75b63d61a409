package bridge

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestShellStartStop(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	sh := NewShell(sim, "")
	if sh.Executable() != DefaultShellExecutable {
		t.Errorf("Executable = %q, want default", sh.Executable())
	}
	if sh.Running() {
		t.Fatal("shell should not run before Start")
	}

	if !sh.Start(ctx) {
		t.Fatal("Start reported failure")
	}
	if !sh.Running() || sh.PID() == 0 {
		t.Fatalf("Running=%v PID=%d after Start", sh.Running(), sh.PID())
	}
	// Starting again is a success no-op.
	if !sh.Start(ctx) {
		t.Error("second Start should report success")
	}

	if !sh.Stop(ctx) {
		t.Fatal("Stop reported failure")
	}
	if sh.Running() {
		t.Error("shell should not run after Stop")
	}
	if !sh.Stop(ctx) {
		t.Error("second Stop should report success")
	}
}

func TestShellStartFailure(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	if err := sim.Stop(ctx); err != nil {
		t.Fatalf("Stop sim failed: %v", err)
	}

	sh := NewShell(sim, "/bin/sh")
	if sh.Start(ctx) {
		t.Fatal("Start against stopped computer should report failure")
	}
}

func TestShellExecute(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	sh := NewShell(sim, "/bin/bash")
	if !sh.Start(ctx) {
		t.Fatal("Start reported failure")
	}
	defer sh.Stop(ctx)

	out, err := sh.Execute(ctx, "echo hi", time.Second)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if strings.TrimSpace(out) != "hi" {
		t.Errorf("output = %q, want hi", out)
	}
}

func TestShellReadOutputTimeout(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	sh := NewShell(sim, "/bin/bash")
	if !sh.Start(ctx) {
		t.Fatal("Start reported failure")
	}
	defer sh.Stop(ctx)

	// "true" produces no output in the built-in script.
	if !sh.SendInput(ctx, "true") {
		t.Fatal("SendInput reported failure")
	}
	out, err := sh.ReadOutput(ctx, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if out != "" {
		t.Errorf("output = %q, want empty on timeout", out)
	}
}

func TestShellReadOutputUnboundedWaits(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	sh := NewShell(sim, "/bin/bash")
	if !sh.Start(ctx) {
		t.Fatal("Start reported failure")
	}
	defer sh.Stop(ctx)

	// With no deadline the read waits for output that arrives later.
	go func() {
		time.Sleep(60 * time.Millisecond)
		sh.SendInput(ctx, "echo late")
	}()
	out, err := sh.ReadOutput(ctx, 0)
	if err != nil {
		t.Fatalf("ReadOutput failed: %v", err)
	}
	if strings.TrimSpace(out) != "late" {
		t.Errorf("output = %q, want late", out)
	}

	// Cancelling the context is the only way out when nothing arrives.
	cancelCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := sh.ReadOutput(cancelCtx, 0); err == nil {
		t.Error("ReadOutput should surface context cancellation")
	}
}

func TestShellSendInputNotRunning(t *testing.T) {
	sim := simForBridge(t)
	sh := NewShell(sim, "/bin/bash")

	if sh.SendInput(context.Background(), "pwd") {
		t.Fatal("SendInput before Start should report failure")
	}
	if _, err := sh.ReadOutput(context.Background(), 0); err == nil {
		t.Fatal("ReadOutput before Start should error")
	}
}

func TestShellStateReQuery(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	sh := NewShell(sim, "/bin/bash")
	if !sh.Start(ctx) {
		t.Fatal("Start reported failure")
	}
	defer sh.Stop(ctx)

	cwd, err := sh.Cwd(ctx)
	if err != nil {
		t.Fatalf("Cwd failed: %v", err)
	}
	if cwd != "/root" {
		t.Errorf("Cwd = %q, want /root", cwd)
	}

	env, err := sh.Env(ctx)
	if err != nil {
		t.Fatalf("Env failed: %v", err)
	}
	if env["HOME"] != "/root" {
		t.Errorf("HOME = %q, want /root", env["HOME"])
	}
	if env["SHELL"] != "/bin/bash" {
		t.Errorf("SHELL = %q", env["SHELL"])
	}
}

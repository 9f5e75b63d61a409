package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"agentenv/pkg/backend"
)

func simForBridge(t *testing.T) *backend.SimComputer {
	t.Helper()
	sim := backend.NewSimComputer()
	if err := sim.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return sim
}

func TestOpenFileInvalidMode(t *testing.T) {
	sim := simForBridge(t)
	if _, err := OpenFile(context.Background(), sim, "/x", "rw"); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestReadOnlyMissingRemote(t *testing.T) {
	sim := simForBridge(t)

	_, err := OpenFile(context.Background(), sim, "/nope.txt", "r")
	if err == nil {
		t.Fatal("expected error opening missing remote file read-only")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("error %v is not a *SyncError", err)
	}
	if syncErr.Op != "pull" {
		t.Errorf("Op = %q, want pull", syncErr.Op)
	}
}

func TestWriteFlushReadBack(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	f, err := OpenFile(ctx, sim, "/notes.txt", "w")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := f.WriteString("first line\n"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}
	if !f.Dirty() {
		t.Error("file should be dirty after write")
	}
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if f.Dirty() {
		t.Error("file should be clean after flush")
	}
	if err := f.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// A second proxy on the same path observes the flushed content.
	data, err := ReadRemote(ctx, sim, "/notes.txt")
	if err != nil {
		t.Fatalf("ReadRemote failed: %v", err)
	}
	if string(data) != "first line\n" {
		t.Errorf("read back %q, want %q", data, "first line\n")
	}
}

func TestAppendPullsExistingContent(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/log.txt", []byte("old\n"))

	err := WithFile(ctx, sim, "/log.txt", "a", func(f *RemoteFile) error {
		_, werr := f.WriteString("new\n")
		return werr
	})
	if err != nil {
		t.Fatalf("WithFile failed: %v", err)
	}

	data, ok := sim.ReadRemoteFile("/log.txt")
	if !ok {
		t.Fatal("remote file missing after append")
	}
	if string(data) != "old\nnew\n" {
		t.Errorf("remote content = %q, want %q", data, "old\nnew\n")
	}
}

func TestTruncateModeIgnoresExistingContent(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/data.txt", []byte("stale"))

	if err := WriteRemote(ctx, sim, "/data.txt", []byte("fresh")); err != nil {
		t.Fatalf("WriteRemote failed: %v", err)
	}
	data, _ := sim.ReadRemoteFile("/data.txt")
	if string(data) != "fresh" {
		t.Errorf("remote content = %q, want %q", data, "fresh")
	}
}

func TestFlushFailureKeepsDirtyAndRetries(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	f, err := OpenFile(ctx, sim, "/retry.txt", "w")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	if _, err := f.WriteString("payload"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}

	sim.SetTransferError(fmt.Errorf("link down"))
	err = f.Flush(ctx)
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("Flush error %v is not a *SyncError", err)
	}
	if syncErr.Op != "push" {
		t.Errorf("Op = %q, want push", syncErr.Op)
	}
	if !f.Dirty() {
		t.Fatal("file must stay dirty after failed flush")
	}

	sim.SetTransferError(nil)
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("retry Flush failed: %v", err)
	}
	if f.Dirty() {
		t.Error("file should be clean after successful retry")
	}
	data, _ := sim.ReadRemoteFile("/retry.txt")
	if string(data) != "payload" {
		t.Errorf("remote content = %q, want %q", data, "payload")
	}
}

func TestReadOnlyProxyNeverWrites(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/ro.txt", []byte("a\nb\n"))

	f, err := OpenFile(ctx, sim, "/ro.txt", "r")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	if _, err := f.WriteString("x"); err == nil {
		t.Error("write on read-only proxy should fail")
	}
	lines, err := f.ReadLines()
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("lines = %v", lines)
	}
}

func TestReadLine(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/lines.txt", []byte("one\ntwo\nthree"))

	f, err := OpenFile(ctx, sim, "/lines.txt", "r")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	for _, want := range []string{"one", "two", "three"} {
		line, err := f.ReadLine()
		if err != nil {
			t.Fatalf("ReadLine failed: %v", err)
		}
		if line != want {
			t.Errorf("ReadLine = %q, want %q", line, want)
		}
	}
	if _, err := f.ReadLine(); err != io.EOF {
		t.Errorf("ReadLine at end = %v, want io.EOF", err)
	}
}

func TestLineIteration(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/iter.txt", []byte("a\nb\nc\n"))

	f, err := OpenFile(ctx, sim, "/iter.txt", "r")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	var got []string
	it := f.Lines()
	for it.Next() {
		got = append(got, it.Line())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("lines = %v", got)
	}

	// Rewinding restarts the iteration from the top.
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	it = f.Lines()
	if !it.Next() || it.Line() != "a" {
		t.Errorf("restarted iterator first line = %q", it.Line())
	}
}

func TestReadLinePreservesPosition(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/mix.txt", []byte("head\ntail"))

	f, err := OpenFile(ctx, sim, "/mix.txt", "r")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	if _, err := f.ReadLine(); err != nil {
		t.Fatalf("ReadLine failed: %v", err)
	}
	pos, err := f.Tell()
	if err != nil {
		t.Fatalf("Tell failed: %v", err)
	}
	if pos != 5 {
		t.Errorf("Tell after first line = %d, want 5", pos)
	}
	rest, err := f.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(rest) != "tail" {
		t.Errorf("ReadAll = %q, want %q", rest, "tail")
	}
}

func TestSeekAndTell(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()
	sim.WriteRemoteFile("/pos.txt", []byte("0123456789"))

	f, err := OpenFile(ctx, sim, "/pos.txt", "r")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close(ctx)

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	pos, err := f.Tell()
	if err != nil {
		t.Fatalf("Tell failed: %v", err)
	}
	if pos != 4 {
		t.Errorf("Tell = %d, want 4", pos)
	}
	rest, err := f.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(rest) != "456789" {
		t.Errorf("ReadAll = %q", rest)
	}
}

func TestCloseIdempotentAndFlushes(t *testing.T) {
	sim := simForBridge(t)
	ctx := context.Background()

	f, err := OpenFile(ctx, sim, "/close.txt", "w")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	if _, err := f.WriteString("bye"); err != nil {
		t.Fatalf("WriteString failed: %v", err)
	}

	if err := f.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !f.Closed() {
		t.Error("Closed() should report true")
	}
	if err := f.Close(ctx); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}

	data, ok := sim.ReadRemoteFile("/close.txt")
	if !ok || string(data) != "bye" {
		t.Errorf("remote content = %q (present=%v), want %q", data, ok, "bye")
	}

	if _, err := f.Read(make([]byte, 1)); err == nil {
		t.Error("Read after Close should fail")
	}
}

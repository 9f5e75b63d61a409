package logx

import (
	"errors"
	"testing"
)

func TestIsDebugEnabled(t *testing.T) {
	defer SetDebug(false, nil)

	SetDebug(false, nil)
	if IsDebugEnabled("bridge") {
		t.Error("Expected debug disabled")
	}

	SetDebug(true, nil)
	if !IsDebugEnabled("bridge") {
		t.Error("Expected debug enabled for all domains")
	}

	SetDebug(true, []string{"bridge", "env"})
	if !IsDebugEnabled("bridge") {
		t.Error("Expected debug enabled for bridge")
	}
	if IsDebugEnabled("pool") {
		t.Error("Expected debug disabled for pool")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Expected nil for nil error")
	}

	base := errors.New("boom")
	wrapped := Wrap(base, "sync step file")
	if wrapped == nil {
		t.Fatal("Expected non-nil wrapped error")
	}
	if !errors.Is(wrapped, base) {
		t.Error("Expected wrapped error to unwrap to base")
	}
	if wrapped.Error() != "sync step file: boom" {
		t.Errorf("Unexpected message: %s", wrapped.Error())
	}
}

func TestWithComponent(t *testing.T) {
	l := NewLogger("bridge")
	l2 := l.WithComponent("env")
	if l2.Component() != "env" {
		t.Errorf("Expected component env, got %s", l2.Component())
	}
	if l.Component() != "bridge" {
		t.Error("Original logger component changed")
	}
}

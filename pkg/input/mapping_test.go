package input

import (
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in   string
		want KeyboardKey
		ok   bool
	}{
		{"enter", KeyEnter, true},
		{"ENTER", KeyEnter, true},
		{" left_ctrl ", KeyLeftCtrl, true},
		{"A", "a", true},
		{"7", "7", true},
		{"page_up", KeyPageUp, true},
		{"flurb", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseKey(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseKey(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseButton(t *testing.T) {
	if b, ok := ParseButton("MIDDLE"); !ok || b != ButtonMiddle {
		t.Errorf("ParseButton(MIDDLE) = (%q, %v)", b, ok)
	}
	if _, ok := ParseButton("fourth"); ok {
		t.Error("Expected fourth to be invalid")
	}
}

// Round-trip law: for every canonical key and every registered backend,
// translating out and back yields either the same key or unknown, never a
// different canonical value.
func TestKeyRoundTripLaw(t *testing.T) {
	for _, backend := range RegisteredBackends() {
		m, err := LookupMapping(backend)
		if err != nil {
			t.Fatalf("LookupMapping(%s): %v", backend, err)
		}
		for _, k := range AllKeys() {
			native := m.KeyToBackend(k)
			back, ok := m.KeyFromBackend(native)
			if ok && back != k {
				t.Errorf("%s: key %q -> %q -> %q, round trip changed canonical value", backend, k, native, back)
			}
		}
		for _, b := range AllButtons() {
			native := m.ButtonToBackend(b)
			back, ok := m.ButtonFromBackend(native)
			if ok && back != b {
				t.Errorf("%s: button %q -> %q -> %q", backend, b, native, back)
			}
		}
	}
}

func TestKeyToBackendTotal(t *testing.T) {
	m, err := LookupMapping(BackendVNC)
	if err != nil {
		t.Fatal(err)
	}

	// Unmapped canonical values fall back to the enter native, never fail.
	if got := m.KeyToBackend(KeyboardKey("hyper")); got != "return" {
		t.Errorf("Expected fallback to return, got %q", got)
	}
	if got := m.ButtonToBackend(MouseButton("fourth")); got != "1" {
		t.Errorf("Expected fallback to 1, got %q", got)
	}

	// Character keys translate by literal value.
	if got := m.KeyToBackend("q"); got != "q" {
		t.Errorf("Expected literal q, got %q", got)
	}
	if got := m.KeyToBackend("3"); got != "3" {
		t.Errorf("Expected literal 3, got %q", got)
	}
}

func TestKeyFromBackendPartial(t *testing.T) {
	m, err := LookupMapping(BackendVNC)
	if err != nil {
		t.Fatal(err)
	}

	if k, ok := m.KeyFromBackend("return"); !ok || k != KeyEnter {
		t.Errorf("KeyFromBackend(return) = (%q, %v)", k, ok)
	}
	// A native with no canonical analogue reports unknown.
	if _, ok := m.KeyFromBackend("xf86audiomute"); ok {
		t.Error("Expected unknown for xf86audiomute")
	}
	if k, ok := m.KeyFromBackend("z"); !ok || k != KeyboardKey("z") {
		t.Errorf("KeyFromBackend(z) = (%q, %v)", k, ok)
	}
}

func TestRegisterMappingDuplicate(t *testing.T) {
	m, err := NewMapping(BackendVNC, vncKeys, vncButtons)
	if err != nil {
		t.Fatal(err)
	}
	if err := RegisterMapping(m); err == nil {
		t.Error("Expected error registering duplicate backend")
	}
}

func TestNewMappingRequiresFallbackEntries(t *testing.T) {
	keys := map[KeyboardKey]string{KeyEnter: "return"}
	buttons := map[MouseButton]string{ButtonLeft: "1"}

	if _, err := NewMapping("partial", map[KeyboardKey]string{KeyTab: "tab"}, buttons); err == nil {
		t.Error("Expected error for key table without enter")
	}
	if _, err := NewMapping("partial", keys, map[MouseButton]string{ButtonRight: "3"}); err == nil {
		t.Error("Expected error for button table without left")
	}
	if _, err := NewMapping("partial", keys, buttons); err != nil {
		t.Errorf("minimal tables rejected: %v", err)
	}
}

func TestLookupMappingUnknown(t *testing.T) {
	if _, err := LookupMapping("holodeck"); err == nil {
		t.Error("Expected error for unknown backend")
	}
}

func TestDaemonMappingIsIdentity(t *testing.T) {
	m, err := LookupMapping(BackendDaemon)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range AllKeys() {
		if got := m.KeyToBackend(k); got != string(k) {
			t.Errorf("daemon key %q -> %q, want identity", k, got)
		}
	}
	for _, b := range AllButtons() {
		if got := m.ButtonToBackend(b); got != string(b) {
			t.Errorf("daemon button %q -> %q, want identity", b, got)
		}
	}
}

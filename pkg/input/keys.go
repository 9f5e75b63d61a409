// Package input defines the canonical keyboard/mouse vocabulary and the
// per-backend translation tables between canonical values and backend-native
// representations.
package input

import "strings"

// KeyboardKey is a canonical, backend-independent key identifier. The string
// values form the wire contract with backend drivers and remote daemons and
// never change meaning across backends.
type KeyboardKey string

// Special keys.
const (
	KeyEnter     KeyboardKey = "enter"
	KeyTab       KeyboardKey = "tab"
	KeySpace     KeyboardKey = "space"
	KeyBackspace KeyboardKey = "backspace"
	KeyDelete    KeyboardKey = "delete"
	KeyEscape    KeyboardKey = "escape"
	KeyHome      KeyboardKey = "home"
	KeyEnd       KeyboardKey = "end"
	KeyPageUp    KeyboardKey = "page_up"
	KeyPageDown  KeyboardKey = "page_down"
)

// Arrow keys.
const (
	KeyUp    KeyboardKey = "up"
	KeyDown  KeyboardKey = "down"
	KeyLeft  KeyboardKey = "left"
	KeyRight KeyboardKey = "right"
)

// Modifier keys, generic and with left/right differentiation.
const (
	KeyShift      KeyboardKey = "shift"
	KeyLeftShift  KeyboardKey = "left_shift"
	KeyRightShift KeyboardKey = "right_shift"
	KeyCtrl       KeyboardKey = "ctrl"
	KeyLeftCtrl   KeyboardKey = "left_ctrl"
	KeyRightCtrl  KeyboardKey = "right_ctrl"
	KeyAlt        KeyboardKey = "alt"
	KeyLeftAlt    KeyboardKey = "left_alt"
	KeyRightAlt   KeyboardKey = "right_alt"
	KeyMeta       KeyboardKey = "meta"
	KeyLeftMeta   KeyboardKey = "left_meta"
	KeyRightMeta  KeyboardKey = "right_meta"
)

// Function keys F1-F12.
const (
	KeyF1  KeyboardKey = "f1"
	KeyF2  KeyboardKey = "f2"
	KeyF3  KeyboardKey = "f3"
	KeyF4  KeyboardKey = "f4"
	KeyF5  KeyboardKey = "f5"
	KeyF6  KeyboardKey = "f6"
	KeyF7  KeyboardKey = "f7"
	KeyF8  KeyboardKey = "f8"
	KeyF9  KeyboardKey = "f9"
	KeyF10 KeyboardKey = "f10"
	KeyF11 KeyboardKey = "f11"
	KeyF12 KeyboardKey = "f12"
)

// MouseButton is a canonical mouse button identifier.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonMiddle MouseButton = "middle"
	ButtonRight  MouseButton = "right"
)

// specialKeys holds every canonical key that is not a literal character key.
var specialKeys = map[KeyboardKey]bool{
	KeyEnter: true, KeyTab: true, KeySpace: true, KeyBackspace: true,
	KeyDelete: true, KeyEscape: true, KeyHome: true, KeyEnd: true,
	KeyPageUp: true, KeyPageDown: true,
	KeyUp: true, KeyDown: true, KeyLeft: true, KeyRight: true,
	KeyShift: true, KeyLeftShift: true, KeyRightShift: true,
	KeyCtrl: true, KeyLeftCtrl: true, KeyRightCtrl: true,
	KeyAlt: true, KeyLeftAlt: true, KeyRightAlt: true,
	KeyMeta: true, KeyLeftMeta: true, KeyRightMeta: true,
	KeyF1: true, KeyF2: true, KeyF3: true, KeyF4: true, KeyF5: true,
	KeyF6: true, KeyF7: true, KeyF8: true, KeyF9: true, KeyF10: true,
	KeyF11: true, KeyF12: true,
}

// IsCharacterKey reports whether k is a literal character key (a-z, 0-9).
// Character keys map to backends by value rather than by table lookup.
func (k KeyboardKey) IsCharacterKey() bool {
	if len(k) != 1 {
		return false
	}
	c := k[0]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// Valid reports whether k belongs to the canonical vocabulary.
func (k KeyboardKey) Valid() bool {
	return specialKeys[k] || k.IsCharacterKey()
}

// Valid reports whether b is a canonical mouse button.
func (b MouseButton) Valid() bool {
	switch b {
	case ButtonLeft, ButtonMiddle, ButtonRight:
		return true
	}
	return false
}

// AllKeys returns every key in the canonical vocabulary. The order is stable:
// special keys first (unordered within the map snapshot is avoided by listing
// explicitly), then a-z, then 0-9.
func AllKeys() []KeyboardKey {
	keys := []KeyboardKey{
		KeyEnter, KeyTab, KeySpace, KeyBackspace, KeyDelete, KeyEscape,
		KeyHome, KeyEnd, KeyPageUp, KeyPageDown,
		KeyUp, KeyDown, KeyLeft, KeyRight,
		KeyShift, KeyLeftShift, KeyRightShift,
		KeyCtrl, KeyLeftCtrl, KeyRightCtrl,
		KeyAlt, KeyLeftAlt, KeyRightAlt,
		KeyMeta, KeyLeftMeta, KeyRightMeta,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6,
		KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
	for c := 'a'; c <= 'z'; c++ {
		keys = append(keys, KeyboardKey(c))
	}
	for c := '0'; c <= '9'; c++ {
		keys = append(keys, KeyboardKey(c))
	}
	return keys
}

// AllButtons returns every canonical mouse button.
func AllButtons() []MouseButton {
	return []MouseButton{ButtonLeft, ButtonMiddle, ButtonRight}
}

// ParseKey normalizes s (lower-cased, trimmed) and returns the canonical key.
// Single uppercase characters are accepted and lower-cased at this boundary.
func ParseKey(s string) (KeyboardKey, bool) {
	k := KeyboardKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", false
	}
	return k, true
}

// ParseButton normalizes s and returns the canonical mouse button.
func ParseButton(s string) (MouseButton, bool) {
	b := MouseButton(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", false
	}
	return b, true
}

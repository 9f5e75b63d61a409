package input

// Static translation tables, one per backend. These are the only per-backend
// data; adding a backend means adding one table here (or registering one from
// the driver package) without touching any call site.

// Backend names with built-in tables.
const (
	BackendVNC    = "vnc"
	BackendDaemon = "daemon"
	BackendSim    = "sim"
)

// vncKeys follows X11 keysym-style names used by VNC input injection.
// Sided modifiers collapse to their generic keysym; the generic modifier is
// listed first in AllKeys order so it wins the inverse slot.
var vncKeys = map[KeyboardKey]string{
	KeyEnter:     "return",
	KeyTab:       "tab",
	KeySpace:     "space",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyEscape:    "esc",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pgup",
	KeyPageDown:  "pgdn",

	KeyUp:    "up",
	KeyDown:  "down",
	KeyLeft:  "left",
	KeyRight: "right",

	KeyShift:      "shift",
	KeyLeftShift:  "lshift",
	KeyRightShift: "rshift",
	KeyCtrl:       "ctrl",
	KeyLeftCtrl:   "lctrl",
	KeyRightCtrl:  "rctrl",
	KeyAlt:        "alt",
	KeyLeftAlt:    "lalt",
	KeyRightAlt:   "ralt",
	KeyMeta:       "super",
	KeyLeftMeta:   "lsuper",
	KeyRightMeta:  "rsuper",

	KeyF1: "f1", KeyF2: "f2", KeyF3: "f3", KeyF4: "f4",
	KeyF5: "f5", KeyF6: "f6", KeyF7: "f7", KeyF8: "f8",
	KeyF9: "f9", KeyF10: "f10", KeyF11: "f11", KeyF12: "f12",
}

// vncButtons uses VNC pointer-event button numbers.
var vncButtons = map[MouseButton]string{
	ButtonLeft:   "1",
	ButtonMiddle: "2",
	ButtonRight:  "3",
}

// daemonKeys is the identity table: the remote daemon speaks the canonical
// vocabulary on the wire.
func daemonKeys() map[KeyboardKey]string {
	keys := make(map[KeyboardKey]string)
	for _, k := range AllKeys() {
		if k.IsCharacterKey() {
			continue
		}
		keys[k] = string(k)
	}
	return keys
}

func daemonButtons() map[MouseButton]string {
	buttons := make(map[MouseButton]string, 3)
	for _, b := range AllButtons() {
		buttons[b] = string(b)
	}
	return buttons
}

func mustRegister(backend string, keys map[KeyboardKey]string, buttons map[MouseButton]string) {
	m, err := NewMapping(backend, keys, buttons)
	if err == nil {
		err = RegisterMapping(m)
	}
	if err != nil {
		panic(err)
	}
}

func init() { //nolint:gochecknoinits // built-in backend tables
	mustRegister(BackendVNC, vncKeys, vncButtons)
	mustRegister(BackendDaemon, daemonKeys(), daemonButtons())
	// The simulated computer also speaks the canonical vocabulary.
	mustRegister(BackendSim, daemonKeys(), daemonButtons())
}

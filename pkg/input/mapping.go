package input

import (
	"fmt"
	"sort"
	"sync"

	"agentenv/pkg/logx"
)

// Mapping translates between the canonical vocabulary and one backend's native
// representation. Keys and Buttons hold the forward tables; the inverse tables
// are derived at registration time. Character-class keys (letters, digits) are
// not listed in the tables; they translate by literal value.
//
// The forward direction is total: a canonical value with no table entry and no
// literal translation falls back to the backend's native value for KeyEnter
// (keys) or ButtonLeft (buttons), with a logged warning. The inverse direction
// is partial: native values with no canonical counterpart report ok=false.
type Mapping struct {
	Backend string
	Keys    map[KeyboardKey]string
	Buttons map[MouseButton]string

	keysInv    map[string]KeyboardKey
	buttonsInv map[string]MouseButton
	logger     *logx.Logger
}

// NewMapping builds a Mapping with derived inverse tables. The key table must
// map KeyEnter and the button table ButtonLeft, since those back the fallback
// translations. When two canonical values share a native value (e.g. left_ctrl
// and right_ctrl both collapsing to "ctrl"), the first registration in AllKeys
// order wins the inverse slot, so generic modifiers round-trip in preference
// to their sided variants.
func NewMapping(backend string, keys map[KeyboardKey]string, buttons map[MouseButton]string) (*Mapping, error) {
	if _, ok := keys[KeyEnter]; !ok {
		return nil, fmt.Errorf("%s key table has no %q entry to fall back on", backend, KeyEnter)
	}
	if _, ok := buttons[ButtonLeft]; !ok {
		return nil, fmt.Errorf("%s button table has no %q entry to fall back on", backend, ButtonLeft)
	}
	m := &Mapping{
		Backend:    backend,
		Keys:       keys,
		Buttons:    buttons,
		keysInv:    make(map[string]KeyboardKey, len(keys)),
		buttonsInv: make(map[string]MouseButton, len(buttons)),
		logger:     logx.NewLogger("input"),
	}
	for _, k := range AllKeys() {
		native, ok := keys[k]
		if !ok {
			continue
		}
		if _, taken := m.keysInv[native]; !taken {
			m.keysInv[native] = k
		}
	}
	for _, b := range AllButtons() {
		native, ok := buttons[b]
		if !ok {
			continue
		}
		if _, taken := m.buttonsInv[native]; !taken {
			m.buttonsInv[native] = b
		}
	}
	return m, nil
}

// KeyToBackend translates a canonical key to the backend-native value.
// This function is total and never fails: unmapped keys resolve to the
// backend's value for KeyEnter and emit a warning.
func (m *Mapping) KeyToBackend(k KeyboardKey) string {
	if native, ok := m.Keys[k]; ok {
		return native
	}
	if k.IsCharacterKey() {
		return string(k)
	}
	m.logger.Warn("no %s mapping for key %q, falling back to %q", m.Backend, k, KeyEnter)
	return m.Keys[KeyEnter]
}

// KeyFromBackend translates a backend-native value to the canonical key.
// Returns ok=false for native values with no canonical counterpart.
func (m *Mapping) KeyFromBackend(native string) (KeyboardKey, bool) {
	if k, ok := m.keysInv[native]; ok {
		return k, true
	}
	if k := KeyboardKey(native); k.IsCharacterKey() {
		return k, true
	}
	return "", false
}

// ButtonToBackend translates a canonical button to the backend-native value.
// Total: unmapped buttons resolve to the backend's ButtonLeft value with a
// warning.
func (m *Mapping) ButtonToBackend(b MouseButton) string {
	if native, ok := m.Buttons[b]; ok {
		return native
	}
	m.logger.Warn("no %s mapping for button %q, falling back to %q", m.Backend, b, ButtonLeft)
	return m.Buttons[ButtonLeft]
}

// ButtonFromBackend translates a backend-native value to the canonical button.
func (m *Mapping) ButtonFromBackend(native string) (MouseButton, bool) {
	b, ok := m.buttonsInv[native]
	return b, ok
}

// Registry state. Adding a backend means registering one mapping table; call
// sites look mappings up by backend name and never change.
var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Mapping)
)

// RegisterMapping makes a backend's translation table available by name.
// Registering the same backend twice is an error.
func RegisterMapping(m *Mapping) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if m.Backend == "" {
		return fmt.Errorf("mapping backend name cannot be empty")
	}
	if _, exists := registry[m.Backend]; exists {
		return fmt.Errorf("mapping for backend %q already registered", m.Backend)
	}
	registry[m.Backend] = m
	return nil
}

// LookupMapping returns the mapping registered for the backend name.
func LookupMapping(backend string) (*Mapping, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	m, ok := registry[backend]
	if !ok {
		return nil, fmt.Errorf("no mapping registered for backend %q (registered: %v)", backend, registeredNamesLocked())
	}
	return m, nil
}

// RegisteredBackends returns the names of all registered backends, sorted.
func RegisteredBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registeredNamesLocked()
}

func registeredNamesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

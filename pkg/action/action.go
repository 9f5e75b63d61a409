// Package action defines the canonical actions and observations exchanged
// between agents and environments. Actions describe input to inject into a
// computer; observations describe what the computer looks like after the
// fact. Both are backend-independent; translation to native representations
// happens in the backend layer via pkg/input mapping tables.
package action

import (
	"fmt"
	"time"

	"agentenv/pkg/input"
)

// ActionType discriminates the action variants on the wire.
type ActionType string

const (
	ActionKeyDown         ActionType = "key_down"
	ActionKeyUp           ActionType = "key_up"
	ActionKeyPress        ActionType = "key_press"
	ActionHotkey          ActionType = "hotkey"
	ActionTypeText        ActionType = "type"
	ActionMouseMove       ActionType = "mouse_move"
	ActionMouseButtonDown ActionType = "mouse_button_down"
	ActionMouseButtonUp   ActionType = "mouse_button_up"
	ActionMouseScroll     ActionType = "mouse_scroll"
	ActionClick           ActionType = "click"
	ActionDoubleClick     ActionType = "double_click"
	ActionDrag            ActionType = "drag"
	ActionRunCommand      ActionType = "run_command"
)

// Action is the tagged variant over every canonical input action. Each
// variant carries only the fields it needs.
type Action interface {
	Type() ActionType
}

// KeyDown presses a key without releasing it.
type KeyDown struct {
	Key input.KeyboardKey `json:"key"`
}

func (*KeyDown) Type() ActionType { return ActionKeyDown }

// KeyUp releases a previously pressed key.
type KeyUp struct {
	Key input.KeyboardKey `json:"key"`
}

func (*KeyUp) Type() ActionType { return ActionKeyUp }

// KeyPress presses and releases a key, holding it for Duration.
type KeyPress struct {
	Key      input.KeyboardKey `json:"key"`
	Duration time.Duration     `json:"duration"`
}

func (*KeyPress) Type() ActionType { return ActionKeyPress }

// Hotkey presses a chord of keys in order and releases them in reverse.
type Hotkey struct {
	Keys []input.KeyboardKey `json:"keys"`
}

func (*Hotkey) Type() ActionType { return ActionHotkey }

// TypeText types a literal string.
type TypeText struct {
	Text string `json:"text"`
}

func (*TypeText) Type() ActionType { return ActionTypeText }

// MouseMove moves the pointer to absolute screen coordinates.
type MouseMove struct {
	X            int           `json:"x"`
	Y            int           `json:"y"`
	MoveDuration time.Duration `json:"move_duration"`
}

func (*MouseMove) Type() ActionType { return ActionMouseMove }

// MouseButtonDown presses a mouse button without releasing it.
type MouseButtonDown struct {
	Button input.MouseButton `json:"button"`
}

func (*MouseButtonDown) Type() ActionType { return ActionMouseButtonDown }

// MouseButtonUp releases a previously pressed mouse button.
type MouseButtonUp struct {
	Button input.MouseButton `json:"button"`
}

func (*MouseButtonUp) Type() ActionType { return ActionMouseButtonUp }

// MouseScroll scrolls by Delta notches; positive is up/away.
type MouseScroll struct {
	Delta float64 `json:"delta"`
}

func (*MouseScroll) Type() ActionType { return ActionMouseScroll }

// Click moves to (X, Y) and presses and releases Button.
type Click struct {
	X             int               `json:"x"`
	Y             int               `json:"y"`
	Button        input.MouseButton `json:"button"`
	MoveDuration  time.Duration     `json:"move_duration"`
	PressDuration time.Duration     `json:"press_duration"`
}

func (*Click) Type() ActionType { return ActionClick }

// DoubleClick performs two clicks separated by Interval.
type DoubleClick struct {
	X             int               `json:"x"`
	Y             int               `json:"y"`
	Button        input.MouseButton `json:"button"`
	MoveDuration  time.Duration     `json:"move_duration"`
	PressDuration time.Duration     `json:"press_duration"`
	Interval      time.Duration     `json:"interval"`
}

func (*DoubleClick) Type() ActionType { return ActionDoubleClick }

// Drag presses Button at the start point, moves to the end point, releases.
type Drag struct {
	StartX       int               `json:"start_x"`
	StartY       int               `json:"start_y"`
	EndX         int               `json:"end_x"`
	EndY         int               `json:"end_y"`
	Button       input.MouseButton `json:"button"`
	MoveDuration time.Duration     `json:"move_duration"`
}

func (*Drag) Type() ActionType { return ActionDrag }

// RunCommand executes a shell command on the computer. A zero Timeout means
// the command runs until it finishes.
type RunCommand struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Cwd     string            `json:"cwd,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Timeout time.Duration     `json:"timeout,omitempty"`
}

func (*RunCommand) Type() ActionType { return ActionRunCommand }

// Validate checks the action's fields for the constraints the backend layer
// relies on. It does not execute anything.
func Validate(a Action) error {
	switch v := a.(type) {
	case *KeyDown:
		return validKey(v.Key)
	case *KeyUp:
		return validKey(v.Key)
	case *KeyPress:
		return validKey(v.Key)
	case *Hotkey:
		if len(v.Keys) == 0 {
			return fmt.Errorf("hotkey requires at least one key")
		}
		for _, k := range v.Keys {
			if err := validKey(k); err != nil {
				return err
			}
		}
		return nil
	case *TypeText:
		if v.Text == "" {
			return fmt.Errorf("type action requires non-empty text")
		}
		return nil
	case *MouseButtonDown:
		return validButton(v.Button)
	case *MouseButtonUp:
		return validButton(v.Button)
	case *Click:
		return validButton(v.Button)
	case *DoubleClick:
		return validButton(v.Button)
	case *Drag:
		return validButton(v.Button)
	case *RunCommand:
		if v.Command == "" {
			return fmt.Errorf("run_command requires a command")
		}
		return nil
	case *MouseMove, *MouseScroll:
		return nil
	case nil:
		return fmt.Errorf("action cannot be nil")
	default:
		return fmt.Errorf("unknown action type %T", a)
	}
}

func validKey(k input.KeyboardKey) error {
	if !k.Valid() {
		return fmt.Errorf("invalid keyboard key %q", k)
	}
	return nil
}

func validButton(b input.MouseButton) error {
	if !b.Valid() {
		return fmt.Errorf("invalid mouse button %q", b)
	}
	return nil
}

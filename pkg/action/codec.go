package action

import (
	"encoding/json"
	"fmt"
)

// Envelope is the serialized form of an Action: a type discriminator plus one
// populated variant field. The same struct round-trips through encoding/json
// and through CBOR (fxamacker/cbor honors the json tags), so every persistence
// strategy shares one wire shape.
//
//nolint:govet // wire struct, field order mirrors the variant list
type Envelope struct {
	Kind ActionType `json:"type"`

	KeyDown         *KeyDown         `json:"key_down,omitempty"`
	KeyUp           *KeyUp           `json:"key_up,omitempty"`
	KeyPress        *KeyPress        `json:"key_press,omitempty"`
	Hotkey          *Hotkey          `json:"hotkey,omitempty"`
	TypeText        *TypeText        `json:"type_text,omitempty"`
	MouseMove       *MouseMove       `json:"mouse_move,omitempty"`
	MouseButtonDown *MouseButtonDown `json:"mouse_button_down,omitempty"`
	MouseButtonUp   *MouseButtonUp   `json:"mouse_button_up,omitempty"`
	MouseScroll     *MouseScroll     `json:"mouse_scroll,omitempty"`
	Click           *Click           `json:"click,omitempty"`
	DoubleClick     *DoubleClick     `json:"double_click,omitempty"`
	Drag            *Drag            `json:"drag,omitempty"`
	RunCommand      *RunCommand      `json:"run_command,omitempty"`
}

// Wrap packs an Action into its envelope.
func Wrap(a Action) (Envelope, error) {
	e := Envelope{Kind: a.Type()}
	switch v := a.(type) {
	case *KeyDown:
		e.KeyDown = v
	case *KeyUp:
		e.KeyUp = v
	case *KeyPress:
		e.KeyPress = v
	case *Hotkey:
		e.Hotkey = v
	case *TypeText:
		e.TypeText = v
	case *MouseMove:
		e.MouseMove = v
	case *MouseButtonDown:
		e.MouseButtonDown = v
	case *MouseButtonUp:
		e.MouseButtonUp = v
	case *MouseScroll:
		e.MouseScroll = v
	case *Click:
		e.Click = v
	case *DoubleClick:
		e.DoubleClick = v
	case *Drag:
		e.Drag = v
	case *RunCommand:
		e.RunCommand = v
	default:
		return Envelope{}, fmt.Errorf("cannot wrap action type %T", a)
	}
	return e, nil
}

// Unwrap returns the Action carried by the envelope.
func (e Envelope) Unwrap() (Action, error) {
	switch e.Kind {
	case ActionKeyDown:
		if e.KeyDown != nil {
			return e.KeyDown, nil
		}
	case ActionKeyUp:
		if e.KeyUp != nil {
			return e.KeyUp, nil
		}
	case ActionKeyPress:
		if e.KeyPress != nil {
			return e.KeyPress, nil
		}
	case ActionHotkey:
		if e.Hotkey != nil {
			return e.Hotkey, nil
		}
	case ActionTypeText:
		if e.TypeText != nil {
			return e.TypeText, nil
		}
	case ActionMouseMove:
		if e.MouseMove != nil {
			return e.MouseMove, nil
		}
	case ActionMouseButtonDown:
		if e.MouseButtonDown != nil {
			return e.MouseButtonDown, nil
		}
	case ActionMouseButtonUp:
		if e.MouseButtonUp != nil {
			return e.MouseButtonUp, nil
		}
	case ActionMouseScroll:
		if e.MouseScroll != nil {
			return e.MouseScroll, nil
		}
	case ActionClick:
		if e.Click != nil {
			return e.Click, nil
		}
	case ActionDoubleClick:
		if e.DoubleClick != nil {
			return e.DoubleClick, nil
		}
	case ActionDrag:
		if e.Drag != nil {
			return e.Drag, nil
		}
	case ActionRunCommand:
		if e.RunCommand != nil {
			return e.RunCommand, nil
		}
	default:
		return nil, fmt.Errorf("unknown action type %q", e.Kind)
	}
	return nil, fmt.Errorf("envelope type %q has no payload", e.Kind)
}

// MarshalAction serializes an Action to JSON via its envelope.
func MarshalAction(a Action) ([]byte, error) {
	e, err := Wrap(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// UnmarshalAction deserializes an Action from its JSON envelope.
func UnmarshalAction(data []byte) (Action, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse action envelope: %w", err)
	}
	return e.Unwrap()
}

// ObsEnvelope is the serialized form of an Observation.
type ObsEnvelope struct {
	Kind ObservationType `json:"type"`

	Screenshot    *Screenshot    `json:"screenshot,omitempty"`
	MouseState    *MouseState    `json:"mouse_state,omitempty"`
	KeyboardState *KeyboardState `json:"keyboard_state,omitempty"`
	Snapshot      *Snapshot      `json:"snapshot,omitempty"`
}

// WrapObservation packs an Observation into its envelope.
func WrapObservation(o Observation) (ObsEnvelope, error) {
	e := ObsEnvelope{Kind: o.Type()}
	switch v := o.(type) {
	case *Screenshot:
		e.Screenshot = v
	case *MouseState:
		e.MouseState = v
	case *KeyboardState:
		e.KeyboardState = v
	case *Snapshot:
		e.Snapshot = v
	default:
		return ObsEnvelope{}, fmt.Errorf("cannot wrap observation type %T", o)
	}
	return e, nil
}

// Unwrap returns the Observation carried by the envelope.
func (e ObsEnvelope) Unwrap() (Observation, error) {
	switch e.Kind {
	case ObsScreenshot:
		if e.Screenshot != nil {
			return e.Screenshot, nil
		}
	case ObsMouseState:
		if e.MouseState != nil {
			return e.MouseState, nil
		}
	case ObsKeyboardState:
		if e.KeyboardState != nil {
			return e.KeyboardState, nil
		}
	case ObsSnapshot:
		if e.Snapshot != nil {
			return e.Snapshot, nil
		}
	default:
		return nil, fmt.Errorf("unknown observation type %q", e.Kind)
	}
	return nil, fmt.Errorf("envelope type %q has no payload", e.Kind)
}

// MarshalObservation serializes an Observation to JSON via its envelope.
func MarshalObservation(o Observation) ([]byte, error) {
	e, err := WrapObservation(o)
	if err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// UnmarshalObservation deserializes an Observation from its JSON envelope.
func UnmarshalObservation(data []byte) (Observation, error) {
	var e ObsEnvelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse observation envelope: %w", err)
	}
	return e.Unwrap()
}

package action

import "agentenv/pkg/input"

// ObservationType discriminates the observation variants on the wire.
type ObservationType string

const (
	ObsScreenshot    ObservationType = "screenshot"
	ObsMouseState    ObservationType = "mouse_state"
	ObsKeyboardState ObservationType = "keyboard_state"
	ObsSnapshot      ObservationType = "snapshot"
)

// Observation is the tagged variant over everything an environment can
// perceive about a computer.
type Observation interface {
	Type() ObservationType
}

// Screenshot carries one captured frame. Format names the image encoding
// ("png", "jpeg"); Data is the raw encoded bytes.
type Screenshot struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

func (*Screenshot) Type() ObservationType { return ObsScreenshot }

// MouseState reports the pointer position and which buttons are held.
type MouseState struct {
	X       int                       `json:"x"`
	Y       int                       `json:"y"`
	Buttons map[input.MouseButton]bool `json:"buttons"`
}

func (*MouseState) Type() ObservationType { return ObsMouseState }

// KeyboardState reports which keys are currently held.
type KeyboardState struct {
	Keys map[input.KeyboardKey]bool `json:"keys"`
}

func (*KeyboardState) Type() ObservationType { return ObsKeyboardState }

// Snapshot bundles the observation kinds gathered in one step. Nil fields
// were not requested or not supported by the backend.
type Snapshot struct {
	Screenshot    *Screenshot    `json:"screenshot,omitempty"`
	MouseState    *MouseState    `json:"mouse_state,omitempty"`
	KeyboardState *KeyboardState `json:"keyboard_state,omitempty"`
}

func (*Snapshot) Type() ObservationType { return ObsSnapshot }

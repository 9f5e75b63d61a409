// Package episode records agent trajectories as ordered steps and persists
// them in memory, as per-step files, or in sqlite.
package episode

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"agentenv/pkg/action"
)

// Step is one transition: the observation the agent saw, the action it took,
// the reward received, and free-form diagnostic info.
type Step struct {
	Observation action.Observation
	Action      action.Action
	Reward      float64
	Info        map[string]any
}

// Sentinel errors shared by all episode backends.
var (
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrEmptyEpisode    = errors.New("episode is empty")
)

// Episode is an ordered, mutable sequence of steps. Indices are zero-based;
// implementations return ErrIndexOutOfRange (wrapped) for invalid indices.
type Episode interface {
	// NumSteps returns the current step count.
	NumSteps() int

	Get(i int) (Step, error)
	Set(i int, s Step) error

	// Push appends a step at the end.
	Push(s Step) error

	// Insert places a step at index i, shifting later steps up. i may equal
	// NumSteps(), which is equivalent to Push.
	Insert(i int, s Step) error

	// Pop removes and returns the last step. Returns ErrEmptyEpisode when
	// there is nothing to remove.
	Pop() (Step, error)

	// Clear removes every step. Other data colocated with the episode is
	// left alone.
	Clear() error

	// TotalReward sums the reward over all steps.
	TotalReward() (float64, error)

	// IterSteps returns a fresh iterator over the current steps. Each call
	// starts from the beginning.
	IterSteps() *StepIter
}

// StepIter walks an episode front to back. Usage follows sql.Rows: call Next
// until it returns false, then check Err.
type StepIter struct {
	ep   Episode
	next int
	cur  Step
	err  error
}

// NewStepIter returns an iterator positioned before the first step.
func NewStepIter(ep Episode) *StepIter {
	return &StepIter{ep: ep}
}

// Next advances to the next step, returning false at the end or on error.
func (it *StepIter) Next() bool {
	if it.err != nil || it.next >= it.ep.NumSteps() {
		return false
	}
	step, err := it.ep.Get(it.next)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = step
	it.next++
	return true
}

// Step returns the step the last successful Next call reached.
func (it *StepIter) Step() Step { return it.cur }

// Err returns the first error hit during iteration.
func (it *StepIter) Err() error { return it.err }

// Encoding selects the on-disk step format.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingCBOR Encoding = "cbor"
)

// Valid reports whether the encoding is supported.
func (e Encoding) Valid() bool {
	return e == EncodingJSON || e == EncodingCBOR
}

// Ext returns the file extension for the encoding, including the dot.
func (e Encoding) Ext() string { return "." + string(e) }

// stepRecord is the serialized form of a Step. Interface fields go through
// the envelope codec so the concrete variant survives the round trip.
type stepRecord struct {
	Observation *action.ObsEnvelope `json:"observation,omitempty"`
	Action      *action.Envelope    `json:"action,omitempty"`
	Reward      float64             `json:"reward"`
	Info        map[string]any      `json:"info,omitempty"`
}

func toRecord(s Step) (stepRecord, error) {
	rec := stepRecord{Reward: s.Reward, Info: s.Info}
	if s.Observation != nil {
		env, err := action.WrapObservation(s.Observation)
		if err != nil {
			return stepRecord{}, err
		}
		rec.Observation = &env
	}
	if s.Action != nil {
		env, err := action.Wrap(s.Action)
		if err != nil {
			return stepRecord{}, err
		}
		rec.Action = &env
	}
	return rec, nil
}

func fromRecord(rec stepRecord) (Step, error) {
	s := Step{Reward: rec.Reward, Info: rec.Info}
	if rec.Observation != nil {
		obs, err := rec.Observation.Unwrap()
		if err != nil {
			return Step{}, err
		}
		s.Observation = obs
	}
	if rec.Action != nil {
		act, err := rec.Action.Unwrap()
		if err != nil {
			return Step{}, err
		}
		s.Action = act
	}
	return s, nil
}

// MarshalStep encodes a step in the given encoding.
func MarshalStep(s Step, enc Encoding) ([]byte, error) {
	rec, err := toRecord(s)
	if err != nil {
		return nil, err
	}
	switch enc {
	case EncodingJSON:
		return json.Marshal(rec)
	case EncodingCBOR:
		return cbor.Marshal(rec)
	default:
		return nil, fmt.Errorf("unsupported step encoding %q", enc)
	}
}

// UnmarshalStep decodes a step from the given encoding.
func UnmarshalStep(data []byte, enc Encoding) (Step, error) {
	var rec stepRecord
	switch enc {
	case EncodingJSON:
		if err := json.Unmarshal(data, &rec); err != nil {
			return Step{}, err
		}
	case EncodingCBOR:
		if err := cbor.Unmarshal(data, &rec); err != nil {
			return Step{}, err
		}
	default:
		return Step{}, fmt.Errorf("unsupported step encoding %q", enc)
	}
	return fromRecord(rec)
}

package filter

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	ErrInvalidParameter = errors.New("invalid parameter")
)

// State is the selected filter and its current parameter values
type State struct {
	filter Descriptor
	values map[Kind]float64
}

// NewState returns a state with the given filter selected and every accepted parameter at its default
func NewState(d Descriptor) *State {
	s := &State{}
	s.Select(d)
	return s
}

// Select makes d the active filter, resetting the parameter values to their defaults
func (s *State) Select(d Descriptor) {
	values := make(map[Kind]float64, d.Accepts.Len())
	for _, k := range d.Accepts.Kinds() {
		values[k] = DefaultValue
	}

	s.filter = d
	s.values = values
}

// SetParameter sets a normalized parameter value
// Out of range values are rejected rather than clamped
func (s *State) SetParameter(k Kind, value float64) error {
	if !s.filter.Accepts.Has(k) {
		return fmt.Errorf("%w: %s is not accepted by %s", ErrInvalidParameter, k, s.filter.ID)
	}

	if math.IsNaN(value) || value < 0 || value > 1 {
		return fmt.Errorf("%w: %s must be between 0 and 1, got %v", ErrInvalidParameter, k, value)
	}

	s.values[k] = value
	return nil
}

// Parameter returns the normalized value of a parameter
func (s *State) Parameter(k Kind) (float64, bool) {
	value, ok := s.values[k]
	return value, ok
}

// Parameters returns a copy of the parameter values
func (s *State) Parameters() map[Kind]float64 {
	values := make(map[Kind]float64, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}

	return values
}

// Filter returns the active filter
func (s *State) Filter() Descriptor {
	return s.filter
}

// VisibleParameters returns the parameters a UI should show controls for
func (s *State) VisibleParameters() KindSet {
	return s.filter.Accepts
}

// Clone returns an independent copy of the state
func (s *State) Clone() *State {
	return &State{
		filter: s.filter,
		values: s.Parameters(),
	}
}

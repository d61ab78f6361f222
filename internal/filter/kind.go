package filter

import (
	"fmt"
	"strings"
)

// Kind is an adjustable filter parameter
type Kind int

const (
	// Intensity is the strength of the effect
	Intensity Kind = iota
	// Radius is a distance in pixels
	Radius
	// Scale is a size multiplier
	Scale
)

// DefaultValue is the normalized value every parameter starts out with
const DefaultValue = 0.5

// Kinds lists every parameter kind in declared order
var Kinds = []Kind{Intensity, Radius, Scale}

// String returns the lowercase name of the kind, as used in query parameters
func (k Kind) String() string {
	switch k {
	case Intensity:
		return "intensity"
	case Radius:
		return "radius"
	case Scale:
		return "scale"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Label returns the human-readable name of the kind
func (k Kind) Label() string {
	switch k {
	case Intensity:
		return "Intensity"
	case Radius:
		return "Radius"
	case Scale:
		return "Scale"
	default:
		return k.String()
	}
}

// Scaled converts a normalized value into the value the underlying operation expects
func (k Kind) Scaled(value float64) float64 {
	switch k {
	case Radius:
		return value * 200
	case Scale:
		return value * 10
	default:
		return value
	}
}

// ParseKind returns the kind with the given name
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown parameter %q", ErrInvalidParameter, name)
}

// KindSet is a set of parameter kinds
type KindSet uint8

// NewKindSet returns a set containing the given kinds
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s |= 1 << uint(k)
	}

	return s
}

// Has reports whether the set contains k
func (s KindSet) Has(k Kind) bool {
	return k >= 0 && int(k) < len(Kinds) && s&(1<<uint(k)) != 0
}

// Kinds returns the members of the set in declared order
func (s KindSet) Kinds() []Kind {
	kinds := []Kind{}
	for _, k := range Kinds {
		if s.Has(k) {
			kinds = append(kinds, k)
		}
	}

	return kinds
}

// Len returns the number of kinds in the set
func (s KindSet) Len() int {
	return len(s.Kinds())
}

// Strings returns the names of the members of the set
func (s KindSet) Strings() []string {
	names := []string{}
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}

	return names
}

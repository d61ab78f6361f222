package filter

import (
	"strings"
	"unicode"
)

// Descriptor describes a selectable filter and the parameters it accepts
type Descriptor struct {
	ID      string
	Name    string
	Accepts KindSet
	Keys    map[Kind]string
}

// Input keys the parameters are configured under
const (
	IntensityKey = "inputIntensity"
	RadiusKey    = "inputRadius"
	ScaleKey     = "inputScale"
)

var inputKeys = map[Kind]string{
	Intensity: IntensityKey,
	Radius:    RadiusKey,
	Scale:     ScaleKey,
}

// Filter identifiers
const (
	Crystallize  = "Crystallize"
	Edges        = "Edges"
	GaussianBlur = "GaussianBlur"
	Pixellate    = "Pixellate"
	SepiaTone    = "SepiaTone"
	UnsharpMask  = "UnsharpMask"
	Vignette     = "Vignette"
)

var registry = []Descriptor{
	newDescriptor(Crystallize, Radius),
	newDescriptor(Edges, Intensity),
	newDescriptor(GaussianBlur, Radius),
	newDescriptor(Pixellate, Scale),
	newDescriptor(SepiaTone, Intensity),
	newDescriptor(UnsharpMask, Intensity, Radius),
	newDescriptor(Vignette, Intensity, Radius),
}

func newDescriptor(id string, accepts ...Kind) Descriptor {
	keys := make(map[Kind]string, len(accepts))
	for _, k := range accepts {
		keys[k] = inputKeys[k]
	}

	return Descriptor{
		ID:      id,
		Name:    camelCaseToWords(id),
		Accepts: NewKindSet(accepts...),
		Keys:    keys,
	}
}

// List returns the available filters in a stable order
func List() []Descriptor {
	list := make([]Descriptor, len(registry))
	copy(list, registry)
	return list
}

// Lookup returns the filter with the given id, ignoring case
func Lookup(id string) (Descriptor, bool) {
	for _, d := range registry {
		if strings.EqualFold(d.ID, id) {
			return d, true
		}
	}

	return Descriptor{}, false
}

// Default returns the filter a new state starts out with
func Default() Descriptor {
	d, _ := Lookup(SepiaTone)
	return d
}

// Key returns the input key the given kind is configured under
func (d Descriptor) Key(k Kind) (string, bool) {
	key, ok := d.Keys[k]
	return key, ok
}

// camelCaseToWords turns "GaussianBlur" into "Gaussian Blur"
func camelCaseToWords(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}

	return b.String()
}

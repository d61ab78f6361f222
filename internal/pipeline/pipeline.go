// Package pipeline applies a filter state to an image
package pipeline

import (
	"errors"
	"fmt"
	"image"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/disintegration/imaging"
)

// Errors
var (
	ErrNoOutput             = errors.New("filter produced no output")
	ErrUnsupportedParameter = errors.New("unsupported parameter")
)

// Inputs are the scaled parameter values of a filter, keyed by input key
type Inputs map[string]float64

// operation runs a filter on a private copy of the input image
type operation func(src *image.NRGBA, in Inputs) image.Image

var operations = map[string]operation{
	filter.Crystallize:  crystallize,
	filter.Edges:        edges,
	filter.GaussianBlur: gaussianBlur,
	filter.Pixellate:    pixellate,
	filter.SepiaTone:    sepiaTone,
	filter.UnsharpMask:  unsharpMask,
	filter.Vignette:     vignette,
}

// Configure scales the parameter values of the state and keys them by the filter's input keys
func Configure(state *filter.State) (Inputs, error) {
	d := state.Filter()
	in := make(Inputs, d.Accepts.Len())

	for _, k := range d.Accepts.Kinds() {
		key, ok := d.Key(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no input for %s", ErrUnsupportedParameter, d.ID, k)
		}

		value, ok := state.Parameter(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s is missing a value for %s", ErrUnsupportedParameter, d.ID, k)
		}

		in[key] = k.Scaled(value)
	}

	return in, nil
}

// Apply runs the active filter of the state on the input image and returns a new image
// The input is never modified, and the same input and state always produce the same output
func Apply(input image.Image, state *filter.State) (*image.NRGBA, error) {
	if input == nil || input.Bounds().Empty() {
		return nil, fmt.Errorf("%w: no input image", ErrNoOutput)
	}

	if state == nil {
		return nil, fmt.Errorf("%w: no filter selected", ErrNoOutput)
	}

	op, ok := operations[state.Filter().ID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q", ErrNoOutput, state.Filter().ID)
	}

	in, err := Configure(state)
	if err != nil {
		return nil, err
	}

	output := op(imaging.Clone(input), in)
	if output == nil || output.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, state.Filter().ID)
	}

	return toNRGBA(output), nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}

	return imaging.Clone(img)
}

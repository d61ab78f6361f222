package image

import (
	"context"
	"image"

	"github.com/DMarby/instafilter/internal/filter"
)

// Processor is an image processor
type Processor interface {
	ProcessImage(ctx context.Context, task *Task) (processedImage []byte, err error)
	Apply(ctx context.Context, img image.Image, state *filter.State) (*image.NRGBA, error)
}

package mock

import (
	"context"
	"fmt"
	goimage "image"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/image"
)

// Processor implements a mock image processor that always fails
type Processor struct {
}

// ProcessImage returns an error instead of processing an image
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	return nil, fmt.Errorf("processing error")
}

// Apply returns an error instead of applying the filter
func (p *Processor) Apply(ctx context.Context, img goimage.Image, state *filter.State) (*goimage.NRGBA, error) {
	return nil, fmt.Errorf("processing error")
}

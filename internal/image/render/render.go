// Package render processes images on a bounded worker queue using the filter pipeline
package render

import (
	"context"
	"fmt"
	goimage "image"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/queue"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/tracing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Processor is an image processor that runs the filter pipeline on a worker queue
type Processor struct {
	queue  *queue.Queue
	tracer *tracing.Tracer
}

var (
	queueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "image_processor",
		Name:      "queue_size",
		Help:      "Number of images waiting for or being processed.",
	})
	processedImages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "image_processor",
		Name:      "processed_images_total",
		Help:      "Number of images processed, by filter.",
	}, []string{"filter"})
)

type applyJob struct {
	img   goimage.Image
	state *filter.State
}

// New initializes a new processor instance
// The workers stop when ctx is cancelled
func New(ctx context.Context, log *logger.Logger, tracer *tracing.Tracer, workers int, cache *image.Cache) *Processor {
	workerQueue := queue.New(ctx, workers, taskProcessor(tracer, cache))
	instance := &Processor{
		queue:  workerQueue,
		tracer: tracer,
	}

	go workerQueue.Run()
	log.Infof("starting render worker queue with %d workers", workers)

	return instance
}

// ProcessImage loads the source photo of a task, applies its filter, and returns the encoded result
func (p *Processor) ProcessImage(ctx context.Context, task *image.Task) (processedImage []byte, err error) {
	ctx, span := p.tracer.Start(ctx, "render.Processor.ProcessImage")
	defer span.End()

	result, err := p.process(ctx, task, task.Filter)
	if err != nil {
		return nil, err
	}

	buffer, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return buffer, nil
}

// Apply runs the filter state on an already decoded image
func (p *Processor) Apply(ctx context.Context, img goimage.Image, state *filter.State) (*goimage.NRGBA, error) {
	ctx, span := p.tracer.Start(ctx, "render.Processor.Apply")
	defer span.End()

	if state == nil {
		return nil, fmt.Errorf("%w: no filter selected", pipeline.ErrNoOutput)
	}

	// The worker must not observe later changes to the caller's state
	result, err := p.process(ctx, &applyJob{img: img, state: state.Clone()}, state.Filter().ID)
	if err != nil {
		return nil, err
	}

	output, ok := result.(*goimage.NRGBA)
	if !ok {
		return nil, fmt.Errorf("error getting result")
	}

	return output, nil
}

func (p *Processor) process(ctx context.Context, data interface{}, filterID string) (interface{}, error) {
	queueSize.Inc()
	defer queueSize.Dec()

	result, err := p.queue.Process(ctx, data)
	if err != nil {
		return nil, err
	}

	processedImages.WithLabelValues(filterID).Inc()
	return result, nil
}

func taskProcessor(tracer *tracing.Tracer, cache *image.Cache) queue.HandlerFunc {
	return func(ctx context.Context, data interface{}) (interface{}, error) {
		switch job := data.(type) {
		case *applyJob:
			return pipeline.Apply(job.img, job.state)
		case *image.Task:
			return renderTask(ctx, tracer, cache, job)
		default:
			return nil, fmt.Errorf("invalid data")
		}
	}
}

func renderTask(ctx context.Context, tracer *tracing.Tracer, cache *image.Cache, task *image.Task) ([]byte, error) {
	state, err := task.State()
	if err != nil {
		return nil, err
	}

	imageBuffer, err := cache.Get(ctx, storage.PhotoKey(task.PhotoID))
	if err != nil {
		return nil, fmt.Errorf("error getting image from cache: %w", err)
	}

	_, span := tracer.Start(ctx, "render.pipeline")
	defer span.End()

	source, err := codec.Decode(imageBuffer)
	if err != nil {
		return nil, err
	}

	output, err := pipeline.Apply(source, state)
	if err != nil {
		return nil, err
	}

	return codec.Encode(output, task.Format)
}

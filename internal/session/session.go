// Package session implements editing sessions, each owning one filter state and the photo it is applied to
package session

import (
	"context"
	"errors"
	"fmt"
	goimage "image"
	"sync"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/google/uuid"
)

// Errors
var (
	ErrNoImage    = errors.New("No image selected")
	ErrSuperseded = errors.New("render superseded by a newer request")
	ErrNotFound   = errors.New("Session does not exist")
	ErrNoOutput   = errors.New("No output, the latest render failed or is still in progress")
)

// Session is a single editing session
// Every change to the state re-renders the loaded photo from scratch
type Session struct {
	ID string

	processor image.Processor
	cache     *image.Cache
	storage   storage.Provider

	mu         sync.Mutex
	state      *filter.State
	photoID    string
	source     *goimage.NRGBA
	output     *goimage.NRGBA
	generation uint64
	cancel     context.CancelFunc
}

// Snapshot is a point in time view of a session
type Snapshot struct {
	ID         string             `json:"id"`
	PhotoID    string             `json:"photo_id,omitempty"`
	Filter     string             `json:"filter"`
	Parameters map[string]float64 `json:"parameters"`
	Visible    []string           `json:"visible_parameters"`
	HasOutput  bool               `json:"has_output"`
}

func newSession(id string, processor image.Processor, cache *image.Cache, storageProvider storage.Provider) *Session {
	return &Session{
		ID:        id,
		processor: processor,
		cache:     cache,
		storage:   storageProvider,
		state:     filter.NewState(filter.Default()),
	}
}

// Load fetches and decodes a source photo and renders it with the current state
func (s *Session) Load(ctx context.Context, photoID string) error {
	buf, err := s.cache.Get(ctx, storage.PhotoKey(photoID))
	if err != nil {
		return fmt.Errorf("error loading photo %s: %w", photoID, err)
	}

	source, err := codec.Decode(buf)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.photoID = photoID
	s.source = source
	s.output = nil
	s.mu.Unlock()

	return s.Render(ctx)
}

// Select makes a filter active, resetting its parameters to their defaults
func (s *Session) Select(ctx context.Context, filterID string) error {
	d, ok := filter.Lookup(filterID)
	if !ok {
		return fmt.Errorf("%w: unknown filter %q", filter.ErrInvalidParameter, filterID)
	}

	s.mu.Lock()
	s.state.Select(d)
	s.mu.Unlock()

	return s.renderIfLoaded(ctx)
}

// SetParameter sets a normalized parameter value of the active filter
func (s *Session) SetParameter(ctx context.Context, k filter.Kind, value float64) error {
	s.mu.Lock()
	err := s.state.SetParameter(k, value)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	return s.renderIfLoaded(ctx)
}

func (s *Session) renderIfLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.source != nil
	s.mu.Unlock()

	if !loaded {
		return nil
	}

	return s.Render(ctx)
}

// Render applies the current state to the loaded photo
// Starting a render cancels any render still in flight, which then returns ErrSuperseded
// A render is only cancelled by a newer one, not by the caller going away, since the state change it reflects has been applied
func (s *Session) Render(ctx context.Context) error {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return ErrNoImage
	}

	if s.cancel != nil {
		s.cancel()
	}

	s.generation++
	generation := s.generation
	renderCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	source := s.source
	state := s.state.Clone()
	s.mu.Unlock()

	output, err := s.processor.Apply(renderCtx, source, state)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return ErrSuperseded
	}

	cancel()
	s.cancel = nil

	if err != nil {
		s.output = nil
		return err
	}

	s.output = output
	return nil
}

// Output returns the latest rendered image
func (s *Session) Output() (*goimage.NRGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.output, s.output != nil
}

// Snapshot returns the current state of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	parameters := make(map[string]float64)
	for k, v := range s.state.Parameters() {
		parameters[k.String()] = v
	}

	return Snapshot{
		ID:         s.ID,
		PhotoID:    s.photoID,
		Filter:     s.state.Filter().ID,
		Parameters: parameters,
		Visible:    s.state.VisibleParameters().Strings(),
		HasOutput:  s.output != nil,
	}
}

// State returns a copy of the current filter state
func (s *Session) State() *filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// Save encodes the latest output and stores it, returning the storage key
func (s *Session) Save(ctx context.Context, format codec.Format) (string, error) {
	s.mu.Lock()
	source, output := s.source, s.output
	s.mu.Unlock()

	if source == nil {
		return "", ErrNoImage
	}

	if output == nil {
		return "", ErrNoOutput
	}

	buf, err := codec.Encode(output, format)
	if err != nil {
		return "", err
	}

	key := storage.EditKey(uuid.NewString(), format.Extension())
	if err := s.storage.Put(ctx, key, buf); err != nil {
		return "", fmt.Errorf("error saving edit: %w", err)
	}

	return key, nil
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

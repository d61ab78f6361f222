package image

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/twmb/murmur3"
)

// Task is an image processing task
type Task struct {
	PhotoID    string
	Filter     string
	Parameters map[filter.Kind]float64
	Format     codec.Format
}

// NewTask creates a new image processing task from a filter state
func NewTask(photoID string, state *filter.State, format codec.Format) *Task {
	return &Task{
		PhotoID:    photoID,
		Filter:     state.Filter().ID,
		Parameters: state.Parameters(),
		Format:     format,
	}
}

// State rebuilds the filter state the task was created from
func (t *Task) State() (*filter.State, error) {
	d, ok := filter.Lookup(t.Filter)
	if !ok {
		return nil, fmt.Errorf("%w: unknown filter %q", filter.ErrInvalidParameter, t.Filter)
	}

	state := filter.NewState(d)
	for k, v := range t.Parameters {
		if err := state.SetParameter(k, v); err != nil {
			return nil, err
		}
	}

	return state, nil
}

func (t *Task) canonical() string {
	var b strings.Builder
	b.WriteString(t.PhotoID)
	b.WriteByte('/')
	b.WriteString(t.Filter)

	// Kinds are iterated in their declared order so equal tasks serialize equally
	for _, k := range filter.Kinds {
		v, ok := t.Parameters[k]
		if !ok {
			continue
		}

		b.WriteByte('/')
		b.WriteString(k.String())
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}

	b.WriteString(t.Format.Extension())
	return b.String()
}

// Key returns a stable hash identifying the output of the task
func (t *Task) Key() string {
	return strconv.FormatUint(murmur3.StringSum64(t.canonical()), 16)
}

// Filename returns a filename for the output of the task
func (t *Task) Filename() string {
	return fmt.Sprintf("%s-%s%s", t.PhotoID, strings.ToLower(t.Filter), t.Format.Extension())
}

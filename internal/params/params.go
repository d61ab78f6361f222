package params

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/gorilla/mux"
)

// Errors
var (
	ErrInvalidFilter        = fmt.Errorf("%w: unknown filter", filter.ErrInvalidParameter)
	ErrInvalidFileExtension = fmt.Errorf("Invalid file extension")
)

// Params contains all the parameters for a render request
type Params struct {
	PhotoID string
	State   *filter.State
	Format  codec.Format
}

// GetParams parses and validates the path and query parameters of a render request
func GetParams(r *http.Request) (*Params, error) {
	vars := mux.Vars(r)

	d, ok := filter.Lookup(vars["filter"])
	if !ok {
		return nil, ErrInvalidFilter
	}

	format, err := GetFormat(r)
	if err != nil {
		return nil, err
	}

	state := filter.NewState(d)
	if err := SetParameters(state, r.URL.Query()); err != nil {
		return nil, err
	}

	return &Params{
		PhotoID: vars["id"],
		State:   state,
		Format:  format,
	}, nil
}

// GetFormat returns the output format from the optional extension path param
func GetFormat(r *http.Request) (codec.Format, error) {
	format, err := codec.FormatFromExtension(mux.Vars(r)["extension"])
	if err != nil {
		return codec.JPEG, ErrInvalidFileExtension
	}

	return format, nil
}

// SetParameters applies the parameter values present in a query to a state
// Parameters the filter doesn't accept are rejected
func SetParameters(state *filter.State, query url.Values) error {
	for _, k := range filter.Kinds {
		if _, ok := query[k.String()]; !ok {
			continue
		}

		value, err := ParseValue(query.Get(k.String()))
		if err != nil {
			return fmt.Errorf("%w: %s", err, k)
		}

		if err := state.SetParameter(k, value); err != nil {
			return err
		}
	}

	return nil
}

// ParseValue parses a normalized parameter value
func ParseValue(s string) (float64, error) {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", filter.ErrInvalidParameter, s)
	}

	return value, nil
}

// Query returns the query parameters reproducing the values of a state
func Query(state *filter.State) url.Values {
	query := url.Values{}
	for k, v := range state.Parameters() {
		query.Set(k.String(), strconv.FormatFloat(v, 'f', -1, 64))
	}

	return query
}

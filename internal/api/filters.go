package api

import (
	"encoding/json"
	"net/http"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
)

// Filter describes a filter and the parameters it accepts
type Filter struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
}

// Lists the available filters, in display order
func (a *API) filtersHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	descriptors := filter.List()

	filters := make([]Filter, 0, len(descriptors))
	for _, d := range descriptors {
		filters = append(filters, Filter{
			ID:         d.ID,
			Name:       d.Name,
			Parameters: d.Accepts.Strings(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if err := json.NewEncoder(w).Encode(filters); err != nil {
		a.logError(r, "error encoding filter list", err)
		return handler.InternalServerError()
	}

	return nil
}

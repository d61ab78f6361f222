package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/gorilla/mux"
)

const (
	// Default number of items per page
	defaultLimit = 30
	// Max number of items per page
	maxLimit = 100
	// Max page number, keeps the offset of the last page from overflowing
	maxPage = math.MaxInt / maxLimit
)

// Photo contains metadata about a photo and where to get it with the default filter applied
type Photo struct {
	database.Image
	RenderURL string `json:"render_url"`
}

// Returns info about a photo
func (a *API) infoHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	image, err := a.Database.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return a.toHandlerError(r, "error getting photo from database", err)
	}

	photo, err := a.getPhoto(*image)
	if err != nil {
		a.logError(r, "error signing render url", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")

	if err := json.NewEncoder(w).Encode(photo); err != nil {
		a.logError(r, "error encoding photo info", err)
		return handler.InternalServerError()
	}

	return nil
}

// Paginated list, with `page` and `limit` query parameters
func (a *API) listHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	limit := getLimit(r)
	page := getPage(r)

	offset := limit * (page - 1)

	images, err := a.Database.List(r.Context(), offset, limit)
	if err != nil {
		a.logError(r, "error getting photo list from database", err)
		return handler.InternalServerError()
	}

	list := make([]Photo, 0, len(images))
	for _, image := range images {
		photo, err := a.getPhoto(image)
		if err != nil {
			a.logError(r, "error signing render url", err)
			return handler.InternalServerError()
		}

		list = append(list, photo)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")

	// If we've ran out of items, don't include the next page in the Link header
	end := len(list) < limit
	if link := a.getLinkHeader(page, limit, end); link != "" {
		w.Header().Set("Link", link)
	}

	if err := json.NewEncoder(w).Encode(list); err != nil {
		a.logError(r, "error encoding photo list", err)
		return handler.InternalServerError()
	}

	return nil
}

func getLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	return limit
}

func getPage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	if page > maxPage {
		page = maxPage
	}

	return page
}

func (a *API) pageLink(page, limit int, rel string) string {
	return fmt.Sprintf("<%s/v1/photos?page=%d&limit=%d>; rel=\"%s\"", a.RootURL, page, limit, rel)
}

func (a *API) getLinkHeader(page, limit int, end bool) string {
	var links []string
	if page > 1 {
		links = append(links, a.pageLink(page-1, limit, "prev"))
	}

	if !end {
		links = append(links, a.pageLink(page+1, limit, "next"))
	}

	return strings.Join(links, ", ")
}

// getPhoto builds the render url of a photo with the default filter, signing it when a key is configured
func (a *API) getPhoto(image database.Image) (Photo, error) {
	state := filter.NewState(filter.Default())
	path := fmt.Sprintf("/id/%s/%s.jpg", image.ID, state.Filter().ID)
	query := params.Query(state)

	renderPath := path + params.BuildQuery(query)
	if a.HMAC != nil {
		var err error
		if renderPath, err = params.HMAC(a.HMAC, path, query); err != nil {
			return Photo{}, err
		}
	}

	return Photo{
		Image:     image,
		RenderURL: a.RootURL + renderPath,
	}, nil
}

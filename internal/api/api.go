package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/DMarby/instafilter/internal/database"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/tracing"
	"github.com/gorilla/mux"
)

// API is a http api
type API struct {
	Database       database.Provider
	ImageProcessor image.Processor
	Sessions       *session.Store
	HealthChecker  *health.Checker
	Log            *logger.Logger
	Tracer         *tracing.Tracer
	RootURL        string
	HandlerTimeout time.Duration
	HMAC           *hmac.HMAC
}

// Utility methods for logging
func (a *API) logError(r *http.Request, message string, err error) {
	a.Log.Errorw(message, handler.LogFields(r, "error", err)...)
}

// Router returns a http router
func (a *API) Router() http.Handler {
	router := mux.NewRouter()

	router.NotFoundHandler = handler.Handler(a.notFoundHandler)

	// Redirect trailing slashes
	router.StrictSlash(true)

	// Healthcheck
	router.Handle("/health", handler.Health(a.HealthChecker)).Methods("GET")

	// Filters
	router.Handle("/v1/filters", handler.Handler(a.filtersHandler)).Methods("GET")

	// Photo catalog
	router.Handle("/v1/photos", handler.Handler(a.listHandler)).Methods("GET")
	router.Handle("/v1/photos/{id}", handler.Handler(a.infoHandler)).Methods("GET")

	// Query parameters:
	// ?page={page} - What page to display
	// ?limit={limit} - How many entries to display per page

	// Render a photo with a filter
	router.Handle("/id/{id}/{filter:[A-Za-z]+}{extension:(?:\\..*)?}", handler.Handler(a.renderHandler)).Methods("GET")

	// Query parameters:
	// ?intensity={value} - Intensity between 0 and 1
	// ?radius={value} - Radius between 0 and 1
	// ?scale={value} - Scale between 0 and 1
	// ?hmac - HMAC signature of the path and URL parameters, required when a key is configured

	// Editing sessions
	router.Handle("/v1/sessions", handler.Handler(a.createSessionHandler)).Methods("POST")

	sessions := router.PathPrefix("/v1/sessions/{sid}").Subrouter()
	sessions.Handle("", handler.Handler(a.sessionHandler)).Methods("GET")
	sessions.Handle("", handler.Handler(a.deleteSessionHandler)).Methods("DELETE")
	sessions.Handle("/photo/{id}", handler.Handler(a.loadPhotoHandler)).Methods("PUT")
	sessions.Handle("/filter/{filter}", handler.Handler(a.selectFilterHandler)).Methods("PUT")
	sessions.Handle("/parameters/{kind}", handler.Handler(a.setParameterHandler)).Methods("PUT")
	sessions.Handle("/preview{extension:(?:\\..*)?}", handler.Handler(a.previewHandler)).Methods("GET")
	sessions.Handle("/save{extension:(?:\\..*)?}", handler.Handler(a.saveHandler)).Methods("POST")

	routeMatcher := &handler.MuxRouteMatcher{Router: router}

	// Set up handlers for adding a request id, handling panics, request logging, metrics, tracing, setting CORS headers, and handler execution timeout
	return handler.AddRequestID(
		handler.Recovery(a.Log,
			handler.Logger(a.Log,
				handler.Metrics(
					handler.Tracer(a.Tracer,
						handler.CORS([]string{"Link", "ETag", "Location", handler.RequestIDHeader},
							http.TimeoutHandler(router, a.HandlerTimeout, "Something went wrong. Timed out."),
						),
						routeMatcher,
					),
					routeMatcher,
				),
			),
		),
	)
}

// Handle not found errors
var notFoundError = &handler.Error{
	Message: "page not found",
	Code:    http.StatusNotFound,
}

func (a *API) notFoundHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	return notFoundError
}

// toHandlerError maps an error to the response for it, logging unexpected errors
func (a *API) toHandlerError(r *http.Request, message string, err error) *handler.Error {
	switch {
	case errors.Is(err, filter.ErrInvalidParameter), errors.Is(err, params.ErrInvalidFileExtension):
		return handler.BadRequest(err.Error())
	case errors.Is(err, database.ErrNotFound):
		return handler.NotFound(database.ErrNotFound.Error())
	case errors.Is(err, session.ErrNotFound):
		return handler.NotFound(session.ErrNotFound.Error())
	case errors.Is(err, session.ErrNoImage), errors.Is(err, session.ErrNoOutput):
		return handler.Conflict(err.Error())
	default:
		a.logError(r, message, err)
		return handler.InternalServerError()
	}
}

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/DMarby/instafilter/internal/codec"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/params"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/gorilla/mux"
)

// SavedEdit is the response to saving a session's output
type SavedEdit struct {
	Key string `json:"key"`
}

func (a *API) getSession(r *http.Request) (*session.Session, *handler.Error) {
	s, err := a.Sessions.Get(mux.Vars(r)["sid"])
	if err != nil {
		return nil, a.toHandlerError(r, "error getting session", err)
	}

	return s, nil
}

func (a *API) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) *handler.Error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logError(r, "error encoding response", err)
	}

	return nil
}

// changed responds to a state change with the resulting snapshot
// A render superseded by a newer request isn't an error for the caller, its change has been applied
func (a *API) changed(w http.ResponseWriter, r *http.Request, s *session.Session, err error) *handler.Error {
	if err != nil && !errors.Is(err, session.ErrSuperseded) {
		return a.toHandlerError(r, "error updating session", err)
	}

	return a.writeJSON(w, r, http.StatusOK, s.Snapshot())
}

func (a *API) createSessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s := a.Sessions.Create()

	w.Header().Set("Location", fmt.Sprintf("%s/v1/sessions/%s", a.RootURL, s.ID))
	return a.writeJSON(w, r, http.StatusCreated, s.Snapshot())
}

func (a *API) sessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	return a.writeJSON(w, r, http.StatusOK, s.Snapshot())
}

func (a *API) deleteSessionHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if err := a.Sessions.Delete(mux.Vars(r)["sid"]); err != nil {
		return a.toHandlerError(r, "error deleting session", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (a *API) loadPhotoHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	photo, err := a.Database.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return a.toHandlerError(r, "error getting photo from database", err)
	}

	return a.changed(w, r, s, s.Load(r.Context(), photo.ID))
}

func (a *API) selectFilterHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	return a.changed(w, r, s, s.Select(r.Context(), mux.Vars(r)["filter"]))
}

func (a *API) setParameterHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	kind, err := filter.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	value, err := params.ParseValue(r.URL.Query().Get("value"))
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	return a.changed(w, r, s, s.SetParameter(r.Context(), kind, value))
}

func (a *API) outputFormat(r *http.Request) (codec.Format, *handler.Error) {
	format, err := params.GetFormat(r)
	if err != nil {
		return format, handler.BadRequest(err.Error())
	}

	return format, nil
}

func (a *API) previewHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	format, handlerErr := a.outputFormat(r)
	if handlerErr != nil {
		return handlerErr
	}

	output, ok := s.Output()
	if !ok {
		if s.Snapshot().PhotoID == "" {
			return handler.Conflict(session.ErrNoImage.Error())
		}

		return handler.Conflict(session.ErrNoOutput.Error())
	}

	buf, err := codec.Encode(output, format)
	if err != nil {
		a.logError(r, "error encoding preview", err)
		return handler.InternalServerError()
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "private, no-cache, no-store, must-revalidate")
	w.Write(buf)
	return nil
}

func (a *API) saveHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	s, handlerErr := a.getSession(r)
	if handlerErr != nil {
		return handlerErr
	}

	format, handlerErr := a.outputFormat(r)
	if handlerErr != nil {
		return handlerErr
	}

	key, err := s.Save(r.Context(), format)
	if err != nil {
		return a.toHandlerError(r, "error saving session output", err)
	}

	return a.writeJSON(w, r, http.StatusCreated, SavedEdit{Key: key})
}

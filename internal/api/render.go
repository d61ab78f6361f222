package api

import (
	"fmt"
	"net/http"

	"github.com/DMarby/instafilter/internal/handler"
	"github.com/DMarby/instafilter/internal/image"
	"github.com/DMarby/instafilter/internal/params"
)

var invalidParametersError = handler.BadRequest("Invalid parameters")

// Renders a photo with a filter, configured from the query parameters
func (a *API) renderHandler(w http.ResponseWriter, r *http.Request) *handler.Error {
	if a.HMAC != nil {
		valid, err := params.ValidateHMAC(a.HMAC, r)
		if err != nil {
			a.logError(r, "error validating hmac", err)
			return handler.InternalServerError()
		}

		if !valid {
			return invalidParametersError
		}
	}

	// Get the path and query parameters
	p, err := params.GetParams(r)
	if err != nil {
		return handler.BadRequest(err.Error())
	}

	// Make sure the photo exists before queueing any work
	if _, err := a.Database.Get(r.Context(), p.PhotoID); err != nil {
		return a.toHandlerError(r, "error getting photo from database", err)
	}

	task := image.NewTask(p.PhotoID, p.State, p.Format)
	etag := fmt.Sprintf("%q", task.Key())

	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	processedImage, err := a.ImageProcessor.ProcessImage(r.Context(), task)
	if err != nil {
		return a.toHandlerError(r, "error processing image", err)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", task.Filename()))
	w.Header().Set("Content-Type", p.Format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=2592000, immutable") // Cache for a month
	w.Header().Set("ETag", etag)

	w.Write(processedImage)
	return nil
}

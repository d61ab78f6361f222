package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type ctxKeyRequestID int

const requestIDKey ctxKeyRequestID = 0

// RequestIDHeader is the header a request id is read from and returned in
const RequestIDHeader = "X-Request-Id"

// AddRequestID is a handler that assigns each request an id, reusing one set by a proxy in front of us
func AddRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetReqID returns the request id from a context, or an empty string if there is none
func GetReqID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}

	return ""
}

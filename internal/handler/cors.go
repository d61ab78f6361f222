package handler

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS is a handler for setting CORS headers, allowing any origin to use the API
func CORS(exposedHeaders []string, next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: exposedHeaders,
	}).Handler(next)
}

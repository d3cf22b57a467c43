package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS applies the browser origin policy. Preflights are answered here and
// never reach auth.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerIdempotencyKey, requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, headerReplayed, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

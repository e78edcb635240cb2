package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/persibuloi/kamenic/internal/session"
)

// CORS returns middleware that applies the storefront's allowed origin policy.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", session.HeaderName, idempotencyHeader, "X-Requested-With"},
		ExposedHeaders:   []string{session.HeaderName, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

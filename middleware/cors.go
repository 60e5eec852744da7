package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configures the CORS middleware.
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSOptions returns a permissive configuration suitable for
// development. Production services should narrow AllowedOrigins.
func DefaultCORSOptions() CORSOptions {
	return CORSOptions{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         10 * time.Minute,
	}
}

// CORS returns a middleware that handles cross-origin requests according to
// opts. Requests without an Origin header pass through untouched; requests
// from a disallowed origin are rejected with 403.
//
// This middleware is NOT part of the default stack and must be explicitly
// added for services serving browser clients.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			setVaryHeaders(w.Header())

			if !originAllowed(origin, opts.AllowedOrigins) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			allowOrigin := originHeaderValue(origin, opts.AllowedOrigins)
			if opts.AllowCredentials && allowOrigin == "*" {
				// Wildcard is invalid alongside credentials; echo the caller.
				allowOrigin = origin
			}
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)

			if opts.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if opts.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(int(opts.MaxAge.Seconds())))
			}
			if len(opts.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(opts.ExposedHeaders, ", "))
			}

			if r.Method == http.MethodOptions {
				if len(opts.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(opts.AllowedMethods, ", "))
				}
				if len(opts.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(opts.AllowedHeaders, ", "))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(candidate, origin) {
			return true
		}
	}
	return false
}

// originHeaderValue picks the Access-Control-Allow-Origin value: the wildcard
// when configured, otherwise the request origin as the caller sent it.
func originHeaderValue(origin string, allowed []string) string {
	for _, candidate := range allowed {
		if candidate == "*" {
			return "*"
		}
	}
	return origin
}

var varyHeaders = []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}

func setVaryHeaders(h http.Header) {
	existing := h.Values("Vary")
	for _, name := range varyHeaders {
		found := false
		for _, v := range existing {
			if strings.EqualFold(v, name) {
				found = true
				break
			}
		}
		if !found {
			h.Add("Vary", name)
		}
	}
}

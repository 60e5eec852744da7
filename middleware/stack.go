package middleware

import (
	"net/http"
	"time"

	"github.com/aquamarinepk/dax"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// StackOptions configures the default middleware bundle.
type StackOptions struct {
	Logger              dax.Logger
	Timeout             time.Duration
	CompressLevel       int
	AllowedContentTypes []string
}

// DefaultStack wires the recommended middleware order for dax services.
func DefaultStack(opts StackOptions) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RequestID(),
		RealIP(),
		Compress(opts.CompressLevel),
		Recoverer(),
		Timeout(opts.Timeout),
		RequestLogger(opts.Logger),
		AllowContentType(opts.AllowedContentTypes...),
	}
}

// RequestID ensures every request carries a correlation identifier.
func RequestID() func(http.Handler) http.Handler {
	return dax.RequestIDMiddleware
}

// RealIP resolves the actual remote IP when behind proxies/load balancers.
func RealIP() func(http.Handler) http.Handler {
	return chimiddleware.RealIP
}

// Compress enables gzip compression.
func Compress(level int) func(http.Handler) http.Handler {
	if level <= 0 {
		level = 5
	}
	return chimiddleware.Compress(level)
}

// Recoverer prevents panics from tearing down the server.
func Recoverer() func(http.Handler) http.Handler {
	return chimiddleware.Recoverer
}

// Timeout aborts requests that exceed the configured duration.
func Timeout(duration time.Duration) func(http.Handler) http.Handler {
	if duration <= 0 {
		duration = 60 * time.Second
	}
	return chimiddleware.Timeout(duration)
}

// RequestLogger emits structured request lifecycle logs.
func RequestLogger(logger dax.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = dax.NewNoopLogger()
	}
	return dax.NewRequestLogger(logger)
}

// AllowContentType gate-keeps supported media types.
func AllowContentType(types ...string) func(http.Handler) http.Handler {
	if len(types) == 0 {
		types = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}
	}
	return chimiddleware.AllowContentType(types...)
}

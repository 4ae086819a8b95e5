// Package svcctx provides service context for dependency injection via context.
// Kept free of pipeline imports so every layer can extract the logger without cycles.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/docgraph/docgraph/internal/config"
)

// Services holds cross-cutting services that flow through context.
type Services struct {
	Logger *slog.Logger
	Config *config.Manager
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// LoggerFrom extracts the logger from context.
// Returns slog.Default() if no services are attached, so callers can log unconditionally.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

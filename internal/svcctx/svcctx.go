// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/aicsr/concierge/internal/assistant"
	"github.com/aicsr/concierge/internal/config"
	"github.com/aicsr/concierge/internal/finetune"
	"github.com/aicsr/concierge/internal/home"
	"github.com/aicsr/concierge/internal/speech"
	"github.com/aicsr/concierge/internal/store"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Sessions  *assistant.Sessions
	FineTune  *finetune.Service
	Jobs      *store.Store
	Speaker   *speech.Speaker
	ConfigMgr *config.Manager
	Logger    *slog.Logger
	Home      *home.Dir
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

// SessionsFrom extracts the assistant session pool from context.
func SessionsFrom(ctx context.Context) *assistant.Sessions {
	if s := ServicesFrom(ctx); s != nil {
		return s.Sessions
	}
	return nil
}

// FineTuneFrom extracts the fine-tuning service from context.
func FineTuneFrom(ctx context.Context) *finetune.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.FineTune
	}
	return nil
}

// JobsFrom extracts the job store from context.
func JobsFrom(ctx context.Context) *store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Jobs
	}
	return nil
}

// SpeakerFrom extracts the speech service from context.
func SpeakerFrom(ctx context.Context) *speech.Speaker {
	if s := ServicesFrom(ctx); s != nil {
		return s.Speaker
	}
	return nil
}

// LoggerFrom extracts the logger from context, falling back to slog.Default.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil && s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// ConfigFrom extracts the current configuration from context.
func ConfigFrom(ctx context.Context) *config.Config {
	if s := ServicesFrom(ctx); s != nil && s.ConfigMgr != nil {
		return s.ConfigMgr.Get()
	}
	return nil
}

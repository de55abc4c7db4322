package critique

import (
	"context"
	"io"
	"log/slog"
)

// Backend names accepted by New.
const (
	BackendVertex = "vertex"
	BackendHTTP   = "http"
	BackendNone   = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Vertex  VertexConfig
	HTTP    HTTPConfig
}

// New builds the configured critic. Setup failures never abort a run: they
// are logged and a Disabled critic carrying the reason is returned, so each
// slide is recorded as skipped.
func New(ctx context.Context, cfg Config) Critic {
	var (
		c   Critic
		err error
	)
	switch cfg.Backend {
	case BackendVertex:
		c, err = NewVertex(ctx, cfg.Vertex)
	case BackendHTTP:
		c, err = NewHTTP(cfg.HTTP)
	case BackendNone, "":
		return Disabled{Reason: "critique backend disabled"}
	default:
		return Disabled{Reason: "unknown critique backend " + cfg.Backend}
	}
	if err != nil {
		slog.Warn("Visual critique unavailable; slides will be marked skipped", "backend", cfg.Backend, "error", err)
		return Disabled{Reason: err.Error()}
	}
	return c
}

// Close releases c if it holds resources.
func Close(c Critic) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

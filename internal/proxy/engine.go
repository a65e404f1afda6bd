// Package proxy implements the Proxy Engine: the orchestrator that
// auth-checks, classifies, resolves, transforms requests, dispatches to
// upstream, wires the response pipeline, extracts usage, and finalizes the
// request log.
package proxy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aicodeswitch/aicodeswitch/internal/config"
	"github.com/aicodeswitch/aicodeswitch/internal/reqlog"
)

// Engine is the Proxy Engine. It holds the config Manager (for the current
// snapshot) and the log Sink; it is stateless otherwise and safe for
// concurrent use across requests.
type Engine struct {
	configMgr *config.Manager
	sink      reqlog.Sink
	logger    *slog.Logger
	client    *http.Client
}

// New constructs an Engine.
func New(configMgr *config.Manager, sink reqlog.Sink, logger *slog.Logger) *Engine {
	return &Engine{
		configMgr: configMgr,
		sink:      sink,
		logger:    logger,
		client:    &http.Client{},
	}
}

// Reload rebuilds the config snapshot from the Store and swaps it in.
// In-flight requests keep using the snapshot they resolved against.
func (e *Engine) Reload(ctx context.Context) error {
	return e.configMgr.Reload(ctx)
}

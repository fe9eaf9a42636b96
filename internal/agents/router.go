package agents

import (
	"context"
	"log/slog"

	"github.com/janssja/happy2align/internal/dialogue"
	"github.com/janssja/happy2align/internal/gateway"
	"github.com/janssja/happy2align/internal/templates"
)

// Router decides whether a turn continues requirement collection or
// edits the workflow.
type Router struct {
	base
}

// NewRouter creates a Router.
func NewRouter(gw gateway.Completer, r templates.Renderer, logger *slog.Logger) *Router {
	return &Router{base: newBase(gw, r, logger)}
}

// Route classifies message. Gateway failures and unrecognized output
// resolve to dialogue.DefaultRoute(hasWorkflow).
func (r *Router) Route(ctx context.Context, message string, hasWorkflow bool) dialogue.Route {
	out, err := r.complete(ctx, templates.Router, templates.RouterData{Message: message, HasWorkflow: hasWorkflow})
	if err != nil {
		route := dialogue.DefaultRoute(hasWorkflow)
		r.logger.Warn("router unavailable, using default route", "route", route, "error", err)
		return route
	}

	route, ok := dialogue.ParseRoute(out, hasWorkflow)
	if !ok {
		r.logger.Warn("router returned unknown label, using default route", "route", route, "output", out)
	}
	return route
}

package logger

import (
	"context"
	"log/slog"

	"pdfstream/internal/middleware"
)

// ContextHandler stamps the correlation ID carried in the context onto every
// record, so worker and HTTP logs for the same job line up.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(middleware.CorrelationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

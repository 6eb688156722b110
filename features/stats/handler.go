package stats

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"pdfstream/internal/middleware"
	"pdfstream/internal/queue"
)

type JobCounter interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
}

type Handler struct {
	counter JobCounter
}

func NewHandler(c JobCounter) *Handler {
	return &Handler{counter: c}
}

type StatsResponse struct {
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Retrying   int `json:"retrying"`
	Dead       int `json:"dead"`
	Total      int `json:"total"`
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "getting stats", "correlationId", correlationID)

	counts, err := h.counter.CountByStatus(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to count jobs", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to count jobs", http.StatusInternalServerError)
		return
	}

	resp := StatsResponse{
		Pending:    counts[queue.StatusPending],
		InProgress: counts[queue.StatusInProgress],
		Completed:  counts[queue.StatusCompleted],
		Retrying:   counts[queue.StatusFailedRetryable],
		Dead:       counts[queue.StatusDead],
	}
	resp.Total = resp.Pending + resp.InProgress + resp.Completed + resp.Retrying + resp.Dead

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": resp}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

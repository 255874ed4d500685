package pnl

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler serves P&L reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the report handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/pnl", h.handlePnL)
}

func (h *Handler) handlePnL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := journal.ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	summary, err := h.service.Compute(r.Context(), rng)
	if err != nil {
		h.logger.Error("compute pnl", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="pnl-`+rng.Key()+`.csv"`)
		if err := WriteCSV(w, summary); err != nil {
			h.logger.Error("write pnl csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

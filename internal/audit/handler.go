package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

const (
	defaultWindow = 7 * 24 * time.Hour
	maxWindowDays = 90
)

// Handler serves the audit timeline.
type Handler struct {
	logger  *slog.Logger
	service *Service
	now     func() time.Time
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit", h.handleTimeline)
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, fields := h.parseFilters(r)
	if len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		entries, err := h.service.Export(r.Context(), filters)
		if err != nil {
			h.logger.Error("export audit timeline", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="audit.csv"`)
		if err := WriteCSV(w, entries); err != nil {
			h.logger.Error("write audit csv", slog.Any("error", err))
		}
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

// parseFilters reads the calendar window and paging. Without bounds the last seven days are shown.
func (h *Handler) parseFilters(r *http.Request) (Filters, map[string]string) {
	q := r.URL.Query()
	fields := map[string]string{}
	filters := Filters{Entity: q.Get("entity"), Action: q.Get("action")}

	rng, err := journal.ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		fields["range"] = err.Error()
		return filters, fields
	}
	if rng.IsUnbounded() {
		today := journal.Day(h.now().UTC())
		rng.From = today.Add(-defaultWindow)
		rng.To = today
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Sub(rng.From) > maxWindowDays*24*time.Hour {
		fields["range"] = "must not exceed 90 days"
	}
	filters.From = rng.From
	if !rng.To.IsZero() {
		filters.To = rng.To.AddDate(0, 0, 1)
	}

	if filters.Page, err = intParam(q.Get("page")); err != nil {
		fields["page"] = "must be a positive integer"
	}
	if filters.PageSize, err = intParam(q.Get("page_size")); err != nil {
		fields["page_size"] = "must be a positive integer"
	}
	return filters, fields
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

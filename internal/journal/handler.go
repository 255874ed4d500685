package journal

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler exposes journal records over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs the journal handler.
func NewHandler(logger *slog.Logger, service *Service, validator *httpx.Validator) *Handler {
	if validator == nil {
		validator = httpx.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchases", h.handlePurchases)
	r.Get("/sales", h.handleSales)
	r.Get("/other-entries", h.handleOthers)
	r.Post("/other-entries", h.handleRecordOther)
}

type otherRequest struct {
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Kind     string          `json:"kind" validate:"required,oneof=revenue expense"`
	Category string          `json:"category" validate:"required,max=100"`
	Amount   decimal.Decimal `json:"amount"`
	Note     string          `json:"note" validate:"max=500"`
}

func (h *Handler) handleRecordOther(w http.ResponseWriter, r *http.Request) {
	var req otherRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return
	}
	if fields := h.validator.Struct(req); len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return
	}
	date, err := ParseDate(req.Date)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"date": "is invalid"})
		return
	}
	entry, err := h.service.RecordOther(r.Context(), OtherInput{
		Date:     date,
		Kind:     EntryKind(req.Kind),
		Category: req.Category,
		Amount:   req.Amount,
		Note:     req.Note,
	})
	if err != nil {
		h.fail(w, "record other entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) handlePurchases(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeFrom(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Purchases(r.Context(), rng)
	if err != nil {
		h.fail(w, "list purchases", err)
		return
	}
	if wantsCSV(r) {
		h.csv(w, "purchases-"+rng.Key(), func(out io.Writer) error {
			return WritePurchasesCSV(out, rows, h.service.Currency())
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": rows})
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeFrom(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Sales(r.Context(), rng)
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	if wantsCSV(r) {
		h.csv(w, "sales-"+rng.Key(), func(out io.Writer) error {
			return WriteSalesCSV(out, rows, h.service.Currency())
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"sales": rows})
}

func (h *Handler) handleOthers(w http.ResponseWriter, r *http.Request) {
	rng, ok := h.rangeFrom(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Others(r.Context(), rng)
	if err != nil {
		h.fail(w, "list other entries", err)
		return
	}
	if wantsCSV(r) {
		h.csv(w, "other-entries-"+rng.Key(), func(out io.Writer) error {
			return WriteOthersCSV(out, rows, h.service.Currency())
		})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"other_entries": rows})
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func (h *Handler) csv(w http.ResponseWriter, name string, write func(io.Writer) error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.csv"`)
	if err := write(w); err != nil {
		h.logger.Error("write csv", slog.String("report", name), slog.Any("error", err))
	}
}

func (h *Handler) rangeFrom(w http.ResponseWriter, r *http.Request) (Range, bool) {
	q := r.URL.Query()
	rng, err := ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		httpx.RespondError(w, err)
		return Range{}, false
	}
	return rng, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *httpx.Validator
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, validator *httpx.Validator) *Handler {
	if validator == nil {
		validator = httpx.NewValidator()
	}
	return &Handler{logger: logger, service: service, validator: validator}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products", h.handleRegister)
	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)
	r.Get("/inventory/valuation", h.handleValuation)
	r.Post("/purchases", h.handlePurchase)
	r.Post("/sales", h.handleSale)
}

type registerRequest struct {
	SKU  string `json:"sku" validate:"required,max=64"`
	Name string `json:"name" validate:"max=200"`
}

type purchaseRequest struct {
	ProductID int64               `json:"product_id" validate:"required,gt=0"`
	Date      string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Qty       decimal.Decimal     `json:"qty"`
	UnitCost  decimal.Decimal     `json:"unit_cost"`
	Currency  string              `json:"currency" validate:"max=8"`
	Rate      decimal.NullDecimal `json:"rate"`
	Note      string              `json:"note" validate:"max=500"`
	Ref       string              `json:"ref" validate:"omitempty,uuid"`
}

type saleRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Date      string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      string          `json:"note" validate:"max=500"`
	Ref       string          `json:"ref" validate:"omitempty,uuid"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}
	product, err := h.service.RegisterProduct(r.Context(), RegisterInput{SKU: req.SKU, Name: req.Name})
	if err != nil {
		h.fail(w, "register product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"id": "is invalid"})
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Valuation(r.Context())
	if err != nil {
		h.fail(w, "inventory valuation", err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="valuation.csv"`)
		if err := WriteValuationCSV(w, report); err != nil {
			h.logger.Error("write valuation csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := journal.ParseDate(req.Date)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"date": "is invalid"})
		return
	}
	result, err := h.service.RecordPurchase(r.Context(), PurchaseInput{
		ProductID: req.ProductID,
		Date:      date,
		Qty:       req.Qty,
		UnitCost:  req.UnitCost,
		Currency:  req.Currency,
		Rate:      req.Rate,
		Note:      req.Note,
		Ref:       req.Ref,
	})
	if err != nil {
		h.fail(w, "record purchase", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := journal.ParseDate(req.Date)
	if err != nil {
		httpx.ValidationProblem(w, map[string]string{"date": "is invalid"})
		return
	}
	result, err := h.service.RecordSale(r.Context(), SaleInput{
		ProductID: req.ProductID,
		Date:      date,
		Qty:       req.Qty,
		UnitPrice: req.UnitPrice,
		Note:      req.Note,
		Ref:       req.Ref,
	})
	if err != nil {
		h.fail(w, "record sale", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return false
	}
	if fields := h.validator.Struct(target); len(fields) > 0 {
		httpx.ValidationProblem(w, fields)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if status, _ := httpx.StatusFor(err); status == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/fx"
	"github.com/odyssey-erp/odyssey-pos/internal/journal"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort claims request references so replays are refused.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort observes ledger outcomes.
type MetricsPort interface {
	ObserveLedger(operation, outcome string)
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	converter   *fx.Converter
	audit       AuditPort
	idempotency IdempotencyPort
	integration IntegrationHandler
	metrics     MetricsPort
	logger      *slog.Logger
	locks       *shared.KeyedMutex
	now         func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Logger  *slog.Logger
	Metrics MetricsPort
	Now     func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, converter *fx.Converter, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig, integration IntegrationHandler) *Service {
	if converter == nil {
		converter = fx.NewConverter(fx.DefaultPolicy())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:        repo,
		converter:   converter,
		audit:       audit,
		idempotency: idem,
		integration: integration,
		metrics:     cfg.Metrics,
		logger:      logger,
		locks:       shared.NewKeyedMutex(),
		now:         now,
	}
}

// BaseCurrency is the currency every cost is normalised into.
func (s *Service) BaseCurrency() string {
	return s.converter.BaseCurrency()
}

// RegisterProduct creates a product with zero stock and zero average cost.
func (s *Service) RegisterProduct(ctx context.Context, input RegisterInput) (Product, error) {
	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		return Product{}, ErrInvalidSKU
	}
	p, err := s.repo.CreateProduct(ctx, Product{SKU: sku, Name: strings.TrimSpace(input.Name)})
	if err != nil {
		s.observe("register", err)
		return Product{}, err
	}
	s.observe("register", nil)
	s.record(ctx, 0, "inventory:register", "product", p.ID, map[string]any{"sku": p.SKU, "name": p.Name})
	return p, nil
}

// GetProduct loads a product by ID.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns every product ordered by name.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	return s.repo.ListProducts(ctx)
}

// Valuation values every product at quantity times average cost.
func (s *Service) Valuation(ctx context.Context) (Valuation, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Valuation{}, err
	}
	report := Valuation{Currency: s.BaseCurrency(), Lines: make([]ValuationLine, 0, len(products)), Total: decimal.Zero}
	for _, p := range products {
		value := p.Value()
		report.Lines = append(report.Lines, ValuationLine{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Qty:       p.Qty,
			AvgCost:   p.AvgCost,
			Value:     value,
		})
		report.Total = report.Total.Add(value)
	}
	return report, nil
}

// RecordPurchase adds stock and blends its base-currency cost into the weighted average.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (PurchaseResult, error) {
	if input.ProductID <= 0 {
		return PurchaseResult{}, ErrProductNotFound
	}
	if !input.Qty.IsPositive() {
		return PurchaseResult{}, ErrInvalidQuantity
	}
	conv, err := s.converter.ToBase(input.UnitCost, input.Currency, input.Rate)
	if err != nil {
		return PurchaseResult{}, err
	}
	if err := validateRef(input.Ref); err != nil {
		return PurchaseResult{}, err
	}
	release, err := s.claim(ctx, PostingPurchase, input.Ref)
	if err != nil {
		return PurchaseResult{}, err
	}

	purchase := journal.PurchaseTransaction{
		ProductID:    input.ProductID,
		Date:         s.day(input.Date),
		Qty:          input.Qty,
		UnitCost:     conv.UnitCost,
		Currency:     conv.Currency,
		Rate:         conv.Rate,
		UnitCostBase: conv.UnitCostBase,
		TotalBase:    conv.UnitCostBase.Mul(input.Qty),
		Note:         strings.TrimSpace(input.Note),
		Ref:          input.Ref,
	}
	var product Product

	err = s.withProductTx(ctx, input.ProductID, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		product = applyPurchase(current, input.Qty, conv.UnitCostBase)
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return fmt.Errorf("inventory: insert purchase: %w", err)
		}
		purchase.ID = id
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		release()
		s.observe("purchase", err)
		return PurchaseResult{}, err
	}
	s.observe("purchase", nil)

	s.record(ctx, input.ActorID, "inventory:purchase", "purchase", purchase.ID, map[string]any{
		"product_id": input.ProductID,
		"qty":        purchase.Qty.String(),
		"unit_cost":  purchase.UnitCostBase.String(),
		"currency":   purchase.Currency,
		"avg_cost":   product.AvgCost.String(),
	})
	s.notify(ctx, PostedEvent{
		Kind:          PostingPurchase,
		TransactionID: purchase.ID,
		ProductID:     input.ProductID,
		Date:          purchase.Date,
		Qty:           purchase.Qty.String(),
		Amount:        purchase.TotalBase.String(),
		AvgCost:       product.AvgCost.String(),
	})
	return PurchaseResult{Purchase: purchase, Product: product}, nil
}

// RecordSale removes stock at the current average cost. The average itself is left untouched.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (SaleResult, error) {
	if input.ProductID <= 0 {
		return SaleResult{}, ErrProductNotFound
	}
	if !input.Qty.IsPositive() {
		return SaleResult{}, ErrInvalidQuantity
	}
	if input.UnitPrice.IsNegative() {
		return SaleResult{}, ErrInvalidPrice
	}
	if err := validateRef(input.Ref); err != nil {
		return SaleResult{}, err
	}
	release, err := s.claim(ctx, PostingSale, input.Ref)
	if err != nil {
		return SaleResult{}, err
	}

	sale := journal.SaleTransaction{
		ProductID: input.ProductID,
		Date:      s.day(input.Date),
		Qty:       input.Qty,
		UnitPrice: input.UnitPrice,
		Revenue:   input.UnitPrice.Mul(input.Qty),
		Note:      strings.TrimSpace(input.Note),
		Ref:       input.Ref,
	}
	var product Product

	err = s.withProductTx(ctx, input.ProductID, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetProductForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		next, cogs, err := applySale(current, input.Qty)
		if err != nil {
			return err
		}
		product = next
		sale.COGS = cogs
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return fmt.Errorf("inventory: insert sale: %w", err)
		}
		sale.ID = id
		return tx.UpdateProduct(ctx, product)
	})
	if err != nil {
		release()
		s.observe("sale", err)
		return SaleResult{}, err
	}
	s.observe("sale", nil)

	s.record(ctx, input.ActorID, "inventory:sale", "sale", sale.ID, map[string]any{
		"product_id": input.ProductID,
		"qty":        sale.Qty.String(),
		"revenue":    sale.Revenue.String(),
		"cogs":       sale.COGS.String(),
	})
	s.notify(ctx, PostedEvent{
		Kind:          PostingSale,
		TransactionID: sale.ID,
		ProductID:     input.ProductID,
		Date:          sale.Date,
		Qty:           sale.Qty.String(),
		Amount:        sale.Revenue.String(),
		AvgCost:       product.AvgCost.String(),
	})
	return SaleResult{Sale: sale, Product: product}, nil
}

// withProductTx runs fn in a unit of work while holding the product's lock.
func (s *Service) withProductTx(ctx context.Context, productID int64, fn func(context.Context, TxRepository) error) error {
	unlock := s.locks.Lock(productID)
	defer unlock()
	return s.repo.WithTx(ctx, fn)
}

// applyPurchase returns p after receiving qty units at base cost unitCost.
func applyPurchase(p Product, qty, unitCost decimal.Decimal) Product {
	newQty := p.Qty.Add(qty)
	if newQty.IsPositive() {
		p.AvgCost = p.Qty.Mul(p.AvgCost).Add(qty.Mul(unitCost)).Div(newQty)
	} else {
		p.AvgCost = decimal.Zero
	}
	p.Qty = newQty
	return p
}

// applySale returns p after issuing qty units together with the cost of goods sold.
func applySale(p Product, qty decimal.Decimal) (Product, decimal.Decimal, error) {
	if qty.GreaterThan(p.Qty.Add(StockEpsilon)) {
		return Product{}, decimal.Zero, &InsufficientStockError{ProductID: p.ID, Requested: qty, Available: p.Qty}
	}
	cogs := p.AvgCost.Mul(qty)
	p.Qty = p.Qty.Sub(qty)
	if p.Qty.IsNegative() {
		p.Qty = decimal.Zero
	}
	return p, cogs, nil
}

func validateRef(ref string) error {
	if ref == "" {
		return nil
	}
	if _, err := uuid.Parse(ref); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRef, err)
	}
	return nil
}

// claim reserves the idempotency key for ref and returns its release function.
func (s *Service) claim(ctx context.Context, kind PostingKind, ref string) (func(), error) {
	if s.idempotency == nil || ref == "" {
		return func() {}, nil
	}
	key := fmt.Sprintf("%s:%s", kind, ref)
	if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
		return nil, err
	}
	return func() {
		if err := s.idempotency.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

func (s *Service) day(t time.Time) time.Time {
	if t.IsZero() {
		return journal.Day(s.now().UTC())
	}
	return journal.Day(t)
}

func (s *Service) record(ctx context.Context, actor int64, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, evt PostedEvent) {
	if s.integration == nil {
		return
	}
	if err := s.integration.HandleInventoryPosted(ctx, evt); err != nil {
		s.logger.Warn("inventory integration hook",
			slog.String("kind", string(evt.Kind)),
			slog.Int64("transaction_id", evt.TransactionID),
			slog.Any("error", err))
	}
}

func (s *Service) observe(operation string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveLedger(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, shared.ErrNotFound):
		return "not_found"
	case errors.Is(err, shared.ErrConflict):
		return "conflict"
	case errors.Is(err, shared.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

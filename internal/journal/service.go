package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records other entries and answers journal queries.
type Service struct {
	store       Store
	products    ProductDirectory
	currency    string
	audit       AuditPort
	integration IntegrationHandler
	logger      *slog.Logger
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	// Products labels purchase and sale rows. Without it SKU and name stay blank.
	Products ProductDirectory
	// Currency names the base-currency columns of CSV reports.
	Currency string
	Logger   *slog.Logger
}

// NewService builds Service. audit and integration may be nil.
func NewService(store Store, audit AuditPort, integration IntegrationHandler, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		products:    cfg.Products,
		currency:    cfg.Currency,
		audit:       audit,
		integration: integration,
		logger:      logger,
	}
}

// Currency is the base currency the report amounts are expressed in.
func (s *Service) Currency() string {
	return s.currency
}

// RecordOther validates and appends a non-inventory revenue or expense.
func (s *Service) RecordOther(ctx context.Context, input OtherInput) (OtherEntry, error) {
	kind := EntryKind(strings.ToLower(strings.TrimSpace(string(input.Kind))))
	if !kind.Valid() {
		return OtherEntry{}, ErrInvalidKind
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return OtherEntry{}, ErrInvalidCategory
	}
	if input.Amount.IsNegative() {
		return OtherEntry{}, ErrInvalidAmount
	}
	date := input.Date
	if date.IsZero() {
		date = Today()
	}
	entry := OtherEntry{
		Date:     Day(date),
		Kind:     kind,
		Category: category,
		Amount:   input.Amount,
		Note:     strings.TrimSpace(input.Note),
	}
	id, err := s.store.InsertOther(ctx, entry)
	if err != nil {
		return OtherEntry{}, fmt.Errorf("journal: insert other entry: %w", err)
	}
	entry.ID = id

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Action:   "journal:other",
			Entity:   "other_entry",
			EntityID: fmt.Sprintf("%d", id),
			Meta: map[string]any{
				"kind":     string(kind),
				"category": category,
				"amount":   entry.Amount.String(),
			},
		}); err != nil {
			s.logger.Warn("audit other entry", slog.Any("error", err))
		}
	}
	if s.integration != nil {
		evt := EntryRecordedEvent{ID: id, Date: entry.Date, Kind: kind, Amount: entry.Amount.String()}
		if err := s.integration.HandleEntryRecorded(ctx, evt); err != nil {
			s.logger.Warn("journal integration hook", slog.Int64("entry_id", id), slog.Any("error", err))
		}
	}
	return entry, nil
}

// Purchases lists purchase records in range, newest first, labelled with their product.
func (s *Service) Purchases(ctx context.Context, r Range) ([]PurchaseLine, error) {
	rows, err := s.store.ListPurchases(ctx, r)
	if err != nil {
		return nil, err
	}
	labels, err := s.labels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseLine, 0, len(rows))
	for _, p := range rows {
		label := labels[p.ProductID]
		out = append(out, PurchaseLine{PurchaseTransaction: p, SKU: label.SKU, Name: label.Name})
	}
	return out, nil
}

// Sales lists sale records in range, newest first, labelled with their product.
func (s *Service) Sales(ctx context.Context, r Range) ([]SaleLine, error) {
	rows, err := s.store.ListSales(ctx, r)
	if err != nil {
		return nil, err
	}
	labels, err := s.labels(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SaleLine, 0, len(rows))
	for _, sale := range rows {
		label := labels[sale.ProductID]
		out = append(out, SaleLine{SaleTransaction: sale, SKU: label.SKU, Name: label.Name})
	}
	return out, nil
}

// Others lists other entries in range, newest first.
func (s *Service) Others(ctx context.Context, r Range) ([]OtherEntry, error) {
	return s.store.ListOthers(ctx, r)
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erp-backend/internal/model"
	"erp-backend/internal/money"
	"erp-backend/internal/repository"
	ws "erp-backend/internal/websocket"
	"erp-backend/pkg/apperror"
)

// LineItemRequest is the shared shape of a document line in create requests.
// Quantity and prices arrive as decimal strings or numbers.
type LineItemRequest struct {
	ProductID       string          `json:"product_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
}

// Notifier pushes document events to connected clients. The websocket hub
// satisfies it; tests plug in a recorder.
type Notifier interface {
	PublishDocumentEvent(ev ws.DocumentEvent)
}

// noopNotifier is used when no hub is wired, e.g. in the reconciliation sweep.
type noopNotifier struct{}

func (noopNotifier) PublishDocumentEvent(ws.DocumentEvent) {}

// notFound translates gorm's record-not-found into the API error kind.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Newf(apperror.KindNotFound, "%s not found", what)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation(field, "must be a valid uuid")
	}
	return id, nil
}

func parseActor(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

// resolveLines validates the request lines, looks up the referenced products
// and produces both the priced model lines and the pricing inputs for
// aggregation. A zero unit price on the request falls back to the product's
// list price.
func resolveLines(ctx context.Context, productRepo repository.ProductRepository, items []LineItemRequest) ([]model.LineItem, []money.Line, error) {
	if len(items) == 0 {
		return nil, nil, apperror.Validation("items", "at least one line item is required")
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		id, err := parseID(item.ProductID, "product_id")
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
	}

	products, err := productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	modelItems := make([]model.LineItem, 0, len(items))
	lines := make([]money.Line, 0, len(items))
	for i, item := range items {
		product, ok := byID[ids[i]]
		if !ok {
			return nil, nil, apperror.Newf(apperror.KindNotFound, "product %s not found", item.ProductID)
		}
		if !product.IsActive {
			return nil, nil, apperror.Validation("product_id", fmt.Sprintf("product %s is inactive", product.SKU))
		}

		unitPrice := item.UnitPrice
		if unitPrice.IsZero() {
			unitPrice = product.UnitPrice
		}

		line := money.Line{
			Quantity:        item.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			TaxRate:         item.TaxRate,
		}
		if err := money.ValidateLine(line); err != nil {
			return nil, nil, err
		}

		modelItems = append(modelItems, model.LineItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        item.Quantity,
			UnitPrice:       unitPrice,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			TaxRate:         item.TaxRate,
			LineTotal:       money.LineTotal(line),
		})
		lines = append(lines, line)
	}
	return modelItems, lines, nil
}

// copyLines re-prices existing document lines, used by conversions that carry
// lines from the source document.
func copyLines(items []model.LineItem) ([]model.LineItem, []money.Line) {
	copied := make([]model.LineItem, 0, len(items))
	lines := make([]money.Line, 0, len(items))
	for _, item := range items {
		line := money.Line{
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			TaxRate:         item.TaxRate,
		}
		copied = append(copied, model.LineItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			DiscountAmount:  item.DiscountAmount,
			TaxRate:         item.TaxRate,
			LineTotal:       money.LineTotal(line),
		})
		lines = append(lines, line)
	}
	return copied, lines
}

// applyTotals recomputes and stores the header totals from the pricing lines.
func applyTotals(h *model.DocumentHeader, lines []money.Line, discountPercent, shippingCost decimal.Decimal) error {
	totals, err := money.Aggregate(lines, discountPercent, shippingCost)
	if err != nil {
		return err
	}
	h.DiscountPercent = discountPercent
	h.DiscountAmount = totals.DiscountAmount
	h.Subtotal = totals.Subtotal
	h.TaxAmount = totals.TaxAmount
	h.ShippingCost = money.Round(shippingCost)
	h.TotalAmount = totals.TotalAmount
	return nil
}

// writeAudit records one audit entry inside the caller's transaction.
func writeAudit(ctx context.Context, auditRepo repository.AuditRepository, userID *uuid.UUID, action, entityType, entityID string, details any) error {
	payload, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    string(payload),
	}
	if err := auditRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

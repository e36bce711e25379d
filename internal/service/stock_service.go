package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"erp-backend/internal/model"
	"erp-backend/internal/repository"
	"erp-backend/pkg/apperror"
	"erp-backend/pkg/logger"
)

// AvailableStock reports the sellable quantity of a product at a warehouse:
// the cached on-hand amount minus quantities reserved by draft outbound
// documents.
type AvailableStock struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Pending     decimal.Decimal `json:"pending_outflow"`
	Available   decimal.Decimal `json:"available"`
}

// StockRecomputeResult compares the cached quantity against the sum of the
// movement history.
type StockRecomputeResult struct {
	WarehouseID string          `json:"warehouse_id"`
	ProductID   string          `json:"product_id"`
	Cached      decimal.Decimal `json:"cached"`
	Computed    decimal.Decimal `json:"computed"`
	Mismatch    bool            `json:"mismatch"`
	Repaired    bool            `json:"repaired"`
}

type StockService interface {
	// Receive, Issue and ReturnIn are called inside a document transaction,
	// never directly from handlers. Each locks the stock row, writes the
	// movement and updates the cache in one step.
	Receive(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID *uuid.UUID, userID *uuid.UUID) error
	Issue(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID *uuid.UUID, userID *uuid.UUID) error
	ReturnIn(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID *uuid.UUID, userID *uuid.UUID) error

	Available(ctx context.Context, warehouseID, productID uuid.UUID) (*AvailableStock, error)
	ListStocks(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.WarehouseStock, int64, error)
	ListMovements(ctx context.Context, warehouseID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)

	Recompute(ctx context.Context, warehouseID, productID uuid.UUID, userID string, repair bool) (*StockRecomputeResult, error)
	RecomputeAll(ctx context.Context) ([]StockRecomputeResult, error)
}

type stockService struct {
	stockRepo repository.StockRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	log       *logger.Logger
}

func NewStockService(
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	log *logger.Logger,
) StockService {
	return &stockService{
		stockRepo: stockRepo,
		auditRepo: auditRepo,
		txManager: txManager,
		log:       log,
	}
}

func (s *stockService) lockOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error) {
	stock, err := s.stockRepo.FindStockForUpdate(ctx, warehouseID, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stock = &model.WarehouseStock{
			WarehouseID: warehouseID,
			ProductID:   productID,
			Quantity:    decimal.Zero,
		}
		if err := s.stockRepo.CreateStock(ctx, stock); err != nil {
			return nil, fmt.Errorf("failed to create stock row: %w", err)
		}
		return stock, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock stock row: %w", err)
	}
	return stock, nil
}

func (s *stockService) move(ctx context.Context, warehouseID, productID uuid.UUID, delta decimal.Decimal, movementType, docType string, docID, userID *uuid.UUID) error {
	if !delta.Abs().IsPositive() {
		return apperror.Validation("quantity", "must be greater than zero")
	}

	stock, err := s.lockOrCreate(ctx, warehouseID, productID)
	if err != nil {
		return err
	}

	if delta.IsNegative() {
		// Outflows must fit within the available quantity: on hand minus what
		// draft deliveries and good issues have already committed. The caller
		// persists its own status change before issuing, so the document being
		// executed no longer counts as pending here.
		pending, err := s.stockRepo.PendingOutflow(ctx, warehouseID, productID)
		if err != nil {
			return fmt.Errorf("failed to sum pending outflow: %w", err)
		}
		available := stock.Quantity.Sub(pending)
		if delta.Neg().GreaterThan(available) {
			return apperror.Newf(apperror.KindInsufficientStock,
				"insufficient stock: on hand %s, committed %s, requested %s",
				stock.Quantity, pending, delta.Neg())
		}
	}

	after := stock.Quantity.Add(delta)
	if after.IsNegative() {
		return apperror.Newf(apperror.KindInsufficientStock,
			"insufficient stock: on hand %s, requested %s", stock.Quantity, delta.Neg())
	}

	stock.Quantity = after
	if err := s.stockRepo.SaveStock(ctx, stock); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}

	mv := &model.StockMovement{
		WarehouseID:   warehouseID,
		ProductID:     productID,
		MovementType:  movementType,
		Quantity:      delta,
		QuantityAfter: after,
		DocumentType:  docType,
		DocumentID:    docID,
		CreatedBy:     userID,
	}
	if err := s.stockRepo.CreateMovement(ctx, mv); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}
	return nil
}

func (s *stockService) Receive(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID, userID *uuid.UUID) error {
	return s.move(ctx, warehouseID, productID, qty, model.MovementReceipt, docType, docID, userID)
}

func (s *stockService) Issue(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID, userID *uuid.UUID) error {
	return s.move(ctx, warehouseID, productID, qty.Neg(), model.MovementIssue, docType, docID, userID)
}

func (s *stockService) ReturnIn(ctx context.Context, warehouseID, productID uuid.UUID, qty decimal.Decimal, docType string, docID, userID *uuid.UUID) error {
	return s.move(ctx, warehouseID, productID, qty, model.MovementReturn, docType, docID, userID)
}

func (s *stockService) Available(ctx context.Context, warehouseID, productID uuid.UUID) (*AvailableStock, error) {
	onHand := decimal.Zero
	stock, err := s.stockRepo.FindStock(ctx, warehouseID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load stock: %w", err)
	}
	if stock != nil {
		onHand = stock.Quantity
	}

	pending, err := s.stockRepo.PendingOutflow(ctx, warehouseID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending outflow: %w", err)
	}

	return &AvailableStock{
		WarehouseID: warehouseID.String(),
		ProductID:   productID.String(),
		OnHand:      onHand,
		Pending:     pending,
		Available:   onHand.Sub(pending),
	}, nil
}

func (s *stockService) ListStocks(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.WarehouseStock, int64, error) {
	return s.stockRepo.ListStocks(ctx, warehouseID, page, limit)
}

func (s *stockService) ListMovements(ctx context.Context, warehouseID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	return s.stockRepo.ListMovements(ctx, warehouseID, productID, page, limit)
}

// Recompute re-sums the movement history for one (warehouse, product) pair
// and compares it with the cache. With repair set, a divergent cache is
// overwritten; otherwise the mismatch is reported as an integrity error.
func (s *stockService) Recompute(ctx context.Context, warehouseID, productID uuid.UUID, userID string, repair bool) (*StockRecomputeResult, error) {
	var result *StockRecomputeResult

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.lockOrCreate(txCtx, warehouseID, productID)
		if err != nil {
			return err
		}

		computed, err := s.stockRepo.SumMovements(txCtx, warehouseID, productID)
		if err != nil {
			return fmt.Errorf("failed to sum movements: %w", err)
		}

		result = &StockRecomputeResult{
			WarehouseID: warehouseID.String(),
			ProductID:   productID.String(),
			Cached:      stock.Quantity,
			Computed:    computed,
			Mismatch:    !stock.Quantity.Equal(computed),
		}
		if !result.Mismatch {
			return nil
		}

		s.log.Error().
			Str("warehouse_id", warehouseID.String()).
			Str("product_id", productID.String()).
			Str("cached", stock.Quantity.String()).
			Str("computed", computed.String()).
			Msg("stock cache diverged from movement history")

		actor := parseActor(userID)
		if err := writeAudit(txCtx, s.auditRepo, actor, model.ActionIntegrityMismatch,
			"warehouse_stock", stock.ID.String(), result); err != nil {
			return err
		}

		if !repair {
			return apperror.Newf(apperror.KindIntegrityMismatch,
				"stock cache %s diverged from movement sum %s", stock.Quantity, computed)
		}

		stock.Quantity = computed
		if err := s.stockRepo.SaveStock(txCtx, stock); err != nil {
			return fmt.Errorf("failed to repair stock cache: %w", err)
		}
		result.Repaired = true

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionRecomputeStock,
			"warehouse_stock", stock.ID.String(), result)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// RecomputeAll sweeps every cached stock row, repairing divergences. Used by
// the reconciliation scheduler.
func (s *stockService) RecomputeAll(ctx context.Context) ([]StockRecomputeResult, error) {
	var results []StockRecomputeResult

	const pageSize = 200
	for page := 1; ; page++ {
		stocks, _, err := s.stockRepo.ListStocks(ctx, uuid.Nil, page, pageSize)
		if err != nil {
			return results, fmt.Errorf("failed to list stock rows: %w", err)
		}
		if len(stocks) == 0 {
			return results, nil
		}
		for _, stock := range stocks {
			res, err := s.Recompute(ctx, stock.WarehouseID, stock.ProductID, "", true)
			if err != nil {
				return results, err
			}
			if res != nil && res.Mismatch {
				results = append(results, *res)
			}
		}
		if len(stocks) < pageSize {
			return results, nil
		}
	}
}

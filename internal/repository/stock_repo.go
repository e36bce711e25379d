package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-backend/internal/model"
)

type StockRepository interface {
	FindStock(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error)
	FindStockForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error)
	CreateStock(ctx context.Context, stock *model.WarehouseStock) error
	SaveStock(ctx context.Context, stock *model.WarehouseStock) error
	ListStocks(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.WarehouseStock, int64, error)

	CreateMovement(ctx context.Context, mv *model.StockMovement) error
	SumMovements(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)
	ListMovements(ctx context.Context, warehouseID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)

	PendingOutflow(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) FindStock(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error) {
	var stock model.WarehouseStock
	err := GetDB(ctx, r.db).
		First(&stock, "warehouse_id = ? AND product_id = ?", warehouseID, productID).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) FindStockForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*model.WarehouseStock, error) {
	var stock model.WarehouseStock
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&stock, "warehouse_id = ? AND product_id = ?", warehouseID, productID).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

func (r *stockRepository) CreateStock(ctx context.Context, stock *model.WarehouseStock) error {
	return GetDB(ctx, r.db).Create(stock).Error
}

func (r *stockRepository) SaveStock(ctx context.Context, stock *model.WarehouseStock) error {
	return GetDB(ctx, r.db).Save(stock).Error
}

func (r *stockRepository) ListStocks(ctx context.Context, warehouseID uuid.UUID, page, limit int) ([]model.WarehouseStock, int64, error) {
	var stocks []model.WarehouseStock
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.WarehouseStock{})
	if warehouseID != uuid.Nil {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("updated_at desc").Offset(offset).Limit(limit).Find(&stocks).Error; err != nil {
		return nil, 0, err
	}
	return stocks, total, nil
}

func (r *stockRepository) CreateMovement(ctx context.Context, mv *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(mv).Error
}

func (r *stockRepository) SumMovements(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Model(&model.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *stockRepository) ListMovements(ctx context.Context, warehouseID, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.StockMovement{})
	if warehouseID != uuid.Nil {
		query = query.Where("warehouse_id = ?", warehouseID)
	}
	if productID != uuid.Nil {
		query = query.Where("product_id = ?", productID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// PendingOutflow sums quantities reserved by draft outbound documents, i.e.
// delivery and good-issue lines whose parent is still in DRAFT. Available
// stock is the cached on-hand quantity minus this sum.
func (r *stockRepository) PendingOutflow(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	var deliveries decimal.NullDecimal
	err := db.Model(&model.DeliveryItem{}).
		Select("COALESCE(SUM(delivery_items.quantity), 0)").
		Joins("JOIN deliveries ON deliveries.id = delivery_items.delivery_id").
		Where("deliveries.warehouse_id = ? AND delivery_items.product_id = ?", warehouseID, productID).
		Where("deliveries.status = ? AND deliveries.deleted_at IS NULL", model.StatusDraft).
		Scan(&deliveries).Error
	if err != nil {
		return decimal.Zero, err
	}

	var issues decimal.NullDecimal
	err = db.Model(&model.GoodIssueItem{}).
		Select("COALESCE(SUM(good_issue_items.quantity), 0)").
		Joins("JOIN good_issues ON good_issues.id = good_issue_items.issue_id").
		Where("good_issues.warehouse_id = ? AND good_issue_items.product_id = ?", warehouseID, productID).
		Where("good_issues.status = ? AND good_issues.deleted_at IS NULL", model.StatusDraft).
		Scan(&issues).Error
	if err != nil {
		return decimal.Zero, err
	}

	return deliveries.Decimal.Add(issues.Decimal), nil
}

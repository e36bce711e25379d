package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item traded and stocked by the system.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string          `gorm:"type:varchar(20);not null;default:'EA'" json:"unit"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_price"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Warehouse is a physical stock location.
type Warehouse struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Location  string         `gorm:"type:text" json:"location"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// WarehouseStock caches the on-hand quantity per (warehouse, product).
// Quantity changes only through goods-receipt confirmation, good-issue
// execution, delivery confirmation, or sales-return inbound receipt, and must
// re-sum from the movement history.
type WarehouseStock struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_warehouse_product,priority:1" json:"warehouse_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_warehouse_product,priority:2" json:"product_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockMovement types.
const (
	MovementReceipt = "RECEIPT"
	MovementIssue   = "ISSUE"
	MovementReturn  = "RETURN"
)

// StockMovement is the append-only history behind WarehouseStock.
type StockMovement struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_warehouse_product,priority:1" json:"warehouse_id"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_warehouse_product,priority:2" json:"product_id"`
	MovementType  string          `gorm:"type:varchar(10);not null" json:"movement_type"` // RECEIPT, ISSUE, RETURN
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`    // signed delta
	QuantityAfter decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_after"`
	DocumentType  string          `gorm:"type:varchar(10)" json:"document_type"`
	DocumentID    *uuid.UUID      `gorm:"type:uuid;index" json:"document_id"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

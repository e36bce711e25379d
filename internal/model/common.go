package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Document type codes, used as number prefixes and state-machine keys.
const (
	DocTypeRequisition       = "PR"
	DocTypeRFQ               = "RFQ"
	DocTypePurchaseQuotation = "PQ"
	DocTypePurchaseOrder     = "PO"
	DocTypeGoodsReceipt      = "GR"
	DocTypePurchaseInvoice   = "API"
	DocTypeSalesQuotation    = "SQ"
	DocTypeSalesOrder        = "SO"
	DocTypeDelivery          = "DO"
	DocTypeSalesInvoice      = "ARI"
	DocTypeCreditNote        = "CN"
	DocTypeReturnOrder       = "RT"
	DocTypeGoodIssue         = "GI"
	DocTypeVendorPayment     = "PAY"
	DocTypeCustomerPayment   = "RCV"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Status constants shared across document state machines.
const (
	StatusDraft           = "DRAFT"
	StatusSubmitted       = "SUBMITTED"
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusApproved        = "APPROVED"
	StatusRejected        = "REJECTED"
	StatusCancelled       = "CANCELLED"
	StatusIssued          = "ISSUED"
	StatusQuoted          = "QUOTED"
	StatusSelected        = "SELECTED"
	StatusSent            = "SENT"
	StatusConfirmed       = "CONFIRMED"
	StatusDelivered       = "DELIVERED"
	StatusCompleted       = "COMPLETED"
	StatusExecuted        = "EXECUTED"
	StatusReceived        = "RECEIVED"

	// Invoice statuses are derived from the balance, never set by hand.
	StatusUnpaid        = "UNPAID"
	StatusPartiallyPaid = "PARTIALLY_PAID"
	StatusPaid          = "PAID"
)

// DocumentHeader is embedded in every document table: identity, number,
// status, monetary totals, actor references and the soft-delete tombstone.
// A document past DRAFT is mutated only through transition operations.
type DocumentHeader struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number          string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	Status          string          `gorm:"type:varchar(30);not null;index" json:"status"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	ShippingCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"shipping_cost"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Note            string          `gorm:"type:text" json:"note"`
	CreatedBy       *uuid.UUID      `gorm:"type:uuid;index" json:"created_by"`
	UpdatedBy       *uuid.UUID      `gorm:"type:uuid" json:"updated_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// LineItem holds the pricing columns embedded in every document item table.
type LineItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName     string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount_percent"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_rate"`
	LineTotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"line_total"`
}

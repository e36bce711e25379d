package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requisition is an internal purchase request, the head of the procurement
// chain. It carries no pricing beyond rough estimates on its lines.
type Requisition struct {
	DocumentHeader
	Purpose    string            `gorm:"type:text" json:"purpose"`
	RequiredBy *time.Time        `json:"required_by"`
	ApprovedBy *uuid.UUID        `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt *time.Time        `json:"approved_at"`
	HasRFQ     bool              `gorm:"not null;default:false" json:"has_rfq"`
	Items      []RequisitionItem `gorm:"foreignKey:RequisitionID" json:"items"`
}

type RequisitionItem struct {
	LineItem
	RequisitionID uuid.UUID `gorm:"type:uuid;not null;index" json:"requisition_id"`
}

// RFQ is a request for quotation sent to a vendor, converted from an
// approved requisition.
type RFQ struct {
	DocumentHeader
	SourceRequisitionID *uuid.UUID `gorm:"type:uuid;index" json:"source_requisition_id"`
	VendorID            *uuid.UUID `gorm:"type:uuid;index" json:"vendor_id"`
	DueDate             *time.Time `json:"due_date"`
	HasQuotation        bool       `gorm:"not null;default:false" json:"has_quotation"`
	Items               []RFQItem  `gorm:"foreignKey:RFQID" json:"items"`
}

type RFQItem struct {
	LineItem
	RFQID uuid.UUID `gorm:"type:uuid;not null;index" json:"rfq_id"`
}

func (RFQ) TableName() string     { return "rfqs" }
func (RFQItem) TableName() string { return "rfq_items" }

// PurchaseQuotation records a vendor's priced response to an RFQ.
type PurchaseQuotation struct {
	DocumentHeader
	SourceRFQID      *uuid.UUID              `gorm:"type:uuid;index" json:"source_rfq_id"`
	VendorID         uuid.UUID               `gorm:"type:uuid;not null;index" json:"vendor_id"`
	ValidUntil       *time.Time              `json:"valid_until"`
	HasPurchaseOrder bool                    `gorm:"not null;default:false" json:"has_purchase_order"`
	Items            []PurchaseQuotationItem `gorm:"foreignKey:QuotationID" json:"items"`
}

type PurchaseQuotationItem struct {
	LineItem
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index" json:"quotation_id"`
}

// PurchaseOrder is the binding order converted from a selected quotation.
// ReceivedQuantity on its items accumulates across confirmed goods receipts.
type PurchaseOrder struct {
	DocumentHeader
	SourceQuotationID *uuid.UUID          `gorm:"type:uuid;index" json:"source_quotation_id"`
	VendorID          uuid.UUID           `gorm:"type:uuid;not null;index" json:"vendor_id"`
	WarehouseID       *uuid.UUID          `gorm:"type:uuid;index" json:"warehouse_id"`
	ExpectedDate      *time.Time          `json:"expected_date"`
	PartialCompletion bool                `gorm:"not null;default:false" json:"partial_completion"`
	HasGoodsReceipt   bool                `gorm:"not null;default:false" json:"has_goods_receipt"`
	Items             []PurchaseOrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

type PurchaseOrderItem struct {
	LineItem
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"received_quantity"`
}

// GoodsReceipt records inbound goods against a purchase order. Confirming it
// moves stock; it is consumed when an AP invoice is generated from it.
type GoodsReceipt struct {
	DocumentHeader
	SourceOrderID *uuid.UUID         `gorm:"type:uuid;index" json:"source_order_id"`
	VendorID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"vendor_id"`
	WarehouseID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	HasInvoice    bool               `gorm:"not null;default:false" json:"has_invoice"`
	Items         []GoodsReceiptItem `gorm:"foreignKey:ReceiptID" json:"items"`
}

type GoodsReceiptItem struct {
	LineItem
	ReceiptID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"receipt_id"`
	SourceOrderItemID *uuid.UUID `gorm:"type:uuid" json:"source_order_item_id"`
}

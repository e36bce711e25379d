package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesQuotation is a priced offer to a customer.
type SalesQuotation struct {
	DocumentHeader
	CustomerID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"customer_id"`
	ValidUntil    *time.Time           `json:"valid_until"`
	HasSalesOrder bool                 `gorm:"not null;default:false" json:"has_sales_order"`
	Items         []SalesQuotationItem `gorm:"foreignKey:QuotationID" json:"items"`
}

type SalesQuotationItem struct {
	LineItem
	QuotationID uuid.UUID `gorm:"type:uuid;not null;index" json:"quotation_id"`
}

// SalesOrder is the confirmed customer order. DeliveredQuantity on its items
// accumulates across confirmed deliveries and caps further delivery lines.
type SalesOrder struct {
	DocumentHeader
	SourceQuotationID *uuid.UUID       `gorm:"type:uuid;index" json:"source_quotation_id"`
	CustomerID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	WarehouseID       *uuid.UUID       `gorm:"type:uuid;index" json:"warehouse_id"`
	HasDelivery       bool             `gorm:"not null;default:false" json:"has_delivery"`
	HasGoodIssue      bool             `gorm:"not null;default:false" json:"has_good_issue"`
	Items             []SalesOrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

type SalesOrderItem struct {
	LineItem
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	DeliveredQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"delivered_quantity"`
}

// Delivery records outbound goods against a sales order. Confirming it
// decreases stock; it is consumed when an AR invoice is generated from it.
type Delivery struct {
	DocumentHeader
	SourceOrderID *uuid.UUID     `gorm:"type:uuid;index" json:"source_order_id"`
	CustomerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"customer_id"`
	WarehouseID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	HasInvoice    bool           `gorm:"not null;default:false" json:"has_invoice"`
	Items         []DeliveryItem `gorm:"foreignKey:DeliveryID" json:"items"`
}

type DeliveryItem struct {
	LineItem
	DeliveryID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"delivery_id"`
	SourceOrderItemID *uuid.UUID `gorm:"type:uuid" json:"source_order_item_id"`
}

func (Delivery) TableName() string     { return "deliveries" }
func (DeliveryItem) TableName() string { return "delivery_items" }

// ReturnOrder brings sold goods back from a customer. Receiving it puts the
// quantities back into stock; it is consumed by a credit note.
type ReturnOrder struct {
	DocumentHeader
	SourceInvoiceID *uuid.UUID        `gorm:"type:uuid;index" json:"source_invoice_id"`
	CustomerID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"customer_id"`
	WarehouseID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Reason          string            `gorm:"type:text" json:"reason"`
	HasCreditNote   bool              `gorm:"not null;default:false" json:"has_credit_note"`
	Items           []ReturnOrderItem `gorm:"foreignKey:ReturnOrderID" json:"items"`
}

type ReturnOrderItem struct {
	LineItem
	ReturnOrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"return_order_id"`
}

// GoodIssue takes stock out of a warehouse without a delivery, e.g. internal
// consumption or write-off; optionally tied to a sales order.
type GoodIssue struct {
	DocumentHeader
	SourceOrderID *uuid.UUID      `gorm:"type:uuid;index" json:"source_order_id"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	Reason        string          `gorm:"type:text" json:"reason"`
	Items         []GoodIssueItem `gorm:"foreignKey:IssueID" json:"items"`
}

type GoodIssueItem struct {
	LineItem
	IssueID uuid.UUID `gorm:"type:uuid;not null;index" json:"issue_id"`
}

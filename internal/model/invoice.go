package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseInvoice is the accounts-payable document generated from a confirmed
// goods receipt. BalanceAmount = TotalAmount - sum of active payments; the
// status (UNPAID / PARTIALLY_PAID / PAID) is derived from it.
type PurchaseInvoice struct {
	DocumentHeader
	SourceReceiptID *uuid.UUID            `gorm:"type:uuid;index" json:"source_receipt_id"`
	VendorID        uuid.UUID             `gorm:"type:uuid;not null;index" json:"vendor_id"`
	DueDate         *time.Time            `json:"due_date"`
	BalanceAmount   decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0" json:"balance_amount"`
	Items           []PurchaseInvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

type PurchaseInvoiceItem struct {
	LineItem
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
}

// SalesInvoice is the accounts-receivable document generated from a confirmed
// delivery. BalanceAmount additionally subtracts applied credit notes.
type SalesInvoice struct {
	DocumentHeader
	SourceDeliveryID *uuid.UUID         `gorm:"type:uuid;index" json:"source_delivery_id"`
	CustomerID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"customer_id"`
	DueDate          *time.Time         `json:"due_date"`
	BalanceAmount    decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0" json:"balance_amount"`
	HasReturnOrder   bool               `gorm:"not null;default:false" json:"has_return_order"`
	Items            []SalesInvoiceItem `gorm:"foreignKey:InvoiceID" json:"items"`
}

type SalesInvoiceItem struct {
	LineItem
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index" json:"invoice_id"`
}

// VendorPayment settles part or all of a purchase invoice.
type VendorPayment struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number    string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	VendorID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method    string          `gorm:"type:varchar(30)" json:"method"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	CreatedBy *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// CustomerPayment settles part or all of a sales invoice.
type CustomerPayment struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"number"`
	InvoiceID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	CustomerID uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Method     string          `gorm:"type:varchar(30)" json:"method"`
	PaidAt     time.Time       `gorm:"not null" json:"paid_at"`
	CreatedBy  *uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

// CreditNote reduces a sales invoice's balance, typically converted from a
// received return order.
type CreditNote struct {
	DocumentHeader
	SourceInvoiceID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"source_invoice_id"`
	SourceReturnOrderID *uuid.UUID       `gorm:"type:uuid;index" json:"source_return_order_id"`
	CustomerID          uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	Items               []CreditNoteItem `gorm:"foreignKey:CreditNoteID" json:"items"`
}

type CreditNoteItem struct {
	LineItem
	CreditNoteID uuid.UUID `gorm:"type:uuid;not null;index" json:"credit_note_id"`
}

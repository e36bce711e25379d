package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartnerType enum constants
const (
	PartnerTypeCustomer = "CUSTOMER"
	PartnerTypeVendor   = "VENDOR"
	PartnerTypeBoth     = "BOTH"
)

// AddressType enum constants
const (
	AddressTypeBilling  = "BILLING"
	AddressTypeShipping = "SHIPPING"
)

// Partner represents a customer, vendor, or both.
type Partner struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string           `gorm:"type:varchar(255);not null" json:"name"`
	Type          string           `gorm:"type:varchar(20);not null;index" json:"type"` // CUSTOMER, VENDOR, BOTH
	TaxCode       string           `gorm:"type:varchar(50)" json:"tax_code"`
	ContactPerson string           `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string           `gorm:"type:varchar(50)" json:"phone"`
	Email         string           `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool             `gorm:"default:true" json:"is_active"`
	Addresses     []PartnerAddress `gorm:"foreignKey:PartnerID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// PartnerAddress represents a partner's billing or shipping address.
type PartnerAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PartnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"partner_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"`
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CustomerBalance caches the outstanding receivable per customer.
// Invariant: OutstandingBalance equals the sum of active sales-invoice totals
// minus active customer payments minus applied credit notes, and must be
// recoverable by full recomputation.
type CustomerBalance struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"customer_id"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"outstanding_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// VendorBalance caches the outstanding payable per vendor.
type VendorBalance struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VendorID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"vendor_id"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"outstanding_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

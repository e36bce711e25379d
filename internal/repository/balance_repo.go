package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-backend/internal/model"
)

type BalanceRepository interface {
	FindCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error)
	FindVendorForUpdate(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error)
	FindCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error)
	FindVendor(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error)
	SaveCustomer(ctx context.Context, b *model.CustomerBalance) error
	SaveVendor(ctx context.Context, b *model.VendorBalance) error
	ListCustomers(ctx context.Context, page, limit int) ([]model.CustomerBalance, int64, error)
	ListVendors(ctx context.Context, page, limit int) ([]model.VendorBalance, int64, error)

	// SumCustomerOutstanding recomputes the receivable from first principles:
	// active sales-invoice totals minus active payments minus confirmed credit
	// notes against active invoices.
	SumCustomerOutstanding(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error)
	// SumVendorOutstanding recomputes the payable: active purchase-invoice
	// totals minus active vendor payments.
	SumVendorOutstanding(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error)
	// CustomerIDs / VendorIDs enumerate partners with a cached balance row,
	// for the reconciliation sweep.
	CustomerIDs(ctx context.Context) ([]uuid.UUID, error)
	VendorIDs(ctx context.Context) ([]uuid.UUID, error)
}

type balanceRepository struct {
	db *gorm.DB
}

func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepository{db: db}
}

func (r *balanceRepository) FindCustomerForUpdate(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error) {
	var b model.CustomerBalance
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "customer_id = ?", customerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = model.CustomerBalance{CustomerID: customerID, OutstandingBalance: decimal.Zero}
		if err := GetDB(ctx, r.db).Create(&b).Error; err != nil {
			return nil, err
		}
		return &b, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *balanceRepository) FindVendorForUpdate(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error) {
	var b model.VendorBalance
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "vendor_id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		b = model.VendorBalance{VendorID: vendorID, OutstandingBalance: decimal.Zero}
		if err := GetDB(ctx, r.db).Create(&b).Error; err != nil {
			return nil, err
		}
		return &b, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *balanceRepository) FindCustomer(ctx context.Context, customerID uuid.UUID) (*model.CustomerBalance, error) {
	var b model.CustomerBalance
	if err := GetDB(ctx, r.db).First(&b, "customer_id = ?", customerID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *balanceRepository) FindVendor(ctx context.Context, vendorID uuid.UUID) (*model.VendorBalance, error) {
	var b model.VendorBalance
	if err := GetDB(ctx, r.db).First(&b, "vendor_id = ?", vendorID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *balanceRepository) SaveCustomer(ctx context.Context, b *model.CustomerBalance) error {
	return GetDB(ctx, r.db).Save(b).Error
}

func (r *balanceRepository) SaveVendor(ctx context.Context, b *model.VendorBalance) error {
	return GetDB(ctx, r.db).Save(b).Error
}

func (r *balanceRepository) ListCustomers(ctx context.Context, page, limit int) ([]model.CustomerBalance, int64, error) {
	var balances []model.CustomerBalance
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.CustomerBalance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&balances).Error; err != nil {
		return nil, 0, err
	}
	return balances, total, nil
}

func (r *balanceRepository) ListVendors(ctx context.Context, page, limit int) ([]model.VendorBalance, int64, error) {
	var balances []model.VendorBalance
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.VendorBalance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	if err := db.Order("updated_at desc").Offset(offset).Limit(limit).Find(&balances).Error; err != nil {
		return nil, 0, err
	}
	return balances, total, nil
}

func (r *balanceRepository) SumCustomerOutstanding(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	var invoiced decimal.NullDecimal
	err := db.Model(&model.SalesInvoice{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("customer_id = ?", customerID).
		Scan(&invoiced).Error
	if err != nil {
		return decimal.Zero, err
	}

	var paid decimal.NullDecimal
	err = db.Model(&model.CustomerPayment{}).
		Select("COALESCE(SUM(customer_payments.amount), 0)").
		Joins("JOIN sales_invoices ON sales_invoices.id = customer_payments.invoice_id").
		Where("customer_payments.customer_id = ? AND sales_invoices.deleted_at IS NULL", customerID).
		Scan(&paid).Error
	if err != nil {
		return decimal.Zero, err
	}

	var credited decimal.NullDecimal
	err = db.Model(&model.CreditNote{}).
		Select("COALESCE(SUM(credit_notes.total_amount), 0)").
		Joins("JOIN sales_invoices ON sales_invoices.id = credit_notes.source_invoice_id").
		Where("credit_notes.customer_id = ? AND credit_notes.status = ?", customerID, model.StatusConfirmed).
		Where("sales_invoices.deleted_at IS NULL").
		Scan(&credited).Error
	if err != nil {
		return decimal.Zero, err
	}

	return invoiced.Decimal.Sub(paid.Decimal).Sub(credited.Decimal), nil
}

func (r *balanceRepository) SumVendorOutstanding(ctx context.Context, vendorID uuid.UUID) (decimal.Decimal, error) {
	db := GetDB(ctx, r.db)

	var invoiced decimal.NullDecimal
	err := db.Model(&model.PurchaseInvoice{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("vendor_id = ?", vendorID).
		Scan(&invoiced).Error
	if err != nil {
		return decimal.Zero, err
	}

	var paid decimal.NullDecimal
	err = db.Model(&model.VendorPayment{}).
		Select("COALESCE(SUM(vendor_payments.amount), 0)").
		Joins("JOIN purchase_invoices ON purchase_invoices.id = vendor_payments.invoice_id").
		Where("vendor_payments.vendor_id = ? AND purchase_invoices.deleted_at IS NULL", vendorID).
		Scan(&paid).Error
	if err != nil {
		return decimal.Zero, err
	}

	return invoiced.Decimal.Sub(paid.Decimal), nil
}

func (r *balanceRepository) CustomerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).
		Model(&model.CustomerBalance{}).
		Pluck("customer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *balanceRepository) VendorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).
		Model(&model.VendorBalance{}).
		Pluck("vendor_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-backend/internal/model"
)

type PurchaseInvoiceRepository interface {
	Create(ctx context.Context, doc *model.PurchaseInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error)
	List(ctx context.Context, status string, page, limit int) ([]model.PurchaseInvoice, int64, error)
	Update(ctx context.Context, doc *model.PurchaseInvoice) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type purchaseInvoiceRepository struct {
	db *gorm.DB
}

func NewPurchaseInvoiceRepository(db *gorm.DB) PurchaseInvoiceRepository {
	return &purchaseInvoiceRepository{db: db}
}

func (r *purchaseInvoiceRepository) Create(ctx context.Context, doc *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *purchaseInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var doc model.PurchaseInvoice
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseInvoice, error) {
	var doc model.PurchaseInvoice
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("invoice_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseInvoiceRepository) List(ctx context.Context, status string, page, limit int) ([]model.PurchaseInvoice, int64, error) {
	var docs []model.PurchaseInvoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseInvoice{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Preload("Items")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	offset := (page - 1) * limit
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *purchaseInvoiceRepository) Update(ctx context.Context, doc *model.PurchaseInvoice) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *purchaseInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.PurchaseInvoice{}, "id = ?", id).Error
}

type SalesInvoiceRepository interface {
	Create(ctx context.Context, doc *model.SalesInvoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error)
	List(ctx context.Context, status string, page, limit int) ([]model.SalesInvoice, int64, error)
	Update(ctx context.Context, doc *model.SalesInvoice) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type salesInvoiceRepository struct {
	db *gorm.DB
}

func NewSalesInvoiceRepository(db *gorm.DB) SalesInvoiceRepository {
	return &salesInvoiceRepository{db: db}
}

func (r *salesInvoiceRepository) Create(ctx context.Context, doc *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *salesInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var doc model.SalesInvoice
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *salesInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesInvoice, error) {
	var doc model.SalesInvoice
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("invoice_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *salesInvoiceRepository) List(ctx context.Context, status string, page, limit int) ([]model.SalesInvoice, int64, error) {
	var docs []model.SalesInvoice
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.SalesInvoice{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Preload("Items")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	offset := (page - 1) * limit
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *salesInvoiceRepository) Update(ctx context.Context, doc *model.SalesInvoice) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *salesInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.SalesInvoice{}, "id = ?", id).Error
}

type VendorPaymentRepository interface {
	Create(ctx context.Context, p *model.VendorPayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VendorPayment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.VendorPayment, error)
	SumActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type vendorPaymentRepository struct {
	db *gorm.DB
}

func NewVendorPaymentRepository(db *gorm.DB) VendorPaymentRepository {
	return &vendorPaymentRepository{db: db}
}

func (r *vendorPaymentRepository) Create(ctx context.Context, p *model.VendorPayment) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *vendorPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VendorPayment, error) {
	var p model.VendorPayment
	if err := GetDB(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *vendorPaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.VendorPayment, error) {
	var payments []model.VendorPayment
	err := GetDB(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *vendorPaymentRepository) SumActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Model(&model.VendorPayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("invoice_id = ?", invoiceID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *vendorPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.VendorPayment{}, "id = ?", id).Error
}

type CustomerPaymentRepository interface {
	Create(ctx context.Context, p *model.CustomerPayment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerPayment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.CustomerPayment, error)
	SumActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type customerPaymentRepository struct {
	db *gorm.DB
}

func NewCustomerPaymentRepository(db *gorm.DB) CustomerPaymentRepository {
	return &customerPaymentRepository{db: db}
}

func (r *customerPaymentRepository) Create(ctx context.Context, p *model.CustomerPayment) error {
	return GetDB(ctx, r.db).Create(p).Error
}

func (r *customerPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerPayment, error) {
	var p model.CustomerPayment
	if err := GetDB(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *customerPaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]model.CustomerPayment, error) {
	var payments []model.CustomerPayment
	err := GetDB(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *customerPaymentRepository) SumActiveByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Model(&model.CustomerPayment{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("invoice_id = ?", invoiceID).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *customerPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CustomerPayment{}, "id = ?", id).Error
}

type CreditNoteRepository interface {
	Create(ctx context.Context, doc *model.CreditNote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CreditNote, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CreditNote, error)
	List(ctx context.Context, status string, page, limit int) ([]model.CreditNote, int64, error)
	SumConfirmedByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	Update(ctx context.Context, doc *model.CreditNote) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type creditNoteRepository struct {
	db *gorm.DB
}

func NewCreditNoteRepository(db *gorm.DB) CreditNoteRepository {
	return &creditNoteRepository{db: db}
}

func (r *creditNoteRepository) Create(ctx context.Context, doc *model.CreditNote) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *creditNoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CreditNote, error) {
	var doc model.CreditNote
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *creditNoteRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.CreditNote, error) {
	var doc model.CreditNote
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("credit_note_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *creditNoteRepository) List(ctx context.Context, status string, page, limit int) ([]model.CreditNote, int64, error) {
	var docs []model.CreditNote
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CreditNote{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Preload("Items")
	if status != "" {
		fetch = fetch.Where("status = ?", status)
	}
	offset := (page - 1) * limit
	if err := fetch.Order("created_at desc").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

func (r *creditNoteRepository) SumConfirmedByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).
		Model(&model.CreditNote{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("source_invoice_id = ? AND status = ?", invoiceID, model.StatusConfirmed).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *creditNoteRepository) Update(ctx context.Context, doc *model.CreditNote) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *creditNoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.CreditNote{}, "id = ?", id).Error
}

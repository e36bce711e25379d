package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-backend/internal/model"
)

type RequisitionRepository interface {
	Create(ctx context.Context, doc *model.Requisition) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Requisition, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Requisition, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Requisition, int64, error)
	Update(ctx context.Context, doc *model.Requisition) error
	ReplaceItems(ctx context.Context, id uuid.UUID, items []model.RequisitionItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type requisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) RequisitionRepository {
	return &requisitionRepository{db: db}
}

func (r *requisitionRepository) Create(ctx context.Context, doc *model.Requisition) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *requisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Requisition, error) {
	var doc model.Requisition
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *requisitionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Requisition, error) {
	var doc model.Requisition
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("requisition_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *requisitionRepository) List(ctx context.Context, status string, page, limit int) ([]model.Requisition, int64, error) {
	var docs []model.Requisition
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Requisition{})
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

func (r *requisitionRepository) Update(ctx context.Context, doc *model.Requisition) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *requisitionRepository) ReplaceItems(ctx context.Context, id uuid.UUID, items []model.RequisitionItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("requisition_id = ?", id).Delete(&model.RequisitionItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.Create(&items).Error
}

func (r *requisitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Requisition{}, "id = ?", id).Error
}

type RFQRepository interface {
	Create(ctx context.Context, doc *model.RFQ) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RFQ, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RFQ, error)
	List(ctx context.Context, status string, page, limit int) ([]model.RFQ, int64, error)
	Update(ctx context.Context, doc *model.RFQ) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type rfqRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) RFQRepository {
	return &rfqRepository{db: db}
}

func (r *rfqRepository) Create(ctx context.Context, doc *model.RFQ) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *rfqRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RFQ, error) {
	var doc model.RFQ
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *rfqRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RFQ, error) {
	var doc model.RFQ
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("rfq_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *rfqRepository) List(ctx context.Context, status string, page, limit int) ([]model.RFQ, int64, error) {
	var docs []model.RFQ
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.RFQ{})
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

func (r *rfqRepository) Update(ctx context.Context, doc *model.RFQ) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *rfqRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.RFQ{}, "id = ?", id).Error
}

type PurchaseQuotationRepository interface {
	Create(ctx context.Context, doc *model.PurchaseQuotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseQuotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseQuotation, error)
	List(ctx context.Context, status string, page, limit int) ([]model.PurchaseQuotation, int64, error)
	Update(ctx context.Context, doc *model.PurchaseQuotation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type purchaseQuotationRepository struct {
	db *gorm.DB
}

func NewPurchaseQuotationRepository(db *gorm.DB) PurchaseQuotationRepository {
	return &purchaseQuotationRepository{db: db}
}

func (r *purchaseQuotationRepository) Create(ctx context.Context, doc *model.PurchaseQuotation) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *purchaseQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseQuotation, error) {
	var doc model.PurchaseQuotation
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseQuotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseQuotation, error) {
	var doc model.PurchaseQuotation
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("quotation_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseQuotationRepository) List(ctx context.Context, status string, page, limit int) ([]model.PurchaseQuotation, int64, error) {
	var docs []model.PurchaseQuotation
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseQuotation{})
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

func (r *purchaseQuotationRepository) Update(ctx context.Context, doc *model.PurchaseQuotation) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *purchaseQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.PurchaseQuotation{}, "id = ?", id).Error
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, doc *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, status string, page, limit int) ([]model.PurchaseOrder, int64, error)
	Update(ctx context.Context, doc *model.PurchaseOrder) error
	UpdateItem(ctx context.Context, item *model.PurchaseOrderItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, doc *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var doc model.PurchaseOrder
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var doc model.PurchaseOrder
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("order_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *purchaseOrderRepository) List(ctx context.Context, status string, page, limit int) ([]model.PurchaseOrder, int64, error) {
	var docs []model.PurchaseOrder
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PurchaseOrder{})
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

func (r *purchaseOrderRepository) Update(ctx context.Context, doc *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *purchaseOrderRepository) UpdateItem(ctx context.Context, item *model.PurchaseOrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *purchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.PurchaseOrder{}, "id = ?", id).Error
}

type GoodsReceiptRepository interface {
	Create(ctx context.Context, doc *model.GoodsReceipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error)
	List(ctx context.Context, status string, page, limit int) ([]model.GoodsReceipt, int64, error)
	Update(ctx context.Context, doc *model.GoodsReceipt) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type goodsReceiptRepository struct {
	db *gorm.DB
}

func NewGoodsReceiptRepository(db *gorm.DB) GoodsReceiptRepository {
	return &goodsReceiptRepository{db: db}
}

func (r *goodsReceiptRepository) Create(ctx context.Context, doc *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *goodsReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	var doc model.GoodsReceipt
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *goodsReceiptRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.GoodsReceipt, error) {
	var doc model.GoodsReceipt
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("receipt_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *goodsReceiptRepository) List(ctx context.Context, status string, page, limit int) ([]model.GoodsReceipt, int64, error) {
	var docs []model.GoodsReceipt
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.GoodsReceipt{})
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

func (r *goodsReceiptRepository) Update(ctx context.Context, doc *model.GoodsReceipt) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *goodsReceiptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.GoodsReceipt{}, "id = ?", id).Error
}

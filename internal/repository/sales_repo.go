package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"erp-backend/internal/model"
)

type SalesQuotationRepository interface {
	Create(ctx context.Context, doc *model.SalesQuotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesQuotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesQuotation, error)
	List(ctx context.Context, status string, page, limit int) ([]model.SalesQuotation, int64, error)
	Update(ctx context.Context, doc *model.SalesQuotation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type salesQuotationRepository struct {
	db *gorm.DB
}

func NewSalesQuotationRepository(db *gorm.DB) SalesQuotationRepository {
	return &salesQuotationRepository{db: db}
}

func (r *salesQuotationRepository) Create(ctx context.Context, doc *model.SalesQuotation) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *salesQuotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesQuotation, error) {
	var doc model.SalesQuotation
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *salesQuotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesQuotation, error) {
	var doc model.SalesQuotation
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

func (r *salesQuotationRepository) List(ctx context.Context, status string, page, limit int) ([]model.SalesQuotation, int64, error) {
	var docs []model.SalesQuotation
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.SalesQuotation{})
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

func (r *salesQuotationRepository) Update(ctx context.Context, doc *model.SalesQuotation) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *salesQuotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.SalesQuotation{}, "id = ?", id).Error
}

type SalesOrderRepository interface {
	Create(ctx context.Context, doc *model.SalesOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	List(ctx context.Context, status string, page, limit int) ([]model.SalesOrder, int64, error)
	Update(ctx context.Context, doc *model.SalesOrder) error
	UpdateItem(ctx context.Context, item *model.SalesOrderItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type salesOrderRepository struct {
	db *gorm.DB
}

func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository {
	return &salesOrderRepository{db: db}
}

func (r *salesOrderRepository) Create(ctx context.Context, doc *model.SalesOrder) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *salesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var doc model.SalesOrder
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *salesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var doc model.SalesOrder
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

func (r *salesOrderRepository) List(ctx context.Context, status string, page, limit int) ([]model.SalesOrder, int64, error) {
	var docs []model.SalesOrder
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.SalesOrder{})
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

func (r *salesOrderRepository) Update(ctx context.Context, doc *model.SalesOrder) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *salesOrderRepository) UpdateItem(ctx context.Context, item *model.SalesOrderItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *salesOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.SalesOrder{}, "id = ?", id).Error
}

type DeliveryRepository interface {
	Create(ctx context.Context, doc *model.Delivery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Delivery, int64, error)
	Update(ctx context.Context, doc *model.Delivery) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, doc *model.Delivery) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *deliveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var doc model.Delivery
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *deliveryRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Delivery, error) {
	var doc model.Delivery
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("delivery_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *deliveryRepository) List(ctx context.Context, status string, page, limit int) ([]model.Delivery, int64, error) {
	var docs []model.Delivery
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Delivery{})
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

func (r *deliveryRepository) Update(ctx context.Context, doc *model.Delivery) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *deliveryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Delivery{}, "id = ?", id).Error
}

type ReturnOrderRepository interface {
	Create(ctx context.Context, doc *model.ReturnOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ReturnOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ReturnOrder, error)
	List(ctx context.Context, status string, page, limit int) ([]model.ReturnOrder, int64, error)
	Update(ctx context.Context, doc *model.ReturnOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type returnOrderRepository struct {
	db *gorm.DB
}

func NewReturnOrderRepository(db *gorm.DB) ReturnOrderRepository {
	return &returnOrderRepository{db: db}
}

func (r *returnOrderRepository) Create(ctx context.Context, doc *model.ReturnOrder) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *returnOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ReturnOrder, error) {
	var doc model.ReturnOrder
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *returnOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ReturnOrder, error) {
	var doc model.ReturnOrder
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("return_order_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *returnOrderRepository) List(ctx context.Context, status string, page, limit int) ([]model.ReturnOrder, int64, error) {
	var docs []model.ReturnOrder
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.ReturnOrder{})
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

func (r *returnOrderRepository) Update(ctx context.Context, doc *model.ReturnOrder) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *returnOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.ReturnOrder{}, "id = ?", id).Error
}

type GoodIssueRepository interface {
	Create(ctx context.Context, doc *model.GoodIssue) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.GoodIssue, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.GoodIssue, error)
	List(ctx context.Context, status string, page, limit int) ([]model.GoodIssue, int64, error)
	Update(ctx context.Context, doc *model.GoodIssue) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type goodIssueRepository struct {
	db *gorm.DB
}

func NewGoodIssueRepository(db *gorm.DB) GoodIssueRepository {
	return &goodIssueRepository{db: db}
}

func (r *goodIssueRepository) Create(ctx context.Context, doc *model.GoodIssue) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *goodIssueRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.GoodIssue, error) {
	var doc model.GoodIssue
	if err := GetDB(ctx, r.db).Preload("Items").First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *goodIssueRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.GoodIssue, error) {
	var doc model.GoodIssue
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).Where("issue_id = ?", id).Find(&doc.Items).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *goodIssueRepository) List(ctx context.Context, status string, page, limit int) ([]model.GoodIssue, int64, error) {
	var docs []model.GoodIssue
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.GoodIssue{})
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

func (r *goodIssueRepository) Update(ctx context.Context, doc *model.GoodIssue) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

func (r *goodIssueRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.GoodIssue{}, "id = ?", id).Error
}

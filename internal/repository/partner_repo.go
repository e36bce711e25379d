package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"erp-backend/internal/model"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *model.Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error)
	List(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error)
	Update(ctx context.Context, partner *model.Partner) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Create(partner).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	var partner model.Partner
	if err := GetDB(ctx, r.db).Preload("Addresses").First(&partner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

func (r *partnerRepository) List(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error) {
	var partners []model.Partner
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Partner{})
	if partnerType != "" {
		// BOTH partners act on either side.
		query = query.Where("type = ? OR type = ?", partnerType, model.PartnerTypeBoth)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetch := db.Preload("Addresses")
	if partnerType != "" {
		fetch = fetch.Where("type = ? OR type = ?", partnerType, model.PartnerTypeBoth)
	}
	offset := (page - 1) * limit
	if err := fetch.Order("name asc").Offset(offset).Limit(limit).Find(&partners).Error; err != nil {
		return nil, 0, err
	}
	return partners, total, nil
}

func (r *partnerRepository) Update(ctx context.Context, partner *model.Partner) error {
	return GetDB(ctx, r.db).Save(partner).Error
}

func (r *partnerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Partner{}, "id = ?", id).Error
}

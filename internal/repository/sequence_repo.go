package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"erp-backend/internal/model"
	"erp-backend/internal/numbering"
)

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository returns the claims store behind the number generator.
func NewSequenceRepository(db *gorm.DB) numbering.Store {
	return &sequenceRepository{db: db}
}

func (r *sequenceRepository) IssuedNumbers(ctx context.Context, prefix, period string) ([]string, error) {
	var numbers []string
	err := GetDB(ctx, r.db).
		Model(&model.DocumentSequence{}).
		Where("prefix = ? AND period = ?", prefix, period).
		Pluck("number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *sequenceRepository) Claim(ctx context.Context, claim *model.DocumentSequence) error {
	err := GetDB(ctx, r.db).Create(claim).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return numbering.ErrClaimTaken
	}
	return err
}

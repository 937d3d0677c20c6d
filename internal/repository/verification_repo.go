package repository

import (
	"context"
	"errors"

	"taxengine/internal/model"

	"gorm.io/gorm"
)

type VerificationRepository interface {
	Append(ctx context.Context, record *model.VATVerification) error
	LatestByVATNumber(ctx context.Context, vatNumber string) (*model.VATVerification, error)
	List(ctx context.Context, page, limit int) ([]model.VATVerification, int64, error)
}

type verificationRepository struct {
	db *gorm.DB
}

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// Append writes one immutable verification record. There is deliberately no
// Update method on this repository.
func (r *verificationRepository) Append(ctx context.Context, record *model.VATVerification) error {
	return GetDB(ctx, r.db).Create(record).Error
}

// LatestByVATNumber returns the most recent check for a number by CheckedAt,
// or nil when the number has never been verified.
func (r *verificationRepository) LatestByVATNumber(ctx context.Context, vatNumber string) (*model.VATVerification, error) {
	var record model.VATVerification
	err := GetDB(ctx, r.db).
		Where("vat_number = ?", vatNumber).
		Order("checked_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *verificationRepository) List(ctx context.Context, page, limit int) ([]model.VATVerification, int64, error) {
	var records []model.VATVerification
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.VATVerification{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("checked_at desc").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

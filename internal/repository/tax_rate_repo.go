package repository

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRateRepository interface {
	Create(ctx context.Context, rate *model.TaxRate) error
	Update(ctx context.Context, rate *model.TaxRate) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error)
	List(ctx context.Context, page, limit int) ([]model.TaxRate, int64, error)
	GetRates(ctx context.Context, taxClassID uuid.UUID) ([]model.TaxRate, error)
}

type taxRateRepository struct {
	db *gorm.DB
}

func NewTaxRateRepository(db *gorm.DB) TaxRateRepository {
	return &taxRateRepository{db: db}
}

func (r *taxRateRepository) Create(ctx context.Context, rate *model.TaxRate) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *taxRateRepository) Update(ctx context.Context, rate *model.TaxRate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *taxRateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxRate{}).Error
}

func (r *taxRateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxRate, error) {
	var rate model.TaxRate
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *taxRateRepository) List(ctx context.Context, page, limit int) ([]model.TaxRate, int64, error) {
	var rates []model.TaxRate
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxRate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("TaxClass").Order("priority asc, created_at desc").Offset(offset).Limit(limit).Find(&rates).Error; err != nil {
		return nil, 0, err
	}

	return rates, total, nil
}

// GetRates returns every rate row configured for the class, ordered by
// priority ascending. Scope and validity-window filtering is policy and
// happens in the resolver, not here.
func (r *taxRateRepository) GetRates(ctx context.Context, taxClassID uuid.UUID) ([]model.TaxRate, error) {
	var rates []model.TaxRate
	if err := GetDB(ctx, r.db).
		Where("tax_class_id = ?", taxClassID).
		Order("priority asc").
		Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

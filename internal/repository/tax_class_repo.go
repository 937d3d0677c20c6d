package repository

import (
	"context"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxClassRepository interface {
	Create(ctx context.Context, class *model.TaxClass) error
	Update(ctx context.Context, class *model.TaxClass) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaxClass, error)
	List(ctx context.Context, page, limit int) ([]model.TaxClass, int64, error)
	ClearDefault(ctx context.Context) error
}

type taxClassRepository struct {
	db *gorm.DB
}

func NewTaxClassRepository(db *gorm.DB) TaxClassRepository {
	return &taxClassRepository{db: db}
}

func (r *taxClassRepository) Create(ctx context.Context, class *model.TaxClass) error {
	return GetDB(ctx, r.db).Create(class).Error
}

func (r *taxClassRepository) Update(ctx context.Context, class *model.TaxClass) error {
	return GetDB(ctx, r.db).Save(class).Error
}

func (r *taxClassRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxClass{}).Error
}

func (r *taxClassRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaxClass, error) {
	var class model.TaxClass
	if err := GetDB(ctx, r.db).First(&class, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *taxClassRepository) List(ctx context.Context, page, limit int) ([]model.TaxClass, int64, error) {
	var classes []model.TaxClass
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.TaxClass{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&classes).Error; err != nil {
		return nil, 0, err
	}

	return classes, total, nil
}

// ClearDefault unsets the is_default flag on all classes. Used inside a
// transaction before marking another class as the default.
func (r *taxClassRepository) ClearDefault(ctx context.Context) error {
	return GetDB(ctx, r.db).Model(&model.TaxClass{}).Where("is_default = ?", true).Update("is_default", false).Error
}

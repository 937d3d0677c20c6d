package repository

import (
	"context"
	"errors"
	"strings"

	"taxengine/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OSSDestinationRepository interface {
	Create(ctx context.Context, dest *model.OSSDestination) error
	Update(ctx context.Context, dest *model.OSSDestination) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OSSDestination, error)
	FindByCountry(ctx context.Context, countryCode string) (*model.OSSDestination, error)
	List(ctx context.Context, page, limit int) ([]model.OSSDestination, int64, error)
}

type ossDestinationRepository struct {
	db *gorm.DB
}

func NewOSSDestinationRepository(db *gorm.DB) OSSDestinationRepository {
	return &ossDestinationRepository{db: db}
}

func (r *ossDestinationRepository) Create(ctx context.Context, dest *model.OSSDestination) error {
	return GetDB(ctx, r.db).Create(dest).Error
}

func (r *ossDestinationRepository) Update(ctx context.Context, dest *model.OSSDestination) error {
	return GetDB(ctx, r.db).Save(dest).Error
}

func (r *ossDestinationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.OSSDestination{}).Error
}

func (r *ossDestinationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.OSSDestination, error) {
	var dest model.OSSDestination
	if err := GetDB(ctx, r.db).First(&dest, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dest, nil
}

// FindByCountry returns the destination row for a country code, or nil when
// the country is not enrolled. Callers check the Active flag themselves.
func (r *ossDestinationRepository) FindByCountry(ctx context.Context, countryCode string) (*model.OSSDestination, error) {
	var dest model.OSSDestination
	err := GetDB(ctx, r.db).First(&dest, "country_code = ?", strings.ToUpper(countryCode)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dest, nil
}

func (r *ossDestinationRepository) List(ctx context.Context, page, limit int) ([]model.OSSDestination, int64, error) {
	var dests []model.OSSDestination
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.OSSDestination{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("country_code asc").Offset(offset).Limit(limit).Find(&dests).Error; err != nil {
		return nil, 0, err
	}

	return dests, total, nil
}

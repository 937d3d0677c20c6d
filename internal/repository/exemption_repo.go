package repository

import (
	"context"
	"errors"

	"taxengine/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExemptionRepository interface {
	Upsert(ctx context.Context, exemption *model.Exemption) error
	Delete(ctx context.Context, code string) error
	FindByCode(ctx context.Context, code string) (*model.Exemption, error)
	List(ctx context.Context) ([]model.Exemption, error)
	GetText(ctx context.Context, code, language string) (string, error)
}

type exemptionRepository struct {
	db *gorm.DB
}

func NewExemptionRepository(db *gorm.DB) ExemptionRepository {
	return &exemptionRepository{db: db}
}

// Upsert inserts the exemption or replaces the wording of an existing code.
func (r *exemptionRepository) Upsert(ctx context.Context, exemption *model.Exemption) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "text_en", "updated_at"}),
	}).Create(exemption).Error
}

func (r *exemptionRepository) Delete(ctx context.Context, code string) error {
	return GetDB(ctx, r.db).Where("code = ?", code).Delete(&model.Exemption{}).Error
}

func (r *exemptionRepository) FindByCode(ctx context.Context, code string) (*model.Exemption, error) {
	var exemption model.Exemption
	if err := GetDB(ctx, r.db).First(&exemption, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &exemption, nil
}

func (r *exemptionRepository) List(ctx context.Context) ([]model.Exemption, error) {
	var exemptions []model.Exemption
	if err := GetDB(ctx, r.db).Order("code asc").Find(&exemptions).Error; err != nil {
		return nil, err
	}
	return exemptions, nil
}

// GetText returns the stored wording for a code, preferring the English
// translation when language is "en". Empty string when no row exists.
func (r *exemptionRepository) GetText(ctx context.Context, code, language string) (string, error) {
	exemption, err := r.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	if language == "en" && exemption.TextEN != "" {
		return exemption.TextEN, nil
	}
	return exemption.Text, nil
}

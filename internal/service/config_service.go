package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	ws "taxengine/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateTaxClassRequest struct {
	Name      string `json:"name" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

type UpdateTaxClassRequest struct {
	Name      string `json:"name" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

type TaxClassResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
}

type CreateTaxRateRequest struct {
	TaxClassID string `json:"tax_class_id" binding:"required,uuid"`
	Rate       string `json:"rate" binding:"required"` // percent, decimal string
	Country    string `json:"country"`                 // optional 2-letter scope
	Zone       string `json:"zone"`                    // optional zone code scope
	ValidFrom  string `json:"valid_from"`              // YYYY-MM-DD, optional
	ValidTo    string `json:"valid_to"`                // YYYY-MM-DD, optional
	Priority   int    `json:"priority"`
}

type UpdateTaxRateRequest = CreateTaxRateRequest

type TaxRateResponse struct {
	ID         string  `json:"id"`
	TaxClassID string  `json:"tax_class_id"`
	Rate       string  `json:"rate"`
	Country    *string `json:"country"`
	Zone       *string `json:"zone"`
	ValidFrom  *string `json:"valid_from"`
	ValidTo    *string `json:"valid_to"`
	Priority   int     `json:"priority"`
	CreatedAt  string  `json:"created_at"`
}

type UpsertOSSDestinationRequest struct {
	CountryCode  string `json:"country_code" binding:"required,len=2"`
	StandardRate string `json:"standard_rate" binding:"required"`
	ReducedRate  string `json:"reduced_rate" binding:"required"`
	Active       bool   `json:"active"`
}

type OSSDestinationResponse struct {
	ID           string `json:"id"`
	CountryCode  string `json:"country_code"`
	StandardRate string `json:"standard_rate"`
	ReducedRate  string `json:"reduced_rate"`
	Active       bool   `json:"active"`
}

type UpsertExemptionRequest struct {
	Code   string `json:"code" binding:"required"`
	Text   string `json:"text" binding:"required"`
	TextEN string `json:"text_en"`
}

type ExemptionResponse struct {
	Code   string `json:"code"`
	Text   string `json:"text"`
	TextEN string `json:"text_en,omitempty"`
}

// --- Interface ---

// ConfigService manages the tax configuration: classes, scoped rates, OSS
// destinations and exemption wording. Every mutation writes an audit entry
// and notifies the live feed.
type ConfigService interface {
	ListTaxClasses(ctx context.Context, page, limit int) ([]TaxClassResponse, int64, error)
	CreateTaxClass(ctx context.Context, req CreateTaxClassRequest, userID string) (TaxClassResponse, error)
	UpdateTaxClass(ctx context.Context, id string, req UpdateTaxClassRequest, userID string) (TaxClassResponse, error)
	DeleteTaxClass(ctx context.Context, id string, userID string) error

	ListTaxRates(ctx context.Context, page, limit int) ([]TaxRateResponse, int64, error)
	CreateTaxRate(ctx context.Context, req CreateTaxRateRequest, userID string) (TaxRateResponse, error)
	UpdateTaxRate(ctx context.Context, id string, req UpdateTaxRateRequest, userID string) (TaxRateResponse, error)
	DeleteTaxRate(ctx context.Context, id string, userID string) error

	ListOSSDestinations(ctx context.Context, page, limit int) ([]OSSDestinationResponse, int64, error)
	CreateOSSDestination(ctx context.Context, req UpsertOSSDestinationRequest, userID string) (OSSDestinationResponse, error)
	UpdateOSSDestination(ctx context.Context, id string, req UpsertOSSDestinationRequest, userID string) (OSSDestinationResponse, error)
	DeleteOSSDestination(ctx context.Context, id string, userID string) error

	ListExemptions(ctx context.Context) ([]ExemptionResponse, error)
	UpsertExemption(ctx context.Context, req UpsertExemptionRequest, userID string) (ExemptionResponse, error)
	DeleteExemption(ctx context.Context, code string, userID string) error
}

type configService struct {
	db         *gorm.DB
	classes    repository.TaxClassRepository
	rates      repository.TaxRateRepository
	oss        repository.OSSDestinationRepository
	exemptions repository.ExemptionRepository
	txManager  repository.TransactionManager
	hub        *ws.Hub
}

func NewConfigService(
	db *gorm.DB,
	classes repository.TaxClassRepository,
	rates repository.TaxRateRepository,
	oss repository.OSSDestinationRepository,
	exemptions repository.ExemptionRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ConfigService {
	return &configService{
		db:         db,
		classes:    classes,
		rates:      rates,
		oss:        oss,
		exemptions: exemptions,
		txManager:  txManager,
		hub:        hub,
	}
}

// --- Tax classes ---

func (s *configService) ListTaxClasses(ctx context.Context, page, limit int) ([]TaxClassResponse, int64, error) {
	classes, total, err := s.classes.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax classes: %w", err)
	}

	res := make([]TaxClassResponse, 0, len(classes))
	for _, class := range classes {
		res = append(res, toTaxClassResponse(class))
	}
	return res, total, nil
}

func (s *configService) CreateTaxClass(ctx context.Context, req CreateTaxClassRequest, userID string) (TaxClassResponse, error) {
	class := model.TaxClass{Name: req.Name, IsDefault: req.IsDefault}

	// Only one class may carry the default flag at a time.
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.IsDefault {
			if err := s.classes.ClearDefault(txCtx); err != nil {
				return err
			}
		}
		return s.classes.Create(txCtx, &class)
	})
	if err != nil {
		return TaxClassResponse{}, fmt.Errorf("failed to create tax class: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateTaxClass, class.ID.String(), class.Name, req)
	s.notifyConfigChanged("tax_class", class.ID.String())
	return toTaxClassResponse(class), nil
}

func (s *configService) UpdateTaxClass(ctx context.Context, id string, req UpdateTaxClassRequest, userID string) (TaxClassResponse, error) {
	classID, err := uuid.Parse(id)
	if err != nil {
		return TaxClassResponse{}, fmt.Errorf("invalid tax class id: %w", err)
	}

	var class *model.TaxClass
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		class, err = s.classes.FindByID(txCtx, classID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("tax class not found")
			}
			return err
		}
		if req.IsDefault && !class.IsDefault {
			if err := s.classes.ClearDefault(txCtx); err != nil {
				return err
			}
		}
		class.Name = req.Name
		class.IsDefault = req.IsDefault
		return s.classes.Update(txCtx, class)
	})
	if err != nil {
		return TaxClassResponse{}, fmt.Errorf("failed to update tax class: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionUpdateTaxClass, class.ID.String(), class.Name, req)
	s.notifyConfigChanged("tax_class", class.ID.String())
	return toTaxClassResponse(*class), nil
}

func (s *configService) DeleteTaxClass(ctx context.Context, id string, userID string) error {
	classID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax class id: %w", err)
	}

	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax class not found")
		}
		return fmt.Errorf("failed to fetch tax class: %w", err)
	}

	// A referenced class must not disappear under its rates.
	rates, err := s.rates.GetRates(ctx, classID)
	if err != nil {
		return fmt.Errorf("failed to check rates for class: %w", err)
	}
	if len(rates) > 0 {
		return fmt.Errorf("tax class '%s' still has %d rate(s) configured", class.Name, len(rates))
	}

	if err := s.classes.Delete(ctx, classID); err != nil {
		return fmt.Errorf("failed to delete tax class: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionDeleteTaxClass, id, class.Name, map[string]string{"deleted_id": id})
	s.notifyConfigChanged("tax_class", id)
	return nil
}

// --- Tax rates ---

func (s *configService) ListTaxRates(ctx context.Context, page, limit int) ([]TaxRateResponse, int64, error) {
	rates, total, err := s.rates.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax rates: %w", err)
	}

	res := make([]TaxRateResponse, 0, len(rates))
	for _, rate := range rates {
		res = append(res, toTaxRateResponse(rate))
	}
	return res, total, nil
}

func (s *configService) CreateTaxRate(ctx context.Context, req CreateTaxRateRequest, userID string) (TaxRateResponse, error) {
	rate, err := s.buildTaxRate(ctx, req)
	if err != nil {
		return TaxRateResponse{}, err
	}

	if err := s.rates.Create(ctx, rate); err != nil {
		return TaxRateResponse{}, fmt.Errorf("failed to create tax rate: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateTaxRate, rate.ID.String(), rate.Rate.StringFixed(4), req)
	s.notifyConfigChanged("tax_rate", rate.ID.String())
	return toTaxRateResponse(*rate), nil
}

func (s *configService) UpdateTaxRate(ctx context.Context, id string, req UpdateTaxRateRequest, userID string) (TaxRateResponse, error) {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return TaxRateResponse{}, fmt.Errorf("invalid tax rate id: %w", err)
	}

	existing, err := s.rates.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TaxRateResponse{}, fmt.Errorf("tax rate not found")
		}
		return TaxRateResponse{}, fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	updated, err := s.buildTaxRate(ctx, req)
	if err != nil {
		return TaxRateResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.rates.Update(ctx, updated); err != nil {
		return TaxRateResponse{}, fmt.Errorf("failed to update tax rate: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionUpdateTaxRate, updated.ID.String(), updated.Rate.StringFixed(4), req)
	s.notifyConfigChanged("tax_rate", updated.ID.String())
	return toTaxRateResponse(*updated), nil
}

func (s *configService) DeleteTaxRate(ctx context.Context, id string, userID string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid tax rate id: %w", err)
	}

	rate, err := s.rates.FindByID(ctx, rateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("tax rate not found")
		}
		return fmt.Errorf("failed to fetch tax rate: %w", err)
	}

	if err := s.rates.Delete(ctx, rateID); err != nil {
		return fmt.Errorf("failed to delete tax rate: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionDeleteTaxRate, id, rate.Rate.StringFixed(4), map[string]string{"deleted_id": id})
	s.notifyConfigChanged("tax_rate", id)
	return nil
}

// --- OSS destinations ---

func (s *configService) ListOSSDestinations(ctx context.Context, page, limit int) ([]OSSDestinationResponse, int64, error) {
	dests, total, err := s.oss.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch OSS destinations: %w", err)
	}

	res := make([]OSSDestinationResponse, 0, len(dests))
	for _, dest := range dests {
		res = append(res, toOSSDestinationResponse(dest))
	}
	return res, total, nil
}

func (s *configService) CreateOSSDestination(ctx context.Context, req UpsertOSSDestinationRequest, userID string) (OSSDestinationResponse, error) {
	dest, err := buildOSSDestination(req)
	if err != nil {
		return OSSDestinationResponse{}, err
	}

	if err := s.oss.Create(ctx, dest); err != nil {
		return OSSDestinationResponse{}, fmt.Errorf("failed to create OSS destination: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionCreateOSSDestination, dest.ID.String(), dest.CountryCode, req)
	s.notifyConfigChanged("oss_destination", dest.CountryCode)
	return toOSSDestinationResponse(*dest), nil
}

func (s *configService) UpdateOSSDestination(ctx context.Context, id string, req UpsertOSSDestinationRequest, userID string) (OSSDestinationResponse, error) {
	destID, err := uuid.Parse(id)
	if err != nil {
		return OSSDestinationResponse{}, fmt.Errorf("invalid OSS destination id: %w", err)
	}

	existing, err := s.oss.FindByID(ctx, destID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OSSDestinationResponse{}, fmt.Errorf("OSS destination not found")
		}
		return OSSDestinationResponse{}, fmt.Errorf("failed to fetch OSS destination: %w", err)
	}

	updated, err := buildOSSDestination(req)
	if err != nil {
		return OSSDestinationResponse{}, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.oss.Update(ctx, updated); err != nil {
		return OSSDestinationResponse{}, fmt.Errorf("failed to update OSS destination: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionUpdateOSSDestination, updated.ID.String(), updated.CountryCode, req)
	s.notifyConfigChanged("oss_destination", updated.CountryCode)
	return toOSSDestinationResponse(*updated), nil
}

func (s *configService) DeleteOSSDestination(ctx context.Context, id string, userID string) error {
	destID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid OSS destination id: %w", err)
	}

	dest, err := s.oss.FindByID(ctx, destID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("OSS destination not found")
		}
		return fmt.Errorf("failed to fetch OSS destination: %w", err)
	}

	if err := s.oss.Delete(ctx, destID); err != nil {
		return fmt.Errorf("failed to delete OSS destination: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionDeleteOSSDestination, id, dest.CountryCode, map[string]string{"deleted_id": id})
	s.notifyConfigChanged("oss_destination", dest.CountryCode)
	return nil
}

// --- Exemptions ---

func (s *configService) ListExemptions(ctx context.Context) ([]ExemptionResponse, error) {
	exemptions, err := s.exemptions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exemptions: %w", err)
	}

	res := make([]ExemptionResponse, 0, len(exemptions))
	for _, e := range exemptions {
		res = append(res, ExemptionResponse{Code: e.Code, Text: e.Text, TextEN: e.TextEN})
	}
	return res, nil
}

func (s *configService) UpsertExemption(ctx context.Context, req UpsertExemptionRequest, userID string) (ExemptionResponse, error) {
	exemption := model.Exemption{Code: req.Code, Text: req.Text, TextEN: req.TextEN}
	if err := s.exemptions.Upsert(ctx, &exemption); err != nil {
		return ExemptionResponse{}, fmt.Errorf("failed to upsert exemption: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionUpsertExemption, req.Code, req.Code, req)
	s.notifyConfigChanged("exemption", req.Code)
	return ExemptionResponse{Code: exemption.Code, Text: exemption.Text, TextEN: exemption.TextEN}, nil
}

func (s *configService) DeleteExemption(ctx context.Context, code string, userID string) error {
	if _, err := s.exemptions.FindByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("exemption not found")
		}
		return fmt.Errorf("failed to fetch exemption: %w", err)
	}

	if err := s.exemptions.Delete(ctx, code); err != nil {
		return fmt.Errorf("failed to delete exemption: %w", err)
	}

	s.writeAuditLog(ctx, userID, model.ActionDeleteExemption, code, code, map[string]string{"deleted_code": code})
	s.notifyConfigChanged("exemption", code)
	return nil
}

// --- Helpers ---

func (s *configService) buildTaxRate(ctx context.Context, req CreateTaxRateRequest) (*model.TaxRate, error) {
	classID, err := uuid.Parse(req.TaxClassID)
	if err != nil {
		return nil, fmt.Errorf("invalid tax class id: %w", err)
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tax class not found")
		}
		return nil, fmt.Errorf("failed to fetch tax class: %w", err)
	}

	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate value: %w", err)
	}
	if rate.IsNegative() {
		return nil, fmt.Errorf("rate must not be negative")
	}

	row := &model.TaxRate{TaxClassID: classID, Rate: rate, Priority: req.Priority}

	if req.Country != "" {
		country := strings.ToUpper(req.Country)
		if len(country) != 2 {
			return nil, fmt.Errorf("country scope must be a 2-letter code")
		}
		row.Country = &country
	}

	if req.Zone != "" {
		if !validZoneCode(req.Zone) {
			return nil, fmt.Errorf("unknown zone code '%s'", req.Zone)
		}
		zone := req.Zone
		row.Zone = &zone
	}

	if req.ValidFrom != "" {
		t, err := time.Parse("2006-01-02", req.ValidFrom)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_from date format (expected YYYY-MM-DD): %w", err)
		}
		row.ValidFrom = &t
	}
	if req.ValidTo != "" {
		t, err := time.Parse("2006-01-02", req.ValidTo)
		if err != nil {
			return nil, fmt.Errorf("invalid valid_to date format (expected YYYY-MM-DD): %w", err)
		}
		row.ValidTo = &t
	}
	if row.ValidFrom != nil && row.ValidTo != nil && row.ValidTo.Before(*row.ValidFrom) {
		return nil, fmt.Errorf("valid_to must not precede valid_from")
	}

	return row, nil
}

func buildOSSDestination(req UpsertOSSDestinationRequest) (*model.OSSDestination, error) {
	standard, err := decimal.NewFromString(req.StandardRate)
	if err != nil {
		return nil, fmt.Errorf("invalid standard rate: %w", err)
	}
	reduced, err := decimal.NewFromString(req.ReducedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid reduced rate: %w", err)
	}
	if standard.IsNegative() || reduced.IsNegative() {
		return nil, fmt.Errorf("rates must not be negative")
	}

	return &model.OSSDestination{
		CountryCode:  strings.ToUpper(req.CountryCode),
		StandardRate: standard,
		ReducedRate:  reduced,
		Active:       req.Active,
	}, nil
}

func validZoneCode(code string) bool {
	switch code {
	case model.ZoneDomestic.Code(), model.ZoneEUWithRegistration.Code(),
		model.ZoneEUSimplifiedScheme.Code(), model.ZoneEUWithoutRegistration.Code(),
		model.ZoneThirdCountryExport.Code():
		return true
	}
	return false
}

func toTaxClassResponse(class model.TaxClass) TaxClassResponse {
	return TaxClassResponse{
		ID:        class.ID.String(),
		Name:      class.Name,
		IsDefault: class.IsDefault,
		CreatedAt: class.CreatedAt.Format(time.RFC3339),
	}
}

func toTaxRateResponse(rate model.TaxRate) TaxRateResponse {
	resp := TaxRateResponse{
		ID:         rate.ID.String(),
		TaxClassID: rate.TaxClassID.String(),
		Rate:       rate.Rate.StringFixed(4),
		Country:    rate.Country,
		Zone:       rate.Zone,
		Priority:   rate.Priority,
		CreatedAt:  rate.CreatedAt.Format(time.RFC3339),
	}
	if rate.ValidFrom != nil {
		s := rate.ValidFrom.Format("2006-01-02")
		resp.ValidFrom = &s
	}
	if rate.ValidTo != nil {
		s := rate.ValidTo.Format("2006-01-02")
		resp.ValidTo = &s
	}
	return resp
}

func toOSSDestinationResponse(dest model.OSSDestination) OSSDestinationResponse {
	return OSSDestinationResponse{
		ID:           dest.ID.String(),
		CountryCode:  dest.CountryCode,
		StandardRate: dest.StandardRate.StringFixed(4),
		ReducedRate:  dest.ReducedRate.StringFixed(4),
		Active:       dest.Active,
	}
}

func (s *configService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}

	if userID != "" {
		parsed, err := uuid.Parse(userID)
		if err == nil {
			entry.UserID = &parsed
		}
	}

	// Best-effort audit log — don't fail the operation if logging fails
	_ = s.db.WithContext(ctx).Create(&entry).Error
}

func (s *configService) notifyConfigChanged(entity, ref string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishJSON(ws.Event{
		Type:    ws.EventConfigChanged,
		Payload: map[string]string{"entity": entity, "ref": ref},
	})
}

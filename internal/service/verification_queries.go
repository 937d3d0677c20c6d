package service

import (
	"context"
	"fmt"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"
)

type VerificationResponse struct {
	ID            string `json:"id"`
	VATNumber     string `json:"vat_number"`
	CountryCode   string `json:"country_code"`
	TraderName    string `json:"trader_name,omitempty"`
	TraderAddress string `json:"trader_address,omitempty"`
	Valid         bool   `json:"valid"`
	RequestID     string `json:"request_id,omitempty"`
	PartnerID     string `json:"partner_id,omitempty"`
	CheckedAt     string `json:"checked_at"`
}

// VerificationQueryService reads the append-only verification log for audit
// and display. It never triggers a remote check.
type VerificationQueryService interface {
	ListVerifications(ctx context.Context, page, limit int) ([]VerificationResponse, int64, error)
	LatestVerification(ctx context.Context, vatNumber string) (*VerificationResponse, error)
}

type verificationQueryService struct {
	records repository.VerificationRepository
}

func NewVerificationQueryService(records repository.VerificationRepository) VerificationQueryService {
	return &verificationQueryService{records: records}
}

func (s *verificationQueryService) ListVerifications(ctx context.Context, page, limit int) ([]VerificationResponse, int64, error) {
	records, total, err := s.records.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch verifications: %w", err)
	}

	res := make([]VerificationResponse, 0, len(records))
	for _, record := range records {
		res = append(res, toVerificationResponse(record))
	}
	return res, total, nil
}

// LatestVerification returns the most recent check for a number, matched on
// its normalized form. Nil when the number was never checked.
func (s *verificationQueryService) LatestVerification(ctx context.Context, vatNumber string) (*VerificationResponse, error) {
	record, err := s.records.LatestByVATNumber(ctx, NormalizeVATNumber(vatNumber))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest verification: %w", err)
	}
	if record == nil {
		return nil, nil
	}
	res := toVerificationResponse(*record)
	return &res, nil
}

func toVerificationResponse(record model.VATVerification) VerificationResponse {
	res := VerificationResponse{
		ID:            record.ID.String(),
		VATNumber:     record.VATNumber,
		CountryCode:   record.CountryCode,
		TraderName:    record.TraderName,
		TraderAddress: record.TraderAddress,
		Valid:         record.Valid,
		RequestID:     record.RequestID,
		CheckedAt:     record.CheckedAt.Format(time.RFC3339),
	}
	if record.PartnerID != nil {
		res.PartnerID = record.PartnerID.String()
	}
	return res
}

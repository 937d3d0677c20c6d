package service

import (
	"context"
	"log"
	"strings"
	"time"
	"unicode"

	"taxengine/internal/model"
	"taxengine/internal/repository"
	"taxengine/internal/vies"
	ws "taxengine/internal/websocket"

	"github.com/google/uuid"
)

// AuditContext carries optional caller metadata recorded alongside a
// verification attempt.
type AuditContext struct {
	PartnerID *uuid.UUID // customer/supplier id in the calling system
}

// RegistrationVerifier confirms that a tax-registration number is currently
// valid. A false answer never distinguishes "invalid" from "could not check":
// a transaction must never become unprocessable because the external
// authority is down, so every failure mode degrades to "not verified".
type RegistrationVerifier interface {
	Verify(ctx context.Context, vatNumber, country string, audit AuditContext) bool
}

type verificationService struct {
	checker vies.Checker
	records repository.VerificationRepository
	hub     *ws.Hub
	cfg     Config
}

// NewVerificationService wires the external checker to the append-only
// verification log. The hub is optional; when present, every completed check
// is pushed to connected dashboards.
func NewVerificationService(checker vies.Checker, records repository.VerificationRepository, hub *ws.Hub, cfg Config) RegistrationVerifier {
	return &verificationService{checker: checker, records: records, hub: hub, cfg: cfg.WithDefaults()}
}

// Verify normalizes the number, asks the authority, and appends one
// VATVerification row for every answer that was actually obtained. Numbers
// too short to be a registration are rejected without a remote call and
// without a record.
func (s *verificationService) Verify(ctx context.Context, vatNumber, country string, audit AuditContext) bool {
	normalized := NormalizeVATNumber(vatNumber)
	if len(normalized) < s.cfg.MinVATNumberLength {
		return false
	}

	countryCode, remainder := splitVATNumber(normalized, country)

	result, err := s.checker.CheckVAT(ctx, countryCode, remainder)
	if err != nil {
		// Fail-safe: log and classify as not verified, never abort the sale.
		log.Printf("VAT verification failed for %s: %v", normalized, err)
		return false
	}

	record := &model.VATVerification{
		VATNumber:     normalized,
		CountryCode:   countryCode,
		TraderName:    result.Name,
		TraderAddress: result.Address,
		Valid:         result.Valid,
		RequestID:     result.RequestID,
		PartnerID:     audit.PartnerID,
		CheckedAt:     time.Now().UTC(),
	}
	if err := s.records.Append(ctx, record); err != nil {
		// Best-effort audit trail; the answer itself is still usable.
		log.Printf("failed to append verification record for %s: %v", normalized, err)
	}

	if s.hub != nil {
		s.hub.PublishJSON(ws.Event{
			Type: ws.EventVATVerification,
			Payload: map[string]interface{}{
				"vat_number":   record.VATNumber,
				"country_code": record.CountryCode,
				"valid":        record.Valid,
				"checked_at":   record.CheckedAt.Format(time.RFC3339),
			},
		})
	}

	return result.Valid
}

// NormalizeVATNumber upper-cases the input and strips everything that is not
// a letter or digit, so "fr 12-345.678" and "FR12345678" compare equal.
func NormalizeVATNumber(vatNumber string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(vatNumber) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitVATNumber separates the 2-letter country prefix from the remainder.
// When the number carries no prefix, the destination country stands in.
func splitVATNumber(normalized, fallbackCountry string) (countryCode, remainder string) {
	if len(normalized) > 2 && unicode.IsLetter(rune(normalized[0])) && unicode.IsLetter(rune(normalized[1])) {
		return normalized[:2], normalized[2:]
	}
	return strings.ToUpper(fallbackCountry), normalized
}

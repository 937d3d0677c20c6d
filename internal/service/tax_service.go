package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// --- DTOs ---

type DetermineTaxRequest struct {
	Country    string `json:"country" binding:"required,len=2"`
	VATNumber  string `json:"vat_number"`
	IsConsumer bool   `json:"is_consumer"`
	TaxClassID string `json:"tax_class_id" binding:"required,uuid"`
	PartnerID  string `json:"partner_id"`
	AsOf       string `json:"as_of"` // RFC3339, defaults to now
}

type ComputeAmountsRequest struct {
	Gross      string `json:"gross" binding:"required"` // tax-inclusive amount
	Country    string `json:"country" binding:"required,len=2"`
	VATNumber  string `json:"vat_number"`
	IsConsumer bool   `json:"is_consumer"`
	TaxClassID string `json:"tax_class_id" binding:"required,uuid"`
	PartnerID  string `json:"partner_id"`
	AsOf       string `json:"as_of"`
}

type TaxDecisionResponse struct {
	Zone          string `json:"zone"`
	Rate          string `json:"rate"` // percent
	ExemptionText string `json:"exemption_text,omitempty"`
}

type AmountBreakdownResponse struct {
	Net           string `json:"net"`
	Tax           string `json:"tax"`
	Gross         string `json:"gross"`
	Rate          string `json:"rate"`
	Zone          string `json:"zone"`
	ExemptionText string `json:"exemption_text,omitempty"`
}

// --- Interface ---

// TaxService is the engine facade consumed by the order and invoice
// workflows: classify, resolve the rate, decompose amounts.
type TaxService interface {
	DetermineTax(ctx context.Context, req DetermineTaxRequest) (TaxDecisionResponse, error)
	ComputeAmounts(ctx context.Context, req ComputeAmountsRequest) (AmountBreakdownResponse, error)
	ComputeAmountsBatch(ctx context.Context, reqs []ComputeAmountsRequest) ([]AmountBreakdownResponse, error)
}

type taxService struct {
	classifier Classifier
	resolver   RateResolver
	cfg        Config
}

func NewTaxService(classifier Classifier, resolver RateResolver, cfg Config) TaxService {
	return &taxService{classifier: classifier, resolver: resolver, cfg: cfg.WithDefaults()}
}

// --- Implementation ---

func (s *taxService) DetermineTax(ctx context.Context, req DetermineTaxRequest) (TaxDecisionResponse, error) {
	decision, rate, err := s.determine(ctx, req.Country, req.VATNumber, req.IsConsumer, req.TaxClassID, req.PartnerID, req.AsOf)
	if err != nil {
		return TaxDecisionResponse{}, err
	}

	return TaxDecisionResponse{
		Zone:          decision.Zone.Code(),
		Rate:          rate.StringFixed(2),
		ExemptionText: decision.ExemptionText,
	}, nil
}

func (s *taxService) ComputeAmounts(ctx context.Context, req ComputeAmountsRequest) (AmountBreakdownResponse, error) {
	gross, err := decimal.NewFromString(req.Gross)
	if err != nil {
		return AmountBreakdownResponse{}, fmt.Errorf("invalid gross amount: %w", err)
	}

	decision, rate, err := s.determine(ctx, req.Country, req.VATNumber, req.IsConsumer, req.TaxClassID, req.PartnerID, req.AsOf)
	if err != nil {
		return AmountBreakdownResponse{}, err
	}

	net, tax := SplitGross(gross, rate)

	return AmountBreakdownResponse{
		Net:           net.StringFixed(2),
		Tax:           tax.StringFixed(2),
		Gross:         gross.StringFixed(2),
		Rate:          rate.StringFixed(2),
		Zone:          decision.Zone.Code(),
		ExemptionText: decision.ExemptionText,
	}, nil
}

// ComputeAmountsBatch recalculates many line items with a bounded number of
// concurrent verifications, so bulk recalculation cannot overwhelm the
// external authority. The per-call timeout budget applies to each item, not
// to the batch as a whole.
func (s *taxService) ComputeAmountsBatch(ctx context.Context, reqs []ComputeAmountsRequest) ([]AmountBreakdownResponse, error) {
	results := make([]AmountBreakdownResponse, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.ComputeAmounts(gctx, req)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// determine runs classification and, unless the zone predetermines the rate,
// rate resolution.
func (s *taxService) determine(ctx context.Context, country, vatNumber string, isConsumer bool, taxClassID, partnerID, asOfRaw string) (Decision, decimal.Decimal, error) {
	classID, err := uuid.Parse(taxClassID)
	if err != nil {
		return Decision{}, decimal.Zero, fmt.Errorf("invalid tax class id: %w", err)
	}

	asOf := time.Now().UTC()
	if asOfRaw != "" {
		parsed, parseErr := time.Parse(time.RFC3339, asOfRaw)
		if parseErr != nil {
			return Decision{}, decimal.Zero, fmt.Errorf("invalid as_of timestamp (expected RFC3339): %w", parseErr)
		}
		asOf = parsed
	}

	var partner *uuid.UUID
	if partnerID != "" {
		if parsed, parseErr := uuid.Parse(partnerID); parseErr == nil {
			partner = &parsed
		}
	}

	decision, err := s.classifier.Classify(ctx, ClassifyInput{
		Country:    country,
		VATNumber:  vatNumber,
		IsConsumer: isConsumer,
		TaxClassID: classID,
		PartnerID:  partner,
	})
	if err != nil {
		return Decision{}, decimal.Zero, err
	}

	if decision.FixedRate != nil {
		return decision, *decision.FixedRate, nil
	}

	rate, err := s.resolver.ResolveRate(ctx, classID, decision.Zone, country, asOf)
	if err != nil {
		return Decision{}, decimal.Zero, err
	}
	return decision, rate, nil
}

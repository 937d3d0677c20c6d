package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateResolver finds the single applicable percent rate for a class in a
// resolved zone. Zero-rated zones never reach the resolver; the classifier
// short-circuits them to 0.
type RateResolver interface {
	ResolveRate(ctx context.Context, taxClassID uuid.UUID, zone model.Zone, country string, asOf time.Time) (decimal.Decimal, error)
}

type rateResolver struct {
	rates repository.TaxRateRepository
	cfg   Config
}

func NewRateResolver(rates repository.TaxRateRepository, cfg Config) RateResolver {
	return &rateResolver{rates: rates, cfg: cfg.WithDefaults()}
}

// ResolveRate keeps the rows whose country scope, zone scope and validity
// window all match, orders them by priority ascending and returns the first.
// A configuration gap is not an error: with no eligible row the fixed default
// rate applies.
func (r *rateResolver) ResolveRate(ctx context.Context, taxClassID uuid.UUID, zone model.Zone, country string, asOf time.Time) (decimal.Decimal, error) {
	rows, err := r.rates.GetRates(ctx, taxClassID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load rates for class %s: %w", taxClassID, err)
	}

	eligible := rows[:0:0]
	for _, row := range rows {
		if row.AppliesTo(country, zone, asOf) {
			eligible = append(eligible, row)
		}
	}

	if len(eligible) == 0 {
		return r.cfg.DefaultRatePercent, nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority < eligible[j].Priority
	})
	return eligible[0].Rate, nil
}

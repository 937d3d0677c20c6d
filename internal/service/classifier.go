package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrUnknownTaxClass is the one condition the classifier refuses to paper
// over: an unknown class id means the caller's data is inconsistent.
var ErrUnknownTaxClass = errors.New("unknown tax class")

// ClassifyInput describes one transaction to be classified.
type ClassifyInput struct {
	Country    string // destination country, ISO 3166-1 alpha-2
	VATNumber  string // buyer's registration number, empty when none
	IsConsumer bool
	TaxClassID uuid.UUID
	PartnerID  *uuid.UUID // optional customer/supplier id for the audit trail
}

// Decision is the transient classification outcome. FixedRate is set when
// the zone itself predetermines the rate (0% for zero-rated zones, the
// destination rate under the OSS scheme); nil means the rate resolver decides.
type Decision struct {
	Zone          model.Zone
	ExemptionCode string
	ExemptionText string
	FixedRate     *decimal.Decimal
	TaxClass      *model.TaxClass
}

// Classifier decides which tax regime applies to a transaction.
type Classifier interface {
	Classify(ctx context.Context, in ClassifyInput) (Decision, error)
}

// classificationRule is one entry in the ordered decision list. Returning a
// nil Decision passes evaluation on to the next rule, so a rule can decline
// (e.g. an EU registration that fails verification) without deciding.
type classificationRule struct {
	name     string
	evaluate func(ctx context.Context, in ClassifyInput, class *model.TaxClass) (*Decision, error)
}

type classifier struct {
	classes    repository.TaxClassRepository
	oss        repository.OSSDestinationRepository
	exemptions repository.ExemptionRepository
	verifier   RegistrationVerifier
	cfg        Config
	rules      []classificationRule
}

// NewClassifier builds the classifier with its rule list. Rule order is the
// regulatory precedence; adding a jurisdiction means appending a rule, not
// editing control flow.
func NewClassifier(
	classes repository.TaxClassRepository,
	oss repository.OSSDestinationRepository,
	exemptions repository.ExemptionRepository,
	verifier RegistrationVerifier,
	cfg Config,
) Classifier {
	c := &classifier{
		classes:    classes,
		oss:        oss,
		exemptions: exemptions,
		verifier:   verifier,
		cfg:        cfg.WithDefaults(),
	}
	c.rules = []classificationRule{
		{name: "domestic", evaluate: c.ruleDomestic},
		{name: "eu_verified_registration", evaluate: c.ruleEUVerifiedRegistration},
		{name: "eu_oss_destination", evaluate: c.ruleEUOSSDestination},
		{name: "eu_without_registration", evaluate: c.ruleEUWithoutRegistration},
		{name: "third_country_export", evaluate: c.ruleThirdCountryExport},
	}
	return c
}

// Classify evaluates the rule list in order and returns the first decision.
// Aside from an unknown tax class every input classifies: the final rule
// matches unconditionally.
func (c *classifier) Classify(ctx context.Context, in ClassifyInput) (Decision, error) {
	class, err := c.classes.FindByID(ctx, in.TaxClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Decision{}, fmt.Errorf("%w: %s", ErrUnknownTaxClass, in.TaxClassID)
		}
		return Decision{}, fmt.Errorf("load tax class %s: %w", in.TaxClassID, err)
	}

	for _, rule := range c.rules {
		decision, err := rule.evaluate(ctx, in, class)
		if err != nil {
			return Decision{}, fmt.Errorf("rule %s: %w", rule.name, err)
		}
		if decision != nil {
			decision.TaxClass = class
			return *decision, nil
		}
	}

	// Unreachable: the export rule always decides.
	return Decision{}, fmt.Errorf("no classification rule matched country %q", in.Country)
}

func (c *classifier) ruleDomestic(_ context.Context, in ClassifyInput, _ *model.TaxClass) (*Decision, error) {
	if !c.cfg.IsHome(in.Country) {
		return nil, nil
	}
	return &Decision{Zone: model.ZoneDomestic}, nil
}

// ruleEUVerifiedRegistration grants the intra-community reverse charge only
// when the authority confirms the number. Unverifiable numbers decline and
// fall through; the verifier is never consulted without an EU number.
func (c *classifier) ruleEUVerifiedRegistration(ctx context.Context, in ClassifyInput, _ *model.TaxClass) (*Decision, error) {
	if !c.cfg.IsEU(in.Country) || in.VATNumber == "" {
		return nil, nil
	}
	if !c.verifier.Verify(ctx, in.VATNumber, in.Country, AuditContext{PartnerID: in.PartnerID}) {
		return nil, nil
	}
	zero := decimal.Zero
	return &Decision{
		Zone:          model.ZoneEUWithRegistration,
		ExemptionCode: model.ExemptionIntraCommunity,
		ExemptionText: c.exemptionText(ctx, model.ExemptionIntraCommunity),
		FixedRate:     &zero,
	}, nil
}

// ruleEUOSSDestination taxes consumer-style sales at the destination's rate
// while the destination is enrolled and active. The seller's default class
// maps to the standard rate, every other class to the reduced rate.
func (c *classifier) ruleEUOSSDestination(ctx context.Context, in ClassifyInput, class *model.TaxClass) (*Decision, error) {
	if !c.cfg.IsEU(in.Country) {
		return nil, nil
	}
	dest, err := c.oss.FindByCountry(ctx, in.Country)
	if err != nil {
		return nil, fmt.Errorf("look up OSS destination %s: %w", in.Country, err)
	}
	if dest == nil || !dest.Active {
		return nil, nil
	}
	rate := dest.StandardRate
	if !class.IsDefault {
		rate = dest.ReducedRate
	}
	return &Decision{Zone: model.ZoneEUSimplifiedScheme, FixedRate: &rate}, nil
}

func (c *classifier) ruleEUWithoutRegistration(_ context.Context, in ClassifyInput, _ *model.TaxClass) (*Decision, error) {
	if !c.cfg.IsEU(in.Country) {
		return nil, nil
	}
	return &Decision{Zone: model.ZoneEUWithoutRegistration}, nil
}

func (c *classifier) ruleThirdCountryExport(ctx context.Context, _ ClassifyInput, _ *model.TaxClass) (*Decision, error) {
	zero := decimal.Zero
	return &Decision{
		Zone:          model.ZoneThirdCountryExport,
		ExemptionCode: model.ExemptionExport,
		ExemptionText: c.exemptionText(ctx, model.ExemptionExport),
		FixedRate:     &zero,
	}, nil
}

// exemptionText resolves the configured wording for a code, falling back to
// the statutory defaults so the invoice never ships without its wording.
func (c *classifier) exemptionText(ctx context.Context, code string) string {
	text, err := c.exemptions.GetText(ctx, code, c.cfg.Language)
	if err != nil {
		log.Printf("failed to load exemption text %q: %v", code, err)
	}
	if text != "" {
		return text
	}
	switch code {
	case model.ExemptionIntraCommunity:
		if c.cfg.Language == "en" {
			return fallbackIntraCommunityTextEN
		}
		return fallbackIntraCommunityText
	case model.ExemptionExport:
		if c.cfg.Language == "en" {
			return fallbackExportTextEN
		}
		return fallbackExportText
	}
	return ""
}

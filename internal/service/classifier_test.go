package service

import (
	"context"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newClassifier(t *testing.T, db *gorm.DB, verifier RegistrationVerifier) Classifier {
	t.Helper()
	return NewClassifier(
		repository.NewTaxClassRepository(db),
		repository.NewOSSDestinationRepository(db),
		repository.NewExemptionRepository(db),
		verifier,
		Config{},
	)
}

func TestClassifyDomestic(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	verifier := &fakeVerifier{result: true}
	c := newClassifier(t, db, verifier)

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "DE",
		VATNumber:  "DE123456789",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneDomestic, decision.Zone)
	assert.Nil(t, decision.FixedRate)
	assert.Empty(t, decision.ExemptionCode)
	assert.Zero(t, verifier.calls, "a domestic sale must not consult the external authority")
}

func TestClassifyEUVerifiedRegistration(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	c := newClassifier(t, db, &fakeVerifier{result: true})

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		VATNumber:  "FR12345678901",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneEUWithRegistration, decision.Zone)
	require.NotNil(t, decision.FixedRate)
	assert.True(t, decision.FixedRate.IsZero())
	assert.Equal(t, model.ExemptionIntraCommunity, decision.ExemptionCode)
	assert.Equal(t, fallbackIntraCommunityText, decision.ExemptionText)
}

func TestClassifyEUFailedVerificationFallsThrough(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	verifier := &fakeVerifier{result: false}
	c := newClassifier(t, db, verifier)

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		VATNumber:  "FR12345678901",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, model.ZoneEUWithoutRegistration, decision.Zone, "an unverifiable number is taxed like an unregistered buyer")
	assert.Nil(t, decision.FixedRate)
	assert.Empty(t, decision.ExemptionCode)
}

func TestClassifyEUConsumerWithoutNumber(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	verifier := &fakeVerifier{result: true}
	c := newClassifier(t, db, verifier)

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		IsConsumer: true,
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneEUWithoutRegistration, decision.Zone)
	assert.Zero(t, verifier.calls, "no number means nothing to verify")
}

func TestClassifyEUOSSDestination(t *testing.T) {
	db := newTestDB(t)
	standard := seedTaxClass(t, db, "Standard", true)
	reduced := seedTaxClass(t, db, "Reduced", false)
	require.NoError(t, db.Create(&model.OSSDestination{
		CountryCode:  "FR",
		StandardRate: decimal.NewFromInt(20),
		ReducedRate:  decimal.RequireFromString("5.5"),
		Active:       true,
	}).Error)
	c := newClassifier(t, db, &fakeVerifier{})

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		IsConsumer: true,
		TaxClassID: standard.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ZoneEUSimplifiedScheme, decision.Zone)
	require.NotNil(t, decision.FixedRate)
	assert.Equal(t, "20.00", decision.FixedRate.StringFixed(2), "default class takes the destination's standard rate")

	decision, err = c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		IsConsumer: true,
		TaxClassID: reduced.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, decision.FixedRate)
	assert.Equal(t, "5.50", decision.FixedRate.StringFixed(2), "non-default class takes the destination's reduced rate")
}

func TestClassifyInactiveOSSDestinationIgnored(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	require.NoError(t, db.Create(&model.OSSDestination{
		CountryCode:  "FR",
		StandardRate: decimal.NewFromInt(20),
		ReducedRate:  decimal.RequireFromString("5.5"),
		Active:       false,
	}).Error)
	c := newClassifier(t, db, &fakeVerifier{})

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "FR",
		IsConsumer: true,
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneEUWithoutRegistration, decision.Zone)
	assert.Nil(t, decision.FixedRate)
}

func TestClassifyThirdCountryExport(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	verifier := &fakeVerifier{result: true}
	c := newClassifier(t, db, verifier)

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "US",
		VATNumber:  "something",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneThirdCountryExport, decision.Zone)
	require.NotNil(t, decision.FixedRate)
	assert.True(t, decision.FixedRate.IsZero())
	assert.Equal(t, model.ExemptionExport, decision.ExemptionCode)
	assert.Equal(t, fallbackExportText, decision.ExemptionText)
	assert.Zero(t, verifier.calls, "third-country numbers are never sent to the EU authority")
}

func TestClassifyMalformedCountryTreatedAsExport(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	c := newClassifier(t, db, &fakeVerifier{})

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "XX",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, model.ZoneThirdCountryExport, decision.Zone)
}

func TestClassifyUnknownTaxClass(t *testing.T) {
	db := newTestDB(t)
	c := newClassifier(t, db, &fakeVerifier{})

	_, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "DE",
		TaxClassID: uuid.New(),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTaxClass)
}

func TestClassifyExemptionTextFromStore(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	require.NoError(t, db.Create(&model.Exemption{
		Code:   model.ExemptionExport,
		Text:   "Ausfuhrlieferung, individuell angepasst",
		TextEN: "Export delivery, customized",
	}).Error)
	c := newClassifier(t, db, &fakeVerifier{})

	decision, err := c.Classify(context.Background(), ClassifyInput{
		Country:    "US",
		TaxClassID: class.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, "Ausfuhrlieferung, individuell angepasst", decision.ExemptionText, "configured wording overrides the compiled-in fallback")
}

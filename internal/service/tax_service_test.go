package service

import (
	"context"
	"testing"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTaxService(t *testing.T, db *gorm.DB, verifier RegistrationVerifier) TaxService {
	t.Helper()
	classifier := newClassifier(t, db, verifier)
	resolver := NewRateResolver(repository.NewTaxRateRepository(db), Config{})
	return NewTaxService(classifier, resolver, Config{})
}

func TestDetermineTaxDomestic(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	res, err := svc.DetermineTax(context.Background(), DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: class.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "domestic", res.Zone)
	assert.Equal(t, "19.00", res.Rate)
	assert.Empty(t, res.ExemptionText)
}

func TestDetermineTaxReverseCharge(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{result: true})

	res, err := svc.DetermineTax(context.Background(), DetermineTaxRequest{
		Country:    "FR",
		VATNumber:  "FR12345678901",
		TaxClassID: class.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "eu_registered", res.Zone)
	assert.Equal(t, "0.00", res.Rate)
	assert.NotEmpty(t, res.ExemptionText)
}

func TestDetermineTaxUnknownClass(t *testing.T) {
	db := newTestDB(t)
	svc := newTaxService(t, db, &fakeVerifier{})

	_, err := svc.DetermineTax(context.Background(), DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: "9e4b3c1a-0000-4000-8000-000000000000",
	})

	assert.ErrorIs(t, err, ErrUnknownTaxClass)
}

func TestDetermineTaxInvalidAsOf(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	_, err := svc.DetermineTax(context.Background(), DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: class.ID.String(),
		AsOf:       "yesterday",
	})

	assert.Error(t, err)
}

func TestDetermineTaxAsOfSelectsHistoricRate(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	from := mustParseRFC3339(t, "2020-07-01T00:00:00Z")
	to := mustParseRFC3339(t, "2020-12-31T00:00:00Z")
	seedRate(t, db, model.TaxRate{TaxClassID: class.ID, Rate: decimal.NewFromInt(16), ValidFrom: &from, ValidTo: &to, Priority: 0})
	svc := newTaxService(t, db, &fakeVerifier{})

	res, err := svc.DetermineTax(context.Background(), DetermineTaxRequest{
		Country:    "DE",
		TaxClassID: class.ID.String(),
		AsOf:       "2020-08-15T12:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, "16.00", res.Rate)
}

func TestComputeAmountsStandard(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	res, err := svc.ComputeAmounts(context.Background(), ComputeAmountsRequest{
		Gross:      "119.00",
		Country:    "DE",
		TaxClassID: class.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "100.00", res.Net)
	assert.Equal(t, "19.00", res.Tax)
	assert.Equal(t, "119.00", res.Gross)
	assert.Equal(t, "domestic", res.Zone)
}

func TestComputeAmountsExport(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	res, err := svc.ComputeAmounts(context.Background(), ComputeAmountsRequest{
		Gross:      "50.00",
		Country:    "US",
		TaxClassID: class.ID.String(),
	})

	require.NoError(t, err)
	assert.Equal(t, "50.00", res.Net)
	assert.Equal(t, "0.00", res.Tax)
	assert.Equal(t, "export", res.Zone)
	assert.NotEmpty(t, res.ExemptionText)
}

func TestComputeAmountsInvalidGross(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	_, err := svc.ComputeAmounts(context.Background(), ComputeAmountsRequest{
		Gross:      "a lot",
		Country:    "DE",
		TaxClassID: class.ID.String(),
	})

	assert.Error(t, err)
}

func TestComputeAmountsBatch(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{result: true})

	reqs := []ComputeAmountsRequest{
		{Gross: "119.00", Country: "DE", TaxClassID: class.ID.String()},
		{Gross: "200.00", Country: "US", TaxClassID: class.ID.String()},
		{Gross: "59.50", Country: "FR", VATNumber: "FR12345678901", TaxClassID: class.ID.String()},
	}

	results, err := svc.ComputeAmountsBatch(context.Background(), reqs)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "100.00", results[0].Net, "results keep the input order")
	assert.Equal(t, "export", results[1].Zone)
	assert.Equal(t, "eu_registered", results[2].Zone)
	assert.Equal(t, "59.50", results[2].Net)
}

func TestComputeAmountsBatchFailsOnBadItem(t *testing.T) {
	db := newTestDB(t)
	class := seedTaxClass(t, db, "Standard", true)
	svc := newTaxService(t, db, &fakeVerifier{})

	_, err := svc.ComputeAmountsBatch(context.Background(), []ComputeAmountsRequest{
		{Gross: "119.00", Country: "DE", TaxClassID: class.ID.String()},
		{Gross: "oops", Country: "DE", TaxClassID: class.ID.String()},
	})

	assert.Error(t, err)
}

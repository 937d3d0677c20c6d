package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/vies"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open test db")

	require.NoError(t, db.AutoMigrate(
		&model.TaxClass{},
		&model.TaxRate{},
		&model.OSSDestination{},
		&model.Exemption{},
		&model.VATVerification{},
		&model.AuditLog{},
	), "migrate test db")

	return db
}

func seedTaxClass(t *testing.T, db *gorm.DB, name string, isDefault bool) model.TaxClass {
	t.Helper()
	class := model.TaxClass{Name: name, IsDefault: isDefault}
	require.NoError(t, db.Create(&class).Error)
	return class
}

// fakeVerifier is a deterministic RegistrationVerifier for classifier tests.
type fakeVerifier struct {
	result bool
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string, _ AuditContext) bool {
	f.calls++
	return f.result
}

// fakeChecker is a deterministic vies.Checker for verifier tests.
type fakeChecker struct {
	result      vies.CheckResult
	err         error
	calls       int
	lastCountry string
	lastNumber  string
}

func (f *fakeChecker) CheckVAT(_ context.Context, countryCode, vatNumber string) (vies.CheckResult, error) {
	f.calls++
	f.lastCountry = countryCode
	f.lastNumber = vatNumber
	if f.err != nil {
		return vies.CheckResult{}, f.err
	}
	return f.result, nil
}

func strPtr(s string) *string { return &s }

func mustParseRFC3339(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

package service

import (
	"context"
	"testing"
	"time"

	"taxengine/internal/model"
	"taxengine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedVerification(t *testing.T, db *gorm.DB, vatNumber string, valid bool, checkedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.VATVerification{
		VATNumber:   vatNumber,
		CountryCode: vatNumber[:2],
		Valid:       valid,
		CheckedAt:   checkedAt,
	}).Error)
}

func TestLatestVerificationPicksNewest(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	seedVerification(t, db, "FR12345678901", false, now.Add(-48*time.Hour))
	seedVerification(t, db, "FR12345678901", true, now)
	seedVerification(t, db, "DE123456789", true, now.Add(-time.Hour))
	svc := NewVerificationQueryService(repository.NewVerificationRepository(db))

	res, err := svc.LatestVerification(context.Background(), "fr 12-345.678-901")

	require.NoError(t, err)
	require.NotNil(t, res, "lookup matches on the normalized number")
	assert.True(t, res.Valid)
	assert.Equal(t, now.Format(time.RFC3339), res.CheckedAt)
}

func TestLatestVerificationNeverChecked(t *testing.T) {
	db := newTestDB(t)
	svc := NewVerificationQueryService(repository.NewVerificationRepository(db))

	res, err := svc.LatestVerification(context.Background(), "FR99999999999")

	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestListVerificationsPaginated(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedVerification(t, db, "DE123456789", true, now.Add(time.Duration(-i)*time.Minute))
	}
	svc := NewVerificationQueryService(repository.NewVerificationRepository(db))

	page, total, err := svc.ListVerifications(context.Background(), 1, 2)

	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}

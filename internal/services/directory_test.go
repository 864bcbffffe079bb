package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doorline/backend/internal/errs"
)

func TestDirectoryService_GetProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := NewDirectoryService(db)
	ctx := context.Background()
	expires := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("found with promoter", func(t *testing.T) {
		mock.ExpectQuery("SELECT subject_id, display_name").
			WithArgs("sub-1").
			WillReturnRows(sqlmock.NewRows([]string{"subject_id", "display_name", "status", "id_verified", "verification_expires_at", "membership_expires_at", "referring_promoter_id"}).
				AddRow("sub-1", "Ada", "active", true, expires, nil, "promo-1"))

		p, err := d.GetProfile(ctx, "sub-1")
		require.NoError(t, err)
		assert.True(t, p.IDVerified)
		require.NotNil(t, p.ReferringPromoterID)
		assert.Equal(t, "promo-1", *p.ReferringPromoterID)
		assert.Nil(t, p.MembershipExpiresAt)
		assert.Equal(t, expires, *p.VerificationExpiresAt)
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT subject_id, display_name").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		_, err := d.GetProfile(ctx, "ghost")
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("store error", func(t *testing.T) {
		mock.ExpectQuery("SELECT subject_id, display_name").
			WithArgs("sub-2").
			WillReturnError(errors.New("connection reset"))

		_, err := d.GetProfile(ctx, "sub-2")
		assert.ErrorIs(t, err, errs.ErrUpstreamLookupFailed)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDirectoryService_GetVenue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	d := NewDirectoryService(db)

	mock.ExpectQuery("SELECT id, name, promoter_commission_rate").
		WithArgs("venue-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "promoter_commission_rate"}).
			AddRow("venue-1", "Blue Room", "0.1500"))

	v, err := d.GetVenue(context.Background(), "venue-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.15").Equal(v.PromoterCommissionRate))

	mock.ExpectQuery("SELECT id, name, promoter_commission_rate").
		WithArgs("venue-x").
		WillReturnError(sql.ErrNoRows)
	_, err = d.GetVenue(context.Background(), "venue-x")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

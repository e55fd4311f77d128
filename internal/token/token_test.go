package token_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/accounts-api/internal/apperr"
	"github.com/campusworks/accounts-api/internal/models"
	"github.com/campusworks/accounts-api/internal/testutil"
	"github.com/campusworks/accounts-api/internal/token"
)

func TestIssueAndValidate(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.NewConfig()
	issuer := token.NewIssuer(db, cfg)
	user := &models.User{ID: uuid.New()}

	pair, err := issuer.Issue(user)
	require.NoError(t, err)

	access, err := issuer.Validate(pair.Access, token.TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), access.UserID)
	assert.Equal(t, token.TypeAccess, access.TokenType)
	assert.NotEmpty(t, access.ID)

	refresh, err := issuer.Validate(pair.Refresh, token.TypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, token.TypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)
}

func TestValidateWrongType(t *testing.T) {
	db := testutil.NewDB(t)
	issuer := token.NewIssuer(db, testutil.NewConfig())
	user := &models.User{ID: uuid.New()}

	pair, err := issuer.Issue(user)
	require.NoError(t, err)

	_, err = issuer.Validate(pair.Access, token.TypeRefresh)
	assert.ErrorIs(t, err, apperr.ErrTokenWrongType)

	_, err = issuer.Validate(pair.Refresh, token.TypeAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenWrongType)
}

func TestValidateExpired(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.NewConfig()
	cfg.JWTAccessExpiry = -time.Minute
	issuer := token.NewIssuer(db, cfg)

	pair, err := issuer.Issue(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = issuer.Validate(pair.Access, token.TypeAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestValidateTampered(t *testing.T) {
	db := testutil.NewDB(t)
	issuer := token.NewIssuer(db, testutil.NewConfig())

	pair, err := issuer.Issue(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = issuer.Validate(pair.Access+"x", token.TypeAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestRevoke(t *testing.T) {
	db := testutil.NewDB(t)
	issuer := token.NewIssuer(db, testutil.NewConfig())

	pair, err := issuer.Issue(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	// Valid until revoked.
	_, err = issuer.Validate(pair.Refresh, token.TypeRefresh)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(pair.Refresh))

	_, err = issuer.Validate(pair.Refresh, token.TypeRefresh)
	assert.ErrorIs(t, err, apperr.ErrTokenBlacklisted)

	// Access tokens never consult the blacklist.
	_, err = issuer.Validate(pair.Access, token.TypeAccess)
	assert.NoError(t, err)
}

func TestRotate(t *testing.T) {
	t.Run("with rotation enabled the old refresh dies", func(t *testing.T) {
		db := testutil.NewDB(t)
		cfg := testutil.NewConfig()
		cfg.RotateRefresh = true
		issuer := token.NewIssuer(db, cfg)

		pair, err := issuer.Issue(&models.User{ID: uuid.New()})
		require.NoError(t, err)

		fresh, _, err := issuer.Rotate(pair.Refresh)
		require.NoError(t, err)
		assert.NotEqual(t, pair.Refresh, fresh.Refresh)

		_, _, err = issuer.Rotate(pair.Refresh)
		assert.ErrorIs(t, err, apperr.ErrTokenBlacklisted)
	})

	t.Run("with rotation disabled the old refresh survives", func(t *testing.T) {
		db := testutil.NewDB(t)
		cfg := testutil.NewConfig()
		cfg.RotateRefresh = false
		issuer := token.NewIssuer(db, cfg)

		pair, err := issuer.Issue(&models.User{ID: uuid.New()})
		require.NoError(t, err)

		_, _, err = issuer.Rotate(pair.Refresh)
		require.NoError(t, err)

		_, err = issuer.Validate(pair.Refresh, token.TypeRefresh)
		assert.NoError(t, err)
	})
}

func TestPurgeExpired(t *testing.T) {
	db := testutil.NewDB(t)
	issuer := token.NewIssuer(db, testutil.NewConfig())

	stale := models.BlacklistedToken{
		ID:        uuid.New(),
		JTI:       uuid.NewString(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	live := models.BlacklistedToken{
		ID:        uuid.New(),
		JTI:       uuid.NewString(),
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Create(&live).Error)

	purged, err := issuer.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var count int64
	db.Model(&models.BlacklistedToken{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

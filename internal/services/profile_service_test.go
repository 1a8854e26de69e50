package services

import (
	"context"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Current(t *testing.T) {
	profiles := newMemProfiles()
	svc := NewProfileService(profiles, time.Minute)
	ctx := context.Background()

	_, err := svc.Current(ctx, u1)
	require.ErrorIs(t, err, ErrProfileNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	c1 := "C1"
	require.NoError(t, profiles.InsertNewUser(ctx, &models.User{ID: u1, Email: "a@x.com", AsaasCustomerID: &c1}))

	user, err := svc.Current(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, "C1", user.BillingCustomerID())

	// Second read is served from the cache.
	_, err = svc.Current(ctx, u1)
	require.NoError(t, err)
	assert.Equal(t, 2, profiles.finds)
}

func TestProfileService_DuplicateProfiles(t *testing.T) {
	profiles := newMemProfiles()
	svc := NewProfileService(profiles, 0)
	ctx := context.Background()

	require.NoError(t, profiles.InsertNewUser(ctx, &models.User{ID: u1, Email: "a@x.com"}))
	require.NoError(t, profiles.InsertNewUser(ctx, &models.User{ID: u1, Email: "a@x.com"}))

	_, err := svc.Current(ctx, u1)
	require.ErrorIs(t, err, ErrDuplicateProfiles)
	assert.Equal(t, apperr.KindDataIntegrity, apperr.KindOf(err))
}

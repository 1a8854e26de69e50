package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrProfileNotFound   = errors.New("user profile not found")
	ErrDuplicateProfiles = errors.New("user profile data is inconsistent")
)

// ProfileService resolves the profile behind an authenticated account.
type ProfileService struct {
	profiles ProfileStore
	cache    *cache.Cache
}

// NewProfileService caches found profiles for ttl. A zero ttl disables the
// cache.
func NewProfileService(profiles ProfileStore, ttl time.Duration) *ProfileService {
	s := &ProfileService{profiles: profiles}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

func (s *ProfileService) Current(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	key := userID.String()
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(*models.User), nil
		}
	}

	user, err := s.profiles.FindByID(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		slog.Warn("authenticated account has no profile", "action", "load_profile", "user_id", key)
		return nil, apperr.NotFound(ErrProfileNotFound, key)
	case errors.Is(err, repository.ErrDuplicateProfile):
		integrityErr := apperr.DataIntegrity(ErrDuplicateProfiles, "more than one profile for "+key)
		slog.Error("multiple profiles for one account", "action", "load_profile", "user_id", key)
		captureInconsistency(integrityErr, "load_profile", userID, key)
		return nil, integrityErr
	case err != nil:
		return nil, apperr.Internal(err, "")
	}

	if s.cache != nil {
		s.cache.SetDefault(key, user)
	}
	return user, nil
}

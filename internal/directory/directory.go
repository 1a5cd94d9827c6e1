package directory

import (
	"context"

	"go.uber.org/zap"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

// Directory resolves display identities for user ids. Lookups never fail
// the caller's flow: a missing or unreadable profile resolves to the
// Unknown User fallback and the miss is logged at debug level.
type Directory struct {
	profiles repositories.ProfileRepository
	logger   *zap.Logger
}

// New constructs a Directory.
func New(profiles repositories.ProfileRepository, logger *zap.Logger) *Directory {
	return &Directory{profiles: profiles, logger: logger}
}

// Resolve returns the identity for one user id.
func (d *Directory) Resolve(ctx context.Context, userID int) models.Identity {
	profile, err := d.profiles.GetProfile(ctx, userID)
	if err != nil {
		d.logger.Debug("identity lookup miss", zap.Int("user_id", userID), zap.Error(err))
		return models.FallbackIdentity(userID)
	}
	return identityOf(profile)
}

// BulkResolve returns an identity for every requested id. Ids without a
// profile row map to the fallback identity.
func (d *Directory) BulkResolve(ctx context.Context, userIDs []int) map[int]models.Identity {
	result := make(map[int]models.Identity, len(userIDs))
	for _, id := range userIDs {
		result[id] = models.FallbackIdentity(id)
	}
	if len(userIDs) == 0 {
		return result
	}

	profiles, err := d.profiles.BulkProfiles(ctx, userIDs)
	if err != nil {
		d.logger.Debug("bulk identity lookup failed", zap.Int("count", len(userIDs)), zap.Error(err))
		return result
	}
	for _, profile := range profiles {
		result[profile.ID] = identityOf(profile)
	}
	return result
}

func identityOf(profile models.Profile) models.Identity {
	return models.Identity{
		UserID:    profile.ID,
		Username:  profile.Username,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		AvatarURL: profile.AvatarURL,
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/illegalcall/emoji-maker/internal/models"
	"github.com/illegalcall/emoji-maker/internal/store"
)

// ProfileService creates profile rows lazily on first authenticated contact.
type ProfileService struct {
	store  *store.Store
	logger *slog.Logger
}

func NewProfileService(st *store.Store, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: st, logger: logger}
}

// EnsureProfile returns the profile for userID, creating it with default
// credits and tier when the user is seen for the first time. An empty
// userID is an anonymous caller and yields no profile without error.
// Calling it again for the same user returns the same row unchanged.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID string) (*models.Profile, error) {
	if userID == "" {
		return nil, nil
	}

	profile, found, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to look up profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if found {
		return &profile, nil
	}

	s.logger.Info("Creating profile", "user_id", userID)
	created, err := s.store.InsertProfile(ctx, userID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			// Lost a first-contact race; the winner's row is the profile.
			existing, found, err := s.store.GetProfile(ctx, userID)
			if err != nil || !found {
				return nil, fmt.Errorf("%w: profile vanished after duplicate insert: %v", ErrPersistenceFailed, err)
			}
			return &existing, nil
		}
		s.logger.Error("Failed to create profile", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	return &created, nil
}

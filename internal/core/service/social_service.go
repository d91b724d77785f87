package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

// SocialService implements the follow graph, profiles and moderation.
type SocialService struct {
	repo   ports.IdentityRepository
	logger zerolog.Logger
}

func NewSocialService(repo ports.IdentityRepository, logger zerolog.Logger) *SocialService {
	return &SocialService{repo: repo, logger: logger}
}

func (s *SocialService) GetProfile(ctx context.Context, username string) (*domain.User, error) {
	username = domain.NormalizeHandle(username)
	if username == "" {
		return nil, domain.ErrIdentityNotFound
	}
	return s.repo.FindByUsername(ctx, username)
}

func (s *SocialService) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	var problems []string
	if update.FullName != nil {
		trimmed := strings.TrimSpace(*update.FullName)
		if trimmed == "" {
			problems = append(problems, "fullName cannot be empty")
		}
		update.FullName = &trimmed
	}
	if update.Bio != nil && utf8.RuneCountInString(*update.Bio) > domain.MaxBioLength {
		problems = append(problems, fmt.Sprintf("bio must be at most %d characters", domain.MaxBioLength))
	}
	if update.ProfilePic != nil {
		if u, err := url.ParseRequestURI(*update.ProfilePic); err != nil || u.Host == "" {
			problems = append(problems, "profilePic must be an absolute URL")
		}
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	updated, err := s.repo.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return updated, nil
}

// Follow makes followerID follow followeeID. Following twice is a no-op.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) error {
	if err := s.checkEdge(ctx, followerID, followeeID); err != nil {
		return err
	}
	if err := s.repo.Follow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	s.logger.Info().Str("follower", followerID).Str("followee", followeeID).Msg("followed")
	return nil
}

// Unfollow removes the edge. Unfollowing someone not followed is a no-op.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := s.checkEdge(ctx, followerID, followeeID); err != nil {
		return err
	}
	if err := s.repo.Unfollow(ctx, followerID, followeeID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	s.logger.Info().Str("follower", followerID).Str("followee", followeeID).Msg("unfollowed")
	return nil
}

func (s *SocialService) checkEdge(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return domain.NewValidationError("you cannot follow yourself")
	}
	if _, err := s.repo.FindByID(ctx, followeeID); err != nil {
		return err
	}
	return nil
}

func (s *SocialService) Ban(ctx context.Context, adminID, targetID string) error {
	return s.setBanned(ctx, adminID, targetID, true)
}

func (s *SocialService) Unban(ctx context.Context, adminID, targetID string) error {
	return s.setBanned(ctx, adminID, targetID, false)
}

func (s *SocialService) setBanned(ctx context.Context, adminID, targetID string, banned bool) error {
	if adminID == targetID {
		return domain.NewValidationError("admins cannot change their own ban state")
	}
	admin, err := s.repo.FindByID(ctx, adminID)
	if err != nil {
		return err
	}
	if admin.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	if err := s.repo.SetBanned(ctx, targetID, banned); err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	s.logger.Warn().Str("admin_id", adminID).Str("target_id", targetID).Bool("banned", banned).Msg("ban state changed")
	return nil
}

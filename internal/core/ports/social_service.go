package ports

import (
	"context"

	"github.com/mietgram/campus-api/internal/core/domain"
)

type SocialService interface {
	GetProfile(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	Ban(ctx context.Context, adminID, targetID string) error
	Unban(ctx context.Context, adminID, targetID string) error
}

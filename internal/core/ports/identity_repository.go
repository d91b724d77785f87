package ports

import (
	"context"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// IdentityRepository persists users and their social-graph edges.
type IdentityRepository interface {
	// Create inserts a new user. A clash on email or username returns
	// domain.ErrDuplicateIdentity.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// ExistsByEmailOrUsername reports whether either value is already taken.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// Follow and Unfollow update following(followerID) and followers(followeeID)
	// together. Both are idempotent.
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error

	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.User, error)
	SetBanned(ctx context.Context, id string, banned bool) error
	SetVerified(ctx context.Context, id string) error
}

package ports

import (
	"context"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// FeedQuery selects a page of non-archived posts authored by any of AuthorIDs,
// newest first.
type FeedQuery struct {
	AuthorIDs []string
	Page      int // 1-based
	Limit     int
}

// PostRepository persists posts.
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// ListByAuthors returns posts ordered by created_at DESC, _id DESC.
	ListByAuthors(ctx context.Context, q FeedQuery) ([]*domain.Post, error)
	// ToggleLike flips userID's membership in the post's like set using atomic
	// store-level set operations.
	ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error)
	AddComment(ctx context.Context, postID string, comment domain.Comment) error
	SetArchived(ctx context.Context, postID string, archived bool) (*domain.Post, error)
}

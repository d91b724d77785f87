package ports

import (
	"context"

	"github.com/mietgram/campus-api/internal/core/domain"
)

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	AuthorID  string
	MediaURL  string
	Caption   string
	Location  string
	MediaType string
	Tags      []string
}

// FeedInput selects a feed page for a requester.
type FeedInput struct {
	RequesterID string
	Page        int
	Limit       int
}

type PostService interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error)
	GetFeed(ctx context.Context, in FeedInput) ([]*domain.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error)
	AddComment(ctx context.Context, postID, userID, text string) (*domain.Comment, error)
	SetArchived(ctx context.Context, postID, userID string, archived bool) (*domain.Post, error)
}

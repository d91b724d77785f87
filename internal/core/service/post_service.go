package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

const (
	DefaultFeedLimit = 10
	// MaxFeedLimit bounds a single feed page.
	MaxFeedLimit = 100
)

// PostService implements post creation, feed assembly, likes and comments.
type PostService struct {
	posts    ports.PostRepository
	users    ports.IdentityRepository
	maxLimit int
	logger   zerolog.Logger
}

func NewPostService(posts ports.PostRepository, users ports.IdentityRepository, maxLimit int, logger zerolog.Logger) *PostService {
	if maxLimit <= 0 {
		maxLimit = MaxFeedLimit
	}
	return &PostService{posts: posts, users: users, maxLimit: maxLimit, logger: logger}
}

// CreatePost stores a new post with a snapshot of the author's handle and avatar.
func (s *PostService) CreatePost(ctx context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	mediaType := domain.MediaType(strings.ToLower(strings.TrimSpace(in.MediaType)))
	if mediaType == "" {
		mediaType = domain.MediaImage
	}

	var problems []string
	if u, err := url.ParseRequestURI(strings.TrimSpace(in.MediaURL)); err != nil || u.Host == "" {
		problems = append(problems, "mediaUrl must be an absolute URL")
	}
	if !mediaType.Valid() {
		problems = append(problems, "mediaType must be one of: image video reel")
	}
	if utf8.RuneCountInString(in.Caption) > domain.MaxCaptionLength {
		problems = append(problems, fmt.Sprintf("caption must be at most %d characters", domain.MaxCaptionLength))
	}
	if len(problems) > 0 {
		return nil, domain.NewValidationError(problems...)
	}

	author, err := s.users.FindByID(ctx, in.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	now := time.Now().UTC()
	post := &domain.Post{
		UserID:    author.ID,
		Username:  author.Username,
		UserImage: author.ProfilePic,
		MediaURL:  strings.TrimSpace(in.MediaURL),
		MediaType: mediaType,
		Caption:   in.Caption,
		Location:  strings.TrimSpace(in.Location),
		Tags:      mergeTags(in.Tags, domain.ExtractHashtags(in.Caption)),
		Likes:     []string{},
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", author.ID).Msg("failed to create post")
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.logger.Info().Str("post_id", created.ID).Str("user_id", author.ID).Msg("post created")
	return created, nil
}

// GetFeed returns one page of non-archived posts authored by the requester or
// anyone they follow, newest first.
func (s *PostService) GetFeed(ctx context.Context, in ports.FeedInput) ([]*domain.Post, error) {
	if in.Page < 1 || in.Limit < 1 {
		return nil, domain.NewValidationError("page and limit must be positive integers")
	}
	limit := in.Limit
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	requester, err := s.users.FindByID(ctx, in.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	// No feed holds enough posts to reach an offset that overflows.
	if in.Page-1 > math.MaxInt/limit {
		return []*domain.Post{}, nil
	}

	posts, err := s.posts.ListByAuthors(ctx, ports.FeedQuery{
		AuthorIDs: feedScope(requester),
		Page:      in.Page,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	if posts == nil {
		posts = []*domain.Post{}
	}
	return posts, nil
}

// feedScope is {requester} ∪ following(requester), without duplicates.
func feedScope(u *domain.User) []string {
	scope := make([]string, 0, len(u.Following)+1)
	seen := make(map[string]struct{}, len(u.Following)+1)
	for _, id := range append([]string{u.ID}, u.Following...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		scope = append(scope, id)
	}
	return scope
}

func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*domain.LikeResult, error) {
	if postID == "" {
		return nil, domain.ErrPostNotFound
	}
	res, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	s.logger.Debug().Str("post_id", postID).Str("user_id", userID).Bool("liked", res.IsLiked).Msg("like toggled")
	return res, nil
}

// AddComment appends a comment carrying the commenter's current username.
func (s *PostService) AddComment(ctx context.Context, postID, userID, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.NewValidationError("text is required")
	}
	if utf8.RuneCountInString(text) > domain.MaxCommentLength {
		return nil, domain.NewValidationError(fmt.Sprintf("text must be at most %d characters", domain.MaxCommentLength))
	}

	author, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		UserID:    author.ID,
		Username:  author.Username,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.posts.AddComment(ctx, postID, comment); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	return &comment, nil
}

// SetArchived hides or restores a post. Only the owner may do this.
func (s *PostService) SetArchived(ctx context.Context, postID, userID string, archived bool) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("archive post: %w", err)
	}
	if post.UserID != userID {
		return nil, domain.ErrForbidden
	}
	updated, err := s.posts.SetArchived(ctx, postID, archived)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("archive post: %w", err)
	}
	s.logger.Info().Str("post_id", postID).Bool("archived", archived).Msg("post archive state changed")
	return updated, nil
}

func mergeTags(explicit, fromCaption []string) []string {
	tags := make([]string, 0, len(explicit)+len(fromCaption))
	seen := make(map[string]struct{})
	for _, t := range append(explicit, fromCaption...) {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

package domain

import (
	"strings"
	"time"
)

// MediaType is the kind of media attached to a post.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaReel  MediaType = "reel"
)

const (
	MaxCaptionLength = 2200
	MaxCommentLength = 500
)

// Valid reports whether m is a supported media type.
func (m MediaType) Valid() bool {
	switch m {
	case MediaImage, MediaVideo, MediaReel:
		return true
	}
	return false
}

// Comment is a single append-only comment on a post.
type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is a media post. Username and UserImage are a snapshot of the author
// taken at creation time and are never re-synchronised.
type Post struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	UserImage  string    `json:"userImage"`
	MediaURL   string    `json:"mediaUrl"`
	MediaType  MediaType `json:"mediaType"`
	Caption    string    `json:"caption"`
	Location   string    `json:"location,omitempty"`
	Tags       []string  `json:"tags"`
	Likes      []string  `json:"likes"`
	Comments   []Comment `json:"comments"`
	IsArchived bool      `json:"isArchived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// ExtractHashtags returns the lowercased, de-duplicated #tags found in text,
// in order of first appearance.
func ExtractHashtags(text string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "#") {
			continue
		}
		tag := strings.ToLower(strings.TrimRight(strings.TrimPrefix(word, "#"), ".,!?;:"))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

type stubPostService struct {
	lastFeed    ports.FeedInput
	lastCreate  ports.CreatePostInput
	lastArchive bool
	feed        []*domain.Post
	like        *domain.LikeResult
	err         error
}

func (s *stubPostService) CreatePost(_ context.Context, in ports.CreatePostInput) (*domain.Post, error) {
	s.lastCreate = in
	if s.err != nil {
		return nil, s.err
	}
	mt := domain.MediaType(in.MediaType)
	if mt == "" {
		mt = domain.MediaImage
	}
	return &domain.Post{ID: "p1", UserID: in.AuthorID, MediaURL: in.MediaURL, MediaType: mt, Caption: in.Caption}, nil
}

func (s *stubPostService) GetFeed(_ context.Context, in ports.FeedInput) ([]*domain.Post, error) {
	s.lastFeed = in
	return s.feed, s.err
}

func (s *stubPostService) ToggleLike(_ context.Context, postID, userID string) (*domain.LikeResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.like, nil
}

func (s *stubPostService) AddComment(_ context.Context, postID, userID, text string) (*domain.Comment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Comment{ID: "c1", UserID: userID, Text: text, CreatedAt: time.Unix(0, 0).UTC()}, nil
}

func (s *stubPostService) SetArchived(_ context.Context, postID, userID string, archived bool) (*domain.Post, error) {
	s.lastArchive = archived
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Post{ID: postID, UserID: userID, IsArchived: archived}, nil
}

func TestPostHandler_Feed_Defaults(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{feed: []*domain.Post{}}
	handler := NewPostHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/posts/feed", "")
	authenticate(c, rahul)

	if err := handler.Feed(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "[]\n" {
		t.Fatalf("empty feed must be an empty array, got %q", rec.Body.String())
	}
	want := ports.FeedInput{RequesterID: "u-rahul", Page: 1, Limit: 10}
	if stub.lastFeed != want {
		t.Fatalf("expected %+v, got %+v", want, stub.lastFeed)
	}
}

func TestPostHandler_Feed_Paging(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{feed: []*domain.Post{{ID: "p2"}, {ID: "p1"}}}
	handler := NewPostHandler(stub)

	c, rec := newJSONContext(e, http.MethodGet, "/posts/feed?page=3&limit=2", "")
	authenticate(c, rahul)

	if err := handler.Feed(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastFeed.Page != 3 || stub.lastFeed.Limit != 2 {
		t.Fatalf("unexpected paging: %+v", stub.lastFeed)
	}
	var posts []domain.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("unexpected posts: %+v", posts)
	}
}

func TestPostHandler_Feed_BadQuery(t *testing.T) {
	for _, q := range []string{"page=0", "page=abc", "limit=-1", "limit=ten"} {
		t.Run(q, func(t *testing.T) {
			e := newTestEcho()
			handler := NewPostHandler(&stubPostService{})
			c, _ := newJSONContext(e, http.MethodGet, "/posts/feed?"+q, "")
			authenticate(c, rahul)

			if err := handler.Feed(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPostHandler_Feed_RequiresAuth(t *testing.T) {
	e := newTestEcho()
	handler := NewPostHandler(&stubPostService{})
	c, rec := newJSONContext(e, http.MethodGet, "/posts/feed", "")

	if err := handler.Feed(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPostHandler_Create(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{}
	handler := NewPostHandler(stub)

	c, rec := newJSONContext(e, http.MethodPost, "/posts",
		`{"mediaUrl":"https://cdn.example/p.jpg","caption":"Fest night #techfest","mediaType":"reel","tags":["miet"]}`)
	authenticate(c, rahul)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.lastCreate.AuthorID != "u-rahul" || stub.lastCreate.MediaType != "reel" || len(stub.lastCreate.Tags) != 1 {
		t.Fatalf("unexpected input: %+v", stub.lastCreate)
	}
}

func TestPostHandler_Create_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"caption":"no media"}`,
		`{"mediaUrl":"not a url"}`,
		`{"mediaUrl":"https://cdn.example/p.jpg","mediaType":"gif"}`,
	} {
		e := newTestEcho()
		handler := NewPostHandler(&stubPostService{})
		c, _ := newJSONContext(e, http.MethodPost, "/posts", body)
		authenticate(c, rahul)

		if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", body, err)
		}
	}
}

func TestPostHandler_Like(t *testing.T) {
	e := newTestEcho()
	handler := NewPostHandler(&stubPostService{like: &domain.LikeResult{Likes: 4, IsLiked: true}})

	c, rec := newJSONContext(e, http.MethodPost, "/posts/p1/like", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	authenticate(c, rahul)

	if err := handler.Like(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Body.String() != "{\"likes\":4,\"isLiked\":true}\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestPostHandler_Like_NotFound(t *testing.T) {
	e := newTestEcho()
	handler := NewPostHandler(&stubPostService{err: domain.ErrPostNotFound})

	c, _ := newJSONContext(e, http.MethodPost, "/posts/missing/like", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")
	authenticate(c, rahul)

	if err := handler.Like(c); !errors.Is(err, domain.ErrPostNotFound) {
		t.Fatalf("expected post not found, got %v", err)
	}
}

func TestPostHandler_Comment(t *testing.T) {
	e := newTestEcho()
	handler := NewPostHandler(&stubPostService{})

	c, rec := newJSONContext(e, http.MethodPost, "/posts/p1/comments", `{"text":"see you at the fest"}`)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	authenticate(c, rahul)

	if err := handler.Comment(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, _ = newJSONContext(e, http.MethodPost, "/posts/p1/comments", `{"text":""}`)
	authenticate(c, rahul)
	if err := handler.Comment(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPostHandler_ArchiveAndUnarchive(t *testing.T) {
	e := newTestEcho()
	stub := &stubPostService{}
	handler := NewPostHandler(stub)

	c, _ := newJSONContext(e, http.MethodPost, "/posts/p1/archive", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	authenticate(c, rahul)
	if err := handler.Archive(c); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !stub.lastArchive {
		t.Fatalf("expected archived=true")
	}

	c, _ = newJSONContext(e, http.MethodDelete, "/posts/p1/archive", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	authenticate(c, rahul)
	if err := handler.Unarchive(c); err != nil {
		t.Fatalf("unarchive: %v", err)
	}
	if stub.lastArchive {
		t.Fatalf("expected archived=false")
	}
}

func TestPostHandler_Archive_Forbidden(t *testing.T) {
	e := newTestEcho()
	handler := NewPostHandler(&stubPostService{err: domain.ErrForbidden})

	c, _ := newJSONContext(e, http.MethodPost, "/posts/p1/archive", "")
	c.SetParamNames("id")
	c.SetParamValues("p1")
	authenticate(c, rahul)

	if err := handler.Archive(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

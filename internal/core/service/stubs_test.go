package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory identity repository
// ---------------------------------------------------------------------------

type stubIdentityRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error // if set, every call returns it
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Followers = append([]string{}, u.Followers...)
	c.Following = append([]string{}, u.Following...)
	return &c
}

func (r *stubIdentityRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return nil, domain.ErrDuplicateIdentity
		}
	}
	r.nextID++
	c := cloneUser(u)
	if c.ID == "" {
		c.ID = "u" + strconv.Itoa(r.nextID)
	}
	r.byID[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubIdentityRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubIdentityRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	_, err := r.find(func(u *domain.User) bool { return u.Email == email || u.Username == username })
	if err == domain.ErrIdentityNotFound {
		return false, nil
	}
	return err == nil, err
}

func addToSet(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}

func pull(set []string, v string) []string {
	out := set[:0]
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func (r *stubIdentityRepo) Follow(_ context.Context, a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua, ub := r.byID[a], r.byID[b]
	if ua == nil || ub == nil {
		return domain.ErrIdentityNotFound
	}
	ua.Following = addToSet(ua.Following, b)
	ub.Followers = addToSet(ub.Followers, a)
	return nil
}

func (r *stubIdentityRepo) Unfollow(_ context.Context, a, b string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ua, ub := r.byID[a], r.byID[b]
	if ua == nil || ub == nil {
		return domain.ErrIdentityNotFound
	}
	ua.Following = pull(ua.Following, b)
	ub.Followers = pull(ub.Followers, a)
	return nil
}

func (r *stubIdentityRepo) UpdateProfile(_ context.Context, id string, up domain.ProfileUpdate) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byID[id]
	if u == nil {
		return nil, domain.ErrIdentityNotFound
	}
	if up.FullName != nil {
		u.FullName = *up.FullName
	}
	if up.Bio != nil {
		u.Bio = *up.Bio
	}
	if up.ProfilePic != nil {
		u.ProfilePic = *up.ProfilePic
	}
	if up.IsPrivate != nil {
		u.IsPrivate = *up.IsPrivate
	}
	return cloneUser(u), nil
}

func (r *stubIdentityRepo) SetBanned(_ context.Context, id string, banned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byID[id]
	if u == nil {
		return domain.ErrIdentityNotFound
	}
	u.Banned = banned
	return nil
}

func (r *stubIdentityRepo) SetVerified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byID[id]
	if u == nil {
		return domain.ErrIdentityNotFound
	}
	u.IsVerified = true
	return nil
}

// seedUser stores a user directly, bypassing registration.
func (r *stubIdentityRepo) seedUser(id, username string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := &domain.User{
		ID:         id,
		Username:   username,
		Email:      username + "@mietjammu.in",
		FullName:   username,
		ProfilePic: "https://img.example/" + username + ".png",
		Role:       domain.RoleStudent,
	}
	r.byID[id] = u
	return u
}

// ---------------------------------------------------------------------------
// In-memory post repository
// ---------------------------------------------------------------------------

type stubPostRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Post
	nextID    int
	lastQuery ports.FeedQuery
	err       error
}

func newStubPostRepo() *stubPostRepo {
	return &stubPostRepo{byID: make(map[string]*domain.Post)}
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.Likes = append([]string{}, p.Likes...)
	c.Comments = append([]domain.Comment{}, p.Comments...)
	c.Tags = append([]string{}, p.Tags...)
	return &c
}

func (r *stubPostRepo) Create(_ context.Context, p *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.nextID++
	c := clonePost(p)
	if c.ID == "" {
		c.ID = "p" + strconv.Itoa(r.nextID)
	}
	r.byID[c.ID] = c
	return clonePost(c), nil
}

func (r *stubPostRepo) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

// ListByAuthors mirrors the Mongo query: author filter, archive filter,
// created_at DESC then id DESC, skip/limit.
func (r *stubPostRepo) ListByAuthors(_ context.Context, q ports.FeedQuery) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = q
	if r.err != nil {
		return nil, r.err
	}

	authors := make(map[string]struct{}, len(q.AuthorIDs))
	for _, id := range q.AuthorIDs {
		authors[id] = struct{}{}
	}
	var matched []*domain.Post
	for _, p := range r.byID {
		if _, ok := authors[p.UserID]; !ok || p.IsArchived {
			continue
		}
		matched = append(matched, clonePost(p))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if q.Page-1 > len(matched)/q.Limit {
		return []*domain.Post{}, nil
	}
	skip := (q.Page - 1) * q.Limit
	if skip >= len(matched) {
		return []*domain.Post{}, nil
	}
	end := skip + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

// ToggleLike holds the lock across the membership check and the flip, the
// in-memory equivalent of the conditional $addToSet/$pull updates.
func (r *stubPostRepo) ToggleLike(_ context.Context, postID, userID string) (*domain.LikeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	for _, id := range p.Likes {
		if id == userID {
			p.Likes = pull(p.Likes, userID)
			return &domain.LikeResult{Likes: len(p.Likes), IsLiked: false}, nil
		}
	}
	p.Likes = append(p.Likes, userID)
	return &domain.LikeResult{Likes: len(p.Likes), IsLiked: true}, nil
}

func (r *stubPostRepo) AddComment(_ context.Context, postID string, c domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.Comments = append(p.Comments, c)
	return nil
}

func (r *stubPostRepo) SetArchived(_ context.Context, postID string, archived bool) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	p.IsArchived = archived
	return clonePost(p), nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type stubVerificationStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newStubVerificationStore() *stubVerificationStore {
	return &stubVerificationStore{tokens: make(map[string]string)}
}

func (s *stubVerificationStore) Save(_ context.Context, token, userID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
	return nil
}

func (s *stubVerificationStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.tokens[token]
	delete(s.tokens, token)
	return id, nil
}

type stubMailQueue struct {
	sent []ports.VerificationMail
}

func (q *stubMailQueue) Enqueue(m ports.VerificationMail) {
	q.sent = append(q.sent, m)
}

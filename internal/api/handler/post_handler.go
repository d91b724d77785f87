package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/api/metrics"
	"github.com/mietgram/campus-api/internal/core/domain"
	"github.com/mietgram/campus-api/internal/core/ports"
	"github.com/mietgram/campus-api/internal/core/service"
)

// PostHandler serves the feed, post creation, likes, comments and archiving.
type PostHandler struct {
	posts ports.PostService
}

func NewPostHandler(posts ports.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// Feed handles GET /posts/feed.
//
// @Summary      Home feed
// @Description  Posts by the caller and the accounts they follow, newest first.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number, starting at 1"  default(1)
// @Param        limit  query     int  false  "Page size, at most 100"      default(10)
// @Success      200    {array}   domain.Post
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Router       /posts/feed [get]
func (h *PostHandler) Feed(c echo.Context) error {
	start := time.Now()

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		return err
	}
	limit, err := positiveQueryInt(c, "limit", service.DefaultFeedLimit)
	if err != nil {
		return err
	}

	posts, err := h.posts.GetFeed(c.Request().Context(), ports.FeedInput{
		RequesterID: userID,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return err
	}

	metrics.FeedPageSize.Observe(float64(len(posts)))
	metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusOK, posts)
}

// Create handles POST /posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post details"
// @Success      201   {object}  domain.Post
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.CreatePost(c.Request().Context(), ports.CreatePostInput{
		AuthorID:  userID,
		MediaURL:  req.MediaURL,
		Caption:   req.Caption,
		Location:  req.Location,
		MediaType: req.MediaType,
		Tags:      req.Tags,
	})
	if err != nil {
		return err
	}

	metrics.PostsCreatedTotal.WithLabelValues(string(post.MediaType)).Inc()
	return c.JSON(http.StatusCreated, post)
}

// Like handles POST /posts/:id/like.
//
// @Summary      Toggle like
// @Description  Likes the post if the caller has not liked it yet, unlikes it otherwise.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.LikeResult
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/like [post]
func (h *PostHandler) Like(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	res, err := h.posts.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}

	action := "unlike"
	if res.IsLiked {
		action = "like"
	}
	metrics.LikesToggledTotal.WithLabelValues(action).Inc()
	return c.JSON(http.StatusOK, res)
}

// Comment handles POST /posts/:id/comments.
//
// @Summary      Comment on a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Post ID"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  domain.Comment
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /posts/{id}/comments [post]
func (h *PostHandler) Comment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.posts.AddComment(c.Request().Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// Archive handles POST /posts/:id/archive.
//
// @Summary      Archive a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Post
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/archive [post]
func (h *PostHandler) Archive(c echo.Context) error {
	return h.setArchived(c, true)
}

// Unarchive handles DELETE /posts/:id/archive.
//
// @Summary      Restore an archived post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Post
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id}/archive [delete]
func (h *PostHandler) Unarchive(c echo.Context) error {
	return h.setArchived(c, false)
}

func (h *PostHandler) setArchived(c echo.Context, archived bool) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	post, err := h.posts.SetArchived(c.Request().Context(), c.Param("id"), userID, archived)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// positiveQueryInt reads an optional positive integer query parameter.
func positiveQueryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name + " must be a positive integer")
	}
	return n, nil
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"github.com/tikgram/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles post creation, the feed, and every per-post
// interaction: like, comment, react, view.
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	interactions   *services.InteractionService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, interactions *services.InteractionService) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		interactions:   interactions,
	}
}

// RegisterPostRoutes registers post-related routes. Viewing works without an
// identity, everything else requires one.
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, auth, authOptional echo.MiddlewareFunc) {
	g.POST("", h.CreatePost, auth)
	g.GET("", h.GetFeed, auth)
	g.POST("/:id/like", h.ToggleLike, auth)
	g.POST("/:id/comment", h.AddComment, auth)
	g.GET("/:id/comments", h.GetComments, auth)
	g.POST("/:id/react", h.React, auth)
	g.POST("/:id/view", h.RecordView, authOptional)
}

// CreatePost creates a new post. Media is an opaque blob-store reference
// echoed back as-is.
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post := &models.Post{
		UserID:    userID,
		Caption:   req.Caption,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// FeedPost is a post with its author resolved to a public summary.
type FeedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
}

// GetFeed returns posts newest first with resolved authors
func (h *PostHandler) GetFeed(c echo.Context) error {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	ctx := c.Request().Context()
	posts, err := h.postRepository.GetAllPosts(ctx, skip, limit)
	if err != nil {
		return httpError(err)
	}

	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	seen := make(map[primitive.ObjectID]bool, len(posts))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			authorIDs = append(authorIDs, p.UserID)
		}
	}
	authors, err := h.userRepository.GetCompactByIDs(ctx, authorIDs)
	if err != nil {
		return httpError(err)
	}

	feed := make([]FeedPost, len(posts))
	for i, p := range posts {
		feed[i] = FeedPost{Post: p, Author: authors[p.UserID]}
	}
	return c.JSON(http.StatusOK, feed)
}

// ToggleLike toggles the caller's like on a post
func (h *PostHandler) ToggleLike(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	likes, err := h.interactions.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"likes": likes})
}

// AddComment appends a comment to a post
func (h *PostHandler) AddComment(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	result, err := h.interactions.AddComment(c.Request().Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetComments returns a post's comments with resolved authors
func (h *PostHandler) GetComments(c echo.Context) error {
	result, err := h.interactions.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// React applies the three-way reaction toggle on a post
func (h *PostHandler) React(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req models.CreateReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	result, err := h.interactions.React(c.Request().Context(), c.Param("id"), userID, req.Kind)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// RecordView counts a view once per viewer per day and returns fresh
// aggregate state either way. Anonymous viewers are keyed by client IP.
func (h *PostHandler) RecordView(c echo.Context) error {
	var caller *primitive.ObjectID
	if userID, ok := currentUserID(c); ok {
		caller = &userID
	}

	snapshot, err := h.interactions.RecordView(c.Request().Context(), c.Param("id"), caller, c.RealIP())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

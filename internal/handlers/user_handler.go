package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tikgram/backend/internal/models"
	"github.com/tikgram/backend/internal/repositories"
	"github.com/tikgram/backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxBioLength caps a profile bio in runes; longer input is truncated.
const maxBioLength = 220

// UserHandler handles profile reads/edits and the follow toggle
type UserHandler struct {
	userRepository repositories.UserRepository
	postRepository repositories.PostRepository
	follows        *services.FollowService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, postRepo repositories.PostRepository, follows *services.FollowService) *UserHandler {
	return &UserHandler{
		userRepository: userRepo,
		postRepository: postRepo,
		follows:        follows,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, auth, authOptional echo.MiddlewareFunc) {
	g.GET("/me", h.GetMe, auth)
	g.PATCH("/me", h.UpdateMe, auth)
	g.GET("/by-username/:username", h.GetByUsername, authOptional)
	g.POST("/:id/follow", h.ToggleFollow, auth)
	g.GET("/:id/posts", h.GetUserPosts)
}

// profileStats summarizes a user's public counters.
type profileStats struct {
	Followers  int   `json:"followers"`
	Following  int   `json:"following"`
	TotalLikes int64 `json:"totalLikes"`
	Posts      int64 `json:"posts"`
}

func (h *UserHandler) buildStats(c echo.Context, user *models.User) (profileStats, error) {
	ctx := c.Request().Context()
	totalLikes, err := h.postRepository.CountLikesByUserID(ctx, user.ID)
	if err != nil {
		return profileStats{}, err
	}
	posts, err := h.postRepository.CountPostsByUserID(ctx, user.ID)
	if err != nil {
		return profileStats{}, err
	}
	return profileStats{
		Followers:  len(user.Followers),
		Following:  len(user.Following),
		TotalLikes: totalLikes,
		Posts:      posts,
	}, nil
}

// GetMe returns the caller's profile with stats
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID.Hex())
	if err != nil {
		return httpError(err)
	}
	stats, err := h.buildStats(c, user)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":  user,
		"stats": stats,
		"isMe":  true,
	})
}

// UpdateMe edits the caller's bio and/or avatar reference
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Bio != nil {
		if runes := []rune(*req.Bio); len(runes) > maxBioLength {
			trimmed := string(runes[:maxBioLength])
			req.Bio = &trimmed
		}
	}

	ctx := c.Request().Context()
	if err := h.userRepository.UpdateProfile(ctx, userID, req.Bio, req.AvatarURL); err != nil {
		return httpError(err)
	}

	user, err := h.userRepository.GetUserByID(ctx, userID.Hex())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user})
}

// GetByUsername returns a public profile with stats. With a resolved caller
// identity the response also reports whether the caller follows them.
func (h *UserHandler) GetByUsername(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	stats, err := h.buildStats(c, user)
	if err != nil {
		return httpError(err)
	}

	isMe := false
	isFollowing := false
	if callerID, ok := currentUserID(c); ok {
		isMe = callerID == user.ID
		if !isMe {
			if caller, err := h.userRepository.GetUserByID(ctx, callerID.Hex()); err == nil {
				isFollowing = caller.IsFollowing(user.ID)
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":        user,
		"stats":       stats,
		"isMe":        isMe,
		"isFollowing": isFollowing,
	})
}

// ToggleFollow follows or unfollows the target user
func (h *UserHandler) ToggleFollow(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}

	result, err := h.follows.Toggle(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetUserPosts returns a user's posts, newest first. Public.
func (h *UserHandler) GetUserPosts(c echo.Context) error {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}

	posts, err := h.postRepository.GetPostsByUserID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

package handlers

import (
	"net/http"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/imagestore"
	"github.com/chirper-app/backend/internal/middleware"
	"github.com/chirper-app/backend/internal/models"
	"github.com/chirper-app/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// suggestedUsersLimit caps the suggested-users response. The sample is
// drawn before follow filtering, so fewer may come back.
const (
	suggestedUsersLimit = 4
	suggestedSampleSize = 10
	minPasswordLength   = 6
)

// UserHandler handles profile and social-graph HTTP requests
type UserHandler struct {
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	imageStore             imagestore.Store
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, imgStore imagestore.Store) *UserHandler {
	return &UserHandler{
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		imageStore:             imgStore,
	}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/users/profile/:username", h.GetProfile)
	g.GET("/users/suggested", h.SuggestedUsers)
	g.POST("/users/follow/:id", h.FollowUnfollow)
	g.POST("/users/update", h.UpdateProfile)
}

// GetProfile returns a user's public profile by username.
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// FollowUnfollow toggles the follow edge between the caller and the
// target user. Following creates exactly one notification; unfollowing
// creates none.
func (h *UserHandler) FollowUnfollow(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return apperrors.InvalidArgument("Invalid user ID")
	}
	if targetID == currentUserID {
		return apperrors.InvalidOperation("You cannot follow/unfollow yourself")
	}

	target, err := h.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		return err
	}
	currentUser, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		return err
	}

	if currentUser.IsFollowing(targetID) {
		if err := h.userRepository.RemoveFollow(ctx, currentUserID, targetID); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"message": "Unfollowed user successfully"})
	}

	if err := h.userRepository.AddFollow(ctx, currentUserID, targetID); err != nil {
		return err
	}

	notification := &models.Notification{
		Type: models.NotificationTypeFollow,
		From: currentUserID,
		To:   target.ID,
	}
	if err := h.notificationRepository.CreateNotification(ctx, notification); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Followed user successfully"})
}

// SuggestedUsers returns up to four users the caller does not follow,
// drawn from a random sample of the population. Best effort: eligible
// users may be omitted when the sample is unlucky.
func (h *UserHandler) SuggestedUsers(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	currentUser, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		return err
	}

	sample, err := h.userRepository.SampleUsers(ctx, currentUserID, suggestedSampleSize)
	if err != nil {
		return err
	}

	suggested := []models.User{}
	for _, u := range sample {
		if currentUser.IsFollowing(u.ID) {
			continue
		}
		suggested = append(suggested, u)
		if len(suggested) == suggestedUsersLimit {
			break
		}
	}

	return c.JSON(http.StatusOK, suggested)
}

// UpdateProfile updates the caller's profile. Password changes need the
// current password; image payloads are pushed to the CDN and the previous
// hosted image is destroyed first.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	currentUserID := middleware.CurrentUserID(c)

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(ctx, currentUserID)
	if err != nil {
		return err
	}

	if (req.NewPassword == "") != (req.CurrentPassword == "") {
		return apperrors.InvalidArgument("Both current and new passwords are required")
	}
	if req.CurrentPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
			return apperrors.InvalidArgument("Current password is incorrect")
		}
		if len(req.NewPassword) < minPasswordLength {
			return apperrors.InvalidArgument("New password must be at least 6 characters long")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user.Password = string(hashed)
	}

	if req.ProfileImg != "" {
		if user.ProfileImg != "" {
			if err := h.imageStore.Destroy(ctx, user.ProfileImg); err != nil {
				return err
			}
		}
		url, err := h.imageStore.Upload(ctx, req.ProfileImg)
		if err != nil {
			return err
		}
		user.ProfileImg = url
	}
	if req.CoverImg != "" {
		if user.CoverImg != "" {
			if err := h.imageStore.Destroy(ctx, user.CoverImg); err != nil {
				return err
			}
		}
		url, err := h.imageStore.Upload(ctx, req.CoverImg)
		if err != nil {
			return err
		}
		user.CoverImg = url
	}

	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.Link != "" {
		user.Link = req.Link
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

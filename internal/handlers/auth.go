package handlers

import (
	"net/http"
	"time"

	"github.com/chirper-app/backend/internal/apperrors"
	"github.com/chirper-app/backend/internal/middleware"
	"github.com/chirper-app/backend/internal/models"
	"github.com/chirper-app/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		jwtSecret:      jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication routes. Me requires a
// valid token; the rest are reachable unauthenticated.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.GET("/me", h.Me, middleware.JWTAuthMiddleware(h.jwtSecret))
}

// Signup handles local user registration.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username); err == nil {
		return apperrors.InvalidArgument("Username is already taken")
	}
	if _, err := h.userRepository.GetUserByEmail(c.Request().Context(), req.Email); err == nil {
		return apperrors.InvalidArgument("Email is already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		return err
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// Login handles local user authentication.
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return apperrors.InvalidArgument("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return apperrors.InvalidArgument("Invalid username or password")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// Logout exists for client symmetry; bearer tokens are stateless so the
// client just discards its copy.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

// Me returns the authenticated user's full record, password scrubbed by
// the model's serialization.
func (h *AuthHandler) Me(c echo.Context) error {
	userID := middleware.CurrentUserID(c)
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// generateJWT generates a signed token for a given user.
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}

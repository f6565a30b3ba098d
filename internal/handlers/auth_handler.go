package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cashflow/internal/auth"
	apperrors "cashflow/internal/errors"
	"cashflow/internal/models"
	"cashflow/internal/ratelimit"
	"cashflow/internal/sanitize"
	"cashflow/internal/services"
)

// AuthHandler handles registration, login and account requests.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
	issuer       *auth.HMACVerifier
	limiter      *ratelimit.Limiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer, issuer *auth.HMACVerifier, limiter *ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		auditService: auditService,
		issuer:       issuer,
		limiter:      limiter,
	}
}

// RegisterRequest represents the registration payload.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	FullName     string `json:"full_name" binding:"required"`
	BusinessName string `json:"business_name"`
}

// LoginRequest represents the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the profile update payload. Both fields
// are optional but at least one must be set.
type UpdateProfileRequest struct {
	FullName     string `json:"full_name"`
	BusinessName string `json:"business_name"`
}

// ChangePasswordRequest represents the password change payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// TokenResponse carries a freshly issued access token.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        UserResponse `json:"user"`
}

// UserResponse represents a user account on the wire.
type UserResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	BusinessName string `json:"business_name,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		BusinessName: u.BusinessName,
		CreatedAt:    u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create a user account and return an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "Registration details"
// @Success     201 {object} TokenResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := sanitize.ValidatePassword(req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	fullName := sanitize.String(req.FullName)
	if fullName == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "full_name is required"))
		return
	}
	businessName := sanitize.String(req.BusinessName)

	user, err := h.userService.CreateUser(req.Email, req.Password, fullName, businessName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.AuthSuccess(user.ID, c.ClientIP())

	c.JSON(http.StatusCreated, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserResponse(user),
	})
}

// Login handles user authentication
// @Summary     Log in
// @Description Authenticate with email and password and return an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} TokenResponse "Authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	clientIP := c.ClientIP()

	if h.limiter != nil && h.limiter.TooManyFailures(clientIP) {
		h.auditService.SuspiciousActivity(nil, "login attempts after repeated failures", clientIP)
		respondWithError(c, apperrors.WithMessage(apperrors.ErrRateLimited, "Too many failed login attempts, try again later"))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		if h.limiter != nil {
			h.limiter.RecordFailure(clientIP)
		}
		h.auditService.AuthFailure(req.Email, clientIP, "invalid credentials")
		respondWithError(c, err)
		return
	}

	token, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.AuthSuccess(user.ID, clientIP)

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserResponse(user),
	})
}

// Me handles profile retrieval for the authenticated user
// @Summary     Get current user
// @Description Return the authenticated user's profile
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateMe handles profile updates for the authenticated user
// @Summary     Update current user
// @Description Update the authenticated user's display name or business name
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile fields to update"
// @Success     200 {object} UserResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /auth/me [put]
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fullName := sanitize.String(req.FullName)
	businessName := sanitize.String(req.BusinessName)
	if fullName == "" && businessName == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "No profile fields to update"))
		return
	}

	user, err := h.userService.UpdateProfile(userID, fullName, businessName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.DataModification(userID, "update_profile", user.ID, c.ClientIP())

	c.JSON(http.StatusOK, toUserResponse(user))
}

// ChangePassword handles password rotation for the authenticated user
// @Summary     Change password
// @Description Verify the current password and replace it with a new one
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Password change details"
// @Success     200 {object} MessageResponse "Password changed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized or wrong current password"
// @Router      /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := sanitize.ValidatePassword(req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.userService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.PasswordChange(userID, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

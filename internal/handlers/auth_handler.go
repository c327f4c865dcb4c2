package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopit/backend/internal/auth/middleware"
	"github.com/shopit/backend/internal/metrics"
	"github.com/shopit/backend/internal/models"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for the credential lifecycle.
type AuthService interface {
	// Method Register validates the input, creates a user and issues a session token.
	//
	// If the input is invalid or the email is taken, the error will be returned together with "nil" user and empty token.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error)
	// Method Login checks email and password and issues a session token.
	//
	// An unknown email and a wrong password return the same error.
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Method ForgotPassword stores a reset hash and mails the reset link to the user.
	//
	// It returns the address the email was sent to. If sending fails, the reset state is rolled back.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (string, error)
	// Method ResetPassword sets a new password for the holder of "secret" and issues a session token.
	//
	// An unknown and an expired secret return the same error.
	ResetPassword(ctx context.Context, secret string, req *models.ResetPasswordRequest) (*models.User, string, error)
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
	cookie      CookieConfig
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, cookie CookieConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
		cookie:      cookie,
		now:         time.Now,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/password/forgot", h.ForgotPassword)
	r.Put("/password/reset/{token}", h.ResetPassword)
	r.With(authMiddleware).Get("/logout", h.Logout)
}

// Register handles POST /register
// @Summary Register a new user
// @Description Create an account and log it in. The session token is set as the HTTP-only "token" cookie and echoed in the body.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Register request"
// @Success 201 {object} models.AuthResponse "User registered"
// @Failure 400 {object} models.MessageResponse "Invalid input"
// @Failure 409 {object} models.MessageResponse "Duplicate email"
// @Failure 500 {object} models.MessageResponse "Internal server error"
// @Router /register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, "register", err)
		return
	}

	h.sendToken(w, http.StatusCreated, user, token)
}

// Login handles POST /login
// @Summary Login user
// @Description Authenticate with email and password. The session token is set as the HTTP-only "token" cookie and echoed in the body.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse "Login successful"
// @Failure 400 {object} models.MessageResponse "Missing email or password"
// @Failure 401 {object} models.MessageResponse "Invalid email or password"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, "login", err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

// Logout handles GET /logout
// @Summary Logout user
// @Description Expire the session cookie. Requires authentication.
// @Tags auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} models.MessageResponse "Logged out"
// @Failure 401 {object} models.MessageResponse "Login first to access this resource"
// @Router /logout [get]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  h.now(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	metrics.RecordAuthEvent(metrics.EventLogout, nil)

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "Logged Out"})
}

// ForgotPassword handles POST /password/forgot
// @Summary Request a password reset
// @Description Email a single-use reset link to the user. The link expires after the configured window.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} models.MessageResponse "Email sent"
// @Failure 404 {object} models.MessageResponse "User not found with this email"
// @Failure 500 {object} models.MessageResponse "Email could not be sent"
// @Router /password/forgot [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sentTo, err := h.authService.ForgotPassword(r.Context(), &req)
	if err != nil {
		h.RespondAppError(w, r, "forgot password", err)
		return
	}

	h.RespondJSON(w, http.StatusOK, models.MessageResponse{Message: "Email sent to: " + sentTo})
}

// ResetPassword handles PUT /password/reset/{token}
// @Summary Reset password
// @Description Set a new password using the secret from the reset email and log the user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param token path string true "Reset secret from the email link"
// @Param request body models.ResetPasswordRequest true "New password"
// @Success 200 {object} models.AuthResponse "Password reset"
// @Failure 400 {object} models.MessageResponse "Password does not match"
// @Failure 404 {object} models.MessageResponse "Password reset token is invalid or has been expired"
// @Router /password/reset/{token} [put]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	user, token, err := h.authService.ResetPassword(r.Context(), chi.URLParam(r, "token"), &req)
	if err != nil {
		h.RespondAppError(w, r, "reset password", err)
		return
	}

	h.sendToken(w, http.StatusOK, user, token)
}

// sendToken sets the session cookie and writes the token and user in the body
func (h *AuthHandler) sendToken(w http.ResponseWriter, status int, user *models.User, token string) {
	setTokenCookie(w, token, h.cookie, h.now())
	h.RespondJSON(w, status, models.AuthResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}

// setTokenCookie writes the session token as an HTTP-only cookie expiring with the token
func setTokenCookie(w http.ResponseWriter, token string, cfg CookieConfig, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(cfg.TTL),
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

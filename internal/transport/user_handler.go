package transport

import (
	"net/http"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/middleware"
	"digitronix/internal/service"

	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	Phone     string `json:"phone" validate:"required"`
	Country   string `json:"country" validate:"required"`
	City      string `json:"city" validate:"required"`
	Street    string `json:"street" validate:"required"`
	Apartment string `json:"apartment" validate:"required"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response. The token is also set as
// the session cookie; it is returned for clients that send bearer headers.
type LoginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    *domain.User `json:"user"`
}

// SessionCookie describes the cookie carrying the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

func (c SessionCookie) issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}

func (c SessionCookie) clear() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteNoneMode,
	}
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	users  service.UserService
	cookie SessionCookie
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users service.UserService, cookie SessionCookie, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		cookie: cookie,
		logger: logger,
	}
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Country:   req.Country,
		City:      req.City,
		Street:    req.Street,
		Apartment: req.Apartment,
	})
	if err != nil {
		h.logger.Debug("Registration failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, user)
}

// Login authenticates the user and sets the session cookie
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookie.issue(token))

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Message: "login successful",
		Token:   token,
		User:    user,
	})
}

// Logout clears the session cookie. Tokens are stateless, so nothing is
// revoked server side.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie.clear())
	respondMessage(w, "logged out successfully")
}

// List requires a session but not admin rights.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	users, err := h.users.List(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.users.Count(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"userCount": count})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("User deleted", zap.String("user_id", id.String()))
	respondMessage(w, "user deleted")
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campuslink/campuslink-be/internal/auth"
	"github.com/campuslink/campuslink-be/internal/http/respond"
	"github.com/campuslink/campuslink-be/internal/middleware"
	"github.com/campuslink/campuslink-be/internal/models"
	"github.com/campuslink/campuslink-be/internal/models/dto"
	"github.com/campuslink/campuslink-be/internal/storage"
)

// UserHandler owns the register/login/session endpoints.
type UserHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	validate *validator.Validate
	logger   *zap.Logger
	limiter  *middleware.RateLimiter
}

// NewUserHandler constructs the handler. The rate limiter guards the
// login endpoint only.
func NewUserHandler(store storage.UserStore, tokens *auth.TokenManager, limiter *middleware.RateLimiter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		store:    store,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
		limiter:  limiter,
	}
}

// Register attaches user routes to the mux. The me and {id} routes are
// hard-gated by the auth middleware; their handlers never run without
// verified claims in context.
func (h *UserHandler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/users", http.HandlerFunc(h.handleRegister))
	mux.Handle("POST /api/users/login", h.limiter.Limit(http.HandlerFunc(h.handleLogin)))
	mux.Handle("POST /api/users/logout", http.HandlerFunc(h.handleLogout))
	mux.Handle("GET /api/users/me", middleware.RequireAuth(h.tokens, http.HandlerFunc(h.handleMe)))
	mux.Handle("GET /api/users/{id}", middleware.RequireAuth(h.tokens, http.HandlerFunc(h.handleGetByID)))
}

func (h *UserHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		AvatarURL:    req.AvatarURL,
		PasswordHash: passwordHash,
	}
	if user.AvatarURL == "" {
		user.AvatarURL = placeholderAvatar(user.Name)
	}

	created, err := h.store.Create(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "Email already registered")
		default:
			h.logger.Error("create user", zap.Error(err), zap.String("email", req.Email))
			respond.Error(w, http.StatusInternalServerError, "Signup failed")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, dto.RegisterResponse{
		ID:    created.ID,
		Name:  created.Name,
		Email: created.Email,
	})
}

func (h *UserHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Missing fields")
		return
	}

	// The not-found and wrong-password branches answer identically so
	// the response does not reveal which half of the pair was wrong.
	user, err := h.store.FindByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("find user", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	respond.JSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.ProfileOf(user),
	})
}

// handleLogout exists so clients can notify the server on sign-out.
// Tokens are stateless and there is no revocation list, so there is
// nothing to invalidate server-side; an issued token lapses at its
// natural expiry.
func (h *UserHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusNoContent, nil)
}

// handleMe re-reads the store so the client gets fresh profile data
// (name, avatar) rather than the snapshot frozen into the token.
func (h *UserHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Missing token")
		return
	}

	user, err := h.store.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("find current user", zap.Error(err), zap.Int64("user_id", claims.UserID))
		respond.Error(w, http.StatusInternalServerError, "Error fetching current user")
		return
	}

	respond.JSON(w, http.StatusOK, dto.ProfileOf(user))
}

func (h *UserHandler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	user, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		h.logger.Error("find user by id", zap.Error(err), zap.Int64("user_id", id))
		respond.Error(w, http.StatusInternalServerError, "Error fetching user")
		return
	}

	respond.JSON(w, http.StatusOK, dto.ProfileOf(user))
}

// placeholderAvatar builds a deterministic initials image URL for
// accounts registered without one.
func placeholderAvatar(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
}

// validationMessage flattens validator output into the field-level
// message shape the client renders.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Missing fields"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "email":
			parts = append(parts, "email must be a valid address")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}

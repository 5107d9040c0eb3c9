package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/utils"
)

const (
	contextUserIDKey = "user_id"
	contextUserKey   = "user"
	contextRoleKey   = "user_role"

	sessionName      = "learning_session"
	sessionUserIDKey = "user_id"
)

// IdentityProvider resolves users from bearer tokens and OAuth codes.
type IdentityProvider interface {
	ParseToken(token string) (*models.User, error)
	ExchangeCode(ctx context.Context, code, state string) (*models.User, error)
}

// NewSessionStore returns the cookie store backing browser sessions.
func NewSessionStore(secret string, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// AuthMiddleware resolves the caller from a bearer token or, failing that, the
// session cookie.
type AuthMiddleware struct {
	provider IdentityProvider
	store    sessions.Store
	userRepo repositories.UserRepository
	logger   utils.Logger
}

// NewAuthMiddleware accepts a nil provider, in which case only sessions work.
func NewAuthMiddleware(provider IdentityProvider, store sessions.Store, userRepo repositories.UserRepository, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		provider: provider,
		store:    store,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Authenticate rejects the request with 401 unless an identity is found.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := am.resolve(c)
		if err != nil {
			utils.GetLogger(c, am.logger).Debug("Authentication failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
			return
		}

		c.Set(contextUserIDKey, user.ID)
		c.Set(contextUserKey, user)
		c.Set(contextRoleKey, user.Role)
		c.Next()
	}
}

// RequireRole checks the role set by Authenticate. Admins pass every check.
func (am *AuthMiddleware) RequireRole(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "forbidden"})
			return
		}
		if role != models.RoleAdmin && !slices.Contains(requiredRoles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "forbidden",
				Details: map[string]interface{}{"requiredRoles": requiredRoles},
			})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) resolve(c *gin.Context) (*models.User, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		token, ok := bearerToken(header)
		if !ok {
			return nil, errors.New("invalid authorization header format")
		}
		if am.provider == nil {
			return nil, errors.New("token authentication is not configured")
		}
		user, err := am.provider.ParseToken(token)
		if err != nil {
			return nil, err
		}
		if err := am.remember(c.Request.Context(), user); err != nil {
			utils.GetLogger(c, am.logger).Warn("Failed to refresh local user", "user_id", user.ID, "error", err)
		}
		return user, nil
	}

	session, err := am.store.Get(c.Request, sessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	userID, _ := session.Values[sessionUserIDKey].(string)
	if userID == "" {
		return nil, errors.New("no session")
	}
	user, err := am.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// remember mirrors the provider account into the local users table.
func (am *AuthMiddleware) remember(ctx context.Context, user *models.User) error {
	return am.userRepo.Upsert(ctx, user)
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get(contextUserKey)
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(contextRoleKey)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}

// ===== AUTH ROUTES =====

type AuthHandler struct {
	BaseHandler
	auth *AuthMiddleware
}

func NewAuthHandler(auth *AuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		auth:        auth,
	}
}

// Callback completes the OAuth login and opens a session
// @Summary OAuth callback
// @Tags auth
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string false "State"
// @Success 200 {object} models.User
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	h.LogRequest(c, "Completing login")

	if h.auth.provider == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Message: "identity provider is not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: "code is required"})
		return
	}

	user, err := h.auth.provider.ExchangeCode(c.Request.Context(), code, c.Query("state"))
	if err != nil {
		h.LogError(c, err, "Code exchange failed")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
		return
	}
	if err := h.auth.remember(c.Request.Context(), user); err != nil {
		h.handleServiceError(c, err)
		return
	}

	session, _ := h.auth.store.Get(c.Request, sessionName)
	session.Values[sessionUserIDKey] = user.ID
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.handleServiceError(c, fmt.Errorf("failed to save session: %w", err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// Logout ends the session
// @Summary Logout
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session, _ := h.auth.store.Get(c.Request, sessionName)
	delete(session.Values, sessionUserIDKey)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request, c.Writer); err != nil {
		h.handleServiceError(c, fmt.Errorf("failed to clear session: %w", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, user)
}

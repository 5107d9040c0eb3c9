package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/models"
)

// Directory resolves identity provider accounts: bearer tokens, OAuth codes and
// user lookups by id. Lookups are cached in Redis when a client is supplied.
type Directory struct {
	client *casdoorsdk.Client
	redis  *redis.Client

	// Cache settings
	cachePrefix string
	cacheTTL    time.Duration
}

func NewDirectory(cfg config.CasdoorConfig, redisClient *redis.Client) *Directory {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &Directory{
		client:      client,
		redis:       redisClient,
		cachePrefix: "user:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== TOKENS =====

// ParseToken validates a JWT issued by the identity provider and returns the
// account it was issued for.
func (d *Directory) ParseToken(token string) (*models.User, error) {
	claims, err := d.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return userFromClaims(claims)
}

// ExchangeCode trades an OAuth authorization code for a token and resolves it.
func (d *Directory) ExchangeCode(ctx context.Context, code, state string) (*models.User, error) {
	token, err := d.client.GetOAuthToken(code, state)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	user, err := d.ParseToken(token.AccessToken)
	if err != nil {
		return nil, err
	}
	d.setUserCache(ctx, user.ID, user)
	return user, nil
}

// ===== LOOKUPS =====

// GetByID returns the account with the given id, from cache when possible.
func (d *Directory) GetByID(ctx context.Context, id string) (*models.User, error) {
	if cached, err := d.getUserFromCache(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	casdoorUser, err := d.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}
	if casdoorUser == nil {
		return nil, fmt.Errorf("user not found with ID %s", id)
	}

	user := convertUser(casdoorUser)
	d.setUserCache(ctx, id, user)
	return user, nil
}

// ===== CACHE METHODS =====

func (d *Directory) getCacheKey(key string) string {
	return fmt.Sprintf("%sid:%s", d.cachePrefix, key)
}

func (d *Directory) getUserFromCache(ctx context.Context, key string) (*models.User, error) {
	if d.redis == nil {
		return nil, nil
	}

	data, err := d.redis.Get(ctx, d.getCacheKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return &user, nil
}

func (d *Directory) setUserCache(ctx context.Context, key string, user *models.User) {
	if d.redis == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	d.redis.Set(ctx, d.getCacheKey(key), data, d.cacheTTL)
}

// ===== CONVERSION =====

func userFromClaims(claims *casdoorsdk.Claims) (*models.User, error) {
	user := convertUser(&claims.User)
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if user.ID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}
	return user, nil
}

func convertUser(casdoorUser *casdoorsdk.User) *models.User {
	user := &models.User{
		ID:       casdoorUser.Id,
		FullName: casdoorUser.DisplayName,
		Email:    casdoorUser.Email,
		Role:     convertRoles(casdoorUser),
	}
	if casdoorUser.Avatar != "" {
		avatar := casdoorUser.Avatar
		user.AvatarURL = &avatar
	}
	return user
}

// convertRoles maps provider roles onto ours. Any staff role authors courses.
func convertRoles(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	roles := make([]models.UserRole, 0, len(casdoorUser.Roles))
	for _, role := range casdoorUser.Roles {
		if role != nil {
			roles = append(roles, MapRole(role.Name))
		}
	}
	if roles := append(roles, MapRole(casdoorUser.Type)); slices.Contains(roles, models.RoleAdmin) {
		return models.RoleAdmin
	}
	return models.RoleStudent
}

// MapRole maps a single provider role or user type name.
func MapRole(name string) models.UserRole {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator", "teacher", "instructor":
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}

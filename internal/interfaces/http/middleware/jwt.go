package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	identityapp "github.com/smartstore/backend/internal/application/identity"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/auth"
	"github.com/smartstore/backend/internal/infrastructure/logger"
)

// Auth context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTPermissions = "jwt_permissions"
	APIKeyIDKey    = "api_key_id"
	AuthHeaderKey  = "Authorization"
	APIKeyHeader   = "X-API-Key"
	BearerPrefix   = "Bearer "

	// APIKeyRole marks claims synthesized from an API key
	APIKeyRole = "API_KEY"
)

// APIKeyAuthenticator resolves a plaintext API key to its principal
type APIKeyAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (*identityapp.APIKeyPrincipal, error)
}

// JWTMiddlewareConfig holds configuration for the auth middleware
type JWTMiddlewareConfig struct {
	// JWTService is required for token validation
	JWTService *auth.JWTService
	// TokenBlacklist is optional for checking revoked tokens
	TokenBlacklist auth.TokenBlacklist
	// APIKeys enables X-API-Key authentication when set
	APIKeys APIKeyAuthenticator
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	// Optional callback if authentication fails (default: return 401)
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// JWTAuthMiddlewareWithConfig authenticates a request by bearer token or,
// when no Authorization header is present, by X-API-Key
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" && cfg.APIKeys != nil {
			if rawKey := c.GetHeader(APIKeyHeader); rawKey != "" {
				authenticateAPIKey(c, cfg, rawKey)
				return
			}
		}

		if authHeader == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			handleAuthError(c, cfg, auth.ErrInvalidToken, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil {
			ctx := c.Request.Context()

			if claims.ID != "" {
				blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
				if err != nil {
					// fail open on store errors
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check token blacklist",
							zap.String("jti", claims.ID),
							zap.Error(err))
					}
				} else if blacklisted {
					handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
					return
				}
			}

			if claims.UserID != "" {
				invalidated, err := cfg.TokenBlacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
				if err != nil {
					if cfg.Logger != nil {
						cfg.Logger.Error("Failed to check user token invalidation",
							zap.String("user_id", claims.UserID),
							zap.Error(err))
					}
				} else if invalidated {
					handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "User session has been invalidated")
					return
				}
			}
		}

		setPrincipal(c, claims)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
			)
		}

		c.Next()
	}
}

func authenticateAPIKey(c *gin.Context, cfg JWTMiddlewareConfig, rawKey string) {
	principal, err := cfg.APIKeys.Authenticate(c.Request.Context(), rawKey)
	if err != nil {
		var domainErr *shared.DomainError
		if !errors.As(err, &domainErr) && cfg.Logger != nil {
			cfg.Logger.Error("API key lookup failed", zap.Error(err))
		}
		handleAuthError(c, cfg, errInvalidAPIKey, "API key rejected")
		return
	}

	// API keys act on behalf of the user who created them, restricted to the
	// key's own permission set
	claims := &auth.Claims{
		TenantID:    principal.TenantID.String(),
		UserID:      principal.CreatedBy.String(),
		Role:        APIKeyRole,
		Permissions: principal.Permissions,
		TokenType:   auth.TokenTypeAccess,
	}
	setPrincipal(c, claims)
	c.Set(APIKeyIDKey, principal.KeyID.String())

	if cfg.Logger != nil {
		cfg.Logger.Debug("API key authentication successful",
			zap.String("key_id", principal.KeyID.String()),
			zap.String("tenant_id", claims.TenantID),
		)
	}

	c.Next()
}

var errInvalidAPIKey = errors.New("invalid api key")

func setPrincipal(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTTenantIDKey, claims.TenantID)
	c.Set(JWTPermissions, claims.Permissions)
	// read by the access log
	c.Set("tenant_id", claims.TenantID)

	ctx := c.Request.Context()
	if id, err := uuid.Parse(claims.TenantID); err == nil {
		ctx = logger.WithTenantID(ctx, id)
	}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		ctx = logger.WithUserID(ctx, id)
	}
	c.Request = c.Request.WithContext(ctx)
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("Authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorCode := "ERR_UNAUTHORIZED"
	errorMessage := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		errorCode = "ERR_TOKEN_EXPIRED"
		errorMessage = "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidClaims):
		errorCode = "ERR_TOKEN_INVALID"
		errorMessage = "Invalid token"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		errorCode = "ERR_TOKEN_INVALID"
		errorMessage = "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		errorCode = "ERR_TOKEN_REVOKED"
		errorMessage = "Token has been revoked"
	case errors.Is(err, errInvalidAPIKey):
		errorMessage = "Invalid or expired API key"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    errorCode,
			"message": errorMessage,
		},
	})
}

// GetJWTClaims retrieves the authenticated claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetJWTUserID retrieves the user ID from the authenticated claims
func GetJWTUserID(c *gin.Context) string {
	return c.GetString(JWTUserIDKey)
}

// GetJWTTenantID retrieves the tenant ID from the authenticated claims
func GetJWTTenantID(c *gin.Context) string {
	return c.GetString(JWTTenantIDKey)
}

// GetAPIKeyID returns the authenticating API key ID, or "" for bearer tokens
func GetAPIKeyID(c *gin.Context) string {
	return c.GetString(APIKeyIDKey)
}

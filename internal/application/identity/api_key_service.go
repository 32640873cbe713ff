package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
)

var errInvalidAPIKey = shared.NewDomainError(shared.CodeUnauthorized, "Invalid or expired API key")

// APIKeyService issues and authenticates API keys
type APIKeyService struct {
	keyRepo  identity.APIKeyRepository
	userRepo identity.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewAPIKeyService creates a new APIKeyService
func NewAPIKeyService(keyRepo identity.APIKeyRepository, userRepo identity.UserRepository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		keyRepo:  keyRepo,
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// Create issues a key. The key may only grant permissions the creator holds.
func (s *APIKeyService) Create(ctx context.Context, tenantID, creatorID uuid.UUID, req CreateAPIKeyRequest) (*CreatedAPIKeyResponse, error) {
	creator, err := s.userRepo.FindByID(ctx, tenantID, creatorID)
	if err != nil {
		return nil, err
	}

	perms := dedupe(req.Permissions)
	for _, p := range perms {
		if !creator.Role.HasPermission(p) {
			return nil, shared.InvalidInput("Cannot grant permission " + p)
		}
	}

	key, raw, err := identity.GenerateAPIKey(tenantID, creatorID, req.Name, perms, req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.keyRepo.Save(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info("API key created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("key_id", key.ID.String()),
		zap.String("prefix", key.Prefix))

	return &CreatedAPIKeyResponse{APIKeyResponse: ToAPIKeyResponse(key), Key: raw}, nil
}

// List returns every key of the tenant, revoked ones included
func (s *APIKeyService) List(ctx context.Context, tenantID uuid.UUID) ([]APIKeyResponse, error) {
	keys, err := s.keyRepo.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]APIKeyResponse, len(keys))
	for i := range keys {
		out[i] = ToAPIKeyResponse(&keys[i])
	}
	return out, nil
}

// Revoke disables a key permanently
func (s *APIKeyService) Revoke(ctx context.Context, tenantID, keyID uuid.UUID) error {
	key, err := s.keyRepo.FindByID(ctx, tenantID, keyID)
	if err != nil {
		return err
	}
	if err := key.Revoke(); err != nil {
		return err
	}
	if err := s.keyRepo.Save(ctx, key); err != nil {
		return err
	}
	s.logger.Info("API key revoked", zap.String("key_id", keyID.String()))
	return nil
}

// Authenticate resolves a plaintext key to its principal and stamps last_used_at
func (s *APIKeyService) Authenticate(ctx context.Context, raw string) (*APIKeyPrincipal, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, identity.APIKeyPrefix) {
		return nil, errInvalidAPIKey
	}

	key, err := s.keyRepo.FindByHash(ctx, identity.HashAPIKey(raw))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errInvalidAPIKey
		}
		return nil, err
	}

	now := s.now()
	if !key.IsActive(now) {
		return nil, errInvalidAPIKey
	}

	if err := s.keyRepo.TouchLastUsed(ctx, key.ID, now); err != nil {
		s.logger.Warn("Failed to touch API key", zap.String("key_id", key.ID.String()), zap.Error(err))
	}

	return &APIKeyPrincipal{
		KeyID:       key.ID,
		TenantID:    key.TenantID,
		CreatedBy:   key.CreatedBy,
		Permissions: key.Permissions,
	}, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

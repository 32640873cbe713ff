package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
)

var errLastOwner = shared.InvalidState("An organization must keep at least one active owner")

// UserService manages the users of an organization
type UserService struct {
	userRepo identity.UserRepository
	hasher   identity.PasswordHasher
	logger   *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo identity.UserRepository, hasher identity.PasswordHasher, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, hasher: hasher, logger: logger}
}

// List returns a page of users
func (s *UserService) List(ctx context.Context, tenantID uuid.UUID, filter UserListFilter) (*shared.Paginated[UserResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Role != "" {
		f = f.With("role", filter.Role)
	}

	users, total, err := s.userRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, tenantID, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// Create adds a user. Only an owner may create another owner.
func (s *UserService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		return nil, shared.InvalidInput("Invalid role")
	}
	if role == identity.RoleOwner {
		if err := s.requireOwner(ctx, tenantID, actorID); err != nil {
			return nil, err
		}
	}
	if err := identity.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	email, err := identity.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.AlreadyExists("Email already registered")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := identity.NewUser(tenantID, email, req.DisplayName, hash, role)
	if err != nil {
		return nil, err
	}
	user.Phone = req.Phone
	user.SetCreatedBy(actorID)

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Update changes profile fields and enables or disables the user
func (s *UserService) Update(ctx context.Context, tenantID, actorID, userID uuid.UUID, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil || req.Phone != nil {
		displayName, phone := user.DisplayName, user.Phone
		if req.DisplayName != nil {
			displayName = *req.DisplayName
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if err := user.UpdateProfile(displayName, phone); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		switch identity.UserStatus(*req.Status) {
		case identity.UserStatusActive:
			user.Enable()
		case identity.UserStatusDisabled:
			if userID == actorID {
				return nil, shared.InvalidState("You cannot disable your own account")
			}
			if err := s.ensureOwnerRemains(ctx, user); err != nil {
				return nil, err
			}
			user.Disable()
		default:
			return nil, shared.InvalidInput("Invalid status")
		}
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangeRole assigns a new role. Granting or revoking OWNER requires an owner.
func (s *UserService) ChangeRole(ctx context.Context, tenantID, actorID, userID uuid.UUID, req ChangeRoleRequest) (*UserResponse, error) {
	role, ok := identity.ParseRole(req.Role)
	if !ok {
		return nil, shared.InvalidInput("Invalid role")
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		resp := ToUserResponse(user)
		return &resp, nil
	}

	if role == identity.RoleOwner || user.Role == identity.RoleOwner {
		if err := s.requireOwner(ctx, tenantID, actorID); err != nil {
			return nil, err
		}
	}
	if err := s.ensureOwnerRemains(ctx, user); err != nil {
		return nil, err
	}

	previous := user.Role
	if err := user.ChangeRole(role); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(role)))

	resp := ToUserResponse(user)
	return &resp, nil
}

// Delete soft-deletes a user
func (s *UserService) Delete(ctx context.Context, tenantID, actorID, userID uuid.UUID) error {
	if userID == actorID {
		return shared.InvalidState("You cannot delete your own account")
	}
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if err := s.ensureOwnerRemains(ctx, user); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, tenantID, userID); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", userID.String()))
	return nil
}

// ensureOwnerRemains rejects removing the last active owner
func (s *UserService) ensureOwnerRemains(ctx context.Context, user *identity.User) error {
	if user.Role != identity.RoleOwner || !user.CanLogin() {
		return nil
	}
	owners, err := s.userRepo.CountByRole(ctx, user.TenantID, identity.RoleOwner)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return errLastOwner
	}
	return nil
}

func (s *UserService) requireOwner(ctx context.Context, tenantID, actorID uuid.UUID) error {
	actor, err := s.userRepo.FindByID(ctx, tenantID, actorID)
	if err != nil {
		return shared.ErrForbidden
	}
	if actor.Role != identity.RoleOwner {
		return shared.NewDomainError(shared.CodeForbidden, "Only an owner can manage owners")
	}
	return nil
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/auth"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) FindByRoles(ctx context.Context, tenantID uuid.UUID, roles ...identity.Role) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, roles)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, tenantID uuid.UUID, role identity.Role) (int64, error) {
	args := m.Called(ctx, tenantID, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func newUser(t *testing.T, tenantID uuid.UUID, email string, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewUser(tenantID, email, "", "hash", role)
	require.NoError(t, err)
	return user
}

func TestUserService_ChangeRole(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("demoting the last owner is rejected", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		owner := newUser(t, tenantID, "owner@shop.test", identity.RoleOwner)

		repo.On("FindByID", ctx, tenantID, owner.ID).Return(owner, nil)
		repo.On("CountByRole", ctx, tenantID, identity.RoleOwner).Return(int64(1), nil)

		_, err := svc.ChangeRole(ctx, tenantID, owner.ID, owner.ID, ChangeRoleRequest{Role: "ADMIN"})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("demoting one of two owners succeeds", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		actor := newUser(t, tenantID, "a@shop.test", identity.RoleOwner)
		target := newUser(t, tenantID, "b@shop.test", identity.RoleOwner)

		repo.On("FindByID", ctx, tenantID, target.ID).Return(target, nil)
		repo.On("FindByID", ctx, tenantID, actor.ID).Return(actor, nil)
		repo.On("CountByRole", ctx, tenantID, identity.RoleOwner).Return(int64(2), nil)
		repo.On("Save", ctx, target).Return(nil)

		resp, err := svc.ChangeRole(ctx, tenantID, actor.ID, target.ID, ChangeRoleRequest{Role: "MANAGER"})
		require.NoError(t, err)
		assert.Equal(t, "MANAGER", resp.Role)
		repo.AssertExpectations(t)
	})

	t.Run("admin cannot grant owner", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		admin := newUser(t, tenantID, "admin@shop.test", identity.RoleAdmin)
		staff := newUser(t, tenantID, "staff@shop.test", identity.RoleStaff)

		repo.On("FindByID", ctx, tenantID, staff.ID).Return(staff, nil)
		repo.On("FindByID", ctx, tenantID, admin.ID).Return(admin, nil)

		_, err := svc.ChangeRole(ctx, tenantID, admin.ID, staff.ID, ChangeRoleRequest{Role: "OWNER"})
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})

	t.Run("invalid role", func(t *testing.T) {
		svc := NewUserService(new(MockUserRepository), auth.NewBcryptHasher(4), zap.NewNop())
		_, err := svc.ChangeRole(ctx, tenantID, uuid.New(), uuid.New(), ChangeRoleRequest{Role: "ROOT"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("cannot delete self", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		id := uuid.New()
		assert.ErrorIs(t, svc.Delete(ctx, tenantID, id, id), shared.ErrInvalidState)
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("last owner", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		owner := newUser(t, tenantID, "owner@shop.test", identity.RoleOwner)
		repo.On("FindByID", ctx, tenantID, owner.ID).Return(owner, nil)
		repo.On("CountByRole", ctx, tenantID, identity.RoleOwner).Return(int64(1), nil)

		assert.ErrorIs(t, svc.Delete(ctx, tenantID, uuid.New(), owner.ID), shared.ErrInvalidState)
	})

	t.Run("staff", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		staff := newUser(t, tenantID, "staff@shop.test", identity.RoleStaff)
		repo.On("FindByID", ctx, tenantID, staff.ID).Return(staff, nil)
		repo.On("Delete", ctx, tenantID, staff.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, tenantID, uuid.New(), staff.ID))
		repo.AssertExpectations(t)
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	actorID := uuid.New()

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		repo.On("ExistsByEmail", ctx, "taken@shop.test").Return(true, nil)

		_, err := svc.Create(ctx, tenantID, actorID, CreateUserRequest{
			Email: "Taken@shop.test", Password: "password1", Role: "STAFF",
		})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("hashes password and records creator", func(t *testing.T) {
		repo := new(MockUserRepository)
		svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())
		repo.On("ExistsByEmail", ctx, "new@shop.test").Return(false, nil)
		repo.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.TenantID == tenantID &&
				u.Role == identity.RoleStaff &&
				u.PasswordHash != "password1" &&
				u.CreatedBy != nil && *u.CreatedBy == actorID
		})).Return(nil)

		resp, err := svc.Create(ctx, tenantID, actorID, CreateUserRequest{
			Email: "new@shop.test", Password: "password1", Role: "STAFF", DisplayName: "New Hire",
		})
		require.NoError(t, err)
		assert.Equal(t, "New Hire", resp.DisplayName)
		repo.AssertExpectations(t)
	})
}

func TestUserService_UpdateDisable(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())

	staff := newUser(t, tenantID, "staff@shop.test", identity.RoleStaff)
	staff.UpdatedAt = time.Now().Add(-time.Hour)
	repo.On("FindByID", ctx, tenantID, staff.ID).Return(staff, nil)
	repo.On("Save", ctx, staff).Return(nil)

	disabled := string(identity.UserStatusDisabled)
	resp, err := svc.Update(ctx, tenantID, uuid.New(), staff.ID, UpdateUserRequest{Status: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "DISABLED", resp.Status)
	assert.False(t, staff.CanLogin())
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, auth.NewBcryptHasher(4), zap.NewNop())

	users := []identity.User{*newUser(t, tenantID, "a@shop.test", identity.RoleAdmin)}
	repo.On("FindAll", ctx, tenantID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 5 && f.Filters["role"] == "ADMIN"
	})).Return(users, int64(6), nil)

	page, err := svc.List(ctx, tenantID, UserListFilter{Page: 2, PageSize: 5, Role: "ADMIN"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.TotalPages)
}

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_HasPermission(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission string
		expected   bool
	}{
		{"owner updates organization", RoleOwner, Permission(ResourceOrganization, ActionUpdate), true},
		{"admin cannot update organization", RoleAdmin, Permission(ResourceOrganization, ActionUpdate), false},
		{"admin deletes products", RoleAdmin, Permission(ResourceProduct, ActionDelete), true},
		{"manager creates products", RoleManager, Permission(ResourceProduct, ActionCreate), true},
		{"manager cannot delete products", RoleManager, Permission(ResourceProduct, ActionDelete), false},
		{"manager refunds payments", RoleManager, PermPaymentRefund, true},
		{"staff moves inventory", RoleStaff, PermInventoryMove, true},
		{"staff creates orders", RoleStaff, Permission(ResourceOrder, ActionCreate), true},
		{"staff cannot read users", RoleStaff, Permission(ResourceUser, ActionRead), false},
		{"staff cannot read reports", RoleStaff, PermReportRead, false},
		{"viewer reads orders", RoleViewer, Permission(ResourceOrder, ActionRead), true},
		{"viewer cannot create orders", RoleViewer, Permission(ResourceOrder, ActionCreate), false},
		{"unknown role has nothing", Role("GUEST"), Permission(ResourceOrder, ActionRead), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.HasPermission(tt.permission))
		})
	}
}

func TestRole_PermissionsReturnsCopy(t *testing.T) {
	perms := RoleViewer.Permissions()
	perms[0] = "hacked:all"

	assert.NotEqual(t, "hacked:all", RoleViewer.Permissions()[0])
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" manager ")
	assert.True(t, ok)
	assert.Equal(t, RoleManager, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
}

func TestAllPermissions_IncludesSpecialActions(t *testing.T) {
	all := AllPermissions()
	assert.Contains(t, all, PermCampaignSend)
	assert.Contains(t, all, PermIntegrationSync)
	assert.Contains(t, all, Permission(ResourceCoupon, ActionDelete))
}

package identity

import "strings"

// Role is a fixed user role. Permissions are derived from a static table.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleViewer  Role = "VIEWER"
)

// Resources guarded by permissions
const (
	ResourceOrganization   = "organization"
	ResourceUser           = "user"
	ResourceAPIKey         = "apikey"
	ResourceCategory       = "category"
	ResourceProduct        = "product"
	ResourceCustomer       = "customer"
	ResourceWarehouse      = "warehouse"
	ResourceInventory      = "inventory"
	ResourceOrder          = "order"
	ResourceReturn         = "return"
	ResourcePayment        = "payment"
	ResourceDelivery       = "delivery"
	ResourceCoupon         = "coupon"
	ResourceLoyalty        = "loyalty"
	ResourceCampaign       = "campaign"
	ResourceNotification   = "notification"
	ResourceIntegration    = "integration"
	ResourceReport         = "report"
	ResourceRecommendation = "recommendation"
)

// Actions
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Permission builds a resource:action permission string
func Permission(resource, action string) string {
	return resource + ":" + action
}

var crudResources = []string{
	ResourceOrganization, ResourceUser, ResourceAPIKey, ResourceCategory, ResourceProduct,
	ResourceCustomer, ResourceWarehouse, ResourceInventory, ResourceOrder, ResourceReturn,
	ResourcePayment, ResourceDelivery, ResourceCoupon, ResourceLoyalty, ResourceCampaign,
	ResourceNotification, ResourceIntegration,
}

// special actions outside plain CRUD
var (
	PermInventoryMove   = Permission(ResourceInventory, "move")
	PermPaymentRefund   = Permission(ResourcePayment, "refund")
	PermCampaignSend    = Permission(ResourceCampaign, "send")
	PermIntegrationSync = Permission(ResourceIntegration, "sync")
	PermReportRead      = Permission(ResourceReport, ActionRead)
	PermRecommendRead   = Permission(ResourceRecommendation, ActionRead)
)

// AllPermissions returns every permission known to the system
func AllPermissions() []string {
	perms := make([]string, 0, len(crudResources)*4+6)
	for _, r := range crudResources {
		perms = append(perms,
			Permission(r, ActionRead),
			Permission(r, ActionCreate),
			Permission(r, ActionUpdate),
			Permission(r, ActionDelete),
		)
	}
	return append(perms, PermInventoryMove, PermPaymentRefund, PermCampaignSend, PermIntegrationSync, PermReportRead, PermRecommendRead)
}

func readPermissions() []string {
	perms := make([]string, 0, len(crudResources)+2)
	for _, r := range crudResources {
		perms = append(perms, Permission(r, ActionRead))
	}
	return append(perms, PermReportRead, PermRecommendRead)
}

func without(perms []string, excluded ...string) []string {
	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		if !skip[p] {
			out = append(out, p)
		}
	}
	return out
}

func with(base []string, resources []string, actions ...string) []string {
	out := append([]string{}, base...)
	for _, r := range resources {
		for _, a := range actions {
			out = append(out, Permission(r, a))
		}
	}
	return out
}

var rolePermissions = map[Role][]string{
	RoleOwner: AllPermissions(),
	RoleAdmin: without(AllPermissions(),
		Permission(ResourceOrganization, ActionUpdate),
		Permission(ResourceOrganization, ActionDelete),
	),
	RoleManager: append(with(readPermissions(),
		[]string{ResourceCategory, ResourceProduct, ResourceCustomer, ResourceWarehouse, ResourceOrder,
			ResourceReturn, ResourceDelivery, ResourceCoupon, ResourceCampaign, ResourceNotification, ResourcePayment},
		ActionCreate, ActionUpdate),
		Permission(ResourceLoyalty, ActionUpdate), PermInventoryMove, PermPaymentRefund, PermCampaignSend, PermIntegrationSync),
	RoleStaff: append(with(without(readPermissions(),
		Permission(ResourceUser, ActionRead),
		Permission(ResourceAPIKey, ActionRead),
		Permission(ResourceIntegration, ActionRead),
		PermReportRead),
		[]string{ResourceCustomer, ResourceOrder, ResourceDelivery},
		ActionCreate, ActionUpdate),
		Permission(ResourceNotification, ActionCreate), PermInventoryMove),
	RoleViewer: readPermissions(),
}

// IsValid reports whether the role exists
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permissions granted to the role
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role grants the permission
func (r Role) HasPermission(permission string) bool {
	for _, p := range rolePermissions[r] {
		if p == permission {
			return true
		}
	}
	return false
}

// ParseRole parses a role name case-insensitively
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}

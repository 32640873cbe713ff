package persistence

import "strings"

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

func sortFields(extra ...string) map[string]bool {
	fields := map[string]bool{"created_at": true, "updated_at": true}
	for _, f := range extra {
		fields[f] = true
	}
	return fields
}

var (
	userSortFields         = sortFields("email", "display_name", "role", "last_login_at")
	productSortFields      = sortFields("sku", "name", "price", "status")
	customerSortFields     = sortFields("email", "first_name", "last_name", "loyalty_points", "total_spent", "order_count")
	inventorySortFields    = sortFields("quantity", "last_movement_at")
	movementSortFields     = sortFields("type", "quantity")
	alertSortFields        = sortFields("quantity", "status")
	orderSortFields        = sortFields("order_number", "status", "total_amount")
	couponSortFields       = sortFields("code", "used_count", "ends_at")
	campaignSortFields     = sortFields("name", "status", "scheduled_at")
	notificationSortFields = sortFields("status", "sent_at")
	integrationSortFields  = sortFields("name", "platform", "last_synced_at")
	loyaltySortFields      = sortFields("points")
)

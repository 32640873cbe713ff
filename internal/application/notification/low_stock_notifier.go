package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/inventory"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/shared"
)

const lowStockSubject = "Low stock: {{.ProductName}} ({{.SKU}})"

const lowStockBody = `{{.ProductName}} (SKU {{.SKU}}) is down to {{.Quantity}} units in {{default "the warehouse" .WarehouseName}}.
The alert threshold is {{.Threshold}}.`

// LowStockNotifier tells a tenant's owners and admins about new low-stock
// alerts: an email to the organization's notification address (or to each
// owner and admin when none is set) and an in-app notification per user.
type LowStockNotifier struct {
	notifications *NotificationService
	orgRepo       identity.OrganizationRepository
	userRepo      identity.UserRepository
	logger        *zap.Logger
}

// NewLowStockNotifier creates a new LowStockNotifier
func NewLowStockNotifier(
	notifications *NotificationService,
	orgRepo identity.OrganizationRepository,
	userRepo identity.UserRepository,
	logger *zap.Logger,
) *LowStockNotifier {
	return &LowStockNotifier{
		notifications: notifications,
		orgRepo:       orgRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

// Handler subscribes the notifier to LowStockDetected events
func (n *LowStockNotifier) Handler() *shared.EventHandlerFunc {
	return &shared.EventHandlerFunc{
		Types: []string{inventory.EventTypeLowStockDetected},
		Fn: func(ctx context.Context, event shared.DomainEvent) error {
			detected, ok := event.(*inventory.LowStockDetectedEvent)
			if !ok {
				return fmt.Errorf("unexpected event %T", event)
			}
			return n.Notify(ctx, detected)
		},
	}
}

// Notify sends the alert. Individual delivery failures are recorded on the
// notifications and logged.
func (n *LowStockNotifier) Notify(ctx context.Context, ev *inventory.LowStockDetectedEvent) error {
	tenantID := ev.TenantID()
	org, err := n.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return err
	}
	users, err := n.userRepo.FindByRoles(ctx, tenantID, identity.RoleOwner, identity.RoleAdmin)
	if err != nil {
		return err
	}

	renderer, err := n.notifications.Renderer(ctx, tenantID)
	if err != nil {
		return err
	}
	subject, err := renderer.RenderText("low_stock_subject", lowStockSubject, ev)
	if err != nil {
		return err
	}
	body, err := renderer.RenderText("low_stock_body", lowStockBody, ev)
	if err != nil {
		return err
	}

	recipients := []string{org.Settings.NotificationEmail}
	if org.Settings.NotificationEmail == "" {
		recipients = recipients[:0]
		for _, u := range users {
			recipients = append(recipients, u.Email)
		}
	}

	sent := 0
	for _, to := range recipients {
		_, err := n.notifications.Deliver(ctx, Outbound{
			TenantID: tenantID,
			Channel:  notifdomain.ChannelEmail,
			To:       to,
			Subject:  subject,
			Text:     body,
		})
		if err == nil {
			sent++
		}
	}
	for _, u := range users {
		userID := u.ID
		if _, err := n.notifications.Deliver(ctx, Outbound{
			TenantID: tenantID,
			Channel:  notifdomain.ChannelInApp,
			Subject:  subject,
			Text:     body,
			UserID:   &userID,
		}); err != nil {
			n.logger.Error("Failed to store in-app alert",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}

	n.logger.Info("Low stock alert notified",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sku", ev.SKU),
		zap.Int64("quantity", ev.Quantity),
		zap.Int("emails_sent", sent),
		zap.Int("emails", len(recipients)))
	return nil
}

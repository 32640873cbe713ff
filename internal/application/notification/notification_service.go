package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

// Outbound is a rendered message ready for delivery
type Outbound struct {
	TenantID   uuid.UUID
	Channel    notifdomain.Channel
	To         string
	Subject    string
	Text       string
	HTML       string
	UserID     *uuid.UUID
	CustomerID *uuid.UUID
	CampaignID *uuid.UUID
}

// NotificationService sends and records notifications
type NotificationService struct {
	repo    notifdomain.NotificationRepository
	orgRepo identity.OrganizationRepository
	senders map[notifdomain.Channel]notifdomain.Sender
	logger  *zap.Logger
	now     func() time.Time
}

// NewNotificationService creates a new NotificationService. A channel
// without a sender records its messages as FAILED.
func NewNotificationService(
	repo notifdomain.NotificationRepository,
	orgRepo identity.OrganizationRepository,
	senders []notifdomain.Sender,
	logger *zap.Logger,
) *NotificationService {
	byChannel := make(map[notifdomain.Channel]notifdomain.Sender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}
	return &NotificationService{
		repo:    repo,
		orgRepo: orgRepo,
		senders: byChannel,
		logger:  logger,
		now:     time.Now,
	}
}

// Renderer returns a template renderer for the tenant's locale
func (s *NotificationService) Renderer(ctx context.Context, tenantID uuid.UUID) (*messaging.TemplateRenderer, error) {
	org, err := s.orgRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return messaging.NewTemplateRenderer(org.Settings.Locale), nil
}

// Send renders and delivers one message. A provider failure is recorded on
// the returned notification, not returned as an error.
func (s *NotificationService) Send(ctx context.Context, tenantID uuid.UUID, req SendRequest) (*NotificationResponse, error) {
	channel, err := notifdomain.ParseChannel(req.Channel)
	if err != nil {
		return nil, err
	}

	renderer, err := s.Renderer(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := Outbound{
		TenantID:   tenantID,
		Channel:    channel,
		To:         req.Recipient,
		UserID:     req.UserID,
		CustomerID: req.CustomerID,
	}
	if out.Text, err = renderer.RenderText("body", req.Body, req.Data); err != nil {
		return nil, shared.InvalidInput(err.Error())
	}
	if req.Subject != "" {
		if out.Subject, err = renderer.RenderText("subject", req.Subject, req.Data); err != nil {
			return nil, shared.InvalidInput(err.Error())
		}
	}
	if channel == notifdomain.ChannelEmail {
		if out.HTML, err = renderer.RenderHTML("html", req.Body, req.Data); err != nil {
			return nil, shared.InvalidInput(err.Error())
		}
	}

	n, err := s.Deliver(ctx, out)
	if n == nil {
		return nil, err
	}
	response := ToNotificationResponse(n)
	return &response, nil
}

// Deliver sends a rendered message and persists the outcome. The returned
// error is the send failure, if any; the notification is still returned
// once it has been stored.
func (s *NotificationService) Deliver(ctx context.Context, out Outbound) (*notifdomain.Notification, error) {
	if out.Channel == notifdomain.ChannelInApp {
		return s.storeInApp(ctx, out)
	}

	n, err := notifdomain.NewOutbound(out.TenantID, out.Channel, out.To, out.Subject, out.Text)
	if err != nil {
		return nil, err
	}
	n.CustomerID = out.CustomerID
	n.CampaignID = out.CampaignID
	n.UserID = out.UserID

	ref, sendErr := s.send(ctx, out)
	if sendErr != nil {
		n.MarkFailed(sendErr)
	} else {
		n.MarkSent(ref)
	}
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}

	if sendErr != nil {
		s.logger.Warn("Notification delivery failed",
			zap.String("tenant_id", out.TenantID.String()),
			zap.String("channel", string(out.Channel)),
			zap.String("notification_id", n.ID.String()),
			zap.Error(sendErr))
		return n, sendErr
	}
	s.logger.Debug("Notification sent",
		zap.String("tenant_id", out.TenantID.String()),
		zap.String("channel", string(out.Channel)),
		zap.String("provider_ref", n.ProviderRef))
	return n, nil
}

func (s *NotificationService) send(ctx context.Context, out Outbound) (string, error) {
	sender, ok := s.senders[out.Channel]
	if !ok {
		return "", fmt.Errorf("%s: %w", out.Channel, notifdomain.ErrChannelNotConfigured)
	}
	return sender.Send(ctx, notifdomain.Message{
		TenantID: out.TenantID,
		To:       out.To,
		Subject:  out.Subject,
		Text:     out.Text,
		HTML:     out.HTML,
	})
}

func (s *NotificationService) storeInApp(ctx context.Context, out Outbound) (*notifdomain.Notification, error) {
	if out.UserID == nil {
		return nil, shared.InvalidInput("In-app notifications require a user")
	}
	n, err := notifdomain.NewInApp(out.TenantID, *out.UserID, out.Subject, out.Text)
	if err != nil {
		return nil, err
	}
	n.CustomerID = out.CustomerID
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// GetByID retrieves a notification
func (s *NotificationService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToNotificationResponse(n)
	return &response, nil
}

// List retrieves a page of notifications. Mine restricts the list to the
// caller's in-app notifications.
func (s *NotificationService) List(ctx context.Context, tenantID, userID uuid.UUID, filter NotificationListFilter) (*shared.Paginated[NotificationResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Channel != "" {
		f = f.With("channel", filter.Channel)
	}
	if filter.Direction != "" {
		f = f.With("direction", filter.Direction)
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.Unread {
		f = f.With("unread", true)
	}
	if filter.Mine {
		f = f.With("user_id", userID)
	}

	ns, total, err := s.repo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]NotificationResponse, len(ns))
	for i := range ns {
		items[i] = ToNotificationResponse(&ns[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// MarkRead marks a notification as read. Marking twice keeps the first time.
func (s *NotificationService) MarkRead(ctx context.Context, tenantID, id uuid.UUID) (*NotificationResponse, error) {
	n, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	n.MarkRead(s.now())
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, err
	}
	response := ToNotificationResponse(n)
	return &response, nil
}

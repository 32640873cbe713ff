package marketing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	notifapp "github.com/smartstore/backend/internal/application/notification"
	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/marketing"
	notifdomain "github.com/smartstore/backend/internal/domain/notification"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

// Dispatcher delivers rendered campaign messages
type Dispatcher interface {
	Deliver(ctx context.Context, out notifapp.Outbound) (*notifdomain.Notification, error)
}

// CampaignService manages campaigns and sends them to customer segments
type CampaignService struct {
	campaignRepo marketing.CampaignRepository
	customerRepo partner.CustomerRepository
	orgRepo      identity.OrganizationRepository
	dispatcher   Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(
	campaignRepo marketing.CampaignRepository,
	customerRepo partner.CustomerRepository,
	orgRepo identity.OrganizationRepository,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		customerRepo: customerRepo,
		orgRepo:      orgRepo,
		dispatcher:   dispatcher,
		logger:       logger,
		now:          time.Now,
	}
}

// Create creates a draft campaign
func (s *CampaignService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CampaignRequest) (*CampaignResponse, error) {
	campaign, err := marketing.NewCampaign(tenantID, req.Name, marketing.CampaignChannel(strings.ToUpper(req.Channel)), req.Subject, req.Template, req.Segment.toDomain())
	if err != nil {
		return nil, err
	}
	campaign.SetCreatedBy(actorID)
	if err := s.campaignRepo.Save(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("Campaign created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("channel", string(campaign.Channel)))

	response := ToCampaignResponse(campaign)
	return &response, nil
}

// GetByID retrieves a campaign
func (s *CampaignService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// List retrieves a page of campaigns
func (s *CampaignService) List(ctx context.Context, tenantID uuid.UUID, filter CampaignListFilter) (*shared.Paginated[CampaignResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		f = f.With("status", filter.Status)
	}
	if filter.Channel != "" {
		f = f.With("channel", filter.Channel)
	}

	campaigns, total, err := s.campaignRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		items[i] = ToCampaignResponse(&campaigns[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update replaces the content of a draft campaign
func (s *CampaignService) Update(ctx context.Context, tenantID, id uuid.UUID, req CampaignRequest) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.Update(req.Name, marketing.CampaignChannel(strings.ToUpper(req.Channel)), req.Subject, req.Template, req.Segment.toDomain()); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.SaveWithLock(ctx, campaign); err != nil {
		return nil, err
	}
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// Delete removes a campaign that is not being sent
func (s *CampaignService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if campaign.Status == marketing.CampaignStatusSending {
		return shared.InvalidState("Campaign is being sent")
	}
	if err := s.campaignRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Campaign deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("campaign_id", id.String()))
	return nil
}

// Schedule sets the time the scheduler sends the campaign
func (s *CampaignService) Schedule(ctx context.Context, tenantID, id uuid.UUID, req ScheduleCampaignRequest) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.Schedule(req.ScheduledAt, s.now()); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.SaveWithLock(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("Campaign scheduled",
		zap.String("campaign_id", campaign.ID.String()),
		zap.Time("scheduled_at", req.ScheduledAt))

	response := ToCampaignResponse(campaign)
	return &response, nil
}

// Cancel stops a draft or scheduled campaign
func (s *CampaignService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := campaign.Cancel(); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.SaveWithLock(ctx, campaign); err != nil {
		return nil, err
	}
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// SendNow sends a draft or scheduled campaign immediately and returns it
// with the final counts
func (s *CampaignService) SendNow(ctx context.Context, tenantID, id uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.send(ctx, campaign); err != nil {
		return nil, err
	}
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// SendDueCampaigns sends scheduled campaigns of every tenant whose time has
// come and returns how many were sent. A campaign another worker claimed
// first is skipped.
func (s *CampaignService) SendDueCampaigns(ctx context.Context, now time.Time, limit int) (int, error) {
	due, err := s.campaignRepo.FindDue(ctx, now, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		campaign := &due[i]
		if err := s.send(ctx, campaign); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				continue
			}
			s.logger.Error("Failed to send scheduled campaign",
				zap.String("tenant_id", campaign.TenantID.String()),
				zap.String("campaign_id", campaign.ID.String()),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// send loads the segment, claims the campaign by moving it to SENDING under
// optimistic locking, then delivers one message per customer and records the counts.
// Customers without an address for the channel are skipped.
func (s *CampaignService) send(ctx context.Context, campaign *marketing.Campaign) error {
	org, err := s.orgRepo.FindByID(ctx, campaign.TenantID)
	if err != nil {
		return err
	}
	// resolve the audience first so a lookup failure leaves the campaign
	// SCHEDULED for the next run
	customers, err := s.customerRepo.FindSegment(ctx, campaign.TenantID, campaign.Segment.Tiers, campaign.Segment.OptedInOnly)
	if err != nil {
		s.logger.Error("Failed to load campaign segment",
			zap.String("campaign_id", campaign.ID.String()),
			zap.Error(err))
		return err
	}
	if err := campaign.StartSending(s.now()); err != nil {
		return err
	}
	if err := s.campaignRepo.SaveWithLock(ctx, campaign); err != nil {
		return err
	}

	renderer := messaging.NewTemplateRenderer(org.Settings.Locale)
	sent, failed, skipped := 0, 0, 0
	for i := range customers {
		customer := &customers[i]
		to := recipient(campaign.Channel, customer)
		if to == "" {
			skipped++
			continue
		}
		out, err := render(renderer, campaign, org, customer)
		if err != nil {
			s.logger.Warn("Failed to render campaign message",
				zap.String("campaign_id", campaign.ID.String()),
				zap.String("customer_id", customer.ID.String()),
				zap.Error(err))
			failed++
			continue
		}
		out.To = to
		if _, err := s.dispatcher.Deliver(ctx, out); err != nil {
			failed++
			continue
		}
		sent++
	}

	if err := campaign.Complete(sent, failed, s.now()); err != nil {
		return err
	}
	if err := s.campaignRepo.SaveWithLock(ctx, campaign); err != nil {
		return err
	}

	s.logger.Info("Campaign sent",
		zap.String("tenant_id", campaign.TenantID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped))
	return nil
}

func recipient(channel marketing.CampaignChannel, c *partner.Customer) string {
	if channel == marketing.CampaignChannelEmail {
		return c.Email
	}
	return c.Phone
}

// templateData is what campaign templates can reference
type templateData struct {
	FirstName    string
	LastName     string
	Name         string
	Email        string
	Points       int64
	Tier         string
	TotalSpent   decimal.Decimal
	Organization string
	Currency     string
}

func render(renderer *messaging.TemplateRenderer, campaign *marketing.Campaign, org *identity.Organization, c *partner.Customer) (notifapp.Outbound, error) {
	data := templateData{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Name:         c.FullName(),
		Email:        c.Email,
		Points:       c.LoyaltyPoints,
		Tier:         string(c.Tier),
		TotalSpent:   c.TotalSpent,
		Organization: org.Name,
		Currency:     org.Settings.Currency,
	}
	campaignID := campaign.ID
	customerID := c.ID
	out := notifapp.Outbound{
		TenantID:   campaign.TenantID,
		Channel:    notifdomain.Channel(campaign.Channel),
		CampaignID: &campaignID,
		CustomerID: &customerID,
	}

	var err error
	if out.Text, err = renderer.RenderText("campaign", campaign.Template, data); err != nil {
		return out, err
	}
	if campaign.Subject != "" {
		if out.Subject, err = renderer.RenderText("campaign_subject", campaign.Subject, data); err != nil {
			return out, err
		}
	}
	if campaign.Channel == marketing.CampaignChannelEmail {
		if out.HTML, err = renderer.RenderHTML("campaign_html", campaign.Template, data); err != nil {
			return out, err
		}
	}
	return out, nil
}

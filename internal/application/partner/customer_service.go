package partner

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/shared"
)

// CustomerService handles customer operations
type CustomerService struct {
	customerRepo partner.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customerRepo partner.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{customerRepo: customerRepo, logger: logger}
}

// Create creates a customer. Email is unique per tenant when given.
func (s *CustomerService) Create(ctx context.Context, tenantID, actorID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	customer, err := partner.NewCustomer(tenantID, req.Email, req.Phone, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, tenantID, customer.Email, nil); err != nil {
		return nil, err
	}

	customer.SetCreatedBy(actorID)
	customer.SetAddresses(toAddresses(req.Addresses))
	customer.SetMarketingOptIn(req.MarketingOptIn)
	customer.SetTags(req.Tags, req.Notes)

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customer.ID.String()))

	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetByID retrieves a customer
func (s *CustomerService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// List retrieves a page of customers
func (s *CustomerService) List(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	f := shared.DefaultFilter()
	f.Search = filter.Search
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Tier != "" {
		f = f.With("tier", filter.Tier)
	}
	if filter.MarketingOptIn != nil {
		f = f.With("marketing_opt_in", *filter.MarketingOptIn)
	}

	customers, total, err := s.customerRepo.FindAll(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	items := make([]CustomerResponse, len(customers))
	for i := range customers {
		items[i] = ToCustomerResponse(&customers[i])
	}
	result := shared.NewPaginated(items, total, f.Page, f.Limit())
	return &result, nil
}

// Update changes contact details, addresses and tags. The loyalty balance is
// protected by optimistic locking against concurrent point updates.
func (s *CustomerService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil || req.Phone != nil || req.FirstName != nil || req.LastName != nil {
		email, phone, first, last := customer.Email, customer.Phone, customer.FirstName, customer.LastName
		if req.Email != nil {
			email = *req.Email
		}
		if req.Phone != nil {
			phone = *req.Phone
		}
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		if err := customer.UpdateContact(email, phone, first, last); err != nil {
			return nil, err
		}
		if customer.Email == "" && customer.Phone == "" {
			return nil, shared.InvalidInput("Customer needs an email or a phone number")
		}
		if err := s.ensureEmailFree(ctx, tenantID, customer.Email, &customer.ID); err != nil {
			return nil, err
		}
	}
	if req.Addresses != nil {
		customer.SetAddresses(toAddresses(req.Addresses))
	}
	if req.MarketingOptIn != nil {
		customer.SetMarketingOptIn(*req.MarketingOptIn)
	}
	if req.Tags != nil || req.Notes != nil {
		tags, notes := customer.Tags, customer.Notes
		if req.Tags != nil {
			tags = req.Tags
		}
		if req.Notes != nil {
			notes = *req.Notes
		}
		customer.SetTags(tags, notes)
	}

	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// Delete soft-deletes a customer. Orders keep referencing the row.
func (s *CustomerService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.customerRepo.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	s.logger.Info("Customer deleted", zap.String("customer_id", id.String()))
	return nil
}

func (s *CustomerService) ensureEmailFree(ctx context.Context, tenantID uuid.UUID, email string, exclude *uuid.UUID) error {
	if email == "" {
		return nil
	}
	if _, err := identity.NormalizeEmail(email); err != nil {
		return err
	}
	exists, err := s.customerRepo.ExistsByEmail(ctx, tenantID, email, exclude)
	if err != nil {
		return err
	}
	if exists {
		return shared.AlreadyExists("Customer with this email already exists")
	}
	return nil
}

func toAddresses(in []AddressDTO) []partner.Address {
	out := make([]partner.Address, len(in))
	for i, a := range in {
		out[i] = a.toDomain()
	}
	return out
}

package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/facturo/facturo/domain/document"
	"github.com/facturo/facturo/domain/planlimit"
	"github.com/facturo/facturo/ports"
)

// TenantService manages business profiles and their clients.
type TenantService struct {
	businesses ports.BusinessStore
	clients    ports.ClientStore
	clock      ports.Clock
	ids        ports.IDGenerator
	logger     zerolog.Logger
}

// NewTenantService creates a new tenant service.
func NewTenantService(
	businesses ports.BusinessStore,
	clients ports.ClientStore,
	clock ports.Clock,
	ids ports.IDGenerator,
	logger zerolog.Logger,
) *TenantService {
	return &TenantService{
		businesses: businesses,
		clients:    clients,
		clock:      clock,
		ids:        ids,
		logger:     logger,
	}
}

// BusinessInput is the editable part of a business profile.
type BusinessInput struct {
	Name     string
	Email    string
	Address  string
	Phone    string
	TaxID    string
	Currency string
}

// CreateBusiness onboards a tenant. New businesses start on the free
// plan; the payments webhook upgrades them.
func (s *TenantService) CreateBusiness(ctx context.Context, ownerID string, in BusinessInput) (document.Business, error) {
	if strings.TrimSpace(in.Name) == "" {
		return document.Business{}, validation("business name is required")
	}

	currency := in.Currency
	if currency == "" {
		currency = "USD"
	}

	now := s.clock.Now()
	b := document.Business{
		ID:        s.ids.New(),
		OwnerID:   ownerID,
		Name:      in.Name,
		Email:     in.Email,
		Address:   in.Address,
		Phone:     in.Phone,
		TaxID:     in.TaxID,
		Currency:  currency,
		Plan:      string(planlimit.Free),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.businesses.Create(ctx, b); err != nil {
		return document.Business{}, err
	}

	s.logger.Info().Str("business_id", b.ID).Str("owner_id", ownerID).Msg("business created")
	return b, nil
}

// GetBusiness retrieves a business by ID.
func (s *TenantService) GetBusiness(ctx context.Context, id string) (document.Business, error) {
	return s.businesses.Get(ctx, id)
}

// GetBusinessByOwner retrieves the caller's business.
func (s *TenantService) GetBusinessByOwner(ctx context.Context, ownerID string) (document.Business, error) {
	return s.businesses.GetByOwner(ctx, ownerID)
}

// UpdateBusiness edits the business profile. Snapshots on issued
// documents are unaffected.
func (s *TenantService) UpdateBusiness(ctx context.Context, id string, in BusinessInput) (document.Business, error) {
	b, err := s.businesses.Get(ctx, id)
	if err != nil {
		return document.Business{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		b.Name = in.Name
	}
	if in.Email != "" {
		b.Email = in.Email
	}
	if in.Address != "" {
		b.Address = in.Address
	}
	if in.Phone != "" {
		b.Phone = in.Phone
	}
	if in.TaxID != "" {
		b.TaxID = in.TaxID
	}
	if in.Currency != "" {
		b.Currency = in.Currency
	}
	b.UpdatedAt = s.clock.Now()

	if err := s.businesses.Update(ctx, b); err != nil {
		return document.Business{}, err
	}
	return b, nil
}

// SetPlan records a subscription tier change reported by the payments
// webhook.
func (s *TenantService) SetPlan(ctx context.Context, ownerID string, plan planlimit.Plan) error {
	if !planlimit.Known(plan) {
		return validation("unknown plan %q", plan)
	}
	if err := s.businesses.SetPlan(ctx, ownerID, string(plan)); err != nil {
		return err
	}
	s.logger.Info().Str("owner_id", ownerID).Str("plan", string(plan)).Msg("plan updated")
	return nil
}

// ClientInput is the editable part of a client record.
type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateClient stores a new client under a business.
func (s *TenantService) CreateClient(ctx context.Context, businessID string, in ClientInput) (document.Client, error) {
	if strings.TrimSpace(in.Name) == "" {
		return document.Client{}, validation("client name is required")
	}
	if _, err := s.businesses.Get(ctx, businessID); err != nil {
		return document.Client{}, err
	}

	now := s.clock.Now()
	c := document.Client{
		ID:         s.ids.New(),
		BusinessID: businessID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.clients.Create(ctx, c); err != nil {
		return document.Client{}, err
	}
	return c, nil
}

// GetClient retrieves a client scoped to a business.
func (s *TenantService) GetClient(ctx context.Context, businessID, id string) (document.Client, error) {
	return s.clients.Get(ctx, businessID, id)
}

// ListClients returns all clients of a business.
func (s *TenantService) ListClients(ctx context.Context, businessID string) ([]document.Client, error) {
	return s.clients.ListByBusiness(ctx, businessID)
}

// UpdateClient edits a client. Bill-to snapshots on already issued
// documents never change.
func (s *TenantService) UpdateClient(ctx context.Context, businessID, id string, in ClientInput) (document.Client, error) {
	c, err := s.clients.Get(ctx, businessID, id)
	if err != nil {
		return document.Client{}, err
	}

	if strings.TrimSpace(in.Name) != "" {
		c.Name = in.Name
	}
	if in.Email != "" {
		c.Email = in.Email
	}
	if in.Phone != "" {
		c.Phone = in.Phone
	}
	if in.Address != "" {
		c.Address = in.Address
	}
	c.UpdatedAt = s.clock.Now()

	if err := s.clients.Update(ctx, c); err != nil {
		return document.Client{}, err
	}
	return c, nil
}

// DeleteClient removes a client from a business.
func (s *TenantService) DeleteClient(ctx context.Context, businessID, id string) error {
	return s.clients.Delete(ctx, businessID, id)
}

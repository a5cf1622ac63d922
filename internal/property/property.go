// Package property manages listings.
package property

import (
	"context"

	"go.uber.org/fx"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

const Name = model.EntityProperty

// CreateInput is the payload for a new listing. Status defaults to Available.
type CreateInput struct {
	Address   string               `json:"address" validate:"required,max=512"`
	City      string               `json:"city" validate:"required,max=256"`
	Price     float64              `json:"price" validate:"gte=0"`
	Bedrooms  int                  `json:"bedrooms" validate:"gte=0"`
	Bathrooms int                  `json:"bathrooms" validate:"gte=0"`
	Status    model.PropertyStatus `json:"status" validate:"omitempty,oneof=Available UnderContract Sold"`
	AgentID   *string              `json:"agentId" validate:"omitempty,len=0|uuid"`
}

type UpdateInput struct {
	Address   *string               `json:"address" validate:"omitempty,min=1,max=512"`
	City      *string               `json:"city" validate:"omitempty,min=1,max=256"`
	Price     *float64              `json:"price" validate:"omitempty,gte=0"`
	Bedrooms  *int                  `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms *int                  `json:"bathrooms" validate:"omitempty,gte=0"`
	Status    *model.PropertyStatus `json:"status" validate:"omitempty,oneof=Available UnderContract Sold"`
	AgentID   *string               `json:"agentId" validate:"omitempty,len=0|uuid"`
}

type Service struct {
	base         *crud.Service[model.Property]
	agents       *agent.Service
	appointments store.Repository[model.Appointment]
}

func NewService(
	repo store.Repository[model.Property],
	appointments store.Repository[model.Appointment],
	agents *agent.Service,
	deps crud.Deps,
) *Service {
	return &Service{
		base:         crud.NewService(Name, repo, deps),
		agents:       agents,
		appointments: appointments,
	}
}

var Module = fx.Module(Name,
	fx.Provide(NewService),
)

func (s *Service) FindMany(ctx context.Context, q store.Query) ([]model.Property, error) {
	return s.base.FindMany(ctx, q)
}

func (s *Service) Count(ctx context.Context, q store.Query) (int, error) {
	return s.base.Count(ctx, q)
}

func (s *Service) FindOne(ctx context.Context, id string) (model.Property, error) {
	return s.base.FindOne(ctx, id)
}

func (s *Service) Lookup(ctx context.Context, id *string) (*model.Property, error) {
	return s.base.Lookup(ctx, id)
}

func (s *Service) RequireRef(ctx context.Context, id *string) error {
	return s.base.RequireRef(ctx, "propertyId", id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Property, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Property{}, err
	}
	if err := s.agents.RequireRef(ctx, in.AgentID); err != nil {
		return model.Property{}, err
	}
	status := in.Status
	if status == "" {
		status = model.PropertyStatusAvailable
	}
	deps := s.base.Deps()
	now := deps.Now()
	return s.base.Create(ctx, model.Property{
		ID:        deps.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
		Address:   in.Address,
		City:      in.City,
		Price:     in.Price,
		Bedrooms:  in.Bedrooms,
		Bathrooms: in.Bathrooms,
		Status:    status,
		AgentID:   crud.Optional(in.AgentID),
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.Property, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Property{}, err
	}
	p, err := s.base.Load(ctx, id)
	if err != nil {
		return model.Property{}, err
	}
	if err := s.agents.RequireRef(ctx, in.AgentID); err != nil {
		return model.Property{}, err
	}
	crud.Set(&p.Address, in.Address)
	crud.Set(&p.City, in.City)
	crud.Set(&p.Price, in.Price)
	crud.Set(&p.Bedrooms, in.Bedrooms)
	crud.Set(&p.Bathrooms, in.Bathrooms)
	crud.Set(&p.Status, in.Status)
	crud.SetOptional(&p.AgentID, in.AgentID)
	p.UpdatedAt = s.base.Deps().Now()
	return s.base.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) (model.Property, error) {
	if err := crud.Detach(ctx, s.base.Deps(), model.EntityAppointment, s.appointments, model.RefProperty, id); err != nil {
		return model.Property{}, err
	}
	return s.base.Delete(ctx, id)
}

// Agent resolves the listing agent, or nil when unassigned.
func (s *Service) Agent(ctx context.Context, p model.Property) (*model.Agent, error) {
	return s.agents.Lookup(ctx, p.AgentID)
}

// Appointments lists viewings scheduled for the property.
func (s *Service) Appointments(ctx context.Context, id string, q store.Query) ([]model.Appointment, error) {
	return s.appointments.Find(ctx, q.Where(model.RefProperty, id))
}

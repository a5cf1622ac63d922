// Package agent manages real-estate agents and the records assigned to them.
package agent

import (
	"context"

	"go.uber.org/fx"

	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

// Name is used for cache keys, spans and error messages.
const Name = model.EntityAgent

// CreateInput is the payload accepted when creating an agent.
type CreateInput struct {
	FirstName string  `json:"firstName" validate:"required,max=256"`
	LastName  string  `json:"lastName" validate:"required,max=256"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=64"`
}

// UpdateInput patches an agent; nil fields are left unchanged.
type UpdateInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=256"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=256"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=64"`
}

// Service implements agent CRUD plus the reverse relations.
type Service struct {
	base         *crud.Service[model.Agent]
	clients      store.Repository[model.Client]
	properties   store.Repository[model.Property]
	appointments store.Repository[model.Appointment]
}

// NewService wires the agent service.
func NewService(
	repo store.Repository[model.Agent],
	clients store.Repository[model.Client],
	properties store.Repository[model.Property],
	appointments store.Repository[model.Appointment],
	deps crud.Deps,
) *Service {
	return &Service{
		base:         crud.NewService(Name, repo, deps),
		clients:      clients,
		properties:   properties,
		appointments: appointments,
	}
}

// Module provides *Service.
var Module = fx.Module(Name,
	fx.Provide(NewService),
)

func (s *Service) FindMany(ctx context.Context, q store.Query) ([]model.Agent, error) {
	return s.base.FindMany(ctx, q)
}

func (s *Service) Count(ctx context.Context, q store.Query) (int, error) {
	return s.base.Count(ctx, q)
}

func (s *Service) FindOne(ctx context.Context, id string) (model.Agent, error) {
	return s.base.FindOne(ctx, id)
}

// Lookup resolves an optional agent reference.
func (s *Service) Lookup(ctx context.Context, id *string) (*model.Agent, error) {
	return s.base.Lookup(ctx, id)
}

// RequireRef validates an agentId supplied by another entity.
func (s *Service) RequireRef(ctx context.Context, id *string) error {
	return s.base.RequireRef(ctx, "agentId", id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Agent, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Agent{}, err
	}
	deps := s.base.Deps()
	now := deps.Now()
	return s.base.Create(ctx, model.Agent{
		ID:        deps.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     crud.Optional(in.Phone),
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.Agent, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Agent{}, err
	}
	a, err := s.base.Load(ctx, id)
	if err != nil {
		return model.Agent{}, err
	}
	crud.Set(&a.FirstName, in.FirstName)
	crud.Set(&a.LastName, in.LastName)
	crud.Set(&a.Email, in.Email)
	crud.SetOptional(&a.Phone, in.Phone)
	a.UpdatedAt = s.base.Deps().Now()
	return s.base.Update(ctx, a)
}

// Delete removes the agent. Clients, properties and appointments that were
// assigned to it are kept with a null agentId.
func (s *Service) Delete(ctx context.Context, id string) (model.Agent, error) {
	deps := s.base.Deps()
	if err := crud.Detach(ctx, deps, model.EntityClient, s.clients, model.RefAgent, id); err != nil {
		return model.Agent{}, err
	}
	if err := crud.Detach(ctx, deps, model.EntityProperty, s.properties, model.RefAgent, id); err != nil {
		return model.Agent{}, err
	}
	if err := crud.Detach(ctx, deps, model.EntityAppointment, s.appointments, model.RefAgent, id); err != nil {
		return model.Agent{}, err
	}
	return s.base.Delete(ctx, id)
}

// Clients lists the clients represented by the agent.
func (s *Service) Clients(ctx context.Context, id string, q store.Query) ([]model.Client, error) {
	return s.clients.Find(ctx, q.Where(model.RefAgent, id))
}

// Properties lists the properties listed by the agent.
func (s *Service) Properties(ctx context.Context, id string, q store.Query) ([]model.Property, error) {
	return s.properties.Find(ctx, q.Where(model.RefAgent, id))
}

// Appointments lists the agent's appointments.
func (s *Service) Appointments(ctx context.Context, id string, q store.Query) ([]model.Appointment, error) {
	return s.appointments.Find(ctx, q.Where(model.RefAgent, id))
}

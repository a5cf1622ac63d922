// Package appointment schedules meetings between clients, agents and properties.
package appointment

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/client"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/property"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

const Name = model.EntityAppointment

type CreateInput struct {
	Date       time.Time `json:"date" validate:"required"`
	Notes      *string   `json:"notes" validate:"omitempty,max=2048"`
	ClientID   *string   `json:"clientId" validate:"omitempty,len=0|uuid"`
	PropertyID *string   `json:"propertyId" validate:"omitempty,len=0|uuid"`
	AgentID    *string   `json:"agentId" validate:"omitempty,len=0|uuid"`
}

type UpdateInput struct {
	Date       *time.Time `json:"date"`
	Notes      *string    `json:"notes" validate:"omitempty,max=2048"`
	ClientID   *string    `json:"clientId" validate:"omitempty,len=0|uuid"`
	PropertyID *string    `json:"propertyId" validate:"omitempty,len=0|uuid"`
	AgentID    *string    `json:"agentId" validate:"omitempty,len=0|uuid"`
}

type Service struct {
	base       *crud.Service[model.Appointment]
	agents     *agent.Service
	clients    *client.Service
	properties *property.Service
}

func NewService(
	repo store.Repository[model.Appointment],
	agents *agent.Service,
	clients *client.Service,
	properties *property.Service,
	deps crud.Deps,
) *Service {
	return &Service{
		base:       crud.NewService(Name, repo, deps),
		agents:     agents,
		clients:    clients,
		properties: properties,
	}
}

var Module = fx.Module(Name,
	fx.Provide(NewService),
)

func (s *Service) FindMany(ctx context.Context, q store.Query) ([]model.Appointment, error) {
	return s.base.FindMany(ctx, q)
}

func (s *Service) Count(ctx context.Context, q store.Query) (int, error) {
	return s.base.Count(ctx, q)
}

func (s *Service) FindOne(ctx context.Context, id string) (model.Appointment, error) {
	return s.base.FindOne(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Appointment, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Appointment{}, err
	}
	if err := s.requireRefs(ctx, in.ClientID, in.PropertyID, in.AgentID); err != nil {
		return model.Appointment{}, err
	}
	deps := s.base.Deps()
	now := deps.Now()
	return s.base.Create(ctx, model.Appointment{
		ID:         deps.NewID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		Date:       in.Date.UTC(),
		Notes:      crud.Optional(in.Notes),
		ClientID:   crud.Optional(in.ClientID),
		PropertyID: crud.Optional(in.PropertyID),
		AgentID:    crud.Optional(in.AgentID),
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.Appointment, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Appointment{}, err
	}
	a, err := s.base.Load(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := s.requireRefs(ctx, in.ClientID, in.PropertyID, in.AgentID); err != nil {
		return model.Appointment{}, err
	}
	if in.Date != nil {
		a.Date = in.Date.UTC()
	}
	crud.SetOptional(&a.Notes, in.Notes)
	crud.SetOptional(&a.ClientID, in.ClientID)
	crud.SetOptional(&a.PropertyID, in.PropertyID)
	crud.SetOptional(&a.AgentID, in.AgentID)
	a.UpdatedAt = s.base.Deps().Now()
	return s.base.Update(ctx, a)
}

func (s *Service) Delete(ctx context.Context, id string) (model.Appointment, error) {
	return s.base.Delete(ctx, id)
}

func (s *Service) requireRefs(ctx context.Context, clientID, propertyID, agentID *string) error {
	if err := s.clients.RequireRef(ctx, clientID); err != nil {
		return err
	}
	if err := s.properties.RequireRef(ctx, propertyID); err != nil {
		return err
	}
	return s.agents.RequireRef(ctx, agentID)
}

func (s *Service) Client(ctx context.Context, a model.Appointment) (*model.Client, error) {
	return s.clients.Lookup(ctx, a.ClientID)
}

func (s *Service) Property(ctx context.Context, a model.Appointment) (*model.Property, error) {
	return s.properties.Lookup(ctx, a.PropertyID)
}

func (s *Service) Agent(ctx context.Context, a model.Appointment) (*model.Agent, error) {
	return s.agents.Lookup(ctx, a.AgentID)
}

// Package client manages buyers and sellers and their assigned agent.
package client

import (
	"context"

	"go.uber.org/fx"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/store"
)

const Name = model.EntityClient

type CreateInput struct {
	FirstName string  `json:"firstName" validate:"required,max=256"`
	LastName  string  `json:"lastName" validate:"required,max=256"`
	Email     *string `json:"email" validate:"omitempty,len=0|email"`
	Phone     *string `json:"phone" validate:"omitempty,max=64"`
	AgentID   *string `json:"agentId" validate:"omitempty,len=0|uuid"`
}

// UpdateInput patches a client. An empty string clears a nullable field.
type UpdateInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=256"`
	LastName  *string `json:"lastName" validate:"omitempty,min=1,max=256"`
	Email     *string `json:"email" validate:"omitempty,len=0|email"`
	Phone     *string `json:"phone" validate:"omitempty,max=64"`
	AgentID   *string `json:"agentId" validate:"omitempty,len=0|uuid"`
}

type Service struct {
	base         *crud.Service[model.Client]
	agents       *agent.Service
	appointments store.Repository[model.Appointment]
}

func NewService(
	repo store.Repository[model.Client],
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

func (s *Service) FindMany(ctx context.Context, q store.Query) ([]model.Client, error) {
	return s.base.FindMany(ctx, q)
}

func (s *Service) Count(ctx context.Context, q store.Query) (int, error) {
	return s.base.Count(ctx, q)
}

func (s *Service) FindOne(ctx context.Context, id string) (model.Client, error) {
	return s.base.FindOne(ctx, id)
}

func (s *Service) Lookup(ctx context.Context, id *string) (*model.Client, error) {
	return s.base.Lookup(ctx, id)
}

func (s *Service) RequireRef(ctx context.Context, id *string) error {
	return s.base.RequireRef(ctx, "clientId", id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (model.Client, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Client{}, err
	}
	if err := s.agents.RequireRef(ctx, in.AgentID); err != nil {
		return model.Client{}, err
	}
	deps := s.base.Deps()
	now := deps.Now()
	return s.base.Create(ctx, model.Client{
		ID:        deps.NewID(),
		CreatedAt: now,
		UpdatedAt: now,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     crud.Optional(in.Email),
		Phone:     crud.Optional(in.Phone),
		AgentID:   crud.Optional(in.AgentID),
	})
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (model.Client, error) {
	if err := s.base.Validate(in); err != nil {
		return model.Client{}, err
	}
	c, err := s.base.Load(ctx, id)
	if err != nil {
		return model.Client{}, err
	}
	if err := s.agents.RequireRef(ctx, in.AgentID); err != nil {
		return model.Client{}, err
	}
	crud.Set(&c.FirstName, in.FirstName)
	crud.Set(&c.LastName, in.LastName)
	crud.SetOptional(&c.Email, in.Email)
	crud.SetOptional(&c.Phone, in.Phone)
	crud.SetOptional(&c.AgentID, in.AgentID)
	c.UpdatedAt = s.base.Deps().Now()
	return s.base.Update(ctx, c)
}

// Delete removes the client and unlinks its appointments.
func (s *Service) Delete(ctx context.Context, id string) (model.Client, error) {
	if err := crud.Detach(ctx, s.base.Deps(), model.EntityAppointment, s.appointments, model.RefClient, id); err != nil {
		return model.Client{}, err
	}
	return s.base.Delete(ctx, id)
}

// Agent resolves the client's agent, or nil when unassigned.
func (s *Service) Agent(ctx context.Context, c model.Client) (*model.Agent, error) {
	return s.agents.Lookup(ctx, c.AgentID)
}

// Appointments lists the client's appointments.
func (s *Service) Appointments(ctx context.Context, id string, q store.Query) ([]model.Appointment, error) {
	return s.appointments.Find(ctx, q.Where(model.RefClient, id))
}

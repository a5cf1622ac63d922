package model

import "time"

// Entity names, used for cache keys and span names.
const (
	EntityAgent       = "agent"
	EntityClient      = "client"
	EntityProperty    = "property"
	EntityAppointment = "appointment"
)

// Relation columns understood by Record.Ref and the repositories.
const (
	RefAgent    = "agent_id"
	RefClient   = "client_id"
	RefProperty = "property_id"
)

// Record is implemented by every persisted entity.
type Record interface {
	RecordID() string
	// Ref returns the value of a relation column, or "" when the entity has
	// no such relation or it is unset.
	Ref(column string) string
	// WithoutRef returns a copy with the relation column cleared. The
	// dynamic type of the result is the receiver's type.
	WithoutRef(column string) Record
	Created() time.Time
}

// PropertyStatus is the listing state of a property.
type PropertyStatus string

const (
	PropertyStatusAvailable     PropertyStatus = "Available"
	PropertyStatusUnderContract PropertyStatus = "UnderContract"
	PropertyStatusSold          PropertyStatus = "Sold"
)

// PropertyStatuses lists the valid statuses in declaration order.
func PropertyStatuses() []PropertyStatus {
	return []PropertyStatus{PropertyStatusAvailable, PropertyStatusUnderContract, PropertyStatusSold}
}

// Agent is a real-estate agent.
type Agent struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	FirstName string    `json:"firstName" validate:"required,max=256"`
	LastName  string    `json:"lastName" validate:"required,max=256"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     *string   `json:"phone" validate:"omitempty,max=64"`
}

func (a Agent) RecordID() string   { return a.ID }
func (a Agent) Ref(string) string  { return "" }
func (a Agent) Created() time.Time { return a.CreatedAt }

func (a Agent) WithoutRef(string) Record { return a }

// Client is a buyer or seller represented by an agent.
type Client struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	FirstName string    `json:"firstName" validate:"required,max=256"`
	LastName  string    `json:"lastName" validate:"required,max=256"`
	Email     *string   `json:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone" validate:"omitempty,max=64"`
	AgentID   *string   `json:"agentId" validate:"omitempty,uuid"`
}

func (c Client) RecordID() string   { return c.ID }
func (c Client) Created() time.Time { return c.CreatedAt }

func (c Client) Ref(column string) string {
	if column == RefAgent {
		return deref(c.AgentID)
	}
	return ""
}

func (c Client) WithoutRef(column string) Record {
	if column == RefAgent {
		c.AgentID = nil
	}
	return c
}

// Property is a listed piece of real estate.
type Property struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Address   string         `json:"address" validate:"required,max=512"`
	City      string         `json:"city" validate:"required,max=256"`
	Price     float64        `json:"price" validate:"gte=0"`
	Bedrooms  int            `json:"bedrooms" validate:"gte=0"`
	Bathrooms int            `json:"bathrooms" validate:"gte=0"`
	Status    PropertyStatus `json:"status" validate:"oneof=Available UnderContract Sold"`
	AgentID   *string        `json:"agentId" validate:"omitempty,uuid"`
}

func (p Property) RecordID() string   { return p.ID }
func (p Property) Created() time.Time { return p.CreatedAt }

func (p Property) Ref(column string) string {
	if column == RefAgent {
		return deref(p.AgentID)
	}
	return ""
}

func (p Property) WithoutRef(column string) Record {
	if column == RefAgent {
		p.AgentID = nil
	}
	return p
}

// Appointment is a scheduled viewing or meeting.
type Appointment struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Date       time.Time `json:"date" validate:"required"`
	Notes      *string   `json:"notes" validate:"omitempty,max=2048"`
	ClientID   *string   `json:"clientId" validate:"omitempty,uuid"`
	PropertyID *string   `json:"propertyId" validate:"omitempty,uuid"`
	AgentID    *string   `json:"agentId" validate:"omitempty,uuid"`
}

func (a Appointment) RecordID() string   { return a.ID }
func (a Appointment) Created() time.Time { return a.CreatedAt }

func (a Appointment) Ref(column string) string {
	switch column {
	case RefAgent:
		return deref(a.AgentID)
	case RefClient:
		return deref(a.ClientID)
	case RefProperty:
		return deref(a.PropertyID)
	}
	return ""
}

func (a Appointment) WithoutRef(column string) Record {
	switch column {
	case RefAgent:
		a.AgentID = nil
	case RefClient:
		a.ClientID = nil
	case RefProperty:
		a.PropertyID = nil
	}
	return a
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

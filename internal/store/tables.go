package store

import "github.com/eugenenazirov/realestate-crm/internal/model"

// AgentTable maps model.Agent onto the agents table.
var AgentTable = Table[model.Agent]{
	Name:    "agents",
	Columns: []string{"id", "created_at", "updated_at", "first_name", "last_name", "email", "phone"},
	Values: func(a model.Agent) []any {
		return []any{a.ID, a.CreatedAt, a.UpdatedAt, a.FirstName, a.LastName, a.Email, a.Phone}
	},
	Scan: func(s Scanner) (model.Agent, error) {
		var a model.Agent
		err := s.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.FirstName, &a.LastName, &a.Email, &a.Phone)
		return a, err
	},
}

// ClientTable maps model.Client onto the clients table.
var ClientTable = Table[model.Client]{
	Name:    "clients",
	Columns: []string{"id", "created_at", "updated_at", "first_name", "last_name", "email", "phone", model.RefAgent},
	Values: func(c model.Client) []any {
		return []any{c.ID, c.CreatedAt, c.UpdatedAt, c.FirstName, c.LastName, c.Email, c.Phone, c.AgentID}
	},
	Scan: func(s Scanner) (model.Client, error) {
		var c model.Client
		err := s.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.AgentID)
		return c, err
	},
}

// PropertyTable maps model.Property onto the properties table.
var PropertyTable = Table[model.Property]{
	Name:    "properties",
	Columns: []string{"id", "created_at", "updated_at", "address", "city", "price", "bedrooms", "bathrooms", "status", model.RefAgent},
	Values: func(p model.Property) []any {
		return []any{p.ID, p.CreatedAt, p.UpdatedAt, p.Address, p.City, p.Price, p.Bedrooms, p.Bathrooms, string(p.Status), p.AgentID}
	},
	Scan: func(s Scanner) (model.Property, error) {
		var p model.Property
		err := s.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &p.Address, &p.City, &p.Price, &p.Bedrooms, &p.Bathrooms, &p.Status, &p.AgentID)
		return p, err
	},
}

// AppointmentTable maps model.Appointment onto the appointments table.
var AppointmentTable = Table[model.Appointment]{
	Name:    "appointments",
	Columns: []string{"id", "created_at", "updated_at", "date", "notes", model.RefClient, model.RefProperty, model.RefAgent},
	Values: func(a model.Appointment) []any {
		return []any{a.ID, a.CreatedAt, a.UpdatedAt, a.Date, a.Notes, a.ClientID, a.PropertyID, a.AgentID}
	},
	Scan: func(s Scanner) (model.Appointment, error) {
		var a model.Appointment
		err := s.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &a.Date, &a.Notes, &a.ClientID, &a.PropertyID, &a.AgentID)
		return a, err
	},
}

package store

import (
	"database/sql"

	"go.uber.org/fx"

	"github.com/eugenenazirov/realestate-crm/internal/model"
)

// PostgresModule provides one PostgreSQL-backed repository per entity.
var PostgresModule = fx.Module("store",
	fx.Provide(
		func(db *sql.DB) Repository[model.Agent] { return NewPostgresRepository(db, AgentTable) },
		func(db *sql.DB) Repository[model.Client] { return NewPostgresRepository(db, ClientTable) },
		func(db *sql.DB) Repository[model.Property] { return NewPostgresRepository(db, PropertyTable) },
		func(db *sql.DB) Repository[model.Appointment] { return NewPostgresRepository(db, AppointmentTable) },
	),
)

// MemoryModule provides in-memory repositories for the "memory" database driver.
var MemoryModule = fx.Module("store",
	fx.Provide(
		func() Repository[model.Agent] { return NewMemoryRepository[model.Agent]() },
		func() Repository[model.Client] { return NewMemoryRepository[model.Client]() },
		func() Repository[model.Property] { return NewMemoryRepository[model.Property]() },
		func() Repository[model.Appointment] { return NewMemoryRepository[model.Appointment]() },
	),
)

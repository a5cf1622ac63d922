// Package application is the composition root of the CRM server. It groups
// the infrastructure and feature modules into one fx application and owns
// the HTTP server lifecycle.
package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/api"
	"github.com/eugenenazirov/realestate-crm/internal/appointment"
	"github.com/eugenenazirov/realestate-crm/internal/cache"
	"github.com/eugenenazirov/realestate-crm/internal/client"
	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/crud"
	"github.com/eugenenazirov/realestate-crm/internal/database"
	"github.com/eugenenazirov/realestate-crm/internal/gql"
	"github.com/eugenenazirov/realestate-crm/internal/health"
	"github.com/eugenenazirov/realestate-crm/internal/property"
	"github.com/eugenenazirov/realestate-crm/internal/secrets"
	"github.com/eugenenazirov/realestate-crm/internal/static"
	"github.com/eugenenazirov/realestate-crm/internal/store"
	"github.com/eugenenazirov/realestate-crm/internal/telemetry"
)

// App encapsulates the fx container, the root handler and the HTTP server.
type App struct {
	fx      *fx.App
	handler http.Handler
	server  *http.Server
	logger  *zap.Logger
	addr    string
}

// InfrastructureModule groups configuration, secrets, telemetry, the cache
// and the persistence layer selected by cfg.DB.Driver.
func InfrastructureModule(cfg config.Config) fx.Option {
	var persistence fx.Option
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		persistence = fx.Options(database.Module, store.PostgresModule)
	case config.DriverMemory:
		persistence = store.MemoryModule
	default:
		persistence = fx.Error(fmt.Errorf("unsupported database driver %q", cfg.DB.Driver))
	}

	return fx.Module("infrastructure",
		config.Module,
		secrets.Module,
		telemetry.Module,
		cache.Module,
		persistence,
	)
}

// FeatureModule groups the entity services and every HTTP surface.
var FeatureModule = fx.Module("features",
	crud.Module,
	agent.Module,
	client.Module,
	property.Module,
	appointment.Module,
	health.Module,
	gql.Module,
	static.Module,
	fx.Provide(
		NewHandler,
		NewServer,
	),
)

// New builds the application graph from cfg. Extra options are appended
// last, so tests can decorate or replace providers.
func New(cfg config.Config, logger *zap.Logger, opts ...fx.Option) (*App, error) {
	app := &App{logger: logger}

	fxApp := fx.New(
		fx.Supply(cfg, logger),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		InfrastructureModule(cfg),
		FeatureModule,
		fx.Options(opts...),
		fx.Populate(&app.handler, &app.server),
		fx.Invoke(app.registerServer),
	)
	if err := fxApp.Err(); err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	app.fx = fxApp
	return app, nil
}

type handlerParams struct {
	fx.In

	Config       config.Config
	Logger       *zap.Logger
	Telemetry    *telemetry.Providers
	Agents       *agent.Service
	Clients      *client.Service
	Properties   *property.Service
	Appointments *appointment.Service
	GraphQL      *gql.Handler
	Health       *health.Service
	Static       *static.Handler
}

// NewHandler assembles the root router and wraps it with request tracing.
func NewHandler(p handlerParams) http.Handler {
	routes := api.Routes{
		Agents:       p.Agents,
		Clients:      p.Clients,
		Properties:   p.Properties,
		Appointments: p.Appointments,
		GraphQL:      p.GraphQL,
		Health:       p.Health.Routes(),
		Metrics:      p.Telemetry.MetricsHandler(),
	}
	if p.Static != nil {
		routes.Static = p.Static
	}

	router := api.NewRouter(routes, p.Logger,
		api.WithLogging(p.Config.EnableRequestLogging),
		api.WithRateLimit(p.Config.RateLimit.RPS, p.Config.RateLimit.Burst),
	)
	return p.Telemetry.Middleware(router)
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// registerServer binds the listener when the app starts so that address
// errors surface from Start, and drains connections when it stops.
func (a *App) registerServer(lc fx.Lifecycle, server *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var lcfg net.ListenConfig
			ln, err := lcfg.Listen(ctx, "tcp", server.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", server.Addr, err)
			}
			a.addr = ln.Addr().String()
			a.logger.Info("server listening", zap.String("addr", a.addr))

			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				a.logger.Warn("graceful shutdown failed", zap.Error(err))
				return server.Close()
			}
			return nil
		},
	})
}

// Start runs every OnStart hook, the HTTP listener included.
func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

// Stop shuts the server down and then releases the cache, database pool and
// telemetry providers in reverse construction order.
func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Server returns the HTTP server instance.
func (a *App) Server() *http.Server {
	return a.server
}

// Addr returns the bound listener address once the app has started.
func (a *App) Addr() string {
	return a.addr
}

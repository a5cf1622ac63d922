package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/agent"
	"github.com/eugenenazirov/realestate-crm/internal/appointment"
	"github.com/eugenenazirov/realestate-crm/internal/client"
	"github.com/eugenenazirov/realestate-crm/internal/model"
	"github.com/eugenenazirov/realestate-crm/internal/property"
	"github.com/eugenenazirov/realestate-crm/internal/telemetry"
)

// Mount points of the root router.
const (
	APIPath     = "/api"
	GraphQLPath = "/graphql"
	HealthPath  = "/_health"
	MetricsPath = "/metrics"
)

// Routes collects what the root router serves. Nil handlers are not mounted.
type Routes struct {
	Agents       *agent.Service
	Clients      *client.Service
	Properties   *property.Service
	Appointments *appointment.Service

	GraphQL http.Handler
	Health  http.Handler
	Metrics http.Handler
	Static  http.Handler
}

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimiter overrides the default request rate limiter (primarily for tests).
func WithRateLimiter(limiter rateLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithRateLimit installs a token bucket of rps requests per second. A
// non-positive rps disables rate limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if rps <= 0 {
			cfg.rateLimiter = nil
			return
		}
		cfg.rateLimiter = newTokenBucketLimiter(rps, burst)
	}
}

type routerConfig struct {
	enableLogging bool
	logger        *zap.Logger
	rateLimiter   rateLimiter
}

// NewRouter creates the root HTTP router with the standard middleware chain.
// Rate limiting applies to the REST and GraphQL surfaces only.
func NewRouter(routes Routes, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		enableLogging: true,
		logger:        logger,
		rateLimiter:   newTokenBucketLimiter(25, 50),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if cfg.enableLogging {
		r.Use(loggingMiddleware(cfg.logger))
	}
	r.Use(recoveryMiddleware(cfg.logger))
	r.Use(corsMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(cfg.rateLimiter))
		r.Route(APIPath, func(r chi.Router) {
			mountAPI(r, routes, cfg.logger)
		})
		if routes.GraphQL != nil {
			r.Handle(GraphQLPath, routes.GraphQL)
		}
	})
	if routes.Health != nil {
		r.Mount(HealthPath, routes.Health)
	}
	if routes.Metrics != nil {
		r.Handle(MetricsPath, routes.Metrics)
	}
	if routes.Static != nil {
		r.NotFound(routes.Static.ServeHTTP)
	}

	return r
}

func mountAPI(r chi.Router, routes Routes, logger *zap.Logger) {
	if routes.Agents != nil {
		r.Route("/agents", func(r chi.Router) {
			mountResource[model.Agent, agent.CreateInput, agent.UpdateInput](r, routes.Agents, logger)
			mountRelation(r, "clients", routes.Agents.Clients)
			mountRelation(r, "properties", routes.Agents.Properties)
			mountRelation(r, "appointments", routes.Agents.Appointments)
		})
	}
	if routes.Clients != nil {
		r.Route("/clients", func(r chi.Router) {
			mountResource[model.Client, client.CreateInput, client.UpdateInput](r, routes.Clients, logger)
			mountRelation(r, "appointments", routes.Clients.Appointments)
		})
	}
	if routes.Properties != nil {
		r.Route("/properties", func(r chi.Router) {
			mountResource[model.Property, property.CreateInput, property.UpdateInput](r, routes.Properties, logger)
			mountRelation(r, "appointments", routes.Properties.Appointments)
		})
	}
	if routes.Appointments != nil {
		r.Route("/appointments", func(r chi.Router) {
			mountResource[model.Appointment, appointment.CreateInput, appointment.UpdateInput](r, routes.Appointments, logger)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Requested-With")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID,"+TotalCountHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestIDFromContext(r.Context())),
				zap.String("trace_id", telemetry.TraceID(r.Context())),
			)
		})
	}
}

func recoveryMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("request_id", requestIDFromContext(r.Context())),
					)
					writeError(w, r, http.StatusInternalServerError, "Internal error", "unexpected server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = generateRequestID()
		}
		ctx := contextWithRequestID(r.Context(), requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func generateRequestID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

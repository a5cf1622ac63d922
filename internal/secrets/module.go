package secrets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/config"
)

const awsLoadTimeout = 10 * time.Second

// Module provides the Manager selected by SECRETS_PROVIDER.
var Module = fx.Module("secrets",
	fx.Provide(New),
)

// New returns the configured secrets manager.
func New(cfg config.SecretsConfig, logger *zap.Logger) (Manager, error) {
	logger.Info("secrets provider selected", zap.String("provider", cfg.Provider))
	switch cfg.Provider {
	case config.SecretsAWS:
		ctx, cancel := context.WithTimeout(context.Background(), awsLoadTimeout)
		defer cancel()
		return LoadAWSManager(ctx, cfg.Region, cfg.Prefix)
	case config.SecretsEnv, "":
		return NewEnvManager(cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unsupported secrets provider %q", cfg.Provider)
	}
}

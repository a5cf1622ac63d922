package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/application"
	"github.com/eugenenazirov/realestate-crm/internal/config"
	"github.com/eugenenazirov/realestate-crm/internal/gql"
	"github.com/eugenenazirov/realestate-crm/internal/logging"
)

const startTimeout = 30 * time.Second

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("realestate-crm", "Real-estate CRM server - GraphQL and REST over agents, clients, properties and appointments")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()

	serveCmd := kingpinApp.Command("serve", "Run the HTTP server").Default()
	port := serveCmd.Flag("port", "HTTP port exposed by the service").String()
	rateLimitRPSFlag := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	var playgroundSet bool
	playground := serveCmd.Flag("graphql-playground", "Serve the GraphQL Playground (implies introspection)").IsSetByUser(&playgroundSet).Bool()

	schemaCmd := kingpinApp.Command("schema", "Print the sorted GraphQL schema without starting the server")
	schemaOut := schemaCmd.Flag("out", "Write the schema to this file instead of stdout").Short('o').String()

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))
	if command == schemaCmd.FullCommand() {
		if err := writeSchema(*schemaOut, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
			os.Exit(1)
		}
		return
	}

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}

	if *port != "" {
		overrides.Port = port
	}

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	if playgroundSet {
		overrides.GraphQLPlayground = playground
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	err = app.Start(startCtx)
	cancel()
	if err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	if err := shutdown(app, cfg.ShutdownGracePeriod, logger); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}
}

type stopper interface {
	Stop(ctx context.Context) error
}

// shutdown blocks until SIGINT or SIGTERM, then stops app within timeout.
func shutdown(app stopper, timeout time.Duration, logger *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return app.Stop(ctx)
}

// writeSchema prints the sorted SDL to w, or to the file at out when set.
func writeSchema(out string, w io.Writer) error {
	schema, err := gql.NewSchema(&gql.Resolvers{})
	if err != nil {
		return err
	}
	if out != "" {
		return gql.WriteSchemaFile(out, schema, true)
	}
	_, err = io.WriteString(w, gql.PrintSchema(schema, true))
	return err
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-command"
	inspection "github.com/thehariompandey/Resturant-Inspection-Automation-System"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/adapters/gocommand"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/adapters/gologger"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/providers/whatsapp"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/server"
	sqlstore "github.com/thehariompandey/Resturant-Inspection-Automation-System/store/sql"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/webhooks"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("inspectiond", flag.ContinueOnError)
	configPath := flags.String("config", "inspection.yaml", "path to the YAML config file")
	logLevel := flags.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flags.String("log-format", gologger.FormatJSON, "log format (json, text)")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	provider := gologger.NewProvider(gologger.Options{Level: *logLevel, Format: *logFormat, Output: os.Stderr})
	logger := provider.GetLogger("inspectiond")

	if err := serve(ctx, *configPath, provider, logger); err != nil {
		logger.Error("inspectiond stopped", "error", err.Error())
		return 1
	}
	return 0
}

func serve(ctx context.Context, configPath string, provider core.LoggerProvider, logger core.Logger) error {
	configProvider := core.NewCfgxConfigProvider(core.LayeredConfigLoader{
		core.YAMLFileLoader{Path: configPath},
		core.NewEnvConfigLoader(),
	})
	cfg, err := core.ResolveConfig(ctx, configProvider, core.GoOptionsResolver{}, core.Config{})
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	client, err := sqlstore.OpenClient(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = client.Close() }()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return fmt.Errorf("build stores: %w", err)
	}
	cacheService, err := sqlstore.NewCacheService(cfg.Cache)
	if err != nil {
		return fmt.Errorf("build cache: %w", err)
	}
	catalog, err := sqlstore.NewCachedCatalogReader(factory.CatalogStore(), cacheService)
	if err != nil {
		return fmt.Errorf("build catalog reader: %w", err)
	}

	flowClient := whatsapp.NewClient(whatsapp.ClientConfigFrom(cfg.WhatsApp), nil)
	service, err := inspection.NewService(cfg,
		inspection.WithLoggerProvider(provider),
		inspection.WithConfigProvider(configProvider),
		inspection.WithFlowClient(flowClient),
		inspection.WithCatalogReader(catalog),
	)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	ingester := webhooks.NewIngester(webhooks.IngesterConfigFrom(cfg.WhatsApp), webhooks.IngesterDependencies{
		Store:  factory.ResponseStore(),
		Logger: provider.GetLogger("inspection.webhooks"),
	})
	facade, err := inspection.NewFacade(service, ingester, factory.ResponseStore())
	if err != nil {
		return fmt.Errorf("build facade: %w", err)
	}

	bus := gocommand.NewBus(command.NewRegistry())
	defer bus.Close()
	if err := facade.Register(bus); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}
	if err := bus.Initialize(); err != nil {
		return fmt.Errorf("initialize command registry: %w", err)
	}

	busClient, err := inspection.NewBusClient(bus)
	if err != nil {
		return fmt.Errorf("build bus client: %w", err)
	}
	srv := server.New(busClient, ingester, server.Options{Logger: provider.GetLogger("inspection.http")})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("inspectiond listening",
			"addr", cfg.HTTP.Addr,
			"database_driver", cfg.Database.Driver,
			"flows_disabled", cfg.Dispatch.FlowsDisabled,
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("inspectiond shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

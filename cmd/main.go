package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/costdesk/internal/catalog"
	"github.com/davidbz/costdesk/internal/config"
	"github.com/davidbz/costdesk/internal/domain"
	"github.com/davidbz/costdesk/internal/http"
	"github.com/davidbz/costdesk/internal/http/middleware"
	"github.com/davidbz/costdesk/internal/observability"
	"github.com/davidbz/costdesk/internal/store/memory"
	redisstore "github.com/davidbz/costdesk/internal/store/redis"
)

func main() {
	container := buildContainer()

	// Load persisted usage before accepting requests.
	if err := container.Invoke(func(accounting *domain.AccountingService) error {
		return accounting.Hydrate(context.Background())
	}); err != nil {
		log.Fatalf("Failed to hydrate accounting state: %v", err)
	}

	err := container.Invoke(func(server *http.Server, cfg *config.ServerConfig) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})
	if err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(observability.NewMetrics); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger, metrics *observability.Metrics) domain.EventPublisher {
		return observability.NewEventBus(logger, metrics)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Pricing catalog and client directory
	if err := container.Provide(func(cfg *config.CatalogConfig) (*catalog.File, error) {
		return catalog.Load(context.Background(), cfg.Path)
	}); err != nil {
		log.Fatalf("Failed to provide catalog file: %v", err)
	}
	if err := container.Provide(func(file *catalog.File) (domain.PricingCatalog, error) {
		return file.Build()
	}); err != nil {
		log.Fatalf("Failed to provide pricing catalog: %v", err)
	}
	if err := container.Provide(func(file *catalog.File) domain.ClientDirectory {
		return catalog.NewDirectory(file.Clients)
	}); err != nil {
		log.Fatalf("Failed to provide client directory: %v", err)
	}

	// Persistence
	if err := container.Provide(newRepositories); err != nil {
		log.Fatalf("Failed to provide repositories: %v", err)
	}

	// Domain Services
	if err := container.Provide(domain.NewCostEngine); err != nil {
		log.Fatalf("Failed to provide cost engine: %v", err)
	}
	if err := container.Provide(domain.NewAllocationEngine); err != nil {
		log.Fatalf("Failed to provide allocation engine: %v", err)
	}
	if err := container.Provide(func(pricing domain.PricingCatalog) *domain.UsageLedger {
		return domain.NewUsageLedger(pricing)
	}); err != nil {
		log.Fatalf("Failed to provide usage ledger: %v", err)
	}
	if err := container.Provide(domain.NewSubscriptionBook); err != nil {
		log.Fatalf("Failed to provide subscription book: %v", err)
	}
	if err := container.Provide(func(
		pricing domain.PricingCatalog,
		ledger *domain.UsageLedger,
		book *domain.SubscriptionBook,
		allocator *domain.AllocationEngine,
		directory domain.ClientDirectory,
		billing *config.BillingConfig,
	) *domain.AggregationReporter {
		return domain.NewAggregationReporter(pricing, ledger, book, allocator, directory, billing.ExpectedClients)
	}); err != nil {
		log.Fatalf("Failed to provide reporter: %v", err)
	}
	if err := container.Provide(domain.NewAccountingService); err != nil {
		log.Fatalf("Failed to provide accounting service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// newRepositories selects Redis when an address is configured and falls back
// to process memory otherwise.
func newRepositories(cfg *config.RedisConfig) (domain.UsageRepository, domain.SubscriptionRepository, error) {
	logger := observability.FromContext(context.Background())

	if !cfg.Enabled() {
		logger.Warn("REDIS_ADDR not set, usage will not survive a restart")
		store := memory.NewStore()
		return store, store, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("using redis repositories",
		observability.String("addr", cfg.Addr),
		observability.String("key_prefix", cfg.KeyPrefix))

	store := redisstore.NewStore(client, cfg.KeyPrefix)
	return store, store, nil
}

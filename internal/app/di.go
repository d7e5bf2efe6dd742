// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	catalogHTTP "github.com/allisson/orders/internal/catalog/http"
	catalogRepository "github.com/allisson/orders/internal/catalog/repository"
	catalogUsecase "github.com/allisson/orders/internal/catalog/usecase"
	"github.com/allisson/orders/internal/config"
	customerHTTP "github.com/allisson/orders/internal/customer/http"
	customerRepository "github.com/allisson/orders/internal/customer/repository"
	customerUsecase "github.com/allisson/orders/internal/customer/usecase"
	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/http"
	idempotencyService "github.com/allisson/orders/internal/idempotency/service"
	"github.com/allisson/orders/internal/metrics"
	orderHTTP "github.com/allisson/orders/internal/order/http"
	orderRepository "github.com/allisson/orders/internal/order/repository"
	orderUsecase "github.com/allisson/orders/internal/order/usecase"
	outboxRepository "github.com/allisson/orders/internal/outbox/repository"
	outboxUsecase "github.com/allisson/orders/internal/outbox/usecase"
	stockService "github.com/allisson/orders/internal/stock/service"
)

// ProductRepository combines the catalog view and the stock ledger view of the
// products table. Both concrete repositories implement it.
type ProductRepository interface {
	catalogUsecase.ProductRepository
	stockService.ProductRepository
}

// OutboxEventRepository combines the writer view used by order creation and
// the dispatcher view used by the outbox polling loop.
type OutboxEventRepository interface {
	orderUsecase.OutboxEventRepository
	outboxUsecase.OutboxEventRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	productRepo  ProductRepository
	customerRepo customerUsecase.CustomerRepository
	orderRepo    orderUsecase.OrderRepository
	outboxRepo   OutboxEventRepository

	// Services
	stockLedger      *stockService.Ledger
	idempotencyGuard *idempotencyService.Guard

	// Use Cases
	productUseCase  catalogUsecase.ProductUseCase
	customerUseCase customerUsecase.CustomerUseCase
	orderUseCase    orderUsecase.OrderUseCase
	outboxUseCase   outboxUsecase.UseCase

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	productRepoInit     sync.Once
	customerRepoInit    sync.Once
	orderRepoInit       sync.Once
	outboxRepoInit      sync.Once
	stockLedgerInit     sync.Once
	guardInit           sync.Once
	productUseCaseInit  sync.Once
	customerUseCaseInit sync.Once
	orderUseCaseInit    sync.Once
	outboxUseCaseInit   sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op implementation
// is returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// ProductRepository returns the product repository instance.
func (c *Container) ProductRepository() (ProductRepository, error) {
	c.productRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["productRepo"] = fmt.Errorf("failed to get database for product repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.productRepo = catalogRepository.NewMySQLProductRepository(db)
		case "postgres":
			c.productRepo = catalogRepository.NewPostgreSQLProductRepository(db)
		default:
			c.initErrors["productRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["productRepo"]; exists {
		return nil, storedErr
	}
	return c.productRepo, nil
}

// CustomerRepository returns the customer repository instance.
func (c *Container) CustomerRepository() (customerUsecase.CustomerRepository, error) {
	c.customerRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["customerRepo"] = fmt.Errorf("failed to get database for customer repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.customerRepo = customerRepository.NewMySQLCustomerRepository(db)
		case "postgres":
			c.customerRepo = customerRepository.NewPostgreSQLCustomerRepository(db)
		default:
			c.initErrors["customerRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["customerRepo"]; exists {
		return nil, storedErr
	}
	return c.customerRepo, nil
}

// OrderRepository returns the order repository instance.
func (c *Container) OrderRepository() (orderUsecase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["orderRepo"] = fmt.Errorf("failed to get database for order repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.orderRepo = orderRepository.NewMySQLOrderRepository(db)
		case "postgres":
			c.orderRepo = orderRepository.NewPostgreSQLOrderRepository(db)
		default:
			c.initErrors["orderRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// OutboxRepository returns the outbox event repository instance.
func (c *Container) OutboxRepository() (OutboxEventRepository, error) {
	c.outboxRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["outboxRepo"] = fmt.Errorf("failed to get database for outbox repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.outboxRepo = outboxRepository.NewMySQLOutboxEventRepository(db)
		case "postgres":
			c.outboxRepo = outboxRepository.NewPostgreSQLOutboxEventRepository(db)
		default:
			c.initErrors["outboxRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// StockLedger returns the stock ledger instance.
func (c *Container) StockLedger() (*stockService.Ledger, error) {
	c.stockLedgerInit.Do(func() {
		productRepo, err := c.ProductRepository()
		if err != nil {
			c.initErrors["stockLedger"] = fmt.Errorf("failed to get product repository for stock ledger: %w", err)
			return
		}
		c.stockLedger = stockService.NewLedger(productRepo, c.Logger())
	})
	if storedErr, exists := c.initErrors["stockLedger"]; exists {
		return nil, storedErr
	}
	return c.stockLedger, nil
}

// IdempotencyGuard returns the idempotency guard instance.
func (c *Container) IdempotencyGuard() (*idempotencyService.Guard, error) {
	c.guardInit.Do(func() {
		orderRepo, err := c.OrderRepository()
		if err != nil {
			c.initErrors["idempotencyGuard"] = fmt.Errorf("failed to get order repository for idempotency guard: %w", err)
			return
		}
		c.idempotencyGuard = idempotencyService.NewGuard(
			idempotencyService.NewMemoryStore(),
			orderRepo,
			c.config.IdempotencyKeyTTL,
			c.Logger(),
		)
	})
	if storedErr, exists := c.initErrors["idempotencyGuard"]; exists {
		return nil, storedErr
	}
	return c.idempotencyGuard, nil
}

// ProductUseCase returns the product use case instance.
func (c *Container) ProductUseCase() (catalogUsecase.ProductUseCase, error) {
	c.productUseCaseInit.Do(func() {
		productRepo, err := c.ProductRepository()
		if err != nil {
			c.initErrors["productUseCase"] = fmt.Errorf("failed to get product repository for product use case: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["productUseCase"] = err
			return
		}

		useCase := catalogUsecase.NewProductUseCase(productRepo, c.Logger())
		c.productUseCase = catalogUsecase.NewProductUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["productUseCase"]; exists {
		return nil, storedErr
	}
	return c.productUseCase, nil
}

// CustomerUseCase returns the customer use case instance.
func (c *Container) CustomerUseCase() (customerUsecase.CustomerUseCase, error) {
	c.customerUseCaseInit.Do(func() {
		customerRepo, err := c.CustomerRepository()
		if err != nil {
			c.initErrors["customerUseCase"] = fmt.Errorf("failed to get customer repository for customer use case: %w", err)
			return
		}
		c.customerUseCase = customerUsecase.NewCustomerUseCase(customerRepo, c.Logger())
	})
	if storedErr, exists := c.initErrors["customerUseCase"]; exists {
		return nil, storedErr
	}
	return c.customerUseCase, nil
}

// OrderUseCase returns the order use case instance.
func (c *Container) OrderUseCase() (orderUsecase.OrderUseCase, error) {
	c.orderUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["orderUseCase"] = fmt.Errorf("failed to get tx manager for order use case: %w", err)
			return
		}

		orderRepo, err := c.OrderRepository()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		customerRepo, err := c.CustomerRepository()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		ledger, err := c.StockLedger()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		guard, err := c.IdempotencyGuard()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}

		useCase := orderUsecase.NewOrderUseCase(
			txManager,
			orderRepo,
			customerRepo,
			ledger,
			guard,
			outboxRepo,
			c.config.IdempotencyKeyTTL,
			c.Logger(),
		)
		c.orderUseCase = orderUsecase.NewOrderUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["orderUseCase"]; exists {
		return nil, storedErr
	}
	return c.orderUseCase, nil
}

// OutboxUseCase returns the outbox dispatcher instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["outboxUseCase"] = fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
			return
		}

		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}

		useCaseConfig := outboxUsecase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		}

		publisher := outboxUsecase.NewLoggingEventPublisher(c.Logger())
		c.outboxUseCase = outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, publisher, c.Logger())
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// HTTPServer returns the HTTP server instance with all routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		logger := c.Logger()

		db, err := c.DB()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get database for http server: %w", err)
			return
		}

		orderUC, err := c.OrderUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		productUC, err := c.ProductUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		customerUC, err := c.CustomerUseCase()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}

		routerConfig := http.RouterConfig{
			OrderHandler:            orderHTTP.NewOrderHandler(orderUC, logger),
			ProductHandler:          catalogHTTP.NewProductHandler(productUC, logger),
			CustomerHandler:         customerHTTP.NewCustomerHandler(customerUC, logger),
			CORSEnabled:             c.config.CORSEnabled,
			CORSAllowOrigins:        c.config.CORSAllowOrigins,
			RateLimitEnabled:        c.config.RateLimitEnabled,
			RateLimitRequestsPerSec: c.config.RateLimitRequestsPerSec,
			RateLimitBurst:          c.config.RateLimitBurst,
		}

		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		if provider != nil {
			routerConfig.MetricsMiddleware = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
		}

		server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
		server.SetupRouter(routerConfig)
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

package config

import (
	"context"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/handlers"
	"github.com/draftea/order-system/order-service/infrastructure"
	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/events"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/draftea/order-system/shared/saga"
	"github.com/draftea/order-system/shared/telemetry"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	OrderRepository domain.OrderRepository
	SagaStore       saga.Store

	// Downstream services
	Breakers      *circuitbreaker.Manager
	ServiceClient *infrastructure.ServiceClient

	// Use Cases
	OrderSaga      *application.OrderSaga
	CreateOrder    *application.CreateOrder
	GetOrder       *application.GetOrder
	ListUserOrders *application.ListUserOrders

	// HTTP Handlers
	OrderHandlers *handlers.OrderHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers
	EventHandler       events.EventHandler

	// Infrastructure
	EventPublisher  *sharedinfra.AsyncPublisher
	EventSubscriber events.Subscriber
	Redis           *redis.Client

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()

	closers []io.Closer
	logger  *zap.Logger
}

// BuildDependencies wires the order service from its configuration.
// On error everything built so far is closed.
func BuildDependencies(ctx context.Context, config *Config, logger *zap.Logger) (_ *Dependencies, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Dependencies{logger: logger}
	defer func() {
		if err != nil {
			err = multierr.Append(err, deps.Close())
		}
	}()

	deps.buildTelemetry(ctx, config)

	deps.Breakers = circuitbreaker.NewManager(logger, circuitbreaker.Config{
		FailureThreshold: config.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  config.CircuitBreaker.RecoveryTimeout,
		CallTimeout:      config.CircuitBreaker.CallTimeout,
	})
	deps.Breakers.RegisterStateChangeListener(circuitbreaker.NewMetricsListener(deps.Telemetry))

	if err = deps.buildStorage(ctx, config); err != nil {
		return nil, err
	}

	publisher, err := deps.buildTransport(ctx, config)
	if err != nil {
		return nil, err
	}
	deps.EventPublisher = sharedinfra.NewAsyncPublisher(publisher, logger,
		sharedinfra.WithPublishWorkers(config.Events.PublishWorkers, config.Events.PublishQueue),
		sharedinfra.WithPublishRetries(config.Events.PublishRetries, config.Events.PublishBackoff),
	)

	dedup, err := deps.buildDeduplicator(ctx, config)
	if err != nil {
		return nil, err
	}

	deps.ServiceClient = infrastructure.NewServiceClient(deps.Breakers, infrastructure.ServiceURLs{
		User:    config.Services.UserURL,
		Product: config.Services.ProductURL,
		Payment: config.Services.PaymentURL,
	}, http.DefaultTransport)

	deps.OrderSaga = application.NewOrderSaga(deps.ServiceClient, deps.ServiceClient, deps.OrderRepository, logger,
		application.WithSagaStore(deps.SagaStore),
		application.WithCompensationTimeout(config.Saga.CompensationTimeout),
	)
	deps.CreateOrder = application.NewCreateOrder(deps.ServiceClient, deps.ServiceClient, deps.OrderSaga, deps.EventPublisher, logger)
	deps.GetOrder = application.NewGetOrder(deps.OrderRepository)
	deps.ListUserOrders = application.NewListUserOrders(deps.OrderRepository)

	deps.OrderHandlers = handlers.NewOrderHandlers(deps.CreateOrder, deps.GetOrder, deps.ListUserOrders, deps.Breakers, logger)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(logger)

	var handler events.EventHandler = deps.OrderEventHandlers.Router()
	if dedup != nil {
		handler = sharedinfra.NewDedupHandler(handler, dedup, logger)
	}
	deps.EventHandler = handler

	return deps, nil
}

func (d *Dependencies) buildTelemetry(ctx context.Context, config *Config) {
	telConfig := telemetry.OrderServiceConfig.ForService(config.ServiceName, config.Telemetry.OTLPEndpoint)

	if config.Telemetry.Enabled {
		tel, shutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err == nil {
			d.Telemetry = tel
			d.TelemetryShutdown = shutdown
			return
		}
		// Continue without exporters rather than failing
		d.logger.Error("failed to initialize telemetry", zap.Error(err))
	}

	d.Telemetry = telemetry.NewTelemetry(telConfig)
}

func (d *Dependencies) buildStorage(ctx context.Context, config *Config) error {
	switch config.Database.Driver {
	case "memory":
		d.OrderRepository = infrastructure.NewMemoryOrderRepository()
		d.SagaStore = saga.NewMemoryStore()
		d.logger.Warn("using in-memory storage, orders are lost on restart")
		return nil
	case "postgres", "":
	default:
		return errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", config.GetDatabaseURL())
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	d.DB = db

	orders := infrastructure.NewPostgresOrderRepository(db)
	if err := orders.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "failed to create orders schema")
	}
	sagas := sharedinfra.NewPostgresSagaStore(db)
	if err := sagas.EnsureSchema(ctx); err != nil {
		return errors.Wrap(err, "failed to create saga schema")
	}

	d.OrderRepository = orders
	d.SagaStore = sagas
	return nil
}

func (d *Dependencies) buildTransport(ctx context.Context, config *Config) (events.Publisher, error) {
	switch config.Events.Transport {
	case "kafka":
		brokers := sharedinfra.ParseBrokers(config.Kafka.Brokers)
		publisher := sharedinfra.NewKafkaEventPublisher(brokers, d.logger)
		subscriber := sharedinfra.NewKafkaEventSubscriber(brokers, config.Kafka.GroupID, d.logger,
			sharedinfra.WithHandlerRetries(config.Kafka.HandlerAttempts, config.Kafka.RetryBackoff),
		)
		d.closers = append(d.closers, subscriber, publisher)
		d.EventSubscriber = subscriber
		return publisher, nil

	case "sns":
		awsCfg, err := loadAWSConfig(ctx, config.AWS)
		if err != nil {
			return nil, err
		}
		publisher := sharedinfra.NewSNSPublisherAdapter(awsCfg, config.AWS.SNSTopicArn)
		subscriber := sharedinfra.NewSQSSubscriberAdapter(awsCfg, config.AWS.SQSQueueURL, d.logger,
			sharedinfra.WithWorkers(config.AWS.SQSWorkers),
		)
		d.closers = append(d.closers, subscriber, publisher)
		d.EventSubscriber = subscriber
		return publisher, nil

	case "memory":
		bus := sharedinfra.NewMemoryBus(d.logger)
		d.closers = append(d.closers, bus)
		d.EventSubscriber = bus
		return bus, nil

	default:
		return nil, errors.Errorf("unknown event transport %q", config.Events.Transport)
	}
}

func loadAWSConfig(ctx context.Context, cfg AWS) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load aws config")
	}

	// LocalStack
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return awsCfg, nil
}

func (d *Dependencies) buildDeduplicator(ctx context.Context, config *Config) (sharedinfra.Deduplicator, error) {
	switch config.Events.Dedup {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		d.Redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		return sharedinfra.NewRedisDeduplicator(client, config.ServiceName+":events:", config.Events.DedupTTL), nil
	case "memory":
		return sharedinfra.NewMemoryDeduplicator(config.Events.DedupTTL), nil
	case "none", "":
		return nil, nil
	default:
		return nil, errors.Errorf("unknown dedup backend %q", config.Events.Dedup)
	}
}

// Start subscribes the event handler to every consumed topic
func (d *Dependencies) Start(ctx context.Context) error {
	if d.EventSubscriber == nil {
		return nil
	}

	for _, topic := range handlers.ConsumedTopics {
		if err := d.EventSubscriber.Subscribe(ctx, topic, d.EventHandler); err != nil {
			return errors.Wrapf(err, "failed to subscribe to %s", topic)
		}
	}
	return nil
}

// Close drains the publisher before closing transports and storage
func (d *Dependencies) Close() error {
	var err error

	if d.EventPublisher != nil {
		err = multierr.Append(err, errors.Wrap(d.EventPublisher.Close(), "failed to close event publisher"))
	}

	for _, closer := range d.closers {
		err = multierr.Append(err, errors.Wrap(closer.Close(), "failed to close event transport"))
	}

	if d.Redis != nil {
		err = multierr.Append(err, errors.Wrap(d.Redis.Close(), "failed to close redis"))
	}

	if d.DB != nil {
		err = multierr.Append(err, errors.Wrap(d.DB.Close(), "failed to close database"))
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	return err
}

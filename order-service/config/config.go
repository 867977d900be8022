package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "ORDER"

type Config struct {
	ServiceName    string         `mapstructure:"service_name"`
	Env            string         `mapstructure:"env"`
	Port           string         `mapstructure:"port"`
	LogLevel       string         `mapstructure:"log_level"`
	Database       Database       `mapstructure:"database"`
	Services       Services       `mapstructure:"services"`
	CircuitBreaker CircuitBreaker `mapstructure:"circuit_breaker"`
	Saga           Saga           `mapstructure:"saga"`
	Events         Events         `mapstructure:"events"`
	Kafka          Kafka          `mapstructure:"kafka"`
	AWS            AWS            `mapstructure:"aws"`
	Redis          Redis          `mapstructure:"redis"`
	Telemetry      Telemetry      `mapstructure:"telemetry"`
}

type Database struct {
	// Driver is "postgres" or "memory"
	Driver   string `mapstructure:"driver"`
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// Services holds the base URLs of the downstream services
type Services struct {
	UserURL    string `mapstructure:"user_url"`
	ProductURL string `mapstructure:"product_url"`
	PaymentURL string `mapstructure:"payment_url"`
}

type CircuitBreaker struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
}

type Saga struct {
	CompensationTimeout time.Duration `mapstructure:"compensation_timeout"`
}

type Events struct {
	// Transport is "kafka", "sns" or "memory"
	Transport      string        `mapstructure:"transport"`
	PublishWorkers int           `mapstructure:"publish_workers"`
	PublishQueue   int           `mapstructure:"publish_queue"`
	PublishRetries int           `mapstructure:"publish_retries"`
	PublishBackoff time.Duration `mapstructure:"publish_backoff"`
	// Dedup is "redis", "memory" or "none"
	Dedup    string        `mapstructure:"dedup"`
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

type Kafka struct {
	Brokers         string        `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	HandlerAttempts int           `mapstructure:"handler_attempts"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

type AWS struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	SNSTopicArn     string `mapstructure:"sns_topic_arn"`
	SQSQueueURL     string `mapstructure:"sqs_queue_url"`
	SQSWorkers      int32  `mapstructure:"sqs_workers"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// ReadConfig loads <ENVIRONMENT>.json (default local) from the config
// directory. ORDER_* variables override any key, e.g. ORDER_DATABASE_HOST.
func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, errors.New("unable to get current file")
	}

	return Load(getConfigName(), filepath.Dir(filename), ".", "./config")
}

// Load reads the named config from the first path that has it.
// A missing file leaves the defaults in place.
func Load(name string, paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("json")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling config")
	}

	return &config, nil
}

func getConfigName() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return "local"
	}
	return env
}

// setDefaults also honours the variable names the service has always used
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "order-service")
	v.SetDefault("env", getEnv("ENV", "local"))
	v.SetDefault("port", getEnv("PORT", "8003"))
	v.SetDefault("log_level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", os.Getenv("DATABASE_URL"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "orders")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("services.user_url", getEnv("USER_SERVICE_URL", "http://user-service:8001"))
	v.SetDefault("services.product_url", getEnv("PRODUCT_SERVICE_URL", "http://product-service:8002"))
	v.SetDefault("services.payment_url", getEnv("PAYMENT_SERVICE_URL", "http://payment-service:8004"))

	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.recovery_timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.call_timeout", 10*time.Second)

	v.SetDefault("saga.compensation_timeout", 30*time.Second)

	v.SetDefault("events.transport", "kafka")
	v.SetDefault("events.publish_workers", 2)
	v.SetDefault("events.publish_queue", 256)
	v.SetDefault("events.publish_retries", 3)
	v.SetDefault("events.publish_backoff", 200*time.Millisecond)
	v.SetDefault("events.dedup", "none")
	v.SetDefault("events.dedup_ttl", 24*time.Hour)

	v.SetDefault("kafka.brokers", getEnv("KAFKA_BROKER", "localhost:9092"))
	v.SetDefault("kafka.group_id", "order-service-group")
	v.SetDefault("kafka.handler_attempts", 3)
	v.SetDefault("kafka.retry_backoff", time.Second)

	v.SetDefault("aws.access_key_id", getEnv("AWS_ACCESS_KEY_ID", ""))
	v.SetDefault("aws.secret_access_key", getEnv("AWS_SECRET_ACCESS_KEY", ""))
	v.SetDefault("aws.region", getEnv("AWS_DEFAULT_REGION", "us-east-1"))
	v.SetDefault("aws.endpoint", getEnv("AWS_ENDPOINT_URL", ""))
	v.SetDefault("aws.sns_topic_arn", getEnv("SNS_TOPIC_ARN", "arn:aws:sns:us-east-1:000000000000:order-events"))
	v.SetDefault("aws.sqs_queue_url", getEnv("SQS_QUEUE_URL", "http://localhost:4566/000000000000/order-events"))
	v.SetDefault("aws.sqs_workers", 5)

	v.SetDefault("redis.addr", getEnv("REDIS_ADDR", "localhost:6379"))
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetDatabaseURL returns database.url when set, otherwise builds one from its parts
func (c *Config) GetDatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host,
		c.Database.Port, c.Database.Database, c.Database.SSLMode)
}

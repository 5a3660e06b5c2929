package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreDriverProxy    = "proxy"
	StoreDriverPostgres = "postgres"

	FunctionModeOrders     = "orders"
	FunctionModeOrdersPost = "orders-post"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// 저장소 접근 방식: proxy (HTTP query proxy) | postgres (직접 연결)
	StoreDriver        string        `envconfig:"STORE_DRIVER" default:"proxy"`
	QueryProxyURL      string        `envconfig:"QUERY_PROXY_URL" default:"https://db.creative-energy.net:2866/api/query"`
	QueryProxyUser     string        `envconfig:"QUERY_PROXY_USER"`
	QueryProxyPassword string        `envconfig:"QUERY_PROXY_PASSWORD"`
	QueryTimeout       time.Duration `envconfig:"QUERY_TIMEOUT" default:"15s"`
	PostgresDSN        string        `envconfig:"POSTGRES_DSN"`

	KafkaBrokers            []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic         string   `envconfig:"KAFKA_ORDER_TOPIC" default:"order-events"`
	KafkaInconsistencyTopic string   `envconfig:"KAFKA_INCONSISTENCY_TOPIC" default:"inventory-inconsistencies"`
	KafkaGroupID            string   `envconfig:"KAFKA_GROUP_ID" default:"order-reconciler"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	AWSRegion               string `envconfig:"AWS_REGION" default:"ap-northeast-2"`
	ReconciliationTableName string `envconfig:"RECONCILIATION_TABLE_NAME"`
	DynamoDBEndpoint        string `envconfig:"DYNAMODB_ENDPOINT"`
	LocalMode               bool   `envconfig:"LOCAL_MODE" default:"true"` // AWS 없이 로컬 실행 모드

	AdminResetEnabled   bool          `envconfig:"ADMIN_RESET_ENABLED" default:"false"`
	ResetStockQuantity  int           `envconfig:"RESET_STOCK_QUANTITY" default:"100"`
	CompensationTimeout time.Duration `envconfig:"COMPENSATION_TIMEOUT" default:"10s"`

	// 함수 트리거 종류: orders (전체 라우트) | orders-post (POST 전용)
	FunctionMode string `envconfig:"FUNCTION_MODE" default:"orders"`
	FunctionName string `envconfig:"FUNCTION_NAME" default:"orders"`
	Platform     string `envconfig:"PLATFORM" default:"samsung-cloud-platform"`
	Region       string `envconfig:"REGION" default:"kr-west1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverProxy:
		if c.QueryProxyURL == "" {
			return fmt.Errorf("QUERY_PROXY_URL is required for store driver %q", c.StoreDriver)
		}
	case StoreDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for store driver %q", c.StoreDriver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	switch c.FunctionMode {
	case FunctionModeOrders, FunctionModeOrdersPost:
	default:
		return fmt.Errorf("unknown function mode %q", c.FunctionMode)
	}
	if c.ResetStockQuantity < 0 {
		return fmt.Errorf("RESET_STOCK_QUANTITY must not be negative")
	}
	return nil
}

func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c *Config) IdempotencyEnabled() bool { return c.RedisAddr != "" }

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"SmartSignal/internal/services/engine"
	"SmartSignal/pkg/logger"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Logging     logger.Config `yaml:"logging"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
		CORSMaxAge      time.Duration `yaml:"cors_max_age" default:"10m"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Engine engine.Params `yaml:"engine"`
	Market struct {
		Provider   string        `yaml:"provider" default:"binance"` // binance or synthetic
		BaseURL    string        `yaml:"base_url" default:"https://api.binance.com/api/v3"`
		QuoteAsset string        `yaml:"quote_asset" default:"USDT"`
		Interval   string        `yaml:"interval" default:"15m"`
		KlineLimit int           `yaml:"kline_limit" default:"50"`
		DepthLimit int           `yaml:"depth_limit" default:"100"`
		Timeout    time.Duration `yaml:"timeout" default:"10s"`
		Retries    int           `yaml:"retries" default:"2"`
		Fallback   bool          `yaml:"fallback" default:"true"`
		CacheTTL   time.Duration `yaml:"cache_ttl" default:"5s"`
	} `yaml:"market"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url" default:"wss://stream.binance.com:9443"`
		Symbols        []string      `yaml:"symbols" default:"[\"BTC\",\"ETH\"]"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
		MaxStaleness   time.Duration `yaml:"max_staleness" default:"10s"`
		MaxTicksPerSec int           `yaml:"max_ticks_per_sec" default:"5"`
	} `yaml:"stream"`
	Storage struct {
		Type string `yaml:"type" default:"memory"` // memory or postgres
	} `yaml:"storage"`
	Postgres struct {
		URL             string        `yaml:"url"`
		MaxConns        int32         `yaml:"max_conns" default:"10"`
		MinConns        int32         `yaml:"min_conns" default:"1"`
		MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" default:"30m"`
		MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" default:"5m"`
		RequireSSL      bool          `yaml:"require_ssl"`
	} `yaml:"postgres"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"smartsignal"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled        bool     `yaml:"enabled"`
		Brokers        []string `yaml:"brokers"`
		GeneratedTopic string   `yaml:"generated_topic" default:"signals.generated"`
		RequestTopic   string   `yaml:"request_topic" default:"signals.requests"`
		RequiredAcks   int      `yaml:"required_acks" default:"-1"`
		Compression    string   `yaml:"compression" default:"snappy"`
		Producer       struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"smartsignal"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"signals.requests.dlq"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10485760"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Redis struct {
		Enabled       bool   `yaml:"enabled"`
		Addr          string `yaml:"addr" default:"localhost:6379"`
		Password      string `yaml:"password"`
		DB            int    `yaml:"db"`
		Prefix        string `yaml:"prefix" default:"smartsignal"`
		PoolSize      int    `yaml:"pool_size" default:"10"`
		MemoryMaxSize int    `yaml:"memory_max_size" default:"1000"`
	} `yaml:"redis"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"` // redis-backed request queue
		Workers    int           `yaml:"workers" default:"2"`
		RetryLimit int           `yaml:"retry_limit" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"10s"`
		Prefix     string        `yaml:"prefix" default:"smartsignal:queue"`
	} `yaml:"queue"`
	Insight struct {
		Enabled     bool          `yaml:"enabled" default:"true"`
		URL         string        `yaml:"url" default:"https://openrouter.ai/api/v1/chat/completions"`
		Model       string        `yaml:"model" default:"mistralai/mistral-7b-instruct:free"`
		APIKey      string        `yaml:"api_key"`
		Title       string        `yaml:"title" default:"SmartSignal Pro AI"`
		Referer     string        `yaml:"referer"`
		MaxTokens   int           `yaml:"max_tokens" default:"200"`
		Temperature float64       `yaml:"temperature" default:"0.6"`
		Timeout     time.Duration `yaml:"timeout" default:"20s"`
		Retries     int           `yaml:"retries" default:"2"`
	} `yaml:"insight"`
	RateLimit struct {
		Capacity     float64 `yaml:"capacity" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"0.5"`
	} `yaml:"ratelimit"`
	Scan struct {
		MaxSymbols  int           `yaml:"max_symbols" default:"20"`
		Concurrency int           `yaml:"concurrency" default:"4"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"scan"`
}

// Default returns a configuration built from struct defaults only.
func Default() (*Config, error) {
	c := &Config{Engine: engine.DefaultParams()}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file over the defaults. An empty
// path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("SMARTSIGNAL_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("OPENROUTER_API_KEY"); v != "" {
		c.Insight.APIKey = v
	}
	if v := getenv("BINANCE_BASE_URL"); v != "" {
		c.Market.BaseURL = v
	}
	if v := getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Postgres.URL == "" {
			return errors.New("postgres.url is required when storage.type is postgres")
		}
	default:
		return fmt.Errorf("storage.type must be 'memory' or 'postgres', got '%s'", c.Storage.Type)
	}
	if c.Market.Provider != "binance" && c.Market.Provider != "synthetic" {
		return fmt.Errorf("market.provider must be 'binance' or 'synthetic', got '%s'", c.Market.Provider)
	}
	if c.Market.KlineLimit < c.Engine.ATRPeriod {
		return fmt.Errorf("market.kline_limit (%d) must cover engine.atr_period (%d)", c.Market.KlineLimit, c.Engine.ATRPeriod)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Stream.Enabled && len(c.Stream.Symbols) == 0 {
		return errors.New("stream.symbols cannot be empty when the stream is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return errors.New("queue requires redis.enabled")
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be >= 1, got %d", c.Scan.Concurrency)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

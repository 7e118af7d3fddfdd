package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the application
type Config struct {
	// Block explorer (Etherscan v2 compatible) configuration
	Explorer ExplorerConfig

	// EVM JSON-RPC node configuration
	Ethereum EthereumConfig

	// Starknet JSON-RPC configuration
	Starknet StarknetConfig

	// Chunked scanner budgets
	Scanner ScannerConfig

	// Recipient aggregation settings
	Aggregator AggregatorConfig

	// Upstream rate limiting
	RateLimit RateLimitConfig

	// Redis configuration
	Redis RedisConfig

	// API server configuration
	API APIConfig

	// Logging configuration
	Log LogConfig
}

// ExplorerConfig holds block explorer REST API settings
type ExplorerConfig struct {
	APIURL         string        `envconfig:"EXPLORER_API_URL" default:"https://api.etherscan.io/v2/api"`
	APIKey         string        `envconfig:"EXPLORER_API_KEY" default:""`
	PageSize       int           `envconfig:"EXPLORER_PAGE_SIZE" default:"1000"`
	MaxPages       int           `envconfig:"EXPLORER_MAX_PAGES" default:"10"`
	RequestTimeout time.Duration `envconfig:"EXPLORER_REQUEST_TIMEOUT" default:"20s"`
	MaxRetryTime   time.Duration `envconfig:"EXPLORER_MAX_RETRY_TIME" default:"1m"`
}

// HasCredential reports whether a usable API key is configured
func (c ExplorerConfig) HasCredential() bool {
	return c.APIKey != "" && c.APIKey != "YourApiKeyToken"
}

// EthereumConfig holds EVM node connection settings
type EthereumConfig struct {
	RPCURL         string        `envconfig:"ETH_RPC_URL" default:""`
	RPCChain       string        `envconfig:"ETH_RPC_CHAIN" default:"bsc"`
	RequestTimeout time.Duration `envconfig:"ETH_REQUEST_TIMEOUT" default:"30s"`
	MaxRetries     int           `envconfig:"ETH_MAX_RETRIES" default:"3"`
	RetryDelay     time.Duration `envconfig:"ETH_RETRY_DELAY" default:"1s"`
	WorkerCount    int           `envconfig:"ETH_WORKER_COUNT" default:"4"`
}

// StarknetConfig holds Starknet node connection settings
type StarknetConfig struct {
	RPCURL         string        `envconfig:"STARKNET_RPC_URL" default:"https://starknet-mainnet.public.blastapi.io"`
	Enabled        string        `envconfig:"STARKNET_ENABLED" default:""`
	RequestTimeout time.Duration `envconfig:"STARKNET_REQUEST_TIMEOUT" default:"30s"`
	MaxRetryTime   time.Duration `envconfig:"STARKNET_MAX_RETRY_TIME" default:"30s"`
}

// IsEnabled reports whether live Starknet queries are switched on
func (c StarknetConfig) IsEnabled() bool {
	return c.Enabled == "enabled" && c.RPCURL != ""
}

// ScannerConfig bounds a single chunked history scan
type ScannerConfig struct {
	MaxBlocks        uint64        `envconfig:"SCANNER_MAX_BLOCKS" default:"10000"`
	ChunkSize        uint64        `envconfig:"SCANNER_CHUNK_SIZE" default:"2000"`
	MaxChunks        int           `envconfig:"SCANNER_MAX_CHUNKS" default:"20"`
	EventsPageSize   int           `envconfig:"SCANNER_EVENTS_PAGE_SIZE" default:"100"`
	MaxPagesPerChunk int           `envconfig:"SCANNER_MAX_PAGES_PER_CHUNK" default:"50"`
	RequestDelay     time.Duration `envconfig:"SCANNER_REQUEST_DELAY" default:"100ms"`
	ProgressEvery    int           `envconfig:"SCANNER_PROGRESS_EVERY" default:"2"`
	MaxDuration      time.Duration `envconfig:"SCANNER_MAX_DURATION" default:"5m"`
}

// AggregatorConfig holds recipient balance resolution settings
type AggregatorConfig struct {
	PartialEvery       int           `envconfig:"AGGREGATOR_PARTIAL_EVERY" default:"10"`
	BalanceConcurrency int           `envconfig:"AGGREGATOR_BALANCE_CONCURRENCY" default:"1"`
	CallTimeout        time.Duration `envconfig:"AGGREGATOR_CALL_TIMEOUT" default:"20s"`
}

// RateLimitConfig holds outbound request limits shared by all scans
type RateLimitConfig struct {
	RequestsPerSecond int `envconfig:"UPSTREAM_RPS" default:"5"`
	Burst             int `envconfig:"UPSTREAM_BURST" default:"5"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:""`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD" default:""`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL time.Duration `envconfig:"REDIS_CACHE_TTL" default:"24h"`
}

// Enabled reports whether a Redis host is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// APIConfig holds API server settings
type APIConfig struct {
	Host            string        `envconfig:"API_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"API_PORT" default:"8081"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"10m"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimitRPS    int           `envconfig:"API_RATE_LIMIT_RPS" default:"20"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

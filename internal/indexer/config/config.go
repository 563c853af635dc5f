package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// ChainConfig holds the blockchain RPC endpoints and contract identity.
type ChainConfig struct {
	// RPCURL is the HTTP endpoint used for read-only contract calls.
	// Falls back to a public endpoint when unset.
	RPCURL string `env:"RPC_URL" envDefault:"https://ethereum-sepolia-rpc.publicnode.com"`

	// WSURL is the websocket endpoint used for the log subscription.
	WSURL string `env:"RPC_WS_URL" envDefault:"wss://ethereum-sepolia-rpc.publicnode.com"`

	// ContractAddress is the hex address of the cat SVG NFT contract.
	ContractAddress string `env:"CONTRACT_ADDRESS"`

	// ReconnectAttempts bounds how many times the event listener retries a
	// dropped subscription before giving up for the process lifetime.
	ReconnectAttempts int `env:"LISTENER_RECONNECT_ATTEMPTS" envDefault:"5"`

	// ReconnectDelay is the fixed wait between reconnect attempts.
	ReconnectDelay time.Duration `env:"LISTENER_RECONNECT_DELAY" envDefault:"5s"`
}

// RedisConfig holds connection settings for the seen-token cache.
type RedisConfig struct {
	Enabled      bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Host         string `env:"REDIS_HOST" envDefault:"localhost"`
	Port         string `env:"REDIS_PORT" envDefault:"6379"`
	Password     string `env:"REDIS_PASSWORD" envDefault:""`
	Database     int    `env:"REDIS_DATABASE" envDefault:"0"`
	MaxRetries   int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS    bool   `env:"REDIS_ENABLE_TLS" envDefault:"false"`
}

// GetAddr returns the host:port address for the Redis client.
func (c *RedisConfig) GetAddr() string {
	return c.Host + ":" + c.Port
}

// Config holds all configuration for the indexer module.
type Config struct {
	MongoDBURI   string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	DatabaseName string `env:"MONGODB_DATABASE" envDefault:"catsvg"`

	// PollInterval is the fixed wall-clock interval between reconciler ticks.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"10s"`

	// AllowedOrigins is the comma-separated CORS allow list. Exactly the
	// origins named here are permitted; no wildcard.
	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173,https://catsvg.app"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
	OpenAIModel  string `env:"OPENAI_MODEL" envDefault:"gpt-4o"`

	Chain ChainConfig
	Redis RedisConfig
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load indexer configuration from environment: " + err.Error())
	}

	if cfg.Chain.ContractAddress == "" {
		return nil, errors.New("CONTRACT_ADDRESS environment variable is not set")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if len(cfg.Origins()) == 0 {
		return nil, errors.New("ALLOWED_ORIGINS must name at least one origin")
	}

	return cfg, nil
}

// Origins splits the configured CORS allow list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

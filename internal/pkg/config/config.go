package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is the API server configuration.
type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET, required"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=168h"`
	BcryptCost    int           `env:"BCRYPT_COST,    default=10"`
	ResetThrottle time.Duration `env:"RESET_THROTTLE, default=15m"`
	ResetWorkers  int           `env:"RESET_WORKERS,  default=4"`

	// AccountStore selects the account directory backend: "mongo" or
	// "memory". The memory backend also skips Redis.
	AccountStore string `env:"ACCOUNT_STORE, default=mongo"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=agroconnect"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=100"`
}

// RedisConfig accepts a comma-separated Addr for sentinel (with MasterName)
// or cluster deployments.
type RedisConfig struct {
	Addr       string `env:"REDIS_ADDR,        default=localhost:6379"`
	Password   string `env:"REDIS_PASSWORD"`
	DB         int    `env:"REDIS_DB,          default=0"`
	MasterName string `env:"REDIS_MASTER_NAME"`
}

// IsDevelopment reports whether human-friendly logging should be used.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// InMemory reports whether the server runs without external stores.
func (c *Config) InMemory() bool {
	return c.AccountStore == "memory"
}

// ClientConfig drives the agroconnect CLI session client.
type ClientConfig struct {
	APIURL           string        `env:"AGROCONNECT_API_URL,           default=http://localhost:8080"`
	SessionFile      string        `env:"AGROCONNECT_SESSION_FILE"`
	Timeout          time.Duration `env:"AGROCONNECT_TIMEOUT,           default=10s"`
	RevalidateWindow time.Duration `env:"AGROCONNECT_REVALIDATE_WINDOW, default=1h"`
	LogLevel         string        `env:"AGROCONNECT_LOG_LEVEL,         default=warn"`
	OfflineCheck     bool          `env:"AGROCONNECT_OFFLINE_CHECK,     default=false"`
}

// Load reads the server configuration from the environment.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads the server configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient reads the CLI configuration from an arbitrary lookuper.
func LoadClient(ctx context.Context, l envconfig.Lookuper) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Ledger        LedgerConfig        `mapstructure:"ledger"`
	Wallet        WalletConfig        `mapstructure:"wallet"`
	Sync          SyncConfig          `mapstructure:"sync"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SSLMode         string        `mapstructure:"ssl_mode"`
}

type RedisConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	DB                int           `mapstructure:"db"`
	Password          string        `mapstructure:"password"`
	ConnectRetries    int           `mapstructure:"connect_retries"`
	ConnectRetryDelay time.Duration `mapstructure:"connect_retry_delay"`
}

type LedgerConfig struct {
	HorizonURL        string        `mapstructure:"horizon_url"`
	NetworkPassphrase string        `mapstructure:"network_passphrase"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	ConfirmAttempts   uint          `mapstructure:"confirm_attempts"`
	ConfirmDelay      time.Duration `mapstructure:"confirm_delay"`
	SubmitRatePerSec  float64       `mapstructure:"submit_rate_per_sec"`
	BreakerThreshold  uint32        `mapstructure:"breaker_threshold"`
	BreakerTimeout    time.Duration `mapstructure:"breaker_timeout"`
}

// WalletConfig identifies the wallet this instance signs for. Seed is the
// hex-encoded Ed25519 private key and is expected to arrive through the
// environment (WALLETSYNC_WALLET_SEED), never a config file.
type WalletConfig struct {
	Account string `mapstructure:"account"`
	Seed    string `mapstructure:"seed"`
}

type SyncConfig struct {
	Interval            time.Duration `mapstructure:"interval"`
	MaxConcurrent       int64         `mapstructure:"max_concurrent"`
	MaxAttempts         int           `mapstructure:"max_attempts"`
	BaseRetryDelay      time.Duration `mapstructure:"base_retry_delay"`
	DrainLockTTL        time.Duration `mapstructure:"drain_lock_ttl"`
	BalancePollInterval time.Duration `mapstructure:"balance_poll_interval"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("WALLETSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/walletsync")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Database.Host == "" {
		errs = append(errs, fmt.Errorf("database.host is required"))
	}
	if c.Database.Port <= 0 {
		errs = append(errs, fmt.Errorf("database.port must be positive"))
	}
	if c.Redis.Port <= 0 {
		errs = append(errs, fmt.Errorf("redis.port must be positive"))
	}
	if c.Ledger.HorizonURL == "" {
		errs = append(errs, fmt.Errorf("ledger.horizon_url is required"))
	}
	if c.Ledger.ConfirmAttempts == 0 {
		errs = append(errs, fmt.Errorf("ledger.confirm_attempts must be positive"))
	}
	if c.Wallet.Account == "" {
		errs = append(errs, fmt.Errorf("wallet.account is required"))
	}
	if c.Wallet.Seed == "" {
		errs = append(errs, fmt.Errorf("wallet.seed is required"))
	}
	if c.Sync.Interval <= 0 {
		errs = append(errs, fmt.Errorf("sync.interval must be positive"))
	}
	if c.Sync.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("sync.max_concurrent must be positive"))
	}
	if c.Sync.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("sync.max_attempts must be positive"))
	}
	if c.Sync.BaseRetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("sync.base_retry_delay must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "walletsync")
	v.SetDefault("database.database", "walletsync")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.connect_retries", 5)
	v.SetDefault("redis.connect_retry_delay", "1s")

	// Ledger defaults
	v.SetDefault("ledger.horizon_url", "https://horizon-testnet.stellar.org")
	v.SetDefault("ledger.network_passphrase", "Test SDF Network ; September 2015")
	v.SetDefault("ledger.http_timeout", "15s")
	v.SetDefault("ledger.probe_timeout", "3s")
	v.SetDefault("ledger.confirm_attempts", 30)
	v.SetDefault("ledger.confirm_delay", "2s")
	v.SetDefault("ledger.submit_rate_per_sec", 5.0)
	v.SetDefault("ledger.breaker_threshold", 10)
	v.SetDefault("ledger.breaker_timeout", "30s")

	// Wallet: no usable defaults, but registering the keys lets
	// AutomaticEnv pick them up without a config file.
	v.SetDefault("wallet.account", "")
	v.SetDefault("wallet.seed", "")

	// Sync defaults
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("sync.max_concurrent", 4)
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.base_retry_delay", "5s")
	v.SetDefault("sync.drain_lock_ttl", "60s")
	v.SetDefault("sync.balance_poll_interval", "10s")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)

	// Instance ID
	v.SetDefault("instance_id", "walletsync-1")
}

func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

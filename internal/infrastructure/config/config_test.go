package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "test",
			Password: "test",
			Database: "test_db",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Ledger: LedgerConfig{
			HorizonURL:      "https://horizon-testnet.stellar.org",
			ConfirmAttempts: 30,
			ConfirmDelay:    2 * time.Second,
		},
		Wallet: WalletConfig{
			Account: "GSENDERADDRESS",
			Seed:    "aabbcc",
		},
		Sync: SyncConfig{
			Interval:       30 * time.Second,
			MaxConcurrent:  4,
			MaxAttempts:    3,
			BaseRetryDelay: 5 * time.Second,
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_MissingHorizonURL(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.HorizonURL = ""
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.horizon_url")
}

func TestConfig_Validate_ZeroConfirmAttempts(t *testing.T) {
	cfg := validConfig()
	cfg.Ledger.ConfirmAttempts = 0
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.confirm_attempts")
}

func TestConfig_Validate_MissingWallet(t *testing.T) {
	cfg := validConfig()
	cfg.Wallet.Account = ""
	cfg.Wallet.Seed = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet.account")
	assert.Contains(t, err.Error(), "wallet.seed")
}

func TestConfig_Validate_InvalidSync(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero interval", func(c *Config) { c.Sync.Interval = 0 }, "sync.interval"},
		{"zero concurrency", func(c *Config) { c.Sync.MaxConcurrent = 0 }, "sync.max_concurrent"},
		{"zero attempts", func(c *Config) { c.Sync.MaxAttempts = 0 }, "sync.max_attempts"},
		{"zero base delay", func(c *Config) { c.Sync.BaseRetryDelay = 0 }, "sync.base_retry_delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "server.port")
	assert.Contains(t, errStr, "database.host")
	assert.Contains(t, errStr, "redis.port")
	assert.Contains(t, errStr, "ledger.horizon_url")
	assert.Contains(t, errStr, "sync.interval")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.example.com",
		Port:     5432,
		User:     "app_user",
		Password: "secret",
		Database: "walletsync",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.example.com port=5432 user=app_user password=secret dbname=walletsync sslmode=require",
		cfg.DatabaseDSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "redis.example.com", Port: 6379}
	assert.Equal(t, "redis.example.com:6379", cfg.RedisAddr())
}

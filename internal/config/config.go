package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	JWT         JWTConfig
	Recycling   RecyclingConfig
	Vouchers    VoucherConfig
	Leaderboard LeaderboardConfig
	LogLevel    string
	LogFormat   string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port               string
	AllowedHosts       []string
	ReadTimeoutSeconds int
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	UseTransactions bool
	TimeoutSeconds  int
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
	Issuer    string
}

// RecyclingConfig controls how scan submissions are recorded
type RecyclingConfig struct {
	DedupeWindowSeconds int
}

// VoucherConfig controls voucher minting
type VoucherConfig struct {
	DefaultValidDays int
	CodeLength       int
	MaxCodeAttempts  int
}

// LeaderboardConfig controls the leaderboard snapshot cache
type LeaderboardConfig struct {
	CacheSize       int
	CacheTTLSeconds int
	DefaultLimit    int
}

// DedupeWindow returns the scan de-duplication window.
func (c RecyclingConfig) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowSeconds) * time.Second
}

// CacheTTL returns how long a leaderboard snapshot is served from cache.
func (c LeaderboardConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Timeout bounds connecting to MongoDB and each store operation. The router
// also applies it as the deadline of every request.
func (c MongoDBConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from environment variables and an optional
// config.yaml found in path or path/config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(path + "/config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT.Secret is required (set JWT_SECRET)")
	}
	if c.MongoDB.URI == "" {
		return errors.New("MongoDB.URI is required (set MONGODB_URI)")
	}
	if c.Recycling.DedupeWindowSeconds <= 0 {
		return errors.New("Recycling.DedupeWindowSeconds must be positive")
	}
	if c.Vouchers.DefaultValidDays <= 0 {
		return errors.New("Vouchers.DefaultValidDays must be positive")
	}
	if c.Vouchers.CodeLength < 6 {
		return errors.New("Vouchers.CodeLength must be at least 6")
	}
	if c.Vouchers.MaxCodeAttempts <= 0 {
		return errors.New("Vouchers.MaxCodeAttempts must be positive")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ReadTimeoutSeconds", 15)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "recycling-rewards")
	v.SetDefault("MongoDB.UseTransactions", true)
	v.SetDefault("MongoDB.TimeoutSeconds", 10)
	// registered so AutomaticEnv picks up JWT_SECRET during Unmarshal
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("JWT.Issuer", "recycling-rewards")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
	v.SetDefault("Recycling.DedupeWindowSeconds", 60)
	v.SetDefault("Vouchers.DefaultValidDays", 30)
	v.SetDefault("Vouchers.CodeLength", 12)
	v.SetDefault("Vouchers.MaxCodeAttempts", 5)
	v.SetDefault("Leaderboard.CacheSize", 128)
	v.SetDefault("Leaderboard.CacheTTLSeconds", 30)
	v.SetDefault("Leaderboard.DefaultLimit", 50)
}

package config

import (
	"fmt"
	"log"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal images

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	MeetupStore    string        `mapstructure:"MEETUP_STORE"`
	MeetupDuration time.Duration `mapstructure:"MEETUP_DURATION"`
	StoreTimeout   time.Duration `mapstructure:"STORE_TIMEOUT"`
	Timezone       string        `mapstructure:"TIMEZONE"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	StoreDatabase = "database"
	StoreMemory   = "memory"
)

// LoadConfig loads the configuration from a .env file in dir and environment variables.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName(".env")
	v.SetConfigType("env")

	v.SetDefault("DATABASE_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("MEETUP_STORE", StoreDatabase)
	v.SetDefault("MEETUP_DURATION", "2h")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("TIMEZONE", "UTC")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.DatabaseDriver)
	}
	switch c.MeetupStore {
	case StoreDatabase, StoreMemory:
	default:
		return fmt.Errorf("MEETUP_STORE must be %q or %q, got %q", StoreDatabase, StoreMemory, c.MeetupStore)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.MeetupDuration <= 0 {
		return fmt.Errorf("MEETUP_DURATION must be positive")
	}
	if c.StoreTimeout <= 0 {
		return fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves TIMEZONE, in which meetup dates and times are read.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

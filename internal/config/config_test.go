package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/meetups")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StoreDatabase, cfg.MeetupStore)
	assert.Equal(t, 2*time.Hour, cfg.MeetupDuration)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadConfig_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "DATABASE_DRIVER=sqlite\nDATABASE_URL=meetups.db\nJWT_SECRET=from-file\nMEETUP_DURATION=90m\nTIMEZONE=America/Chicago\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MEETUP_STORE", StoreMemory)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "meetups.db", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, StoreMemory, cfg.MeetupStore)
	assert.Equal(t, 90*time.Minute, cfg.MeetupDuration)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DatabaseDriver: DriverSQLite,
			DatabaseURL:    ":memory:",
			JWTSecret:      "secret",
			MeetupStore:    StoreMemory,
			MeetupDuration: time.Hour,
			StoreTimeout:   time.Second,
			Timezone:       "UTC",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "driver", mutate: func(c *Config) { c.DatabaseDriver = "mysql" }},
		{name: "store", mutate: func(c *Config) { c.MeetupStore = "redis" }},
		{name: "database url", mutate: func(c *Config) { c.DatabaseURL = "" }},
		{name: "jwt secret", mutate: func(c *Config) { c.JWTSecret = "" }},
		{name: "duration", mutate: func(c *Config) { c.MeetupDuration = 0 }},
		{name: "timeout", mutate: func(c *Config) { c.StoreTimeout = -time.Second }},
		{name: "timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus_Mons" }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

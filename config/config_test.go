package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Environment:           "development",
		ServerPort:            8288,
		DatabaseDriver:        "postgres",
		DatabaseHost:          "localhost",
		DatabasePort:          5432,
		DatabaseName:          "lessonfolders",
		DatabaseUser:          "postgres",
		DatabaseCacheReset:    -1,
		JWTSecret:             "0123456789abcdef",
		FolderCacheTTLSeconds: 300,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid postgres", func(c *Config) {}, ""},
		{
			"valid sqlite without host",
			func(c *Config) {
				c.DatabaseDriver = "sqlite"
				c.DatabaseHost = ""
				c.DatabaseName = ""
				c.DatabaseUser = ""
				c.DatabaseSQLitePath = "file:dev.db"
			},
			"",
		},
		{"missing port", func(c *Config) { c.ServerPort = 0 }, "Config.ServerPort"},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "mysql" }, "Config.DatabaseDriver"},
		{"postgres without host", func(c *Config) { c.DatabaseHost = "" }, "Config.DatabaseHost"},
		{
			"sqlite without path",
			func(c *Config) { c.DatabaseDriver = "sqlite" },
			"Config.DatabaseSQLitePath",
		},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, "Config.JWTSecret"},
		{
			"cache address without port",
			func(c *Config) { c.DatabaseCacheAddress = "localhost" },
			"Config.DatabaseCachePort",
		},
		{"bad environment", func(c *Config) { c.Environment = "qa" }, "Config.Environment"},
		{"negative ttl", func(c *Config) { c.FolderCacheTTLSeconds = -5 }, "Config.FolderCacheTTLSeconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.mutate(&config)

			err := validateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_FromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "file:config_test?mode=memory")
	t.Setenv("ENVIRONMENT", "test")

	config, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9000, config.ServerPort)
	assert.Equal(t, "sqlite", config.DatabaseDriver)
	assert.Equal(t, 300, config.FolderCacheTTLSeconds)
	assert.Equal(t, -1, config.DatabaseCacheReset)
	assert.Equal(t, config, GetConfig())
}

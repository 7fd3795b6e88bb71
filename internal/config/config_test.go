package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	envelopeDomain "github.com/allisson/msc/internal/envelope/domain"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name:    "load default configuration",
			envVars: map[string]string{},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.AppEnv)
				assert.Equal(t, "0.0.0.0", cfg.ServerHost)
				assert.Equal(t, 8080, cfg.ServerPort)
				assert.Equal(t, "aes-gcm", cfg.AEADAlgorithm)
				assert.Equal(t, 300*time.Second, cfg.ReplayWindow)
				assert.Equal(t, ReplayStoreMemory, cfg.ReplayStore)
				assert.Equal(t, time.Hour, cfg.SessionTTL)
				assert.Equal(t, "postgres", cfg.DBDriver)
				assert.Equal(t, 5*time.Minute, cfg.DBConnMaxLifetime)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.True(t, cfg.RateLimitSessionEnabled)
				assert.True(t, cfg.RateLimitGateEnabled)
				assert.Equal(t, 10.0, cfg.RateLimitGateRequestsPerSec)
				assert.Equal(t, 20, cfg.RateLimitGateBurst)
				assert.Equal(t, "msc", cfg.MetricsNamespace)
				assert.Empty(t, cfg.ServerSecret)
			},
		},
		{
			name: "load envelope configuration",
			envVars: map[string]string{
				"APP_ENV":               "production",
				"SERVER_SECRET":         "passphrase",
				"SERVER_SALT":           "salt",
				"ACCESS_TOKEN":          "token",
				"AEAD_ALGORITHM":        "chacha20-poly1305",
				"REPLAY_WINDOW_SECONDS": "30",
				"REPLAY_STORE":          "database",
				"SESSION_TTL_SECONDS":   "600",
				"KMS_KEY_URI":           "base64key://abc",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, EnvProduction, cfg.AppEnv)
				assert.Equal(t, "passphrase", cfg.ServerSecret)
				assert.Equal(t, "salt", cfg.ServerSalt)
				assert.Equal(t, "token", cfg.AccessToken)
				assert.Equal(t, "chacha20-poly1305", cfg.AEADAlgorithm)
				assert.Equal(t, 30*time.Second, cfg.ReplayWindow)
				assert.Equal(t, ReplayStoreDatabase, cfg.ReplayStore)
				assert.Equal(t, 10*time.Minute, cfg.SessionTTL)
				assert.Equal(t, "base64key://abc", cfg.KMSKeyURI)
			},
		},
		{
			name: "load custom database configuration",
			envVars: map[string]string{
				"DB_DRIVER":               "mysql",
				"DB_CONNECTION_STRING":    "user:password@tcp(localhost:3306)/msc",
				"DB_MAX_OPEN_CONNECTIONS": "50",
				"DB_MAX_IDLE_CONNECTIONS": "10",
				"DB_CONN_MAX_LIFETIME":    "10",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "mysql", cfg.DBDriver)
				assert.Equal(t, "user:password@tcp(localhost:3306)/msc", cfg.DBConnectionString)
				assert.Equal(t, 50, cfg.DBMaxOpenConnections)
				assert.Equal(t, 10, cfg.DBMaxIdleConnections)
				assert.Equal(t, 10*time.Minute, cfg.DBConnMaxLifetime)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for key, value := range tt.envVars {
				require.NoError(t, os.Setenv(key, value))
			}

			tt.validate(t, Load())
		})
	}
}

func validConfig() *Config {
	return &Config{
		AppEnv:        "development",
		ServerSecret:  "passphrase",
		AccessToken:   "token",
		AEADAlgorithm: "aes-gcm",
		ReplayWindow:  5 * time.Minute,
		ReplayStore:   ReplayStoreMemory,
		SessionTTL:    time.Hour,
		DBDriver:      "postgres",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{name: "Valid", mutate: func(cfg *Config) {}},
		{name: "ValidHashedToken", mutate: func(cfg *Config) {
			cfg.AccessToken = ""
			cfg.AccessTokenHash = "$argon2id$..."
		}},
		{name: "ValidDatabaseStore", mutate: func(cfg *Config) {
			cfg.ReplayStore = ReplayStoreDatabase
			cfg.DBDriver = "mysql"
		}},
		{name: "DevelopmentWithoutSalt", mutate: func(cfg *Config) { cfg.ServerSalt = "" }},
		{name: "ProductionWithSalt", mutate: func(cfg *Config) {
			cfg.AppEnv = EnvProduction
			cfg.ServerSalt = "salt"
		}},
		{name: "MissingSecret", mutate: func(cfg *Config) { cfg.ServerSecret = "" }, wantErr: true},
		{name: "BlankSecret", mutate: func(cfg *Config) { cfg.ServerSecret = "   " }, wantErr: true},
		{name: "ProductionWithoutSalt", mutate: func(cfg *Config) { cfg.AppEnv = EnvProduction }, wantErr: true},
		{name: "MissingAccessToken", mutate: func(cfg *Config) { cfg.AccessToken = "" }, wantErr: true},
		{name: "UnknownAlgorithm", mutate: func(cfg *Config) { cfg.AEADAlgorithm = "des" }, wantErr: true},
		{name: "ZeroReplayWindow", mutate: func(cfg *Config) { cfg.ReplayWindow = 0 }, wantErr: true},
		{name: "ZeroSessionTTL", mutate: func(cfg *Config) { cfg.SessionTTL = 0 }, wantErr: true},
		{name: "UnknownReplayStore", mutate: func(cfg *Config) { cfg.ReplayStore = "redis" }, wantErr: true},
		{name: "DatabaseStoreUnknownDriver", mutate: func(cfg *Config) {
			cfg.ReplayStore = ReplayStoreDatabase
			cfg.DBDriver = "sqlite"
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, envelopeDomain.ErrConfiguration)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_Salt(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.UsesDevelopmentSalt())
	assert.Equal(t, []byte(envelopeDomain.DevelopmentSalt), cfg.Salt())

	cfg.ServerSalt = "custom"
	assert.False(t, cfg.UsesDevelopmentSalt())
	assert.Equal(t, []byte("custom"), cfg.Salt())
}

func TestConfig_GetGinMode(t *testing.T) {
	assert.Equal(t, "debug", (&Config{LogLevel: "debug"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "info"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: ""}).GetGinMode())
}

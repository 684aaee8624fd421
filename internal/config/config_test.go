package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:            "8080",
		CORSOrigin:      "*",
		ShutdownTimeout: 10 * time.Second,
		DBDriver:        "sqlite",
		DBPath:          "./data/test.db",
		JWTSecret:       strings.Repeat("s", 32),
		TokenTTL:        time.Hour,
		AppBaseURL:      "http://localhost:8080",
		AWSRegion:       "us-east-1",
		AMQPExchange:    "budget",
		LogFormat:       "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid sqlite config",
			modify: func(c *Config) {},
		},
		{
			name: "valid postgres config",
			modify: func(c *Config) {
				c.DBDriver = "postgres"
				c.DatabaseURL = "postgres://localhost/budget?sslmode=disable"
			},
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			modify:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "must be between 1 and 65535",
		},
		{
			name:        "unknown driver",
			modify:      func(c *Config) { c.DBDriver = "mysql" },
			wantErr:     true,
			errorString: "invalid database driver 'mysql'",
		},
		{
			name:        "postgres without url",
			modify:      func(c *Config) { c.DBDriver = "postgres" },
			wantErr:     true,
			errorString: "DATABASE_URL is required",
		},
		{
			name:        "short jwt secret",
			modify:      func(c *Config) { c.JWTSecret = "short" },
			wantErr:     true,
			errorString: "JWT_SECRET must be at least 32 characters",
		},
		{
			name:        "bad amqp scheme",
			modify:      func(c *Config) { c.AMQPURL = "http://localhost:5672/" },
			wantErr:     true,
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "relative base url",
			modify:      func(c *Config) { c.AppBaseURL = "/app" },
			wantErr:     true,
			errorString: "invalid APP_BASE_URL",
		},
		{
			name:        "unknown log format",
			modify:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("expected error to contain %q, got %q", tt.errorString, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.JWTSecret = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"invalid port", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://db/budget")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.DSN() != "postgres://db/budget" {
		t.Errorf("DSN = %q", cfg.DSN())
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.TokenTTL)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default 10s", cfg.ShutdownTimeout)
	}
	if cfg.AMQPURL != "" {
		t.Errorf("AMQPURL should default to empty, got %q", cfg.AMQPURL)
	}
}

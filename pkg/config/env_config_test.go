// pkg/config/env_config_test.go
package config

import (
	"strings"
	"testing"
	"time"
)

func createValidConfig() *EnvironmentConfig {
	return &EnvironmentConfig{
		MaxParts:                          100,
		UploadTimeout:                     time.Second,
		UploadRetries:                     1,
		CircuitBreakerMaxRequests:         1,
		CircuitBreakerInterval:            time.Minute,
		CircuitBreakerTimeout:             time.Second,
		CircuitBreakerMaxConsecutiveFails: 1,
		ReadTimeout:                       time.Second,
		WriteTimeout:                      time.Second,
		RequestsPerMin:                    10,
		Burst:                             1,
		BatchConcurrency:                  1,
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("DefaultValues", func(t *testing.T) {
		config, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv() failed: %v", err)
		}
		d := DefaultConfig()
		if config.ServerAddr != d.Server.Addr {
			t.Errorf("ServerAddr = %q, want %q", config.ServerAddr, d.Server.Addr)
		}
		if config.UploadTimeout != d.Upload.Timeout {
			t.Errorf("UploadTimeout = %v, want %v", config.UploadTimeout, d.Upload.Timeout)
		}
		if config.BoostEnabled != d.Analysis.BoostEnabled {
			t.Errorf("BoostEnabled = %v", config.BoostEnabled)
		}
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("SHIPYARD_SERVER_ADDR", "127.0.0.1:9999")
		t.Setenv("SHIPYARD_BOOST", "false")
		t.Setenv("SHIPYARD_UPLOAD_TIMEOUT", "45s")
		t.Setenv("SHIPYARD_RATE_LIMIT", "120")
		t.Setenv("SHIPYARD_BREAKER_MAX_FAILS", "9")

		config, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv() failed: %v", err)
		}
		if config.ServerAddr != "127.0.0.1:9999" {
			t.Errorf("ServerAddr = %q", config.ServerAddr)
		}
		if config.BoostEnabled {
			t.Error("BoostEnabled should be false")
		}
		if config.UploadTimeout != 45*time.Second {
			t.Errorf("UploadTimeout = %v", config.UploadTimeout)
		}
		if config.RequestsPerMin != 120 {
			t.Errorf("RequestsPerMin = %d", config.RequestsPerMin)
		}
		if config.CircuitBreakerMaxConsecutiveFails != 9 {
			t.Errorf("CircuitBreakerMaxConsecutiveFails = %d", config.CircuitBreakerMaxConsecutiveFails)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		t.Setenv("SHIPYARD_MAX_PARTS", "many")
		t.Setenv("SHIPYARD_UPLOAD_TIMEOUT", "soon")
		t.Setenv("SHIPYARD_DRAW", "perhaps")

		_, err := LoadConfigFromEnv()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, name := range []string{"SHIPYARD_MAX_PARTS", "SHIPYARD_UPLOAD_TIMEOUT", "SHIPYARD_DRAW"} {
			if !strings.Contains(err.Error(), name) {
				t.Errorf("error %q does not mention %s", err, name)
			}
		}
	})

	t.Run("UploadWithoutKey", func(t *testing.T) {
		t.Setenv("SHIPYARD_UPLOAD_ENABLED", "true")
		if _, err := LoadConfigFromEnv(); err == nil {
			t.Error("expected error when upload is enabled without an API key")
		}
	})
}

func TestValidateEnvironmentConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*EnvironmentConfig)
		wantErr bool
	}{
		{"valid", func(*EnvironmentConfig) {}, false},
		{"zero_max_parts", func(c *EnvironmentConfig) { c.MaxParts = 0 }, true},
		{"zero_upload_timeout", func(c *EnvironmentConfig) { c.UploadTimeout = 0 }, true},
		{"negative_retries", func(c *EnvironmentConfig) { c.UploadRetries = -1 }, true},
		{"upload_without_key", func(c *EnvironmentConfig) { c.UploadEnabled = true }, true},
		{"upload_with_key", func(c *EnvironmentConfig) { c.UploadEnabled = true; c.UploadAPIKey = "k" }, false},
		{"zero_breaker_requests", func(c *EnvironmentConfig) { c.CircuitBreakerMaxRequests = 0 }, true},
		{"zero_breaker_fails", func(c *EnvironmentConfig) { c.CircuitBreakerMaxConsecutiveFails = 0 }, true},
		{"zero_read_timeout", func(c *EnvironmentConfig) { c.ReadTimeout = 0 }, true},
		{"zero_burst", func(c *EnvironmentConfig) { c.Burst = 0 }, true},
		{"negative_cache", func(c *EnvironmentConfig) { c.CacheSize = -1 }, true},
		{"zero_concurrency", func(c *EnvironmentConfig) { c.BatchConcurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	t.Setenv("SHIPYARD_SPRITE_DIR", "/opt/sprites")
	t.Setenv("SHIPYARD_UPLOAD_ENABLED", "true")
	t.Setenv("SHIPYARD_UPLOAD_API_KEY", "secret")
	t.Setenv("SHIPYARD_CACHE_SIZE", "0")

	config := DefaultConfig()
	config.Server.Addr = ":7000"

	if err := ApplyEnvironmentOverrides(config); err != nil {
		t.Fatalf("ApplyEnvironmentOverrides failed: %v", err)
	}
	if config.Render.SpriteDir != "/opt/sprites" {
		t.Errorf("SpriteDir = %q", config.Render.SpriteDir)
	}
	if !config.Upload.Enabled || config.Upload.APIKey != "secret" {
		t.Errorf("upload overrides not applied: %+v", config.Upload)
	}
	if config.Server.CacheSize != 0 {
		t.Errorf("CacheSize = %d, want 0", config.Server.CacheSize)
	}
	// unset variables leave file values alone
	if config.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", config.Server.Addr)
	}
}

func TestGetEnvHelperFunctions(t *testing.T) {
	t.Setenv("SHIPYARD_TEST_INT", "42")
	t.Setenv("SHIPYARD_TEST_BOOL", "true")
	t.Setenv("SHIPYARD_TEST_DURATION", "1m30s")
	t.Setenv("SHIPYARD_TEST_EMPTY", "")

	if v, err := getEnvInt("TEST_INT", 0); err != nil || v != 42 {
		t.Errorf("getEnvInt = %d, %v", v, err)
	}
	if v, err := getEnvInt("TEST_EMPTY", 7); err != nil || v != 7 {
		t.Errorf("getEnvInt(empty) = %d, %v", v, err)
	}
	if v, err := getEnvBool("TEST_BOOL", false); err != nil || !v {
		t.Errorf("getEnvBool = %v, %v", v, err)
	}
	if v, err := getEnvDuration("TEST_DURATION", 0); err != nil || v != 90*time.Second {
		t.Errorf("getEnvDuration = %v, %v", v, err)
	}
	if v := getEnvString("TEST_MISSING", "fallback"); v != "fallback" {
		t.Errorf("getEnvString = %q", v)
	}
	if v := getEnvString("TEST_EMPTY", "fallback"); v != "" {
		t.Errorf("getEnvString(empty) = %q, want empty", v)
	}
}

// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix starts every environment variable read by this package
const EnvPrefix = "SHIPYARD_"

// EnvironmentConfig holds the settings that may come from the environment.
// Unset variables keep the values of DefaultConfig.
type EnvironmentConfig struct {
	BoostEnabled bool
	MaxParts     int
	Draw         bool
	SpriteDir    string
	CatalogPath  string

	UploadEnabled  bool
	UploadEndpoint string
	UploadAPIKey   string
	UploadTimeout  time.Duration
	UploadRetries  int

	CircuitBreakerMaxRequests         uint32
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails uint32

	ServerAddr       string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	RequestsPerMin   int
	Burst            int
	CacheSize        int
	BatchConcurrency int
}

// LoadConfigFromEnv reads SHIPYARD_* variables on top of the defaults
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	d := DefaultConfig()
	var errs []string
	fail := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	c := &EnvironmentConfig{}
	var err error

	c.BoostEnabled, err = getEnvBool("BOOST", d.Analysis.BoostEnabled)
	fail(err)
	c.MaxParts, err = getEnvInt("MAX_PARTS", d.Analysis.MaxParts)
	fail(err)
	c.Draw, err = getEnvBool("DRAW", d.Render.Draw)
	fail(err)
	c.SpriteDir = getEnvString("SPRITE_DIR", d.Render.SpriteDir)
	c.CatalogPath = getEnvString("CATALOG", d.Catalog.Path)

	c.UploadEnabled, err = getEnvBool("UPLOAD_ENABLED", d.Upload.Enabled)
	fail(err)
	c.UploadEndpoint = getEnvString("UPLOAD_ENDPOINT", d.Upload.Endpoint)
	c.UploadAPIKey = getEnvString("UPLOAD_API_KEY", d.Upload.APIKey)
	c.UploadTimeout, err = getEnvDuration("UPLOAD_TIMEOUT", d.Upload.Timeout)
	fail(err)
	c.UploadRetries, err = getEnvInt("UPLOAD_RETRIES", d.Upload.Retries)
	fail(err)

	maxReq, err := getEnvInt("BREAKER_MAX_REQUESTS", int(d.Upload.Breaker.MaxRequests))
	fail(err)
	c.CircuitBreakerMaxRequests = uint32(maxReq)
	c.CircuitBreakerInterval, err = getEnvDuration("BREAKER_INTERVAL", d.Upload.Breaker.Interval)
	fail(err)
	c.CircuitBreakerTimeout, err = getEnvDuration("BREAKER_TIMEOUT", d.Upload.Breaker.Timeout)
	fail(err)
	maxFails, err := getEnvInt("BREAKER_MAX_FAILS", int(d.Upload.Breaker.MaxConsecutiveFails))
	fail(err)
	c.CircuitBreakerMaxConsecutiveFails = uint32(maxFails)

	c.ServerAddr = getEnvString("SERVER_ADDR", d.Server.Addr)
	c.ReadTimeout, err = getEnvDuration("READ_TIMEOUT", d.Server.ReadTimeout)
	fail(err)
	c.WriteTimeout, err = getEnvDuration("WRITE_TIMEOUT", d.Server.WriteTimeout)
	fail(err)
	c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", d.Server.ShutdownTimeout)
	fail(err)
	c.RequestsPerMin, err = getEnvInt("RATE_LIMIT", d.Server.RequestsPerMin)
	fail(err)
	c.Burst, err = getEnvInt("RATE_BURST", d.Server.Burst)
	fail(err)
	c.CacheSize, err = getEnvInt("CACHE_SIZE", d.Server.CacheSize)
	fail(err)
	c.BatchConcurrency, err = getEnvInt("BATCH_CONCURRENCY", d.Server.BatchConcurrency)
	fail(err)

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks ranges that the type system cannot express
func (c *EnvironmentConfig) Validate() error {
	switch {
	case c.MaxParts <= 0:
		return fmt.Errorf("max parts must be positive, got %d", c.MaxParts)
	case c.UploadTimeout <= 0:
		return fmt.Errorf("upload timeout must be positive, got %v", c.UploadTimeout)
	case c.UploadRetries < 0:
		return fmt.Errorf("upload retries must not be negative, got %d", c.UploadRetries)
	case c.UploadEnabled && c.UploadAPIKey == "":
		return fmt.Errorf("upload enabled without %sUPLOAD_API_KEY", EnvPrefix)
	case c.CircuitBreakerMaxRequests == 0:
		return fmt.Errorf("circuit breaker max requests must be positive")
	case c.CircuitBreakerMaxConsecutiveFails == 0:
		return fmt.Errorf("circuit breaker max consecutive fails must be positive")
	case c.ReadTimeout <= 0 || c.WriteTimeout <= 0:
		return fmt.Errorf("server timeouts must be positive")
	case c.RequestsPerMin <= 0 || c.Burst <= 0:
		return fmt.Errorf("rate limit and burst must be positive")
	case c.CacheSize < 0:
		return fmt.Errorf("cache size must not be negative, got %d", c.CacheSize)
	case c.BatchConcurrency <= 0:
		return fmt.Errorf("batch concurrency must be positive, got %d", c.BatchConcurrency)
	}
	return nil
}

// ApplyEnvironmentOverrides copies every environment setting into config
func ApplyEnvironmentOverrides(config *AppConfig) error {
	env, err := LoadConfigFromEnv()
	if err != nil {
		return err
	}

	if isSet("BOOST") {
		config.Analysis.BoostEnabled = env.BoostEnabled
	}
	if isSet("MAX_PARTS") {
		config.Analysis.MaxParts = env.MaxParts
	}
	if isSet("DRAW") {
		config.Render.Draw = env.Draw
	}
	if isSet("SPRITE_DIR") {
		config.Render.SpriteDir = env.SpriteDir
	}
	if isSet("CATALOG") {
		config.Catalog.Path = env.CatalogPath
	}

	if isSet("UPLOAD_ENABLED") {
		config.Upload.Enabled = env.UploadEnabled
	}
	if isSet("UPLOAD_ENDPOINT") {
		config.Upload.Endpoint = env.UploadEndpoint
	}
	if isSet("UPLOAD_API_KEY") {
		config.Upload.APIKey = env.UploadAPIKey
	}
	if isSet("UPLOAD_TIMEOUT") {
		config.Upload.Timeout = env.UploadTimeout
	}
	if isSet("UPLOAD_RETRIES") {
		config.Upload.Retries = env.UploadRetries
	}
	if isSet("BREAKER_MAX_REQUESTS") {
		config.Upload.Breaker.MaxRequests = env.CircuitBreakerMaxRequests
	}
	if isSet("BREAKER_INTERVAL") {
		config.Upload.Breaker.Interval = env.CircuitBreakerInterval
	}
	if isSet("BREAKER_TIMEOUT") {
		config.Upload.Breaker.Timeout = env.CircuitBreakerTimeout
	}
	if isSet("BREAKER_MAX_FAILS") {
		config.Upload.Breaker.MaxConsecutiveFails = env.CircuitBreakerMaxConsecutiveFails
	}

	if isSet("SERVER_ADDR") {
		config.Server.Addr = env.ServerAddr
	}
	if isSet("READ_TIMEOUT") {
		config.Server.ReadTimeout = env.ReadTimeout
	}
	if isSet("WRITE_TIMEOUT") {
		config.Server.WriteTimeout = env.WriteTimeout
	}
	if isSet("SHUTDOWN_TIMEOUT") {
		config.Server.ShutdownTimeout = env.ShutdownTimeout
	}
	if isSet("RATE_LIMIT") {
		config.Server.RequestsPerMin = env.RequestsPerMin
	}
	if isSet("RATE_BURST") {
		config.Server.Burst = env.Burst
	}
	if isSet("CACHE_SIZE") {
		config.Server.CacheSize = env.CacheSize
	}
	if isSet("BATCH_CONCURRENCY") {
		config.Server.BatchConcurrency = env.BatchConcurrency
	}
	return nil
}

func isSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + name)
	return ok
}

func getEnvString(name, fallback string) string {
	if v, ok := os.LookupEnv(EnvPrefix + name); ok {
		return v
	}
	return fallback
}

func getEnvInt(name string, fallback int) (int, error) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, name, v)
	}
	return n, nil
}

func getEnvBool(name string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %q is not a boolean", EnvPrefix, name, v)
	}
	return b, nil
}

func getEnvDuration(name string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %q is not a duration", EnvPrefix, name, v)
	}
	return d, nil
}

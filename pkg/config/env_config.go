// pkg/config/env_config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable read by this package.
const EnvPrefix = "BROADPHASE_"

// EnvironmentConfig holds deployment settings read from BROADPHASE_*
// environment variables. They override the matching SimulationConfig fields.
type EnvironmentConfig struct {
	InspectorAddr  string
	InspectorPort  int
	MaxClients     int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	SnapshotRate   int
	TimeStep       float64
	WorldSize      float64
	HealthPort     int
	InspectEnabled bool

	// Circuit breaker settings for inspector client sends
	CircuitBreakerMaxRequests         uint32
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails uint32

	MaxMemoryMB     int
	ShutdownTimeout time.Duration
}

// ValidationError reports one invalid environment setting.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// LoadConfigFromEnv reads BROADPHASE_* variables, falling back to defaults for
// unset or unparsable values, and validates the result.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		InspectorAddr:  getEnvOrDefault(EnvPrefix+"INSPECTOR_ADDR", "localhost"),
		InspectorPort:  getEnvAsIntOrDefault(EnvPrefix+"INSPECTOR_PORT", 4680),
		MaxClients:     getEnvAsIntOrDefault(EnvPrefix+"MAX_CLIENTS", 8),
		ReadTimeout:    getEnvAsDurationOrDefault(EnvPrefix+"READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getEnvAsDurationOrDefault(EnvPrefix+"WRITE_TIMEOUT", 5*time.Second),
		SnapshotRate:   getEnvAsIntOrDefault(EnvPrefix+"SNAPSHOT_RATE", 20),
		TimeStep:       getEnvAsFloatOrDefault(EnvPrefix+"TIME_STEP", 1.0/60.0),
		WorldSize:      getEnvAsFloatOrDefault(EnvPrefix+"WORLD_SIZE", 1024),
		HealthPort:     getEnvAsIntOrDefault(EnvPrefix+"HEALTH_PORT", 8080),
		InspectEnabled: getEnvAsBoolOrDefault(EnvPrefix+"INSPECTOR_ENABLED", false),

		CircuitBreakerMaxRequests:         uint32(getEnvAsIntOrDefault(EnvPrefix+"CB_MAX_REQUESTS", 3)),
		CircuitBreakerInterval:            getEnvAsDurationOrDefault(EnvPrefix+"CB_INTERVAL", 60*time.Second),
		CircuitBreakerTimeout:             getEnvAsDurationOrDefault(EnvPrefix+"CB_TIMEOUT", 10*time.Second),
		CircuitBreakerMaxConsecutiveFails: uint32(getEnvAsIntOrDefault(EnvPrefix+"CB_MAX_FAILURES", 5)),

		MaxMemoryMB:     getEnvAsIntOrDefault(EnvPrefix+"MAX_MEMORY_MB", 512),
		ShutdownTimeout: getEnvAsDurationOrDefault(EnvPrefix+"SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := validateEnvironmentConfig(config); err != nil {
		return nil, fmt.Errorf("invalid environment configuration: %w", err)
	}
	return config, nil
}

// Validate checks every field of the environment configuration.
func (c *EnvironmentConfig) Validate() error {
	return validateEnvironmentConfig(c)
}

func validateEnvironmentConfig(c *EnvironmentConfig) error {
	switch {
	case c.InspectorAddr == "":
		return &ValidationError{"InspectorAddr", c.InspectorAddr, "must not be empty"}
	case c.InspectorPort < 1024 || c.InspectorPort > 65535:
		return &ValidationError{"InspectorPort", c.InspectorPort, "must be between 1024 and 65535"}
	case c.HealthPort < 1024 || c.HealthPort > 65535:
		return &ValidationError{"HealthPort", c.HealthPort, "must be between 1024 and 65535"}
	case c.HealthPort == c.InspectorPort:
		return &ValidationError{"HealthPort", c.HealthPort, "must differ from InspectorPort"}
	case c.MaxClients < 1 || c.MaxClients > 256:
		return &ValidationError{"MaxClients", c.MaxClients, "must be between 1 and 256"}
	case c.ReadTimeout <= 0:
		return &ValidationError{"ReadTimeout", c.ReadTimeout, "must be positive"}
	case c.WriteTimeout <= 0:
		return &ValidationError{"WriteTimeout", c.WriteTimeout, "must be positive"}
	case c.SnapshotRate < 1 || c.SnapshotRate > 240:
		return &ValidationError{"SnapshotRate", c.SnapshotRate, "must be between 1 and 240"}
	case c.TimeStep <= 0 || c.TimeStep > 0.1:
		return &ValidationError{"TimeStep", c.TimeStep, "must be in (0, 0.1]"}
	case c.WorldSize <= 0:
		return &ValidationError{"WorldSize", c.WorldSize, "must be positive"}
	case c.CircuitBreakerMaxRequests == 0:
		return &ValidationError{"CircuitBreakerMaxRequests", c.CircuitBreakerMaxRequests, "must be at least 1"}
	case c.CircuitBreakerInterval <= 0:
		return &ValidationError{"CircuitBreakerInterval", c.CircuitBreakerInterval, "must be positive"}
	case c.CircuitBreakerTimeout <= 0:
		return &ValidationError{"CircuitBreakerTimeout", c.CircuitBreakerTimeout, "must be positive"}
	case c.CircuitBreakerMaxConsecutiveFails == 0:
		return &ValidationError{"CircuitBreakerMaxConsecutiveFails", c.CircuitBreakerMaxConsecutiveFails, "must be at least 1"}
	case c.MaxMemoryMB < 16:
		return &ValidationError{"MaxMemoryMB", c.MaxMemoryMB, "must be at least 16"}
	case c.ShutdownTimeout <= 0:
		return &ValidationError{"ShutdownTimeout", c.ShutdownTimeout, "must be positive"}
	}
	return nil
}

// ApplyEnvironmentOverrides copies every BROADPHASE_* variable that is set
// over config. Unset variables leave config untouched. The world keeps its
// origin; only its size changes.
func ApplyEnvironmentOverrides(config *SimulationConfig) error {
	env, err := LoadConfigFromEnv()
	if err != nil {
		return err
	}

	if isSet("TIME_STEP") {
		config.TimeStep = env.TimeStep
	}
	if isSet("WORLD_SIZE") {
		config.World.Bounds.Size.X = env.WorldSize
		config.World.Bounds.Size.Y = env.WorldSize
	}
	if isSet("INSPECTOR_ENABLED") {
		config.Inspector.Enabled = env.InspectEnabled
	}
	if isSet("INSPECTOR_ADDR") {
		config.Inspector.Address = env.InspectorAddr
	}
	if isSet("INSPECTOR_PORT") {
		config.Inspector.Port = env.InspectorPort
	}
	if isSet("MAX_CLIENTS") {
		config.Inspector.MaxClients = env.MaxClients
	}
	if isSet("SNAPSHOT_RATE") {
		config.Inspector.SnapshotRate = env.SnapshotRate
	}
	if isSet("HEALTH_PORT") {
		config.Health.Port = env.HealthPort
	}
	return nil
}

func isSet(name string) bool {
	_, ok := os.LookupEnv(EnvPrefix + name)
	return ok
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"

	"gosynth/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Simulation  SimulationConfig
	Diagnostics DiagnosticsConfig
	Database    DatabaseConfig
	Paths       PathConfig
}

// SimulationConfig holds the run-level simulation settings
type SimulationConfig struct {
	Seed            int64 // base seed for every derived stream
	Workers         int   // participant scoring parallelism
	SampleResponses int   // max free-text samples carried into the summary
}

// DiagnosticsConfig holds the screening thresholds and planning targets
type DiagnosticsConfig struct {
	DeadVarianceSD float64
	WeakEffectD    float64
	PowerAlpha     float64
	PowerTarget    float64
}

// DatabaseConfig holds the optional run ledger connection. An empty URL
// selects the in-memory ledger.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// PathConfig holds file system paths for the driver harness
type PathConfig struct {
	ProjectFile string // project state document (yaml or json)
	ExcelFile   string // summary workbook export target
	ReportFile  string // markdown report export target
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Simulation:  loadSimulationConfig(),
		Diagnostics: loadDiagnosticsConfig(),
		Database:    loadDatabaseConfig(),
		Paths:       loadPathConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Seed:            getEnvInt64OrDefault("SIM_SEED", 42),
		Workers:         getEnvIntOrDefault("SIM_WORKERS", 1),
		SampleResponses: getEnvIntOrDefault("SIM_SAMPLE_RESPONSES", 10),
	}
}

func loadDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		DeadVarianceSD: getEnvFloatOrDefault("DEAD_VAR_SD", 0.3),
		WeakEffectD:    getEnvFloatOrDefault("WEAK_EFFECT_D", 0.3),
		PowerAlpha:     getEnvFloatOrDefault("POWER_ALPHA", 0.05),
		PowerTarget:    getEnvFloatOrDefault("POWER_TARGET", 0.80),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		ProjectFile: getEnvOrDefault("PROJECT_FILE", "project.yaml"),
		ExcelFile:   getEnvOrDefault("EXCEL_FILE", ""),
		ReportFile:  getEnvOrDefault("REPORT_FILE", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Simulation.Workers < 1 {
		return errors.ConfigInvalid("SIM_WORKERS must be at least 1")
	}
	if config.Simulation.SampleResponses < 0 {
		return errors.ConfigInvalid("SIM_SAMPLE_RESPONSES must not be negative")
	}
	if config.Diagnostics.DeadVarianceSD <= 0 {
		return errors.ConfigInvalid("DEAD_VAR_SD must be positive")
	}
	if config.Diagnostics.WeakEffectD <= 0 {
		return errors.ConfigInvalid("WEAK_EFFECT_D must be positive")
	}
	if config.Diagnostics.PowerAlpha <= 0 || config.Diagnostics.PowerAlpha >= 1 {
		return errors.ConfigInvalid("POWER_ALPHA must be in (0, 1)")
	}
	if config.Diagnostics.PowerTarget <= 0 || config.Diagnostics.PowerTarget >= 1 {
		return errors.ConfigInvalid("POWER_TARGET must be in (0, 1)")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// Package common provides shared configuration and run telemetry for
// the VOACAP tooling.
package common

import (
	"os"
	"path/filepath"
)

// Config holds environment-driven settings shared by all commands.
type Config struct {
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
	VoacaplBin         string
	ITSHFBCDir         string
	LogLevel           string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "localhost"),
		ClickHousePort:     9000,
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "voacap"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            getEnv("VOACAP_DATA_DIR", "/var/lib/voacap-lab"),
		VoacaplBin:         getEnv("VOACAPL_BIN", "/usr/local/bin/voacapl"),
		ITSHFBCDir:         getEnv("ITSHFBC_DIR", "/home/user/itshfbc"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// PredictionsDir returns the root of the prediction output tree.
func (c *Config) PredictionsDir() string {
	return filepath.Join(c.DataDir, "predictions")
}

// SSNFile returns the path of the sunspot number forecast file.
func (c *Config) SSNFile() string {
	return filepath.Join(c.DataDir, "ssn.txt")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/devlogging/backend/internal/flagx"
	"github.com/devlogging/backend/internal/timex"
)

// JsonConfig is an intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "10s" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson loads configuration values from the JSON file named by the -c
// or -config flags. If neither flag is set, no file is loaded. A file that
// cannot be read or contains invalid JSON is a startup failure.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	applyJsonFile(config, jsonConfigFile)
}

// applyJsonFile overlays the values present in the file onto config;
// omitted fields keep their current values.
func applyJsonFile(config *Config, path string) {
	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(c.ShutdownTimeout.Duration)
	}
}

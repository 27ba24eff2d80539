package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvAccountList        = "ACCOUNT_LIST"
	EnvLogLevel           = "LOG_LEVEL"
	EnvReportBucket       = "IW_REPORT_BUCKET"
	EnvClickHousePassword = "IW_CLICKHOUSE_PASSWORD"
)

// Load reads the YAML file at path over the defaults, applies environment
// overrides, and validates the result. An empty path skips the file, which
// lets a deployment configure everything through the environment.
//
// A configuration that parses but fails validation is reported as a
// *ValidationError listing every problem.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ValidationError{Errs: errs}
	}
	return cfg, nil
}

// decode parses data into cfg. Unknown keys are rejected so a misspelt
// option fails loudly instead of silently keeping its default.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvAccountList); v != "" {
		var accounts []Account
		if err := json.Unmarshal([]byte(v), &accounts); err != nil {
			return fmt.Errorf("parse %s: %w", EnvAccountList, err)
		}
		cfg.Accounts = accounts
	}
	cfg.LogLevel = getenv(EnvLogLevel, cfg.LogLevel)
	cfg.Publish.Bucket = getenv(EnvReportBucket, cfg.Publish.Bucket)
	cfg.ClickHouse.Password = getenv(EnvClickHousePassword, cfg.ClickHouse.Password)
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

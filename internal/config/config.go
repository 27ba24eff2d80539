package config

import (
	"time"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// Config is the top-level application configuration.
// It is loaded from a YAML file and must never be committed with real
// secrets; the ClickHouse password is normally supplied through the
// environment.
type Config struct {
	LogLevel  string `yaml:"log_level"  json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	AWS        AWSConfig        `yaml:"aws"        json:"aws"`
	Accounts   []Account        `yaml:"accounts"   json:"accounts"`
	Collection CollectionConfig `yaml:"collection" json:"collection"`
	Mappers    MappersConfig    `yaml:"mappers"    json:"mappers"`

	// ManualEntries are partial records appended after every collected row.
	ManualEntries []models.FieldMap `yaml:"manual_entries" json:"manual_entries"`

	Publish    PublishConfig    `yaml:"publish"    json:"publish"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" json:"clickhouse"`
}

// AWSConfig selects the caller's credentials and the cross-account role.
type AWSConfig struct {
	// Profile is the shared-config profile. Empty uses the default chain.
	Profile string `yaml:"profile" json:"profile"`

	// RoleName is assumed in every account other than the caller's own.
	// Empty reads every account with the caller's credentials.
	RoleName string `yaml:"role_name" json:"role_name"`

	// Partition is the ARN partition used to build role ARNs.
	Partition string `yaml:"partition" json:"partition"`
}

// Account is one account to inventory and the regions to visit, in order.
type Account struct {
	ID      string   `yaml:"id"      json:"id"`
	Regions []string `yaml:"regions" json:"regions"`
}

// CollectionConfig tunes the collector.
type CollectionConfig struct {
	// Concurrency is the number of (account, region) pairs read at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// PageLimit is the query page size, 0..100. Zero lets the service choose.
	PageLimit int `yaml:"page_limit" json:"page_limit"`
}

// MappersConfig tunes the built-in mapper families.
type MappersConfig struct {
	FunctionVendor string `yaml:"function_vendor" json:"function_vendor"`
}

// PublishConfig controls delivery of the finished inventory to S3.
type PublishConfig struct {
	Bucket    string        `yaml:"bucket"     json:"bucket"`
	Prefix    string        `yaml:"prefix"     json:"prefix"`
	URLExpiry time.Duration `yaml:"url_expiry" json:"url_expiry"`
}

// Enabled reports whether a bucket is configured.
func (p PublishConfig) Enabled() bool { return p.Bucket != "" }

// ClickHouseConfig configures the optional snapshot sink.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"     json:"addr"`
	Database string `yaml:"database" json:"database"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	Table    string `yaml:"table"    json:"table"`
}

// Enabled reports whether a server address is configured.
func (c ClickHouseConfig) Enabled() bool { return c.Addr != "" }

// Default returns a configuration with every default applied and no
// accounts.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		AWS:       AWSConfig{Partition: "aws"},
		Collection: CollectionConfig{
			Concurrency: 1,
			PageLimit:   100,
		},
		Mappers: MappersConfig{FunctionVendor: "AWS"},
		Publish: PublishConfig{
			Prefix:    "inventory/",
			URLExpiry: 24 * time.Hour,
		},
		ClickHouse: ClickHouseConfig{
			Database: "default",
			Username: "default",
			Table:    "inventory_records",
		},
	}
}

// AccountIDs returns the configured account ids in order.
func (c *Config) AccountIDs() []string {
	ids := make([]string, len(c.Accounts))
	for i, a := range c.Accounts {
		ids[i] = a.ID
	}
	return ids
}

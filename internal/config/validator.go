package config

import (
	"errors"
	"fmt"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// ValidationError collects every problem found in a configuration.
type ValidationError struct {
	Errs []error
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + errors.Join(e.Errs...).Error()
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *ValidationError) Unwrap() []error { return e.Errs }

// Validate checks cfg for semantic correctness and returns all validation
// errors found. An empty slice means the config is valid.
//
// Checks performed:
//   - at least one account
//   - account ids are 12 digits and unique
//   - every account lists at least one non-empty region
//   - collection.concurrency is at least 1
//   - collection.page_limit is within 0..100
//   - log_format is text or json
//   - manual entries name only known fields, with Yes/No tri-state values
//
// All errors are collected before returning; Validate never stops at the first error.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if len(cfg.Accounts) == 0 {
		errs = append(errs, fmt.Errorf("accounts: at least one account is required"))
	}
	seen := make(map[string]int, len(cfg.Accounts))
	for i, a := range cfg.Accounts {
		if !isAccountID(a.ID) {
			errs = append(errs, fmt.Errorf("accounts[%d].id: invalid value %q; must be 12 digits", i, a.ID))
		}
		if first, dup := seen[a.ID]; dup {
			errs = append(errs, fmt.Errorf("accounts[%d].id: %q duplicates accounts[%d]", i, a.ID, first))
		} else {
			seen[a.ID] = i
		}
		if len(a.Regions) == 0 {
			errs = append(errs, fmt.Errorf("accounts[%d].regions: at least one region is required", i))
		}
		for j, r := range a.Regions {
			if r == "" {
				errs = append(errs, fmt.Errorf("accounts[%d].regions[%d]: empty region", i, j))
			}
		}
	}

	if cfg.Collection.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("collection.concurrency: invalid value %d; must be at least 1", cfg.Collection.Concurrency))
	}
	if cfg.Collection.PageLimit < 0 || cfg.Collection.PageLimit > 100 {
		errs = append(errs, fmt.Errorf("collection.page_limit: invalid value %d; must be within 0..100", cfg.Collection.PageLimit))
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: invalid value %q; valid values: text, json", cfg.LogFormat))
	}

	for i, entry := range cfg.ManualEntries {
		for _, err := range models.ValidateFields(entry) {
			errs = append(errs, fmt.Errorf("manual_entries[%d]: %w", i, err))
		}
	}

	return errs
}

func isAccountID(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

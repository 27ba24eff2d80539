package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/config"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/mappers"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/inventory"
)

// PairCheck is the probe result for one configured (account, region) pair.
type PairCheck struct {
	AccountID     string `json:"account_id"`
	Region        string `json:"region"`
	RegionEnabled bool   `json:"region_enabled"`
	QueryOK       bool   `json:"query_ok"`
	Error         string `json:"error,omitempty"`
}

// DoctorResult is the structured output of iw doctor. It can be serialised to
// JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	Config struct {
		Path   string   `json:"path,omitempty"`
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string `json:"profile,omitempty"`
		Credentials bool   `json:"credentials_ok"`
		AccountID   string `json:"account_id,omitempty"`
		RegionsOK   bool   `json:"regions_ok"`
		Error       string `json:"error,omitempty"`
	} `json:"aws"`

	Pairs []PairCheck `json:"pairs,omitempty"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			configPath, _ := cmd.Flags().GetString("config")
			profile, _ := cmd.Flags().GetString("profile")
			result, err := runDoctor(cmd.Context(), d, cmd.OutOrStdout(), format, configPath, profile)
			if err != nil {
				// Rendering failure; let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("config", "iw.yaml", "Path to the YAML configuration (empty: environment only)")
	cmd.Flags().String("profile", "", "AWS profile to use (default: aws.profile from the configuration)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy.
func runDoctor(ctx context.Context, d deps, w io.Writer, format, configPath, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, d, configPath, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, d deps, configPath, profile string) DoctorResult {
	var result DoctorResult

	// Configuration: load → validate. An invalid file still lets the AWS
	// checks run with the defaults.
	result.Config.Path = configPath
	cfg, err := config.Load(configPath)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, e := range verr.Errs {
				result.Config.Errors = append(result.Config.Errors, e.Error())
			}
		} else {
			result.Config.Errors = []string{err.Error()}
		}
		cfg = config.Default()
	} else {
		result.Config.Valid = true
	}

	// AWS: credentials → STS account ID → region discovery.
	if profile == "" {
		profile = cfg.AWS.Profile
	}
	result.AWS.Profile = profile
	provider := d.newProvider(cfg)
	profileCfg, err := provider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
		return finishDoctor(result)
	}
	result.AWS.Credentials = true
	result.AWS.AccountID = profileCfg.AccountID

	regions, err := provider.GetActiveRegions(ctx, profileCfg)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.RegionsOK = true
	}

	if !result.Config.Valid {
		return finishDoctor(result)
	}

	// Pairs: one single-row query per configured pair, through the same
	// page source the collector uses.
	registry := mappers.NewDefaultRegistry(nil, mappers.Options{})
	source, err := inventory.NewDefaultPageSourceWithFactory(profileCfg, provider, d.factory, inventory.Options{
		Types: registry.SupportedTypes(),
		Limit: 1,
	})
	if err != nil {
		result.Config.Valid = false
		result.Config.Errors = append(result.Config.Errors, err.Error())
		return finishDoctor(result)
	}
	for _, a := range cfg.Accounts {
		for _, region := range a.Regions {
			check := PairCheck{
				AccountID:     a.ID,
				Region:        region,
				RegionEnabled: !result.AWS.RegionsOK || slices.Contains(regions, region),
			}
			if _, err := source.FetchPage(ctx, a.ID, region, ""); err != nil {
				check.Error = err.Error()
			} else {
				check.QueryOK = true
			}
			result.Pairs = append(result.Pairs, check)
		}
	}

	return finishDoctor(result)
}

func finishDoctor(result DoctorResult) DoctorResult {
	healthy := result.Config.Valid && result.AWS.Credentials && result.AWS.RegionsOK
	for _, p := range result.Pairs {
		healthy = healthy && p.RegionEnabled && p.QueryOK
	}
	result.OverallHealthy = healthy
	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	if result.Config.Path != "" {
		fmt.Fprintf(w, "\nConfiguration (%s):\n", result.Config.Path)
	} else {
		fmt.Fprintln(w, "\nConfiguration (environment):")
	}
	if result.Config.Valid {
		doctorPrint(w, "Config valid", "OK", "")
	} else {
		for _, e := range result.Config.Errors {
			doctorPrint(w, "Config valid", "FAIL", e)
		}
	}

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", "")
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	if len(result.Pairs) == 0 {
		return
	}
	fmt.Fprintln(w, "\nAWS Config queries:")
	for _, p := range result.Pairs {
		label := p.AccountID + "/" + p.Region
		switch {
		case !p.RegionEnabled:
			doctorPrint(w, label, "FAIL", "region not enabled")
		case p.QueryOK:
			doctorPrint(w, label, "OK", "")
		default:
			doctorPrint(w, label, "FAIL", p.Error)
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/collector"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/config"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/logging"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/mappers"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/output"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/inventory"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/publish"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/store"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/version"
)

// snapshotStore is the part of store.Store used by collect.
type snapshotStore interface {
	EnsureSchema(ctx context.Context) error
	SaveInventory(ctx context.Context, inv *models.Inventory) error
	Close() error
}

// deps holds the external collaborators of every command. Tests replace
// them with fakes.
type deps struct {
	newProvider func(cfg *config.Config) common.AWSClientProvider
	factory     common.ClientFactory
	openStore   func(ctx context.Context, cfg config.ClickHouseConfig) (snapshotStore, error)
}

func defaultDeps() deps {
	return deps{
		newProvider: func(cfg *config.Config) common.AWSClientProvider {
			return common.NewDefaultAWSClientProvider().WithAssumeRole(cfg.AWS.RoleName, cfg.AWS.Partition)
		},
		factory: common.NewClientSet,
		openStore: func(ctx context.Context, cfg config.ClickHouseConfig) (snapshotStore, error) {
			s, err := store.NewClickHouseStore(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithDeps(defaultDeps())
}

func newRootCmdWithDeps(d deps) *cobra.Command {
	root := &cobra.Command{
		Use:   "iw",
		Short: "Inventory workbook: AWS Config asset inventory collector",
	}
	root.AddCommand(newCollectCmd(d))
	root.AddCommand(newDoctorCmd(d))
	root.AddCommand(newMappersCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newMappersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mappers",
		Short: "List the resource families and types the collector maps, in dispatch order",
		Run: func(cmd *cobra.Command, args []string) {
			registry := mappers.NewDefaultRegistry(nil, mappers.Options{})
			printMappers(cmd.OutOrStdout(), registry)
		},
	}
}

// printMappers writes one line per registered family with its resource types.
func printMappers(w io.Writer, registry *mappers.Registry) {
	fmt.Fprintf(w, "%-16s  %s\n", "FAMILY", "RESOURCE TYPES")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, m := range registry.Mappers() {
		fmt.Fprintf(w, "%-16s  %s\n", m.Name(), strings.Join(m.SupportedTypes(), ", "))
	}
}

// collectOptions mirrors the collect command flags.
type collectOptions struct {
	format         string
	output         string
	publish        bool
	store          bool
	colored        bool
	includeNetwork bool
}

func newCollectCmd(d deps) *cobra.Command {
	var (
		configPath string
		opts       collectOptions
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect the asset inventory for every configured account and region",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "table" {
				return fmt.Errorf("unsupported format %q: use json or table", opts.format)
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
			return runCollect(cmd.Context(), d, cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "iw.yaml", "Path to the YAML configuration (empty: environment only)")
	cmd.Flags().StringVar(&opts.format, "format", "table", "Output format: json or table")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write the full JSON inventory to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Upload the inventory to the configured S3 bucket and print a download link")
	cmd.Flags().BoolVar(&opts.store, "store", false, "Save the inventory snapshot to the configured ClickHouse table")
	cmd.Flags().BoolVar(&opts.colored, "color", false, "Highlight public assets and unset fields in table output")
	cmd.Flags().BoolVar(&opts.includeNetwork, "network", false, "Add NETWORK and DNS NAME columns to table output")

	return cmd
}

// runCollect performs one collection run and delivers the result to every
// requested destination. stdout receives only the rendered inventory;
// delivery notices go to stderr so JSON output stays parseable.
func runCollect(ctx context.Context, d deps, cfg *config.Config, opts collectOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	if opts.publish && !cfg.Publish.Enabled() {
		return errors.New("--publish requires publish.bucket or " + config.EnvReportBucket)
	}
	if opts.store && !cfg.ClickHouse.Enabled() {
		return errors.New("--store requires clickhouse.addr")
	}

	provider := d.newProvider(cfg)
	profile, err := provider.LoadProfile(ctx, cfg.AWS.Profile)
	if err != nil {
		return fmt.Errorf("load AWS credentials: %w", err)
	}

	registry := mappers.NewDefaultRegistry(logger, mappers.Options{FunctionVendor: cfg.Mappers.FunctionVendor})
	source, err := inventory.NewDefaultPageSourceWithFactory(profile, provider, d.factory, inventory.Options{
		Types:  registry.SupportedTypes(),
		Limit:  cfg.Collection.PageLimit,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("build page source: %w", err)
	}

	c := collector.New(source, registry, collector.Options{
		Concurrency: cfg.Collection.Concurrency,
		Logger:      logger,
	})
	inv, err := c.CollectAll(ctx, cfg.Accounts, cfg.ManualEntries)
	if err != nil {
		return fmt.Errorf("collection failed: %w", err)
	}

	if opts.output != "" {
		if err := writeInventoryToFile(opts.output, inv); err != nil {
			return err
		}
	}

	if opts.store {
		if err := saveSnapshot(ctx, d, cfg.ClickHouse, inv); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Saved %d records to ClickHouse table %s\n", len(inv.Records), cfg.ClickHouse.Table)
	}

	if opts.publish {
		clients := d.factory(provider.ConfigForRegion(profile, profile.Region))
		p, err := publish.New(clients.S3, clients.Presigner, publish.Options{
			Bucket:    cfg.Publish.Bucket,
			Prefix:    cfg.Publish.Prefix,
			URLExpiry: cfg.Publish.URLExpiry,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		res, err := p.Publish(ctx, inv)
		if err != nil {
			return fmt.Errorf("publish inventory: %w", err)
		}
		fmt.Fprintf(stderr, "Published s3://%s/%s\n", res.Bucket, res.Key)
		if res.URL != "" {
			fmt.Fprintf(stderr, "Download: %s\n", res.URL)
		}
	}

	if opts.format == "json" {
		return printJSON(stdout, inv)
	}
	output.RenderTable(stdout, inv.Records, output.TableOptions{
		Colored:        opts.colored,
		IncludeNetwork: opts.includeNetwork,
	})
	output.RenderSummary(stdout, inv)
	return nil
}

func saveSnapshot(ctx context.Context, d deps, cfg config.ClickHouseConfig, inv *models.Inventory) error {
	s, err := d.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := s.SaveInventory(ctx, inv); err != nil {
		return fmt.Errorf("save inventory: %w", err)
	}
	return nil
}

// printJSON writes the inventory as indented JSON to w.
func printJSON(w io.Writer, inv *models.Inventory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(inv)
}

// writeInventoryToFile serialises inv as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeInventoryToFile(path string, inv *models.Inventory) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal inventory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write inventory file %q: %w", path, err)
	}
	return nil
}

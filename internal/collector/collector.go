// Package collector drives a full inventory run: every configured
// (account, region) pair is paged through, every raw record is mapped, and
// the manual entries are appended at the end.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/config"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/mappers"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/providers/aws/inventory"
)

// Options tunes a Collector.
type Options struct {
	// Concurrency bounds the number of pairs read at once. Values below 1
	// mean 1.
	Concurrency int

	// Logger receives per-pair and per-record diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Collector aggregates the inventory. It holds no per-run state and may be
// reused; each CollectAll call starts every query from the first page.
type Collector struct {
	source      inventory.PageSource
	registry    *mappers.Registry
	concurrency int
	logger      *slog.Logger

	now   func() time.Time
	newID func() string
}

// New returns a collector reading from source and mapping with registry.
func New(source inventory.PageSource, registry *mappers.Registry, opts Options) *Collector {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		source:      source,
		registry:    registry,
		concurrency: concurrency,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

type pair struct {
	accountID string
	region    string
}

// pairResult is the buffered output of one pair, merged in pair order.
type pairResult struct {
	records []models.InventoryRecord
	stats   models.InventoryStats
}

// CollectAll returns the inventory for accounts followed by one record per
// manual entry.
//
// Records appear in iteration order: accounts as given, then each account's
// regions as given, then pages and records in service order. Nothing is
// sorted or deduplicated. Pairs may be read concurrently but the result is
// identical to a sequential run.
//
// A pair whose query fails is logged and contributes only the rows read
// before the failure. Records that cannot be decoded or mapped are logged
// and skipped; records with no mapper are dropped. An error is returned only
// for an invalid manual entry or a cancelled context.
func (c *Collector) CollectAll(ctx context.Context, accounts []config.Account, manual []models.FieldMap) (*models.Inventory, error) {
	manualRecords, err := buildManual(manual)
	if err != nil {
		return nil, err
	}

	var pairs []pair
	for _, a := range accounts {
		for _, r := range a.Regions {
			pairs = append(pairs, pair{accountID: a.ID, region: r})
		}
	}

	runID := c.newID()
	logger := c.logger.With("run_id", runID)
	logger.Info("collection started", "accounts", len(accounts), "pairs", len(pairs), "concurrency", c.concurrency)

	results := make([]pairResult, len(pairs))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, p := range pairs {
		g.Go(func() error {
			results[i] = c.collectPair(ctx, logger, p)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect inventory: %w", err)
	}

	inv := &models.Inventory{
		RunID:       runID,
		GeneratedAt: c.now(),
		Records:     []models.InventoryRecord{},
	}
	for _, a := range accounts {
		inv.Accounts = append(inv.Accounts, a.ID)
	}
	for _, res := range results {
		inv.Records = append(inv.Records, res.records...)
		addStats(&inv.Stats, res.stats)
	}
	inv.Records = append(inv.Records, manualRecords...)
	inv.Stats.Pairs = len(pairs)
	inv.Stats.ManualRecords = len(manualRecords)

	logger.Info("collection finished",
		"records", len(inv.Records),
		"failed_pairs", inv.Stats.FailedPairs,
		"unmapped", inv.Stats.Unmapped,
		"mapping_failures", inv.Stats.MappingFailures,
	)
	return inv, nil
}

// collectPair pages through one pair sequentially.
func (c *Collector) collectPair(ctx context.Context, logger *slog.Logger, p pair) pairResult {
	logger = logger.With("account", p.accountID, "region", p.region)
	var out pairResult

	for page, err := range inventory.Pages(ctx, c.source, p.accountID, p.region) {
		if err != nil {
			if ctx.Err() == nil {
				out.stats.FailedPairs++
				logger.Warn("pair failed; continuing with next pair", "error", err, "rows_kept", len(out.records))
			}
			break
		}
		out.stats.Pages++
		for _, raw := range page.Records {
			out.stats.RawRecords++
			out.records = c.mapRecord(logger, raw, out.records, &out.stats)
		}
	}
	return out
}

// mapRecord appends the rows for one raw record to dst.
func (c *Collector) mapRecord(logger *slog.Logger, raw string, dst []models.InventoryRecord, stats *models.InventoryStats) []models.InventoryRecord {
	res, err := models.DecodeConfigResource(raw)
	if err != nil {
		stats.MappingFailures++
		logger.Warn("skipping undecodable record", "error", err)
		return dst
	}

	rows, err := c.registry.Map(res)
	switch {
	case errors.Is(err, mappers.ErrNoMapper):
		stats.Unmapped++
		logger.Debug("no mapper for record", "resource_type", res.Type())
		return dst
	case err != nil:
		stats.MappingFailures++
		arn, _ := res.String("arn")
		logger.Warn("skipping malformed record", "resource_type", res.Type(), "arn", arn, "error", err)
		return dst
	}
	return append(dst, rows...)
}

func buildManual(entries []models.FieldMap) ([]models.InventoryRecord, error) {
	records := make([]models.InventoryRecord, 0, len(entries))
	for i, entry := range entries {
		rec, err := models.RecordFromFields(entry)
		if err != nil {
			return nil, fmt.Errorf("manual entry %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func addStats(dst *models.InventoryStats, src models.InventoryStats) {
	dst.FailedPairs += src.FailedPairs
	dst.Pages += src.Pages
	dst.RawRecords += src.RawRecords
	dst.Unmapped += src.Unmapped
	dst.MappingFailures += src.MappingFailures
}

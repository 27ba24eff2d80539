package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// ANSI color codes for the PUBLIC column (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiYellow  = "\033[0;33m"
)

// unsetCell marks a field the mapper never set; it needs manual input.
const unsetCell = "-"

// TableOptions controls which columns RenderTable renders.
type TableOptions struct {
	// Colored highlights public assets and fields awaiting manual input.
	// Default false (CI-safe).
	Colored bool

	// IncludeNetwork adds NETWORK and DNS NAME columns.
	IncludeNetwork bool
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// cell renders an optional field for display.
func cell(p *string) string {
	if p == nil {
		return unsetCell
	}
	return *p
}

// publicCell returns the tri-state padded to width characters. When colored,
// ANSI codes wrap only the text; trailing padding spaces are plain so
// subsequent columns stay aligned regardless of terminal ANSI support.
func publicCell(v models.YesNo, width int, colored bool) string {
	text := string(v)
	if text == "" {
		text = unsetCell
	}
	var code string
	switch {
	case !colored:
		return fmt.Sprintf("%-*s", width, text)
	case v == models.Yes:
		code = ansiBoldRed
	case !v.IsSet():
		code = ansiYellow
	default:
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := max(width-len(text), 0)
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// RenderTable writes a formatted inventory table to w.
// Columns are dynamically selected based on opts; the separator line width is
// derived from the header row so all rows align correctly.
//
// Column order:
//
//	ASSET TYPE  UNIQUE ID  IP ADDRESS  LOCATION  PUBLIC  [NETWORK  DNS NAME]  OWNER
func RenderTable(w io.Writer, records []models.InventoryRecord, opts TableOptions) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No inventory records.")
		return
	}

	// Fixed column display widths.
	const (
		wAssetType = 22
		wUniqueID  = 48
		wIP        = 24
		wLocation  = 14
		wPublic    = 6
		wNetwork   = 22
		wDNS       = 40
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wAssetType, "ASSET TYPE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wUniqueID, "UNIQUE ID"))
	hb.WriteString(fmt.Sprintf("  %-*s", wIP, "IP ADDRESS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wLocation, "LOCATION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wPublic, "PUBLIC"))
	if opts.IncludeNetwork {
		hb.WriteString(fmt.Sprintf("  %-*s", wNetwork, "NETWORK"))
		hb.WriteString(fmt.Sprintf("  %-*s", wDNS, "DNS NAME"))
	}
	hb.WriteString("  OWNER")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, r := range records {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wAssetType, ShortenMessage(cell(r.AssetType), wAssetType)))
		rb.WriteString(fmt.Sprintf("  %-*s", wUniqueID, ShortenMessage(cell(r.UniqueID), wUniqueID)))
		rb.WriteString(fmt.Sprintf("  %-*s", wIP, ShortenMessage(cell(r.IPAddress), wIP)))
		rb.WriteString(fmt.Sprintf("  %-*s", wLocation, ShortenMessage(cell(r.Location), wLocation)))
		rb.WriteString("  " + publicCell(r.IsPublic, wPublic, opts.Colored))
		if opts.IncludeNetwork {
			rb.WriteString(fmt.Sprintf("  %-*s", wNetwork, ShortenMessage(cell(r.NetworkID), wNetwork)))
			rb.WriteString(fmt.Sprintf("  %-*s", wDNS, ShortenMessage(cell(r.DNSName), wDNS)))
		}
		rb.WriteString("  " + cell(r.Owner))
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderSummary writes the run statistics below a table.
func RenderSummary(w io.Writer, inv *models.Inventory) {
	s := inv.Stats
	fmt.Fprintf(w, "\nRun %s: %d records from %d accounts (%d pairs, %d failed)\n",
		inv.RunID, len(inv.Records), len(inv.Accounts), s.Pairs, s.FailedPairs)
	fmt.Fprintf(w, "Pages: %d  Raw records: %d  Unmapped: %d  Mapping failures: %d  Manual: %d\n",
		s.Pages, s.RawRecords, s.Unmapped, s.MappingFailures, s.ManualRecords)
}

package models

import "time"

// YesNo is a tri-state flag. The zero value means the field was never set,
// which downstream reporting shows as "needs manual input".
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// YesNoFrom converts a boolean into an explicit Yes or No.
func YesNoFrom(b bool) YesNo {
	if b {
		return Yes
	}
	return No
}

// IsSet reports whether the flag carries an explicit value.
func (v YesNo) IsSet() bool { return v != "" }

// RequiresManualInput is written into fields an operator must fill in by hand
// before the inventory can be submitted.
const RequiresManualInput = "TODO"

// InventoryRecord is one row of the normalized inventory.
//
// String fields are pointers: nil means the mapper never set the field, while
// a non-nil empty string is an explicit empty value. The distinction survives
// JSON and YAML encoding because unset fields are omitted.
//
// Records are built by a mapper (or from a manual entry) and never modified
// afterwards. Use Clone when an independent copy is required.
type InventoryRecord struct {
	AssetType                *string `json:"asset_type,omitempty"                 yaml:"asset_type,omitempty"`
	UniqueID                 *string `json:"unique_id,omitempty"                  yaml:"unique_id,omitempty"`
	IPAddress                *string `json:"ip_address,omitempty"                 yaml:"ip_address,omitempty"`
	Location                 *string `json:"location,omitempty"                   yaml:"location,omitempty"`
	IsVirtual                YesNo   `json:"is_virtual,omitempty"                 yaml:"is_virtual,omitempty"`
	AuthenticatedScanPlanned YesNo   `json:"authenticated_scan_planned,omitempty" yaml:"authenticated_scan_planned,omitempty"`
	DNSName                  *string `json:"dns_name,omitempty"                   yaml:"dns_name,omitempty"`
	MACAddress               *string `json:"mac_address,omitempty"                yaml:"mac_address,omitempty"`
	BaselineConfig           *string `json:"baseline_config,omitempty"            yaml:"baseline_config,omitempty"`
	HardwareModel            *string `json:"hardware_model,omitempty"             yaml:"hardware_model,omitempty"`
	IsPublic                 YesNo   `json:"is_public,omitempty"                  yaml:"is_public,omitempty"`
	NetworkID                *string `json:"network_id,omitempty"                 yaml:"network_id,omitempty"`
	Owner                    *string `json:"owner,omitempty"                      yaml:"owner,omitempty"`
	SoftwareProductName      *string `json:"software_product_name,omitempty"      yaml:"software_product_name,omitempty"`
	SoftwareVendor           *string `json:"software_vendor,omitempty"            yaml:"software_vendor,omitempty"`
	Comments                 *string `json:"comments,omitempty"                   yaml:"comments,omitempty"`
	InLatestScan             *string `json:"in_latest_scan,omitempty"             yaml:"in_latest_scan,omitempty"`
	Purpose                  *string `json:"purpose,omitempty"                    yaml:"purpose,omitempty"`
	AssetTag                 *string `json:"asset_tag,omitempty"                  yaml:"asset_tag,omitempty"`
}

// String returns a pointer to v. It is the constructor for explicitly-set
// record fields.
func String(v string) *string { return &v }

// Value returns the pointed-to string, or "" when p is nil.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Clone returns a deep copy of r. No pointer is shared between r and the
// returned record.
func (r InventoryRecord) Clone() InventoryRecord {
	c := r
	for _, f := range stringFields {
		if p := *f.get(&c); p != nil {
			*f.get(&c) = String(*p)
		}
	}
	return c
}

// InventoryStats summarises one collection run.
type InventoryStats struct {
	// Pairs is the number of (account, region) pairs visited.
	Pairs int `json:"pairs"`

	// FailedPairs counts pairs whose query failed; they contributed no rows
	// beyond pages already received before the failure.
	FailedPairs int `json:"failed_pairs"`

	Pages      int `json:"pages"`
	RawRecords int `json:"raw_records"`

	// Unmapped counts raw records whose resource type has no mapper.
	Unmapped int `json:"unmapped"`

	// MappingFailures counts raw records that could not be decoded or whose
	// mapper rejected them (for example a missing configuration block).
	MappingFailures int `json:"mapping_failures"`

	ManualRecords int `json:"manual_records"`
}

// Inventory is the output of a collection run. Records are in collection
// order: accounts, then regions, then pages, then records, then manual
// entries.
type Inventory struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Accounts    []string          `json:"accounts"`
	Records     []InventoryRecord `json:"records"`
	Stats       InventoryStats    `json:"stats"`
}

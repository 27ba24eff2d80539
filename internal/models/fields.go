package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldMap is a partial record keyed by field name (asset_type, owner, ...).
// Operators use it to add inventory rows that no API can see.
type FieldMap map[string]string

type stringField struct {
	name string
	get  func(*InventoryRecord) **string
}

type yesNoField struct {
	name string
	get  func(*InventoryRecord) *YesNo
}

// stringFields and yesNoFields are the allow-list of settable field names.
var stringFields = []stringField{
	{"asset_type", func(r *InventoryRecord) **string { return &r.AssetType }},
	{"unique_id", func(r *InventoryRecord) **string { return &r.UniqueID }},
	{"ip_address", func(r *InventoryRecord) **string { return &r.IPAddress }},
	{"location", func(r *InventoryRecord) **string { return &r.Location }},
	{"dns_name", func(r *InventoryRecord) **string { return &r.DNSName }},
	{"mac_address", func(r *InventoryRecord) **string { return &r.MACAddress }},
	{"baseline_config", func(r *InventoryRecord) **string { return &r.BaselineConfig }},
	{"hardware_model", func(r *InventoryRecord) **string { return &r.HardwareModel }},
	{"network_id", func(r *InventoryRecord) **string { return &r.NetworkID }},
	{"owner", func(r *InventoryRecord) **string { return &r.Owner }},
	{"software_product_name", func(r *InventoryRecord) **string { return &r.SoftwareProductName }},
	{"software_vendor", func(r *InventoryRecord) **string { return &r.SoftwareVendor }},
	{"comments", func(r *InventoryRecord) **string { return &r.Comments }},
	{"in_latest_scan", func(r *InventoryRecord) **string { return &r.InLatestScan }},
	{"purpose", func(r *InventoryRecord) **string { return &r.Purpose }},
	{"asset_tag", func(r *InventoryRecord) **string { return &r.AssetTag }},
}

var yesNoFields = []yesNoField{
	{"is_virtual", func(r *InventoryRecord) *YesNo { return &r.IsVirtual }},
	{"is_public", func(r *InventoryRecord) *YesNo { return &r.IsPublic }},
	{"authenticated_scan_planned", func(r *InventoryRecord) *YesNo { return &r.AuthenticatedScanPlanned }},
}

// fieldOrder is the column order used wherever records are flattened.
var fieldOrder = []string{
	"asset_type", "unique_id", "ip_address", "location", "is_virtual",
	"authenticated_scan_planned", "dns_name", "mac_address", "baseline_config",
	"hardware_model", "is_public", "network_id", "owner",
	"software_product_name", "software_vendor", "comments", "in_latest_scan",
	"purpose", "asset_tag",
}

// FieldNames returns every settable field name in column order.
func FieldNames() []string {
	out := make([]string, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// UnknownFieldError reports a manual-entry key that is not a record field.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown inventory field %q; valid fields: %s", e.Field, strings.Join(fieldOrder, ", "))
}

// SetField assigns value to the named field. Tri-state fields accept "Yes" or
// "No" in any letter case; anything else is rejected.
func (r *InventoryRecord) SetField(name, value string) error {
	for _, f := range stringFields {
		if f.name == name {
			*f.get(r) = String(value)
			return nil
		}
	}
	for _, f := range yesNoFields {
		if f.name != name {
			continue
		}
		switch {
		case strings.EqualFold(value, string(Yes)):
			*f.get(r) = Yes
		case strings.EqualFold(value, string(No)):
			*f.get(r) = No
		default:
			return fmt.Errorf("field %s: invalid value %q; must be Yes or No", name, value)
		}
		return nil
	}
	return &UnknownFieldError{Field: name}
}

// Field returns the named field's value and whether it is set.
func (r InventoryRecord) Field(name string) (string, bool) {
	for _, f := range stringFields {
		if f.name == name {
			p := *f.get(&r)
			return Value(p), p != nil
		}
	}
	for _, f := range yesNoFields {
		if f.name == name {
			v := *f.get(&r)
			return string(v), v.IsSet()
		}
	}
	return "", false
}

// RecordFromFields builds a record from a partial field map. Fields absent
// from m stay unset. Keys are applied in sorted order so the first error
// reported is stable.
func RecordFromFields(m FieldMap) (InventoryRecord, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rec InventoryRecord
	for _, k := range keys {
		if err := rec.SetField(k, m[k]); err != nil {
			return InventoryRecord{}, err
		}
	}
	return rec, nil
}

// ValidateFields checks m against the allow-list and returns every problem
// found rather than stopping at the first.
func ValidateFields(m FieldMap) []error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	var scratch InventoryRecord
	for _, k := range keys {
		if err := scratch.SetField(k, m[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Package mappers converts raw configuration-inventory records into
// normalized inventory rows. Each resource-type family has its own Mapper;
// a Registry picks the mapper for a record by scanning in registration order.
package mappers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// Mapper converts one family of resource types into inventory rows.
// Mappers must be pure: no network calls, no shared mutable state, safe to
// call concurrently.
type Mapper interface {
	// Name returns a short, unique identifier for the family (e.g. "ec2-instance").
	Name() string

	// SupportedTypes returns the resourceType values this mapper accepts.
	SupportedTypes() []string

	// CanMap reports whether resourceType is one of SupportedTypes.
	CanMap(resourceType string) bool

	// Map returns zero or more rows for res. A record whose type is not
	// supported yields no rows and no error. A record missing a key the
	// family requires yields a *MissingKeyError.
	Map(res models.ConfigResource) ([]models.InventoryRecord, error)
}

// MissingKeyError reports a mandatory key absent from a raw record.
type MissingKeyError struct {
	ResourceType string
	Path         string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: missing required key %q", e.ResourceType, e.Path)
}

// typeSet implements SupportedTypes and CanMap for embedding mappers.
type typeSet []string

func (t typeSet) SupportedTypes() []string { return slices.Clone(t) }

func (t typeSet) CanMap(resourceType string) bool { return slices.Contains(t, resourceType) }

// mapSupported guards a family's transform with CanMap so that every Map
// method can be called directly on any record.
func mapSupported(
	m Mapper,
	res models.ConfigResource,
	transform func(models.ConfigResource) ([]models.InventoryRecord, error),
) ([]models.InventoryRecord, error) {
	if !m.CanMap(res.Type()) {
		return nil, nil
	}
	records, err := transform(res)
	if err != nil {
		return nil, fmt.Errorf("%s mapper: %w", m.Name(), err)
	}
	return records, nil
}

// fieldReader reads mandatory keys and remembers the first one missing, so a
// transform can read everything it needs and check once.
type fieldReader struct {
	resourceType string
	err          error
}

func newFieldReader(res models.ConfigResource) *fieldReader {
	return &fieldReader{resourceType: res.Type()}
}

func (f *fieldReader) missing(path []string) {
	if f.err == nil {
		f.err = &MissingKeyError{ResourceType: f.resourceType, Path: strings.Join(path, ".")}
	}
}

func (f *fieldReader) str(a models.Attributes, path ...string) string {
	v, ok := a.String(path...)
	if !ok {
		f.missing(path)
	}
	return v
}

func (f *fieldReader) flag(a models.Attributes, path ...string) bool {
	v, ok := a.Bool(path...)
	if !ok {
		f.missing(path)
	}
	return v
}

func (f *fieldReader) obj(a models.Attributes, path ...string) models.Attributes {
	v, ok := a.Map(path...)
	if !ok {
		f.missing(path)
	}
	return v
}

func (f *fieldReader) list(a models.Attributes, path ...string) []any {
	v, ok := a.List(path...)
	if !ok {
		f.missing(path)
	}
	return v
}

// ownerTag is the tag key holding the accountable owner of a resource.
const ownerTag = "owner"

// baseRecord returns the fields every family shares: asset type, owner and
// asset tag (resource name, falling back to resource id).
func baseRecord(f *fieldReader, res models.ConfigResource, assetType string) models.InventoryRecord {
	rec := models.InventoryRecord{
		AssetType: models.String(assetType),
		Owner:     models.String(res.TagValue(ownerTag)),
	}
	if name, ok := res.String("resourceName"); ok && name != "" {
		rec.AssetTag = models.String(name)
	} else {
		rec.AssetTag = models.String(f.str(res.Attributes, "resourceId"))
	}
	return rec
}

// awsVendor is the software vendor for managed AWS services.
const awsVendor = "AWS"

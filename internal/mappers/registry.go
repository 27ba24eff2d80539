package mappers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/davecgh/go-spew/spew"

	"github.com/pankaj-dahiya-devops/inventory-workbook/internal/models"
)

// ErrNoMapper is returned by Registry.Map when no registered mapper accepts
// the record's resource type. Callers treat it as a skip, not a failure.
var ErrNoMapper = errors.New("no mapper for resource type")

// Registry is an ordered list of mappers. Dispatch scans in registration
// order and the first mapper that accepts a type wins, so registration order
// is the tie-break when two mappers claim the same type.
type Registry struct {
	mappers []Mapper
	names   map[string]struct{}
	logger  *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		names:  make(map[string]struct{}),
		logger: logger,
	}
}

// Register appends m. Panics if a mapper with the same Name is already
// registered; that is a wiring mistake caught at startup.
func (r *Registry) Register(m Mapper) {
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("duplicate mapper name: %q", m.Name()))
	}
	r.mappers = append(r.mappers, m)
	r.names[m.Name()] = struct{}{}
}

// Mappers returns the registered mappers in registration order.
func (r *Registry) Mappers() []Mapper {
	out := make([]Mapper, len(r.mappers))
	copy(out, r.mappers)
	return out
}

// Dispatch returns the first registered mapper whose CanMap accepts
// resourceType.
func (r *Registry) Dispatch(resourceType string) (Mapper, bool) {
	for _, m := range r.mappers {
		if m.CanMap(resourceType) {
			return m, true
		}
	}
	return nil, false
}

// SupportedTypes returns the union of every mapper's types, deduplicated, in
// registration order. The collector uses it to scope the inventory query.
func (r *Registry) SupportedTypes() []string {
	seen := make(map[string]struct{})
	var types []string
	for _, m := range r.mappers {
		for _, t := range m.SupportedTypes() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			types = append(types, t)
		}
	}
	return types
}

// Map dispatches res and runs the chosen mapper. It returns ErrNoMapper when
// nothing accepts the record.
func (r *Registry) Map(res models.ConfigResource) ([]models.InventoryRecord, error) {
	resourceType := res.Type()
	m, ok := r.Dispatch(resourceType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoMapper, resourceType)
	}

	if r.logger.Enabled(context.Background(), slog.LevelDebug) {
		r.logger.Debug("mapping resource",
			"mapper", m.Name(),
			"resource_type", resourceType,
			"raw", spew.Sdump(map[string]any(res.Attributes)),
		)
	}

	records, err := m.Map(res)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("mapping complete", "mapper", m.Name(), "rows", len(records))
	return records, nil
}

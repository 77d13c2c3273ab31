package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// FilteredCatalog narrows a catalog to an allow-list of tables.
type FilteredCatalog struct {
	inner   ports.Catalog
	desired []string
}

// NewFilteredCatalog wraps inner so only tables in desired are visible.
func NewFilteredCatalog(inner ports.Catalog, desired []string) *FilteredCatalog {
	return &FilteredCatalog{inner: inner, desired: append([]string(nil), desired...)}
}

// Dialect implements ports.Catalog.
func (f *FilteredCatalog) Dialect() string {
	return f.inner.Dialect()
}

// ListTables returns the desired tables that exist, in desired order.
func (f *FilteredCatalog) ListTables(ctx context.Context) ([]string, error) {
	actual, err := f.inner.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	return Intersect(f.desired, actual), nil
}

// GetSchema describes the requested tables, defaulting to every visible one.
// Tables outside the filter are reported as missing.
func (f *FilteredCatalog) GetSchema(ctx context.Context, tables []string) (string, error) {
	visible, err := f.ListTables(ctx)
	if err != nil {
		return "", err
	}
	if len(tables) == 0 {
		tables = visible
	}
	allowed := make(map[string]struct{}, len(visible))
	for _, t := range visible {
		allowed[t] = struct{}{}
	}
	var missing []string
	for _, t := range tables {
		if _, ok := allowed[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("table_names {%s} not found in database", strings.Join(missing, ", "))
	}
	if len(tables) == 0 {
		return "", nil
	}
	return f.inner.GetSchema(ctx, tables)
}

// ValidateQuery implements ports.Catalog.
func (f *FilteredCatalog) ValidateQuery(ctx context.Context, query string) error {
	return f.inner.ValidateQuery(ctx, query)
}

// ExecuteQuery implements ports.Catalog.
func (f *FilteredCatalog) ExecuteQuery(ctx context.Context, query string) (domain.QueryResult, error) {
	return f.inner.ExecuteQuery(ctx, query)
}

// Intersect keeps the entries of desired present in actual, preserving
// desired's order and dropping duplicates.
func Intersect(desired, actual []string) []string {
	present := make(map[string]struct{}, len(actual))
	for _, t := range actual {
		present[t] = struct{}{}
	}
	out := make([]string, 0, len(desired))
	seen := make(map[string]struct{}, len(desired))
	for _, t := range desired {
		if _, ok := present[t]; !ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

var _ ports.Catalog = (*FilteredCatalog)(nil)

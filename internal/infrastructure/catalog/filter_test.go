package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/sqlchat/internal/domain"
)

type stubCatalog struct {
	tables      []string
	listErr     error
	schemaCalls [][]string
}

func (s *stubCatalog) Dialect() string { return "stub" }

func (s *stubCatalog) ListTables(context.Context) ([]string, error) {
	return s.tables, s.listErr
}

func (s *stubCatalog) GetSchema(_ context.Context, tables []string) (string, error) {
	s.schemaCalls = append(s.schemaCalls, tables)
	return "schema:" + strings.Join(tables, ","), nil
}

func (s *stubCatalog) ValidateQuery(context.Context, string) error { return nil }

func (s *stubCatalog) ExecuteQuery(context.Context, string) (domain.QueryResult, error) {
	return domain.QueryResult{Columns: []string{"n"}}, nil
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name    string
		desired []string
		actual  []string
		want    []string
	}{
		{"keeps desired order", []string{"b", "a"}, []string{"a", "b", "c"}, []string{"b", "a"}},
		{"drops missing", []string{"a", "x"}, []string{"a", "b"}, []string{"a"}},
		{"disjoint", []string{"x"}, []string{"a"}, []string{}},
		{"dedupes", []string{"a", "a"}, []string{"a"}, []string{"a"}},
		{"empty desired", nil, []string{"a"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Intersect(tt.desired, tt.actual)); diff != "" {
				t.Fatalf("Intersect mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilteredCatalogListTables(t *testing.T) {
	inner := &stubCatalog{tables: []string{"orders", "tbl_market_basket_analysis", "product_margin_and_sku_iceberg"}}
	filtered := NewFilteredCatalog(inner, []string{"tbl_market_basket_analysis", "product_margin_and_sku_iceberg", "missing"})

	got, err := filtered.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables error: %v", err)
	}
	want := []string{"tbl_market_basket_analysis", "product_margin_and_sku_iceberg"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestFilteredCatalogListTablesPropagatesError(t *testing.T) {
	filtered := NewFilteredCatalog(&stubCatalog{listErr: errors.New("boom")}, []string{"a"})
	if _, err := filtered.ListTables(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFilteredCatalogSchemaDefaultsToVisibleTables(t *testing.T) {
	inner := &stubCatalog{tables: []string{"a", "b", "c"}}
	filtered := NewFilteredCatalog(inner, []string{"c", "a"})

	schema, err := filtered.GetSchema(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetSchema error: %v", err)
	}
	if schema != "schema:c,a" {
		t.Fatalf("schema = %q", schema)
	}
}

func TestFilteredCatalogSchemaRejectsHiddenTables(t *testing.T) {
	inner := &stubCatalog{tables: []string{"a", "b"}}
	filtered := NewFilteredCatalog(inner, []string{"a"})

	_, err := filtered.GetSchema(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "{b}") {
		t.Fatalf("expected hidden table error, got %v", err)
	}
	if len(inner.schemaCalls) != 0 {
		t.Fatal("inner catalog should not be asked about hidden tables")
	}
}

func TestFilteredCatalogEmptyIntersection(t *testing.T) {
	filtered := NewFilteredCatalog(&stubCatalog{tables: []string{"a"}}, []string{"z"})
	schema, err := filtered.GetSchema(context.Background(), nil)
	if err != nil || schema != "" {
		t.Fatalf("GetSchema() = %q, %v; want empty", schema, err)
	}
}

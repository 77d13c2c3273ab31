package history

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

var base = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleRecords() []domain.QueryRecord {
	return []domain.QueryRecord{
		{
			ID: "q-1", UserName: "ana", StartTime: base, EndTime: base.Add(2 * time.Second), ElapsedSeconds: 2,
			UserPrompt: "top products. Based on", SQLQuery: "SELECT product FROM sales", Output: "apple", OriginalQuestion: "top products",
		},
		{
			ID: "q-2", UserName: "ana", StartTime: base.Add(time.Minute), EndTime: base.Add(time.Minute + 1500*time.Millisecond), ElapsedSeconds: 1.5,
			UserPrompt: "margin by sku. Based on", SQLQuery: "SELECT sku, margin FROM product_margin", Output: "sku-9", OriginalQuestion: "margin by sku",
		},
	}
}

func exerciseRepository(t *testing.T, repo ports.HistoryRepository) {
	t.Helper()
	ctx := context.Background()
	for _, rec := range sampleRecords() {
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s) error: %v", rec.ID, err)
		}
	}

	all, err := repo.Records(ctx, 0, "")
	if err != nil {
		t.Fatalf("Records error: %v", err)
	}
	want := sampleRecords()
	want[0], want[1] = want[1], want[0]
	if diff := cmp.Diff(want, all); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	limited, err := repo.Records(ctx, 1, "")
	if err != nil || len(limited) != 1 || limited[0].ID != "q-2" {
		t.Fatalf("limit: got %+v, %v", limited, err)
	}

	found, err := repo.Records(ctx, 0, "sales")
	if err != nil || len(found) != 1 || found[0].ID != "q-1" {
		t.Fatalf("search: got %+v, %v", found, err)
	}
}

func TestFileStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	exerciseRepository(t, store)

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	records, err := store.Records(context.Background(), 0, "")
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty store after Clear, got %d records (%v)", len(records), err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store := NewSQLiteStore(path)
	t.Cleanup(func() { _ = store.Close() })
	if store.Location() != path {
		t.Fatalf("Location = %s, want %s", store.Location(), path)
	}
	exerciseRepository(t, store)

	err := store.Save(context.Background(), sampleRecords()[0])
	if err == nil {
		t.Fatal("duplicate query_id should be rejected")
	}
}

type fakeDynamo struct {
	items []map[string]types.AttributeValue
	table string
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.table = aws.ToString(in.TableName)
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return &dynamodb.ScanOutput{Items: f.items}, nil
}

func TestDynamoStore(t *testing.T) {
	fake := &fakeDynamo{}
	store := NewDynamoStore(fake, "tbl_market_basket_analysis")
	exerciseRepository(t, store)

	if fake.table != "tbl_market_basket_analysis" {
		t.Fatalf("table = %s", fake.table)
	}
	var item map[string]string
	if err := attributevalue.UnmarshalMap(fake.items[0], &item); err != nil {
		t.Fatalf("item is not all strings: %v", err)
	}
	want := map[string]string{
		"query_id":               "q-1",
		"user_name":              "ana",
		"start_time":             "2024-06-01T12:00:00.000000Z",
		"end_time":               "2024-06-01T12:00:02.000000Z",
		"elapsed_time":           "2",
		"user_prompt":            "top products. Based on",
		"sql_query":              "SELECT product FROM sales",
		"output":                 "apple",
		"original_user_question": "top products",
	}
	if diff := cmp.Diff(want, item); diff != "" {
		t.Fatalf("item mismatch (-want +got):\n%s", diff)
	}
	if store.Location() != "dynamodb://tbl_market_basket_analysis" {
		t.Fatalf("Location = %s", store.Location())
	}
}

func TestExportJSONL(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "history.jsonl"))
	for _, rec := range sampleRecords() {
		if err := store.Save(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	n, err := ExportJSONL(context.Background(), store, &buf)
	if err != nil || n != 2 {
		t.Fatalf("ExportJSONL = %d, %v", n, err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if first["query_id"] != "q-2" || first["original_user_question"] != "margin by sku" {
		t.Fatalf("unexpected first line: %v", first)
	}
}

func TestElapsedSecondsRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.5, 12.345678} {
		if got := parseSeconds(formatSeconds(v)); got != v {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
	if parseTime("garbage") != (time.Time{}) {
		t.Error("unparseable time should be zero")
	}
}

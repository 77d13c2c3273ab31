package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/sqlchat/internal/domain"
)

type fakeAthena struct {
	tables  []string
	states  []types.QueryExecutionState
	polls   int
	started []*athena.StartQueryExecutionInput
	pages   []*athena.GetQueryResultsOutput
	page    int
}

func (f *fakeAthena) ListTableMetadata(_ context.Context, in *athena.ListTableMetadataInput, _ ...func(*athena.Options)) (*athena.ListTableMetadataOutput, error) {
	out := &athena.ListTableMetadataOutput{}
	for _, name := range f.tables {
		out.TableMetadataList = append(out.TableMetadataList, types.TableMetadata{Name: aws.String(name)})
	}
	return out, nil
}

func (f *fakeAthena) GetTableMetadata(_ context.Context, in *athena.GetTableMetadataInput, _ ...func(*athena.Options)) (*athena.GetTableMetadataOutput, error) {
	return &athena.GetTableMetadataOutput{TableMetadata: &types.TableMetadata{
		Name: in.TableName,
		Columns: []types.Column{
			{Name: aws.String("product"), Type: aws.String("string")},
			{Name: aws.String("qty"), Type: aws.String("int"), Comment: aws.String("units sold")},
		},
		PartitionKeys: []types.Column{{Name: aws.String("dt"), Type: aws.String("date")}},
	}}, nil
}

func (f *fakeAthena) StartQueryExecution(_ context.Context, in *athena.StartQueryExecutionInput, _ ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error) {
	f.started = append(f.started, in)
	return &athena.StartQueryExecutionOutput{QueryExecutionId: aws.String("exec-1")}, nil
}

func (f *fakeAthena) GetQueryExecution(context.Context, *athena.GetQueryExecutionInput, ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error) {
	state := f.states[len(f.states)-1]
	if f.polls < len(f.states) {
		state = f.states[f.polls]
	}
	f.polls++
	return &athena.GetQueryExecutionOutput{QueryExecution: &types.QueryExecution{
		Status: &types.QueryExecutionStatus{State: state, StateChangeReason: aws.String("SYNTAX_ERROR: line 1")},
	}}, nil
}

func (f *fakeAthena) GetQueryResults(context.Context, *athena.GetQueryResultsInput, ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error) {
	out := f.pages[f.page]
	f.page++
	return out, nil
}

func row(values ...*string) types.Row {
	data := make([]types.Datum, len(values))
	for i, v := range values {
		data[i] = types.Datum{VarCharValue: v}
	}
	return types.Row{Data: data}
}

func newAthenaCatalog(fake *fakeAthena) *AthenaCatalog {
	return NewAthenaCatalog(fake, blockingGuard{}, nil, AthenaOptions{
		Database:       "db_market_basket_analysis",
		Workgroup:      "primary",
		OutputLocation: "s3://results/",
		PollInterval:   time.Millisecond,
	})
}

func TestAthenaCatalogListTablesSorted(t *testing.T) {
	catalog := newAthenaCatalog(&fakeAthena{tables: []string{"b", "a"}})
	tables, err := catalog.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables error: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, tables); diff != "" {
		t.Fatalf("tables mismatch (-want +got):\n%s", diff)
	}
}

func TestAthenaCatalogExecuteQueryPollsAndPages(t *testing.T) {
	fake := &fakeAthena{
		states: []types.QueryExecutionState{types.QueryExecutionStateQueued, types.QueryExecutionStateRunning, types.QueryExecutionStateSucceeded},
		pages: []*athena.GetQueryResultsOutput{
			{
				NextToken: aws.String("next"),
				ResultSet: &types.ResultSet{
					ResultSetMetadata: &types.ResultSetMetadata{ColumnInfo: []types.ColumnInfo{{Name: aws.String("product")}, {Name: aws.String("qty")}}},
					Rows:              []types.Row{row(aws.String("product"), aws.String("qty")), row(aws.String("apple"), aws.String("3"))},
				},
			},
			{
				ResultSet: &types.ResultSet{Rows: []types.Row{row(aws.String("pear"), nil)}},
			},
		},
	}
	catalog := newAthenaCatalog(fake)

	result, err := catalog.ExecuteQuery(context.Background(), "SELECT product, qty FROM sales")
	if err != nil {
		t.Fatalf("ExecuteQuery error: %v", err)
	}
	want := domain.QueryResult{
		Columns: []string{"product", "qty"},
		Rows:    [][]string{{"apple", "3"}, {"pear", "NULL"}},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if fake.polls != 3 {
		t.Fatalf("polls = %d, want 3", fake.polls)
	}
	in := fake.started[0]
	if aws.ToString(in.WorkGroup) != "primary" || aws.ToString(in.QueryExecutionContext.Database) != "db_market_basket_analysis" {
		t.Fatalf("unexpected start input: %+v", in)
	}
	if aws.ToString(in.ResultConfiguration.OutputLocation) != "s3://results/" {
		t.Fatal("output location not forwarded")
	}
}

func TestAthenaCatalogReportsFailure(t *testing.T) {
	catalog := newAthenaCatalog(&fakeAthena{states: []types.QueryExecutionState{types.QueryExecutionStateFailed}})
	_, err := catalog.ExecuteQuery(context.Background(), "SELECT nope")
	if err == nil || !strings.Contains(err.Error(), "SYNTAX_ERROR") {
		t.Fatalf("expected failure reason, got %v", err)
	}
}

func TestAthenaCatalogHonoursContext(t *testing.T) {
	catalog := newAthenaCatalog(&fakeAthena{states: []types.QueryExecutionState{types.QueryExecutionStateRunning}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := catalog.ExecuteQuery(ctx, "SELECT 1"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAthenaCatalogSchema(t *testing.T) {
	fake := &fakeAthena{}
	catalog := NewAthenaCatalog(fake, nil, nil, AthenaOptions{Database: "db"})
	schema, err := catalog.GetSchema(context.Background(), []string{"sales"})
	if err != nil {
		t.Fatalf("GetSchema error: %v", err)
	}
	for _, want := range []string{"CREATE EXTERNAL TABLE sales (", "product STRING", "qty INT COMMENT 'units sold'", "dt DATE"} {
		if !strings.Contains(schema, want) {
			t.Fatalf("schema missing %q:\n%s", want, schema)
		}
	}
	if len(fake.started) != 0 {
		t.Fatal("no sample query expected when SampleRows is zero")
	}
}

func TestAthenaCatalogBlocksWrites(t *testing.T) {
	fake := &fakeAthena{}
	catalog := newAthenaCatalog(fake)
	if _, err := catalog.ExecuteQuery(context.Background(), "DROP TABLE sales"); err == nil {
		t.Fatal("expected guardrail error")
	}
	if len(fake.started) != 0 {
		t.Fatal("blocked query must not reach athena")
	}
}

package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// AthenaAPI is the subset of the Athena client the catalog needs.
type AthenaAPI interface {
	ListTableMetadata(ctx context.Context, params *athena.ListTableMetadataInput, optFns ...func(*athena.Options)) (*athena.ListTableMetadataOutput, error)
	GetTableMetadata(ctx context.Context, params *athena.GetTableMetadataInput, optFns ...func(*athena.Options)) (*athena.GetTableMetadataOutput, error)
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// AthenaOptions configures an AthenaCatalog.
type AthenaOptions struct {
	DataCatalog    string
	Database       string
	Workgroup      string
	OutputLocation string
	SampleRows     int
	PollInterval   time.Duration
	MaxRows        int
}

// AthenaCatalog runs queries through Amazon Athena.
type AthenaCatalog struct {
	client AthenaAPI
	guard  ports.SQLGuard
	logger ports.Logger
	opts   AthenaOptions
}

const defaultDataCatalog = "AwsDataCatalog"

// NewAthenaCatalog builds a catalog over client.
func NewAthenaCatalog(client AthenaAPI, guard ports.SQLGuard, logger ports.Logger, opts AthenaOptions) *AthenaCatalog {
	if opts.DataCatalog == "" {
		opts.DataCatalog = defaultDataCatalog
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = domain.DefaultPollInterval
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = defaultMaxRows
	}
	return &AthenaCatalog{client: client, guard: guard, logger: logger, opts: opts}
}

// Dialect implements ports.Catalog.
func (c *AthenaCatalog) Dialect() string {
	return "awsathena"
}

// ListTables implements ports.Catalog.
func (c *AthenaCatalog) ListTables(ctx context.Context) ([]string, error) {
	paginator := athena.NewListTableMetadataPaginator(c.client, &athena.ListTableMetadataInput{
		CatalogName:  aws.String(c.opts.DataCatalog),
		DatabaseName: aws.String(c.opts.Database),
	})
	var tables []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list athena tables: %w", err)
		}
		for _, meta := range page.TableMetadataList {
			tables = append(tables, aws.ToString(meta.Name))
		}
	}
	sort.Strings(tables)
	return tables, nil
}

// GetSchema renders a CREATE TABLE-like description of each table.
func (c *AthenaCatalog) GetSchema(ctx context.Context, tables []string) (string, error) {
	blocks := make([]string, 0, len(tables))
	for _, table := range tables {
		out, err := c.client.GetTableMetadata(ctx, &athena.GetTableMetadataInput{
			CatalogName:  aws.String(c.opts.DataCatalog),
			DatabaseName: aws.String(c.opts.Database),
			TableName:    aws.String(table),
		})
		if err != nil {
			return "", fmt.Errorf("describe %s: %w", table, err)
		}
		block := describeTable(table, out.TableMetadata)
		if c.opts.SampleRows > 0 {
			sample, err := c.run(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), c.opts.SampleRows))
			if err != nil {
				return "", fmt.Errorf("sample %s: %w", table, err)
			}
			block += sampleBlock(table, sample)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

func describeTable(name string, meta *types.TableMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE EXTERNAL TABLE %s (", name)
	if meta != nil {
		columns := append(append([]types.Column(nil), meta.Columns...), meta.PartitionKeys...)
		for i, col := range columns {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "\n\t%s %s", aws.ToString(col.Name), strings.ToUpper(aws.ToString(col.Type)))
			if comment := aws.ToString(col.Comment); comment != "" {
				fmt.Fprintf(&b, " COMMENT '%s'", comment)
			}
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// ValidateQuery only applies the guardrail; Athena has no dry-run mode.
func (c *AthenaCatalog) ValidateQuery(_ context.Context, query string) error {
	return checkGuard(c.guard, query)
}

// ExecuteQuery implements ports.Catalog.
func (c *AthenaCatalog) ExecuteQuery(ctx context.Context, query string) (domain.QueryResult, error) {
	if err := checkGuard(c.guard, query); err != nil {
		return domain.QueryResult{}, err
	}
	return c.run(ctx, query)
}

func (c *AthenaCatalog) run(ctx context.Context, query string) (domain.QueryResult, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		QueryExecutionContext: &types.QueryExecutionContext{
			Catalog:  aws.String(c.opts.DataCatalog),
			Database: aws.String(c.opts.Database),
		},
	}
	if c.opts.Workgroup != "" {
		input.WorkGroup = aws.String(c.opts.Workgroup)
	}
	if c.opts.OutputLocation != "" {
		input.ResultConfiguration = &types.ResultConfiguration{OutputLocation: aws.String(c.opts.OutputLocation)}
	}
	started, err := c.client.StartQueryExecution(ctx, input)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("start athena query: %w", err)
	}
	id := aws.ToString(started.QueryExecutionId)
	if err := c.wait(ctx, id); err != nil {
		return domain.QueryResult{}, err
	}
	return c.results(ctx, id)
}

func (c *AthenaCatalog) wait(ctx context.Context, id string) error {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		out, err := c.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{QueryExecutionId: aws.String(id)})
		if err != nil {
			return fmt.Errorf("poll athena query %s: %w", id, err)
		}
		var status *types.QueryExecutionStatus
		if out.QueryExecution != nil {
			status = out.QueryExecution.Status
		}
		if status != nil {
			switch status.State {
			case types.QueryExecutionStateSucceeded:
				return nil
			case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
				return fmt.Errorf("athena query %s %s: %s", id, strings.ToLower(string(status.State)), aws.ToString(status.StateChangeReason))
			}
		}
		if c.logger != nil {
			c.logger.Debug("athena query pending", map[string]interface{}{"query_id": id})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *AthenaCatalog) results(ctx context.Context, id string) (domain.QueryResult, error) {
	paginator := athena.NewGetQueryResultsPaginator(c.client, &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(id),
	})
	var result domain.QueryResult
	header := true
	for paginator.HasMorePages() && len(result.Rows) < c.opts.MaxRows {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return domain.QueryResult{}, fmt.Errorf("fetch athena results %s: %w", id, err)
		}
		if page.ResultSet == nil {
			break
		}
		if result.Columns == nil && page.ResultSet.ResultSetMetadata != nil {
			for _, info := range page.ResultSet.ResultSetMetadata.ColumnInfo {
				result.Columns = append(result.Columns, aws.ToString(info.Name))
			}
		}
		for _, row := range page.ResultSet.Rows {
			// First row of the first page repeats the column names.
			if header {
				header = false
				continue
			}
			if len(result.Rows) >= c.opts.MaxRows {
				break
			}
			cells := make([]string, len(row.Data))
			for i, datum := range row.Data {
				if datum.VarCharValue == nil {
					cells[i] = "NULL"
					continue
				}
				cells[i] = *datum.VarCharValue
			}
			result.Rows = append(result.Rows, cells)
		}
	}
	return result, nil
}

var _ ports.Catalog = (*AthenaCatalog)(nil)

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/infrastructure/catalog"
	"github.com/doeshing/sqlchat/internal/ports"
)

const checkerTemplate = `%s
Double check the %s query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

// Toolkit builds the four catalog tools handed to the agent.
func Toolkit(cat ports.Catalog, llm llms.Model, rowLimit int, opts ...llms.CallOption) []tools.Tool {
	return []tools.Tool{
		listTablesTool{catalog: cat},
		schemaTool{catalog: cat},
		queryCheckerTool{catalog: cat, llm: llm, opts: opts},
		queryTool{catalog: cat, rowLimit: rowLimit},
	}
}

type listTablesTool struct {
	catalog ports.Catalog
}

func (listTablesTool) Name() string { return domain.ListTablesToolName }

func (listTablesTool) Description() string {
	return "Input is an empty string, output is a comma-separated list of tables in the database."
}

func (t listTablesTool) Call(ctx context.Context, _ string) (string, error) {
	tables, err := t.catalog.ListTables(ctx)
	if err != nil {
		return observeError(err), nil
	}
	return strings.Join(tables, ", "), nil
}

type schemaTool struct {
	catalog ports.Catalog
}

func (schemaTool) Name() string { return domain.SchemaToolName }

func (schemaTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
		"Be sure that the tables actually exist by calling " + domain.ListTablesToolName + " first! " +
		"Example Input: table1, table2, table3"
}

func (t schemaTool) Call(ctx context.Context, input string) (string, error) {
	schema, err := t.catalog.GetSchema(ctx, splitTables(input))
	if err != nil {
		return observeError(err), nil
	}
	return schema, nil
}

type queryCheckerTool struct {
	catalog ports.Catalog
	llm     llms.Model
	opts    []llms.CallOption
}

func (queryCheckerTool) Name() string { return domain.QueryCheckerToolName }

func (queryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with " + domain.QueryToolName + "!"
}

func (t queryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	query := CleanQuery(input)
	if err := t.catalog.ValidateQuery(ctx, query); err != nil {
		return observeError(err), nil
	}
	if t.llm == nil {
		return query, nil
	}
	prompt := fmt.Sprintf(checkerTemplate, query, t.catalog.Dialect())
	checked, err := llms.GenerateFromSinglePrompt(ctx, t.llm, prompt, t.opts...)
	if err != nil {
		return "", fmt.Errorf("check query: %w", err)
	}
	return CleanQuery(checked), nil
}

type queryTool struct {
	catalog  ports.Catalog
	rowLimit int
}

func (queryTool) Name() string { return domain.QueryToolName }

func (queryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again."
}

func (t queryTool) Call(ctx context.Context, input string) (string, error) {
	result, err := t.catalog.ExecuteQuery(ctx, CleanQuery(input))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return observeError(err), nil
	}
	return catalog.FormatRows(result, t.rowLimit), nil
}

// observeError turns a failure into an observation the model can react to.
func observeError(err error) string {
	return "Error: " + err.Error()
}

// CleanQuery strips markdown fences and wrapping quotes models like to add.
func CleanQuery(input string) string {
	q := strings.TrimSpace(input)
	q = strings.TrimPrefix(q, "```sql")
	q = strings.TrimPrefix(q, "```")
	q = strings.TrimSuffix(q, "```")
	q = strings.TrimSpace(q)
	if len(q) >= 2 {
		first, last := q[0], q[len(q)-1]
		if (first == '"' || first == '`') && first == last {
			q = strings.TrimSpace(q[1 : len(q)-1])
		}
	}
	return q
}

func splitTables(input string) []string {
	var tables []string
	for _, part := range strings.Split(input, ",") {
		name := strings.Trim(strings.TrimSpace(part), "\"`'")
		if name != "" {
			tables = append(tables, name)
		}
	}
	return tables
}

package history

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/ports"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoItem is the table layout. Times are ISO strings and the elapsed time
// is a decimal string of seconds.
type dynamoItem struct {
	QueryID          string `dynamodbav:"query_id"`
	UserName         string `dynamodbav:"user_name"`
	StartTime        string `dynamodbav:"start_time"`
	EndTime          string `dynamodbav:"end_time"`
	ElapsedTime      string `dynamodbav:"elapsed_time"`
	UserPrompt       string `dynamodbav:"user_prompt"`
	SQLQuery         string `dynamodbav:"sql_query"`
	Output           string `dynamodbav:"output"`
	OriginalQuestion string `dynamodbav:"original_user_question"`
}

func toItem(rec domain.QueryRecord) dynamoItem {
	return dynamoItem{
		QueryID:          rec.ID,
		UserName:         rec.UserName,
		StartTime:        formatTime(rec.StartTime),
		EndTime:          formatTime(rec.EndTime),
		ElapsedTime:      formatSeconds(rec.ElapsedSeconds),
		UserPrompt:       rec.UserPrompt,
		SQLQuery:         rec.SQLQuery,
		Output:           rec.Output,
		OriginalQuestion: rec.OriginalQuestion,
	}
}

func (i dynamoItem) record() domain.QueryRecord {
	return domain.QueryRecord{
		ID:               i.QueryID,
		UserName:         i.UserName,
		StartTime:        parseTime(i.StartTime),
		EndTime:          parseTime(i.EndTime),
		ElapsedSeconds:   parseSeconds(i.ElapsedTime),
		UserPrompt:       i.UserPrompt,
		SQLQuery:         i.SQLQuery,
		Output:           i.Output,
		OriginalQuestion: i.OriginalQuestion,
	}
}

// DynamoStore writes records to a DynamoDB table keyed by query_id.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore returns a store writing to table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Save implements ports.RecordSink.
func (s *DynamoStore) Save(ctx context.Context, record domain.QueryRecord) error {
	item, err := attributevalue.MarshalMap(toItem(record))
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.ID, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put record %s: %w", record.ID, err)
	}
	return nil
}

// Records scans the table and returns entries newest first.
func (s *DynamoStore) Records(ctx context.Context, limit int, search string) ([]domain.QueryRecord, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{TableName: aws.String(s.table)})
	var records []domain.QueryRecord
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		var items []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal records: %w", err)
		}
		for _, item := range items {
			records = append(records, item.record())
		}
	}
	return newestFirst(records, limit, search), nil
}

// Location names the table.
func (s *DynamoStore) Location() string {
	return "dynamodb://" + s.table
}

var _ ports.HistoryRepository = (*DynamoStore)(nil)

package domain

import "time"

// QueryRecord is the audit entry written once per answered question.
type QueryRecord struct {
	ID               string    `json:"query_id"`
	UserName         string    `json:"user_name"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	ElapsedSeconds   float64   `json:"elapsed_time"`
	UserPrompt       string    `json:"user_prompt"`
	SQLQuery         string    `json:"sql_query"`
	Output           string    `json:"output"`
	OriginalQuestion string    `json:"original_user_question"`
}

// QueryResult is a tabular result set returned by a catalog.
type QueryResult struct {
	Columns []string
	Rows    [][]string
}

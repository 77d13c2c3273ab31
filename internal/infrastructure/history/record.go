// Package history stores one audit record per answered question.
package history

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/doeshing/sqlchat/internal/domain"
)

// isoLayout is fixed width so stored timestamps sort lexically.
const isoLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{isoLayout, time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return v
}

// matches reports whether rec contains search in any of its text fields.
func matches(rec domain.QueryRecord, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range []string{rec.OriginalQuestion, rec.UserPrompt, rec.SQLQuery, rec.Output, rec.UserName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// newestFirst filters, orders and truncates records in place.
func newestFirst(records []domain.QueryRecord, limit int, search string) []domain.QueryRecord {
	out := records[:0]
	for _, rec := range records {
		if matches(rec, search) {
			out = append(out, rec)
		}
	}
	sortByStart(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortByStart(records []domain.QueryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
}

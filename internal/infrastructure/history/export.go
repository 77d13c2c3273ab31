package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/doeshing/sqlchat/internal/ports"
)

// ExportJSONL writes every record in repo to w, one JSON object per line.
func ExportJSONL(ctx context.Context, repo ports.HistoryRepository, w io.Writer) (int, error) {
	records, err := repo.Records(ctx, 0, "")
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return i, fmt.Errorf("write record %s: %w", rec.ID, err)
		}
	}
	return len(records), nil
}

// Package history implements export of the append-only triggered-alert
// history for backup and offline analysis.
package history

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"

	"precipwatch/internal/types"
)

// ExportGzipJSON writes the given history rows as a gzip-compressed JSON
// array. Rows are emitted exactly as stored — history is immutable, so an
// export is a faithful snapshot.
func ExportGzipJSON(w io.Writer, rows []types.AlertHistory) error {
	gz := gzip.NewWriter(w)

	enc := json.NewEncoder(gz)
	if err := enc.Encode(rows); err != nil {
		gz.Close()
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode history export", err)
	}

	if err := gz.Close(); err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to finalize history export", err)
	}
	return nil
}

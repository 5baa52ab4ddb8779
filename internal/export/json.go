package export

import (
	"encoding/json"
	"fmt"
	"io"

	"financas/internal/ledger"
)

// WriteSnapshotJSON writes the full snapshot as an indented JSON file in
// its versioned persisted form, so an exported file can be re-imported.
func WriteSnapshotJSON(w io.Writer, snap ledger.Snapshot) error {
	raw, err := ledger.EncodePersisted(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	var pretty json.RawMessage = raw
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"docket/pkg/models"
)

// Key derives the deterministic dedup key for a change event. Two deliveries
// of the same logical event (same table, operation and record id) always map
// to the same key; the record body does not participate, so a retried
// delivery with drifted payload still counts as the same event.
func Key(event models.ChangeEvent) string {
	var builder strings.Builder
	builder.WriteString(event.Table)
	builder.WriteString("|")
	builder.WriteString(string(event.Operation))
	builder.WriteString("|")
	builder.WriteString(event.RecordID())

	sum := sha256.Sum256([]byte(builder.String()))
	return hex.EncodeToString(sum[:])
}

// Package models holds the shared domain types of the dispatch pipeline:
// inbound change events, notification payloads and rows, and per-user
// notification preferences.
package models

import "time"

// Operation is the database operation that produced a change event.
type Operation string

const (
	OperationInsert Operation = "INSERT"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// ChangeEvent describes an insert, update or delete on a business record,
// as emitted by the data layer's change-capture trigger. Record holds the
// row after the change; OldRecord holds the prior row for updates and is
// nil for inserts.
type ChangeEvent struct {
	EventID   string                 `json:"eventId,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
	Table     string                 `json:"table"`
	Operation Operation              `json:"eventType"`
	Record    map[string]interface{} `json:"record"`
	OldRecord map[string]interface{} `json:"oldRecord,omitempty"`
}

// RecordID returns the primary key of the changed row, or "" when absent.
func (e ChangeEvent) RecordID() string {
	return StringField(e.Record, "id")
}

// StringField reads a string-typed field from a record map. Non-string
// values and missing keys yield "".
func StringField(record map[string]interface{}, field string) string {
	if record == nil {
		return ""
	}
	if val, ok := record[field].(string); ok {
		return val
	}
	return ""
}

// StringSliceField reads a string-array field from a record map. JSON
// decoding produces []interface{}, so both representations are accepted.
func StringSliceField(record map[string]interface{}, field string) []string {
	if record == nil {
		return nil
	}
	switch val := record[field].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

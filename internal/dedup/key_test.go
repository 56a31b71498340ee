package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docket/pkg/models"
)

func TestKeyDeterministic(t *testing.T) {
	event := models.ChangeEvent{
		Table:     "tasks",
		Operation: models.OperationInsert,
		Record:    map[string]interface{}{"id": "t1", "title": "File motion"},
	}

	assert.Equal(t, Key(event), Key(event))
	assert.Len(t, Key(event), 64)
}

func TestKeyIgnoresRecordBody(t *testing.T) {
	first := models.ChangeEvent{
		Table:     "tasks",
		Operation: models.OperationInsert,
		Record:    map[string]interface{}{"id": "t1", "title": "File motion"},
	}
	second := models.ChangeEvent{
		Table:     "tasks",
		Operation: models.OperationInsert,
		Record:    map[string]interface{}{"id": "t1", "title": "Amended title"},
	}

	assert.Equal(t, Key(first), Key(second))
}

func TestKeyVariesByComponents(t *testing.T) {
	base := models.ChangeEvent{
		Table:     "tasks",
		Operation: models.OperationInsert,
		Record:    map[string]interface{}{"id": "t1"},
	}

	otherTable := base
	otherTable.Table = "cases"
	assert.NotEqual(t, Key(base), Key(otherTable))

	otherOp := base
	otherOp.Operation = models.OperationUpdate
	assert.NotEqual(t, Key(base), Key(otherOp))

	otherRecord := base
	otherRecord.Record = map[string]interface{}{"id": "t2"}
	assert.NotEqual(t, Key(base), Key(otherRecord))
}

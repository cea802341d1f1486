package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
)

type testDocument struct {
	entity.Document
	WarehouseID id.ID             `db:"warehouse_id"`
	Lines       []entity.LineItem `db:"-"`
	scratch     string
}

func TestExtractDBColumns_EmbeddedDocument(t *testing.T) {
	cols := ExtractDBColumns[*testDocument]()

	for _, expected := range []string{
		"id", "version", "created_at", "updated_at", "created_by", "updated_by",
		"number", "status", "applied_at", "note", "warehouse_id",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, 11)
}

func TestStructToMap_Document(t *testing.T) {
	applied := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	doc := &testDocument{
		Document:    entity.NewDocument(),
		WarehouseID: id.New(),
		Lines:       []entity.LineItem{{ProductID: id.New(), Quantity: 3}},
		scratch:     "ignored",
	}
	doc.Number = "RCP-2026-00001"
	doc.AppliedAt = &applied

	m := StructToMap(doc)

	assert.Equal(t, doc.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "RCP-2026-00001", m["number"])
	assert.Equal(t, entity.StatusEditable, m["status"])
	assert.Equal(t, &applied, m["applied_at"])
	assert.Equal(t, doc.WarehouseID, m["warehouse_id"])
	assert.NotContains(t, m, "lines")
	assert.Len(t, m, 11)
}

func TestStructToMap_MovementEntry(t *testing.T) {
	e := entity.MovementEntry{
		ID: id.New(), MovementType: entity.MovementDelivery,
		Change: -5, PreviousStock: 30, NewStock: 25, ReferenceID: "DO-2026-00001",
	}

	m := StructToMap(e)
	cols := ExtractDBColumns[entity.MovementEntry]()

	assert.Len(t, m, len(cols))
	assert.Equal(t, int64(-5), m["change"])
	assert.Equal(t, entity.MovementDelivery, m["movement_type"])
	assert.Nil(t, StructToMap(42))
}

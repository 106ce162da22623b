package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
)

type testCatalog struct {
	entity.Catalog
	Name  string  `db:"name" json:"name"`
	Email *string `db:"email" json:"email"`
	Note  string  `json:"note"`
	Skip  string  `db:"-"`
}

func TestExtractDBColumns_WalksEmbeddedStructs(t *testing.T) {
	cols := ExtractDBColumns[testCatalog]()

	for _, expected := range []string{
		"id", "garage_id", "version", "created_at", "updated_at",
		"created_by", "updated_by", "deletion_mark", "name", "email",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "note")
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumns_PointerType(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[testCatalog](), ExtractDBColumns[*testCatalog]())
}

func TestStructToMap(t *testing.T) {
	email := "a@b.fr"
	garageID := id.New()
	cat := &testCatalog{Catalog: entity.NewCatalog(), Name: "Dupont", Email: &email}
	cat.GarageID = garageID
	cat.DeletionMark = true
	cat.Version = 5

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, garageID, m["garage_id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "Dupont", m["name"])
	assert.Equal(t, &email, m["email"])
	assert.NotContains(t, m, "note")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	var nilPtr *testCatalog
	assert.Nil(t, StructToMap(nilPtr))
}

func TestFilterColumns(t *testing.T) {
	data := map[string]any{"id": 1, "name": "x", "version": 2, "extra": true}

	got := FilterColumns(data, []string{"id", "name", "version", "missing"}, "id", "version")

	require.Len(t, got, 1)
	assert.Equal(t, "x", got["name"])
}

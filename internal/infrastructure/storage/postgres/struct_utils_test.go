package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"uniworld/internal/core/entity"
	"uniworld/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

type mockDocument struct {
	entity.Document
	Total  string `db:"total"`
	Hidden string `db:"-"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "code", "name"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestExtractDBColumns_SkipsIgnoredTags(t *testing.T) {
	cols := ExtractDBColumns[mockDocument]()

	assert.Contains(t, cols, "number")
	assert.Contains(t, cols, "date")
	assert.Contains(t, cols, "created_at")
	assert.Contains(t, cols, "total")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Hidden")
}

func TestStructToMap(t *testing.T) {
	c := mockCatalog{
		BaseCatalog: entity.NewBaseCatalog(),
		Code:        "WID-1",
		Name:        "Widget",
	}

	m := StructToMap(&c)

	assert.Equal(t, "WID-1", m["code"])
	assert.Equal(t, "Widget", m["name"])
	assert.Equal(t, c.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, false, m["deletion_mark"])
}

func TestStructToMap_PointerAndNonStruct(t *testing.T) {
	var nilMap = StructToMap(42)
	assert.Nil(t, nilMap)

	c := &mockCatalog{BaseCatalog: entity.BaseCatalog{BaseEntity: entity.BaseEntity{ID: id.New(), Version: 3}}}
	m := StructToMap(c)
	assert.Equal(t, 3, m["version"])
}

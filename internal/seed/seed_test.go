package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

const countriesYAML = `
name: Страны
fields:
  - name: Название
    type: STRING
  - name: Население
    type: NUMBER
records:
  - values:
      Название: Россия
      Население: 146
  - values:
      Название: Казахстан
      Население: 20
`

func writeSeed(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAndApply(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "countries.yaml", countriesYAML)
	writeSeed(t, dir, "notes.txt", "ignored")

	catalogs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, "Страны", catalogs[0].Name)

	st := storage.NewMemory()
	ctx := context.Background()
	require.NoError(t, Apply(ctx, st, catalogs))

	list, err := st.ListDirectories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].FieldCount)
	assert.Equal(t, int64(2), list[0].RecordCount)

	// повторный Apply в непустое хранилище — no-op
	require.NoError(t, Apply(ctx, st, catalogs))
	list, _ = st.ListDirectories(ctx)
	assert.Len(t, list, 1)
}

func TestNameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	writeSeed(t, dir, "cities.yml", "fields:\n  - name: Название\n    type: STRING\n")

	catalogs, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, catalogs, 1)
	assert.Equal(t, "cities", catalogs[0].Name)
}

func TestReferenceFieldsRejected(t *testing.T) {
	catalogs := []Catalog{{
		Name:   "X",
		Fields: []seedField{{Name: "Ссылка", Type: string(model.FieldReference)}},
	}}
	err := Apply(context.Background(), storage.NewMemory(), catalogs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported in seeds")
}

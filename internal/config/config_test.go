package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := loadWithArgs("no-such-config.json", nil)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DBURL)
	assert.Empty(t, cfg.SeedDir)
}

func TestJSONThenEnvThenFlags(t *testing.T) {
	path := writeConfig(t, `{"port":"9000","dbUrl":"postgres://json","seedDir":"seeds"}`)

	cfg := loadWithArgs(path, nil)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "postgres://json", cfg.DBURL)

	// ENV бьёт JSON
	t.Setenv("UDC_PORT", "9001")
	cfg = loadWithArgs(path, nil)
	assert.Equal(t, "9001", cfg.Port)
	assert.Equal(t, "seeds", cfg.SeedDir)

	// флаг бьёт ENV, незаданные флаги ничего не трогают
	cfg = loadWithArgs(path, []string{"-port", "9002"})
	assert.Equal(t, "9002", cfg.Port)
	assert.Equal(t, "postgres://json", cfg.DBURL)
}

// -config с другим путём не должен ни паниковать, ни терять остальные
// флаги: парсинг выполняется ровно один раз.
func TestCustomConfigFlag(t *testing.T) {
	def := writeConfig(t, `{"port":"1111"}`)
	other := filepath.Join(t.TempDir(), "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"port":"2222","seedDir":"cat"}`), 0o644))

	cfg := loadWithArgs(def, []string{"-config", other})
	assert.Equal(t, "2222", cfg.Port)
	assert.Equal(t, "cat", cfg.SeedDir)

	// -config и обычный флаг вместе
	cfg = loadWithArgs(def, []string{"-config", other, "-port", "3333"})
	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, "cat", cfg.SeedDir)

	// повторный вызов с теми же аргументами — тоже без паники
	cfg = loadWithArgs(def, []string{"-config", other})
	assert.Equal(t, "2222", cfg.Port)
}

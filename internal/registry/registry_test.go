package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSchema = `{"tables":[{"name":"t","columns":[{"name":"c"}]}]}`
const sampleCatalog = `{"tables":[]}`

func writeTempFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schema.json")
	catalogPath := filepath.Join(dir, "kb.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(sampleSchema), 0o644))
	require.NoError(t, os.WriteFile(catalogPath, []byte(sampleCatalog), 0o644))
	return schemaPath, catalogPath
}

func TestNewLoadsInitialSnapshot(t *testing.T) {
	schemaPath, catalogPath := writeTempFiles(t)
	r, err := New(schemaPath, catalogPath)
	require.NoError(t, err)
	assert.True(t, r.Schema().HasTable("t"))
}

func TestReloadIfChangedPicksUpNewSchema(t *testing.T) {
	schemaPath, catalogPath := writeTempFiles(t)
	r, err := New(schemaPath, catalogPath)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	updated := `{"tables":[{"name":"t"},{"name":"u"}]}`
	require.NoError(t, os.WriteFile(schemaPath, []byte(updated), 0o644))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(schemaPath, future, future))

	r.reloadIfChanged()
	assert.True(t, r.Schema().HasTable("u"))
}

func TestStopIsIdempotent(t *testing.T) {
	schemaPath, catalogPath := writeTempFiles(t)
	r, err := New(schemaPath, catalogPath)
	require.NoError(t, err)
	r.StartReload(time.Hour)
	r.Stop()
	r.Stop()
}

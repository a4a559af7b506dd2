package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nik.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"nik": "6171012345678901", "full_name": "Budi Santoso", "citizenship": "WNI"},
		{"nik": "123", "full_name": "Broken"}
	]`), 0o600))

	records, err := readRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "6171012345678901", records[0].NIK)
	assert.Equal(t, "Budi Santoso", records[0].FullName)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = readRecords(path)
	assert.Error(t, err)

	_, err = readRecords(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"role", "set"}, {"nik", "import"}, {"outbox", "dispatch"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[1], cmd.Name())
	}

	set, _, err := root.Find([]string{"role", "set"})
	require.NoError(t, err)
	assert.NotNil(t, set.Flags().Lookup("email"))
	assert.NotNil(t, set.Flags().Lookup("role"))
}

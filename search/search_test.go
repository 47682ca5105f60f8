package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRTIAndPD0(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ens"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "b.ens"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.pd0"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "d.txt"), []byte("x"), 0o644))

	ens := FindRTI(dir)
	assert.Len(t, ens, 2)

	pd0 := FindPD0(dir)
	assert.Len(t, pd0, 1)
}

func TestFindRTINoMatches(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, FindRTI(dir))
}

package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, nil).WithIgnoreFile(".dtedignore")
	require.NoError(t, ix.Organize(context.Background()))

	snapPath := filepath.Join(t.TempDir(), "cache", "index.msgpack.zst")
	require.NoError(t, ix.Save(snapPath))

	loaded, err := LoadIndex(snapPath, StandardTranslator{})
	require.NoError(t, err)
	assert.True(t, loaded.Built())
	assert.Equal(t, root, loaded.Root())
	assert.Equal(t, ix.Count(), loaded.Count())
	assert.Equal(t, ix.Cells(1), loaded.Cells(1))
	assert.Equal(t, ix.Cells(2), loaded.Cells(2))

	want, _ := ix.Get(37.5, -122.4, 1)
	got, ok := loaded.Get(37.5, -122.4, 1)
	require.True(t, ok)
	assert.Equal(t, want, got)

	cell, _, ok := loaded.Nearest(40, -120, 1)
	require.True(t, ok)
	assert.Equal(t, 38, cell.Lat)
}

func TestSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	unbuilt := NewIndex(dir, nil)
	assert.ErrorIs(t, unbuilt.Save(filepath.Join(dir, "snap")), common.ErrIndexNotBuilt)

	_, err := LoadIndex(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.zst")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not zstd"), 0o644))
	_, err = LoadIndex(garbage, nil)
	assert.ErrorIs(t, err, common.ErrBadSnapshot)

	flat := NewIndex(dir, FlatTranslator{})
	require.NoError(t, flat.Organize(context.Background()))
	snapPath := filepath.Join(dir, "flat.zst")
	require.NoError(t, flat.Save(snapPath))
	_, err = LoadIndex(snapPath, StandardTranslator{})
	assert.ErrorIs(t, err, common.ErrBadSnapshot)

	_, err = LoadIndex(snapPath, FlatTranslator{})
	assert.NoError(t, err)
}

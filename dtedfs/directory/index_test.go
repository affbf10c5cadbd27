package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame/frametest"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree lays out a small standard-convention tree with some noise.
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	fx := frametest.Default()
	require.NoError(t, frametest.WriteFile(filepath.Join(root, "w123", "n37.dt1"), fx))

	north := frametest.Default()
	north.LatOrigin = 38
	require.NoError(t, frametest.WriteFile(filepath.Join(root, "w123", "n38.dt1"), north))

	south := frametest.Default()
	south.LatOrigin, south.LonOrigin = -1, 6
	require.NoError(t, frametest.WriteFile(filepath.Join(root, "e006", "s01.dt2.zst"), south))

	require.NoError(t, frametest.WriteFile(filepath.Join(root, "ignored", "w010", "n10.dt1"), fx))

	writeFile(t, filepath.Join(root, "w123", "readme.txt"), "notes")
	writeFile(t, filepath.Join(root, "scratch", "n10.dt1"), "not a frame")
	writeFile(t, filepath.Join(root, "w123", "n39.dt1.bak"), "backup")
	writeFile(t, filepath.Join(root, ".dtedignore"), "ignored/\n*.bak\n")
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanner_HonoursIgnoreFile(t *testing.T) {
	root := buildTree(t)
	s := Scanner{Workers: 2, IgnoreFile: ".dtedignore"}

	files, stats, err := s.Scan(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "e006", "s01.dt2.zst"),
		filepath.Join(root, "scratch", "n10.dt1"),
		filepath.Join(root, "w123", "n37.dt1"),
		filepath.Join(root, "w123", "n38.dt1"),
		filepath.Join(root, "w123", "readme.txt"),
	}, files)
	assert.Equal(t, int64(5), stats.FilesFound)
	assert.Equal(t, int64(2), stats.Ignored)
	assert.Equal(t, int64(4), stats.DirsProcessed)
}

func TestScanner_WithoutIgnoreFile(t *testing.T) {
	root := buildTree(t)
	files, _, err := (&Scanner{}).Scan(context.Background(), root)
	require.NoError(t, err)
	assert.Contains(t, files, filepath.Join(root, "ignored", "w010", "n10.dt1"))
	assert.Contains(t, files, filepath.Join(root, ".dtedignore"))
}

func TestScanner_Errors(t *testing.T) {
	_, _, err := (&Scanner{}).Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	root := buildTree(t)
	_, _, err = (&Scanner{}).Scan(context.Background(), filepath.Join(root, "w123", "n37.dt1"))
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = (&Scanner{}).Scan(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIndex_GetBuildsLazily(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, nil).WithIgnoreFile(".dtedignore").WithWorkers(2)
	require.False(t, ix.Built())

	path, ok := ix.Get(37.5, -122.4, 1)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "w123", "n37.dt1"), path)
	assert.True(t, ix.Built())
	assert.Equal(t, 3, ix.Count())

	path, ok = ix.Get(-0.5, 6.9, 2)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "e006", "s01.dt2.zst"), path)

	_, ok = ix.Get(10.5, -9.5, 1)
	assert.False(t, ok, "ignored directory must not be indexed")
	_, ok = ix.Get(37.5, -122.4, 2)
	assert.False(t, ok)
	_, ok = ix.Get(95, 0, 1)
	assert.False(t, ok)
	_, ok = ix.Get(37.5, -122.4, 7)
	assert.False(t, ok)

	stats := ix.Stats()
	assert.Equal(t, int64(2), stats["successful_ops"])
	assert.Equal(t, int64(4), stats["failed_ops"])
	assert.Equal(t, 3, stats["frames"])
	assert.Equal(t, int64(1), stats["scans"])
}

func TestIndex_ConcurrentFirstMissScansOnce(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, nil).WithIgnoreFile(".dtedignore")

	var wg conc.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Go(func() {
			path, ok := ix.Get(37.5, -122.4, 1)
			assert.True(t, ok)
			assert.Equal(t, filepath.Join(root, "w123", "n37.dt1"), path)
		})
	}
	wg.Wait()

	assert.Equal(t, int64(1), ix.Stats()["scans"])
}

func TestIndex_GetMissingRoot(t *testing.T) {
	ix := NewIndex(filepath.Join(t.TempDir(), "missing"), nil)
	_, ok := ix.Get(37.5, -122.4, 1)
	assert.False(t, ok)
	assert.False(t, ix.Built())
	assert.Error(t, ix.Organize(context.Background()))
}

func TestIndex_CoverageAndPaths(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, StandardTranslator{}).WithIgnoreFile(".dtedignore")
	require.NoError(t, ix.Organize(context.Background()))

	assert.Equal(t, []Cell{
		{Level: 1, Lat: 37, Lon: -123},
		{Level: 1, Lat: 38, Lon: -123},
	}, ix.Cells(1))
	assert.Empty(t, ix.Cells(0))
	assert.Equal(t, uint64(1), ix.Coverage(2).GetCardinality())
	assert.True(t, ix.Coverage(1).Contains(coverageKey(Cell{Level: 1, Lat: 37, Lon: -123})))
	assert.Equal(t, uint64(0), ix.Coverage(9).GetCardinality())

	// the returned bitmap is a copy
	ix.Coverage(1).Clear()
	assert.Len(t, ix.Cells(1), 2)

	cell, ok := ix.CellForPath(filepath.Join(root, "w123", "n38.dt1"))
	require.True(t, ok)
	assert.Equal(t, Cell{Level: 1, Lat: 38, Lon: -123}, cell)
	_, ok = ix.CellForPath(filepath.Join(root, "w123", "readme.txt"))
	assert.False(t, ok)

	assert.Equal(t, []string{
		filepath.Join(root, "w123", "n37.dt1"),
		filepath.Join(root, "w123", "n38.dt1"),
	}, ix.Under(filepath.Join(root, "w123")))
	assert.Empty(t, ix.Under(filepath.Join(root, "e100")))
}

func TestIndex_Nearest(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, nil).WithIgnoreFile(".dtedignore")
	require.NoError(t, ix.Organize(context.Background()))

	cell, path, ok := ix.Nearest(40, -120, 1)
	require.True(t, ok)
	assert.Equal(t, Cell{Level: 1, Lat: 38, Lon: -123}, cell)
	assert.Equal(t, filepath.Join(root, "w123", "n38.dt1"), path)

	cell, _, ok = ix.Nearest(30, -122.5, 1)
	require.True(t, ok)
	assert.Equal(t, 37, cell.Lat)

	cell, _, ok = ix.Nearest(50, 50, 2)
	require.True(t, ok)
	assert.Equal(t, Cell{Level: 2, Lat: -1, Lon: 6}, cell)

	_, _, ok = ix.Nearest(40, -120, 0)
	assert.False(t, ok)
	_, _, ok = ix.Nearest(40, -120, 5)
	assert.False(t, ok)
}

func TestIndex_DuplicateCellKeepsFirst(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "n37w123.dt1"), "x")
	writeFile(t, filepath.Join(root, "b", "n37w123.dt1"), "y")

	ix := NewIndex(root, FlatTranslator{})
	require.NoError(t, ix.Organize(context.Background()))

	path, ok := ix.Get(37.5, -122.4, 1)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", "n37w123.dt1"), path)
	assert.Equal(t, 1, ix.Count())
}

func TestIndex_Open(t *testing.T) {
	root := buildTree(t)
	ix := NewIndex(root, nil).WithIgnoreFile(".dtedignore")

	f, err := ix.Open(37.05, -122.95, 1, frame.Options{})
	require.NoError(t, err)
	defer f.Dispose()
	assert.Equal(t, int16(550), f.ElevationAt(37.05, -122.95))

	z, err := ix.Open(-0.95, 6.05, 2, frame.Options{})
	require.NoError(t, err)
	defer z.Dispose()
	assert.Equal(t, int16(550), z.ElevationAt(-0.95, 6.05))

	_, err = ix.Open(10.5, 10.5, 1, frame.Options{})
	assert.ErrorIs(t, err, common.ErrNoFrame)
}

func TestIndex_OpenInvalidFrame(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "w123", "n37.dt1"), "too short to be a frame")

	_, err := NewIndex(root, nil).Open(37.5, -122.5, 1, frame.Options{})
	assert.ErrorIs(t, err, common.ErrInvalidFrame)
}

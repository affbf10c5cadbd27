package directory

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/armon/go-radix"
	"gonum.org/v1/gonum/spatial/kdtree"
)

const (
	numLevels  = MaxLevel + 1
	latBuckets = 181
	lonBuckets = 361
	tableSize  = numLevels * latBuckets * lonBuckets
)

// bucket returns the table slot of a cell and whether it is in range.
func bucket(c Cell) (int, bool) {
	la, lo := c.Lat+90, c.Lon+180
	if c.Level < 0 || c.Level >= numLevels || la < 0 || la >= latBuckets || lo < 0 || lo >= lonBuckets {
		return 0, false
	}
	return (c.Level*latBuckets+la)*lonBuckets + lo, true
}

// coverageKey numbers a cell within its level.
func coverageKey(c Cell) uint32 {
	return uint32((c.Lat+90)*lonBuckets + c.Lon + 180)
}

func cellFromKey(level int, key uint32) Cell {
	return Cell{Level: level, Lat: int(key)/lonBuckets - 90, Lon: int(key)%lonBuckets - 180}
}

// Index maps cells to frame files found under a root directory. It is a
// snapshot of the tree at the last Organize and does not watch for changes.
type Index struct {
	root       string
	translator NameTranslator
	scanner    Scanner
	errs       *common.ErrorUtils

	buildMu sync.Mutex
	scans   atomic.Int64

	mu       sync.RWMutex
	built    bool
	builtAt  time.Time
	table    []string
	count    int
	paths    *radix.Tree
	coverage [numLevels]*roaring.Bitmap
	nearest  [numLevels]*kdtree.Tree

	lookups common.BaseMetrics
}

// NewIndex creates an unbuilt index of root. A nil translator means the
// standard layout.
func NewIndex(root string, translator NameTranslator) *Index {
	if translator == nil {
		translator = StandardTranslator{}
	}
	return &Index{
		root:       root,
		translator: translator,
		errs:       common.NewErrorUtils(),
	}
}

// WithIgnoreFile sets the gitignore-syntax file consulted in the root.
func (ix *Index) WithIgnoreFile(name string) *Index {
	ix.scanner.IgnoreFile = name
	return ix
}

// WithWorkers bounds the number of directories read concurrently.
func (ix *Index) WithWorkers(n int) *Index {
	ix.scanner.Workers = n
	return ix
}

// Root returns the indexed directory.
func (ix *Index) Root() string { return ix.root }

// Translator returns the naming strategy of the index.
func (ix *Index) Translator() NameTranslator { return ix.translator }

// Organize scans the root and rebuilds the table. Files the translator
// cannot parse are left out.
func (ix *Index) Organize(ctx context.Context) error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()
	return ix.organizeLocked(ctx)
}

// buildIfNeeded organizes the index unless another caller already has.
func (ix *Index) buildIfNeeded(ctx context.Context) error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()
	if ix.Built() {
		return nil
	}
	return ix.organizeLocked(ctx)
}

func (ix *Index) organizeLocked(ctx context.Context) error {
	start := time.Now()
	ix.scans.Add(1)
	files, stats, err := ix.scanner.Scan(ctx, ix.root)
	if err != nil {
		return ix.errs.LogAndWrapError(err, slog.LevelError, "failed to scan %s", ix.root)
	}

	entries := make([]entry, 0, len(files))
	skipped := 0
	for _, path := range files {
		cell, err := ix.translator.Parse(path)
		if err != nil {
			skipped++
			slog.Debug("Skipping file outside naming convention", "path", path, "error", err)
			continue
		}
		entries = append(entries, entry{Cell: cell, Path: path})
	}

	ix.install(entries)

	slog.Info("Directory index built",
		"root", ix.root,
		"translator", ix.translator.Name(),
		"frames", ix.Count(),
		"skipped", skipped,
		"ignored", stats.Ignored,
		"dirs", stats.DirsProcessed,
		"duration", time.Since(start))
	return nil
}

// entry is one indexed frame.
type entry struct {
	Cell Cell
	Path string
}

// install replaces the index contents. The first path seen for a cell wins.
func (ix *Index) install(entries []entry) {
	table := make([]string, tableSize)
	paths := radix.New()
	var coverage [numLevels]*roaring.Bitmap
	var cells [numLevels][]Cell
	for l := range coverage {
		coverage[l] = roaring.New()
	}

	count := 0
	for _, e := range entries {
		slot, ok := bucket(e.Cell)
		if !ok {
			slog.Debug("Skipping frame outside the table", "path", e.Path, "cell", e.Cell)
			continue
		}
		if table[slot] != "" {
			slog.Debug("Duplicate frame for cell, keeping first",
				"cell", e.Cell,
				"kept", table[slot],
				"dropped", e.Path)
			continue
		}
		table[slot] = e.Path
		paths.Insert(normalizePath(e.Path), e.Cell)
		coverage[e.Cell.Level].Add(coverageKey(e.Cell))
		cells[e.Cell.Level] = append(cells[e.Cell.Level], e.Cell)
		count++
	}

	var nearest [numLevels]*kdtree.Tree
	for l := range nearest {
		nearest[l] = buildNearest(cells[l])
	}

	ix.mu.Lock()
	ix.table = table
	ix.paths = paths
	ix.coverage = coverage
	ix.nearest = nearest
	ix.count = count
	ix.built = true
	ix.builtAt = time.Now()
	ix.mu.Unlock()
}

// Built reports whether the index has been organized or loaded.
func (ix *Index) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}

// Get returns the frame path for the cell containing (lat, lon). The first
// miss on an unbuilt index organizes it and looks again.
func (ix *Index) Get(lat, lon float64, level int) (string, bool) {
	if path, ok := ix.lookup(lat, lon, level); ok {
		ix.lookups.UpdateBaseMetrics(true)
		return path, true
	}
	if ix.Built() {
		ix.lookups.UpdateBaseMetrics(false)
		return "", false
	}

	if err := ix.buildIfNeeded(context.Background()); err != nil {
		ix.lookups.UpdateBaseMetrics(false)
		return "", false
	}
	path, ok := ix.lookup(lat, lon, level)
	ix.lookups.UpdateBaseMetrics(ok)
	return path, ok
}

func (ix *Index) lookup(lat, lon float64, level int) (string, bool) {
	slot, ok := bucket(CellAt(lat, lon, level))
	if !ok {
		return "", false
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built || ix.table[slot] == "" {
		return "", false
	}
	return ix.table[slot], true
}

// Open opens the frame covering (lat, lon) at level.
func (ix *Index) Open(lat, lon float64, level int, opts frame.Options) (*frame.Frame, error) {
	path, ok := ix.Get(lat, lon, level)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNoFrame, CellAt(lat, lon, level))
	}
	f := frame.Open(path, opts)
	if !f.IsValid() {
		f.Dispose()
		return nil, fmt.Errorf("%s: %w", path, common.ErrInvalidFrame)
	}
	return f, nil
}

// Count returns the number of indexed frames.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.count
}

// Coverage returns a copy of the bitmap of occupied cells at level. Keys are
// (lat+90)*361 + lon+180.
func (ix *Index) Coverage(level int) *roaring.Bitmap {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if level < 0 || level >= numLevels || ix.coverage[level] == nil {
		return roaring.New()
	}
	return ix.coverage[level].Clone()
}

// Cells lists the occupied cells at level, south to north then west to east.
func (ix *Index) Cells(level int) []Cell {
	bm := ix.Coverage(level)
	cells := make([]Cell, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		cells = append(cells, cellFromKey(level, it.Next()))
	}
	return cells
}

// CellForPath returns the cell an indexed path was filed under.
func (ix *Index) CellForPath(path string) (Cell, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.paths == nil {
		return Cell{}, false
	}
	v, ok := ix.paths.Get(normalizePath(path))
	if !ok {
		return Cell{}, false
	}
	return v.(Cell), true
}

// Under returns the indexed paths below prefix in lexical order.
func (ix *Index) Under(prefix string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.paths == nil {
		return nil
	}
	var out []string
	ix.paths.WalkPrefix(normalizePath(prefix), func(key string, _ interface{}) bool {
		out = append(out, filepath.FromSlash(key))
		return false
	})
	return out
}

// Nearest returns the indexed frame at level whose cell centre is closest
// to (lat, lon), measured in degrees.
func (ix *Index) Nearest(lat, lon float64, level int) (Cell, string, bool) {
	if level < 0 || level >= numLevels {
		return Cell{}, "", false
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	c, ok := nearestCell(ix.nearest[level], lat, lon)
	if !ok {
		return Cell{}, "", false
	}
	slot, _ := bucket(c)
	return c, ix.table[slot], true
}

// Stats reports lookup counters and index size.
func (ix *Index) Stats() map[string]any {
	stats := ix.lookups.GetBaseMetrics()
	ix.mu.RLock()
	stats["frames"] = ix.count
	stats["built_at"] = ix.builtAt
	stats["scans"] = ix.scans.Load()
	ix.mu.RUnlock()
	return stats
}

func (ix *Index) snapshotEntries() []entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]entry, 0, ix.count)
	for level := 0; level < numLevels; level++ {
		if ix.coverage[level] == nil {
			continue
		}
		it := ix.coverage[level].Iterator()
		for it.HasNext() {
			c := cellFromKey(level, it.Next())
			slot, _ := bucket(c)
			out = append(out, entry{Cell: c, Path: ix.table[slot]})
		}
	}
	return out
}

func normalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

package directory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type snapshot struct {
	Version    int             `msgpack:"version"`
	Root       string          `msgpack:"root"`
	Translator string          `msgpack:"translator"`
	Created    time.Time       `msgpack:"created"`
	Entries    []snapshotEntry `msgpack:"entries"`
}

type snapshotEntry struct {
	Level int    `msgpack:"level"`
	Lat   int    `msgpack:"lat"`
	Lon   int    `msgpack:"lon"`
	Path  string `msgpack:"path"`
}

// Save writes the index to path as zstd compressed msgpack so a later run
// can skip the directory scan.
func (ix *Index) Save(path string) error {
	if !ix.Built() {
		return common.ErrIndexNotBuilt
	}

	snap := snapshot{
		Version:    snapshotVersion,
		Root:       ix.root,
		Translator: ix.translator.Name(),
		Created:    time.Now(),
	}
	for _, e := range ix.snapshotEntries() {
		snap.Entries = append(snap.Entries, snapshotEntry{
			Level: e.Cell.Level,
			Lat:   e.Cell.Lat,
			Lon:   e.Cell.Lon,
			Path:  e.Path,
		})
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return ix.errs.WrapError(err, "failed to create snapshot %s", path)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(&snap); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode index snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return err
	}

	slog.Info("Directory index saved", "path", path, "frames", len(snap.Entries))
	return f.Close()
}

// LoadIndex restores an index written by Save. The translator must be the
// one the snapshot was built with.
func LoadIndex(path string, translator NameTranslator) (*Index, error) {
	if translator == nil {
		translator = StandardTranslator{}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader for %s: %w", path, err)
	}
	defer zr.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrBadSnapshot, path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: %s has version %d", common.ErrBadSnapshot, path, snap.Version)
	}
	if snap.Translator != translator.Name() {
		return nil, fmt.Errorf("%w: %s was built with the %s translator, not %s",
			common.ErrBadSnapshot, path, snap.Translator, translator.Name())
	}

	entries := make([]entry, 0, len(snap.Entries))
	for _, e := range snap.Entries {
		entries = append(entries, entry{
			Cell: Cell{Level: e.Level, Lat: e.Lat, Lon: e.Lon},
			Path: e.Path,
		})
	}

	ix := NewIndex(snap.Root, translator)
	ix.install(entries)

	slog.Info("Directory index loaded",
		"path", path,
		"root", snap.Root,
		"frames", ix.Count(),
		"created", snap.Created)
	return ix, nil
}

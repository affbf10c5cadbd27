package directory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
)

// ScanStats counts what a scan visited.
type ScanStats struct {
	DirsProcessed int64
	FilesFound    int64
	Ignored       int64
	ErrorsFound   int64
}

// Scanner walks a directory tree breadth first, reading the directories of
// each level concurrently.
type Scanner struct {
	// Workers bounds concurrent directory reads. Zero picks a value from
	// the CPU count.
	Workers int
	// IgnoreFile names a gitignore-syntax file in the root whose patterns
	// exclude files and directories from the scan.
	IgnoreFile string
}

// Scan returns every regular file under root, sorted. Unreadable
// subdirectories are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]string, ScanStats, error) {
	var stats ScanStats

	info, err := os.Stat(root)
	if err != nil {
		return nil, stats, err
	}
	if !info.IsDir() {
		return nil, stats, fmt.Errorf("%s is not a directory", root)
	}

	matcher, err := s.loadIgnore(root)
	if err != nil {
		return nil, stats, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = min(max(runtime.NumCPU()*2, 4), 32)
	}

	var (
		mu    sync.Mutex
		files []string
	)
	currentLevel := []string{root}

	for depth := 0; len(currentLevel) > 0; depth++ {
		var nextLevel []string
		levelPool := pool.New().WithMaxGoroutines(workers).WithContext(ctx)

		for _, dir := range currentLevel {
			levelPool.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				dirs, found := s.readDir(root, dir, matcher, &stats)
				mu.Lock()
				nextLevel = append(nextLevel, dirs...)
				files = append(files, found...)
				mu.Unlock()
				return nil
			})
		}

		if err := levelPool.Wait(); err != nil {
			return nil, stats, err
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		slog.Debug("Scanned directory level",
			"root", root,
			"depth", depth,
			"directories", len(currentLevel),
			"next_level", len(nextLevel))
		currentLevel = nextLevel
	}

	sort.Strings(files)
	return files, stats, nil
}

func (s *Scanner) loadIgnore(root string) (*ignore.GitIgnore, error) {
	if s.IgnoreFile == "" {
		return nil, nil
	}
	ignorePath := filepath.Join(root, s.IgnoreFile)

	if _, err := os.Stat(ignorePath); err == nil {
		ignored, err := ignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", ignorePath, err)
		}
		return ignored, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("error checking for %s: %w", ignorePath, err)
	}
	return nil, nil
}

func (s *Scanner) readDir(root, dir string, matcher *ignore.GitIgnore, stats *ScanStats) (dirs, files []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		atomic.AddInt64(&stats.ErrorsFound, 1)
		slog.Warn("Failed to read directory", "path", dir, "error", err)
		return nil, nil
	}
	atomic.AddInt64(&stats.DirsProcessed, 1)

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = entry.Name()
		}
		rel = filepath.ToSlash(rel)

		switch {
		case entry.IsDir():
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				atomic.AddInt64(&stats.Ignored, 1)
				continue
			}
			dirs = append(dirs, path)
		case entry.Type().IsRegular():
			if matcher != nil && matcher.MatchesPath(rel) {
				atomic.AddInt64(&stats.Ignored, 1)
				continue
			}
			if rel == filepath.ToSlash(s.IgnoreFile) {
				continue
			}
			atomic.AddInt64(&stats.FilesFound, 1)
			files = append(files, path)
		}
	}
	return dirs, files
}

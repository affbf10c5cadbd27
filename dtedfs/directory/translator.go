// Package directory maps geographic cells to DTED frame files and indexes a
// directory tree of frames for constant-time lookup.
package directory

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"
)

// MaxLevel is the highest DTED level the index keeps.
const MaxLevel = 2

// Cell is a one-degree cell identified by its south-west corner in whole
// degrees, at a DTED level.
type Cell struct {
	Level int
	Lat   int
	Lon   int
}

// CellAt returns the cell containing (lat, lon).
func CellAt(lat, lon float64, level int) Cell {
	return Cell{
		Level: level,
		Lat:   int(math.Floor(lat)),
		Lon:   int(math.Floor(lon)),
	}
}

// Valid reports whether the cell lies on the globe at a supported level.
func (c Cell) Valid() bool {
	return c.Level >= 0 && c.Level <= MaxLevel &&
		c.Lat >= -90 && c.Lat <= 90 &&
		c.Lon >= -180 && c.Lon <= 180
}

func (c Cell) String() string {
	return fmt.Sprintf("%s%s L%d", latName(c.Lat), lonName(c.Lon), c.Level)
}

// NameTranslator converts between cells and frame file paths.
type NameTranslator interface {
	// Name identifies the translator in configuration and snapshots.
	Name() string
	// Path returns where the frame for (lat, lon, level) lives under dir.
	Path(dir string, lat, lon float64, level int) string
	// Parse recovers the cell from an existing frame path.
	Parse(path string) (Cell, error)
}

// TranslatorByName returns the translator registered under name.
func TranslatorByName(name string) (NameTranslator, error) {
	switch strings.ToLower(name) {
	case "", StandardTranslator{}.Name():
		return StandardTranslator{}, nil
	case FlatTranslator{}.Name():
		return FlatTranslator{}, nil
	}
	return nil, fmt.Errorf("unknown name translator %q", name)
}

// StandardTranslator follows the DTED distribution layout: one directory per
// longitude holding one file per latitude, e.g. w123/n37.dt1.
type StandardTranslator struct{}

var (
	standardFile = regexp.MustCompile(`^([ns])(\d{2})\.dt([0-2])$`)
	standardDir  = regexp.MustCompile(`^([ew])(\d{3})$`)
)

func (StandardTranslator) Name() string { return "standard" }

func (StandardTranslator) Path(dir string, lat, lon float64, level int) string {
	c := CellAt(lat, lon, level)
	return filepath.Join(dir, lonName(c.Lon), fmt.Sprintf("%s.dt%d", latName(c.Lat), c.Level))
}

func (StandardTranslator) Parse(path string) (Cell, error) {
	base := frameBase(path)
	fm := standardFile.FindStringSubmatch(base)
	if fm == nil {
		return Cell{}, fmt.Errorf("%w: %s", common.ErrUnparseablePath, path)
	}
	dm := standardDir.FindStringSubmatch(strings.ToLower(filepath.Base(filepath.Dir(path))))
	if dm == nil {
		return Cell{}, fmt.Errorf("%w: %s has no longitude directory", common.ErrUnparseablePath, path)
	}
	return buildCell(path, fm[3], fm[1], fm[2], dm[1], dm[2])
}

// FlatTranslator keeps every frame in one directory, naming files after
// both coordinates, e.g. n37w123.dt1.
type FlatTranslator struct{}

var flatFile = regexp.MustCompile(`^([ns])(\d{2})([ew])(\d{3})\.dt([0-2])$`)

func (FlatTranslator) Name() string { return "flat" }

func (FlatTranslator) Path(dir string, lat, lon float64, level int) string {
	c := CellAt(lat, lon, level)
	return filepath.Join(dir, fmt.Sprintf("%s%s.dt%d", latName(c.Lat), lonName(c.Lon), c.Level))
}

func (FlatTranslator) Parse(path string) (Cell, error) {
	m := flatFile.FindStringSubmatch(frameBase(path))
	if m == nil {
		return Cell{}, fmt.Errorf("%w: %s", common.ErrUnparseablePath, path)
	}
	return buildCell(path, m[5], m[1], m[2], m[3], m[4])
}

// frameBase lower-cases the file name and strips a compression suffix.
func frameBase(path string) string {
	return strings.TrimSuffix(strings.ToLower(filepath.Base(path)), ".zst")
}

func buildCell(path, level, latHemi, latDigits, lonHemi, lonDigits string) (Cell, error) {
	lv, _ := strconv.Atoi(level)
	lat, _ := strconv.Atoi(latDigits)
	lon, _ := strconv.Atoi(lonDigits)
	if latHemi == "s" {
		lat = -lat
	}
	if lonHemi == "w" {
		lon = -lon
	}
	c := Cell{Level: lv, Lat: lat, Lon: lon}
	if !c.Valid() {
		return Cell{}, fmt.Errorf("%w: %s is off the globe", common.ErrUnparseablePath, path)
	}
	return c, nil
}

func latName(lat int) string {
	if lat < 0 {
		return fmt.Sprintf("s%02d", -lat)
	}
	return fmt.Sprintf("n%02d", lat)
}

func lonName(lon int) string {
	if lon < 0 {
		return fmt.Sprintf("w%03d", -lon)
	}
	return fmt.Sprintf("e%03d", lon)
}

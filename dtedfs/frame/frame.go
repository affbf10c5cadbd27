// Package frame reads DTED cell files.
//
// A Frame parses the UHL, DSI and ACC headers when it is opened and pages in
// elevation columns (one per longitude line) on first access. Query methods
// never return errors: they answer NullElevation (or nil for matrices) when
// the frame is invalid, the coordinate is outside the cell or a column
// cannot be read.
package frame

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/binio"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/common"
	"github.com/ZanzyTHEbar/dtedfs/dtedfs/handles"

	"github.com/google/uuid"
)

// NullElevation is returned for invalid frames and unanswerable queries.
const NullElevation int16 = -32767

// recordSentinel starts every data record.
const recordSentinel = 0xAA

// InterpolationMode selects the corner sampling of InterpElevationAt.
type InterpolationMode int

const (
	// Bilinear blends the four posts surrounding the coordinate.
	Bilinear InterpolationMode = iota
	// LegacyCorners samples the lower-left corner from the upper row, as
	// older DTED viewers did, so their output can be reproduced.
	LegacyCorners
)

// ParseInterpolationMode maps a config value to a mode.
func ParseInterpolationMode(s string) (InterpolationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bilinear":
		return Bilinear, nil
	case "legacy", "legacy-corners":
		return LegacyCorners, nil
	}
	return Bilinear, fmt.Errorf("unknown interpolation mode %q", s)
}

func (m InterpolationMode) String() string {
	if m == LegacyCorners {
		return "legacy"
	}
	return "bilinear"
}

// Options controls how a Frame reads its file.
type Options struct {
	// ReadWholeFile loads every column at open time and closes the file.
	ReadWholeFile bool
	// Pool, when set, may close the file between queries to bound the
	// number of open descriptors.
	Pool           *handles.Pool
	Interpolation  InterpolationMode
	VerifyChecksum bool
	// Opener defaults to binio.Open.
	Opener binio.Opener
}

// Frame is one DTED cell: parsed headers plus a lazily filled elevation
// grid indexed [column][row], with [0][0] at the south-west corner.
type Frame struct {
	id   uuid.UUID
	path string
	opts Options

	uhl UHL
	dsi DSI
	acc ACC

	mu       sync.Mutex
	reader   binio.RecordReader
	valid    bool
	disposed bool
	columns  [][]int16
	metrics  common.ReadMetrics
}

// Open reads the headers of the file at path. The returned frame is never
// nil; check IsValid before relying on it.
func Open(path string, opts Options) *Frame {
	f := &Frame{
		id:   uuid.New(),
		path: path,
		opts: opts,
	}
	opener := opts.Opener
	if opener == nil {
		opener = binio.Open
	}

	r, err := opener(path)
	if err != nil {
		slog.Error("Failed to open frame", "path", path, "error", err)
		return f
	}
	r.SetByteOrder(true)

	if err := f.readHeaders(r); err != nil {
		slog.Error("Failed to read frame headers", "path", path, "error", err)
		r.Close()
		return f
	}

	f.reader = r
	f.columns = make([][]int16, f.uhl.NumLonLines)
	f.valid = true

	if opts.ReadWholeFile {
		f.mu.Lock()
		if !f.loadRangeLocked(0, f.uhl.NumLonLines-1) {
			slog.Warn("Frame read incompletely", "path", path)
		}
		f.reader.Close()
		f.mu.Unlock()
	} else {
		opts.Pool.Register(f)
	}

	slog.Debug("Frame opened",
		"path", path,
		"lon_lines", f.uhl.NumLonLines,
		"lat_points", f.uhl.NumLatPoints,
		"whole_file", opts.ReadWholeFile)

	return f
}

func (f *Frame) readHeaders(r binio.RecordReader) error {
	uhl, err := ReadUHL(r)
	if err != nil {
		return err
	}
	dsi, err := ReadDSI(r, uhl)
	if err != nil {
		return err
	}
	acc, err := ReadACC(r)
	if err != nil {
		return err
	}

	if uhl.NumLonLines <= 0 || uhl.NumLatPoints <= 0 {
		return fmt.Errorf("grid size %dx%d: %w", uhl.NumLonLines, uhl.NumLatPoints, common.ErrInvalidFrame)
	}
	if uhl.LatPostInterval <= 0 || uhl.LonPostInterval <= 0 {
		return fmt.Errorf("post interval %d/%d: %w", uhl.LatPostInterval, uhl.LonPostInterval, common.ErrInvalidFrame)
	}

	f.uhl, f.dsi, f.acc = uhl, dsi, acc
	return nil
}

// ID identifies the frame in a handle pool.
func (f *Frame) ID() uuid.UUID { return f.id }

// Path returns the file the frame was opened from.
func (f *Frame) Path() string { return f.path }

// IsValid reports whether the headers were parsed and the frame has not
// been disposed.
func (f *Frame) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}

func (f *Frame) UHL() UHL { return f.uhl }
func (f *Frame) DSI() DSI { return f.dsi }
func (f *Frame) ACC() ACC { return f.acc }

// Bounds returns the south-west and north-east corners.
func (f *Frame) Bounds() (swLat, swLon, neLat, neLon float64) {
	return f.dsi.SWLat, f.dsi.SWLon, f.dsi.NELat, f.dsi.NELon
}

// Stats returns the frame's read counters.
func (f *Frame) Stats() common.Snapshot {
	return f.metrics.Snapshot()
}

// ColumnLoaded reports whether column x is resident.
func (f *Frame) ColumnLoaded(x int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return x >= 0 && x < len(f.columns) && f.columns[x] != nil
}

// ElevationAt returns the post nearest to (lat, lon) in meters.
func (f *Frame) ElevationAt(lat, lon float64) int16 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.valid || !f.dsi.Contains(lat, lon) {
		return NullElevation
	}

	x := GeoToIndex(lon, f.uhl.LonOrigin, f.uhl.LonPostInterval)
	y := GeoToIndex(lat, f.uhl.LatOrigin, f.uhl.LatPostInterval)
	if x < 0 || x >= f.uhl.NumLonLines || y < 0 || y >= f.uhl.NumLatPoints {
		return NullElevation
	}
	if !f.loadColumnLocked(x) {
		return NullElevation
	}
	return f.columns[x][y]
}

// InterpElevationAt blends the four posts around (lat, lon). The result is
// truncated toward zero.
func (f *Frame) InterpElevationAt(lat, lon float64) int16 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.valid || !f.dsi.Contains(lat, lon) {
		return NullElevation
	}

	fx := GeoToFractionalIndex(lon, f.uhl.LonOrigin, f.uhl.LonPostInterval)
	fy := GeoToFractionalIndex(lat, f.uhl.LatOrigin, f.uhl.LatPostInterval)
	lfx, lcx, ok := neighbors(fx, f.uhl.NumLonLines)
	if !ok {
		return NullElevation
	}
	lfy, lcy, ok := neighbors(fy, f.uhl.NumLatPoints)
	if !ok {
		return NullElevation
	}

	if !f.loadColumnLocked(lfx) || !f.loadColumnLocked(lcx) {
		return NullElevation
	}

	ul := float64(f.columns[lfx][lcy])
	ur := float64(f.columns[lcx][lcy])
	ll := float64(f.columns[lfx][lfy])
	lr := float64(f.columns[lcx][lfy])
	if f.opts.Interpolation == LegacyCorners {
		ll = ul
	}

	xfrac := fx - float64(lfx)
	yfrac := fy - float64(lfy)
	upper := ul + (ur-ul)*xfrac
	lower := ll + (lr-ll)*xfrac
	return int16(lower + (upper-lower)*yfrac)
}

// neighbors returns the floor and ceil indices of a fractional index,
// pulled back inside [0, count-1] when rounding error pushes them out.
func neighbors(f float64, count int) (lo, hi int, ok bool) {
	if math.IsNaN(f) {
		return 0, 0, false
	}
	lo = int(math.Floor(f))
	hi = int(math.Ceil(f))
	if lo < -1 || hi > count {
		return 0, 0, false
	}
	lo = min(max(lo, 0), count-1)
	hi = min(max(hi, 0), count-1)
	return lo, hi, true
}

// Elevations returns the posts inside the box given by two opposite
// corners, as [column][row] starting at the south-west post. Corners may be
// given in any order.
func (f *Frame) Elevations(ullat, ullon, lrlat, lrlon float64) [][]int16 {
	upper, lower := ullat, lrlat
	if upper < lower {
		upper, lower = lower, upper
	}
	left, right := ullon, lrlon
	if left > right {
		left, right = right, left
	}

	startx := GeoToIndex(left, f.uhl.LonOrigin, f.uhl.LonPostInterval)
	starty := GeoToIndex(lower, f.uhl.LatOrigin, f.uhl.LatPostInterval)
	endx := GeoToIndex(right, f.uhl.LonOrigin, f.uhl.LonPostInterval)
	endy := GeoToIndex(upper, f.uhl.LatOrigin, f.uhl.LatPostInterval)
	return f.ElevationsByIndex(startx, starty, endx, endy)
}

// ElevationsByIndex returns the posts between two index corners. Indices
// are clamped to [0, count-2] in each dimension.
func (f *Frame) ElevationsByIndex(startx, starty, endx, endy int) [][]int16 {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.valid {
		return nil
	}

	left, right := startx, endx
	if left > right {
		left, right = right, left
	}
	lower, upper := starty, endy
	if lower > upper {
		lower, upper = upper, lower
	}
	left = ClampIndex(left, f.uhl.NumLonLines)
	right = ClampIndex(right, f.uhl.NumLonLines)
	lower = ClampIndex(lower, f.uhl.NumLatPoints)
	upper = ClampIndex(upper, f.uhl.NumLatPoints)

	if !f.loadRangeLocked(left, right) {
		return nil
	}

	out := make([][]int16, right-left+1)
	for x := left; x <= right; x++ {
		col := make([]int16, upper-lower+1)
		copy(col, f.columns[x][lower:upper+1])
		out[x-left] = col
	}
	return out
}

// Grid loads every column and returns a copy of the whole elevation matrix.
// The bool is false if any column could not be read; its slot is nil.
func (f *Frame) Grid() ([][]int16, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.valid {
		return nil, false
	}
	ok := f.loadRangeLocked(0, f.uhl.NumLonLines-1)
	out := make([][]int16, len(f.columns))
	for x, col := range f.columns {
		if col != nil {
			out[x] = append([]int16(nil), col...)
		}
	}
	return out, ok
}

// ReadDataRecord loads column x if it is not resident yet.
func (f *Frame) ReadDataRecord(x int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadColumnLocked(x)
}

// ReadDataRecords loads columns from..to inclusive and reports whether all
// of them are resident afterwards.
func (f *Frame) ReadDataRecords(from, to int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadRangeLocked(from, to)
}

// ReadAllDataRecords loads every column.
func (f *Frame) ReadAllDataRecords() bool {
	return f.ReadDataRecords(0, f.uhl.NumLonLines-1)
}

func (f *Frame) loadRangeLocked(from, to int) bool {
	if from > to {
		from, to = to, from
	}
	ok := true
	for x := from; x <= to; x++ {
		if !f.loadColumnLocked(x) {
			ok = false
		}
	}
	return ok
}

// loadColumnLocked makes column x resident. A failed load leaves the column
// absent so that the next access tries again.
func (f *Frame) loadColumnLocked(x int) bool {
	if !f.valid || x < 0 || x >= len(f.columns) {
		return false
	}
	if f.columns[x] != nil {
		return true
	}

	reopened, err := f.ensureOpenLocked()
	if err != nil {
		slog.Warn("Cannot reopen frame", "path", f.path, "error", err)
		f.metrics.RecordColumn(false, 0)
		return false
	}
	if reopened && f.opts.ReadWholeFile {
		defer f.closeReaderLocked()
	}

	col, err := f.readColumnLocked(x)
	if err != nil {
		slog.Warn("Failed to read data record",
			"path", f.path,
			"column", x,
			"error", err)
		f.metrics.RecordColumn(false, 0)
		return false
	}

	f.columns[x] = col
	f.metrics.RecordColumn(true, f.uhl.RecordSize())
	if !f.opts.ReadWholeFile {
		f.opts.Pool.Touch(f)
	}
	return true
}

// ensureOpenLocked reopens a released reader and reports whether it had to.
// Pooled frames re-register on reopen so the pool keeps counting them.
func (f *Frame) ensureOpenLocked() (bool, error) {
	if f.reader == nil {
		return false, common.ErrInvalidFrame
	}
	if f.reader.IsOpen() {
		return false, nil
	}
	if err := f.reader.Reopen(); err != nil {
		return false, err
	}
	f.reader.SetByteOrder(true)
	f.metrics.RecordReopen()
	slog.Debug("Frame reopened", "path", f.path)
	if !f.opts.ReadWholeFile {
		f.opts.Pool.Touch(f)
	}
	return true, nil
}

func (f *Frame) closeReaderLocked() {
	if err := f.reader.Close(); err != nil {
		slog.Warn("Error closing frame", "path", f.path, "error", err)
	}
}

// readColumnLocked reads one data record: sentinel, 3-byte block count,
// 2-byte longitude and latitude counts, the posts and a 4-byte checksum.
func (f *Frame) readColumnLocked(x int) ([]int16, error) {
	r := f.reader
	offset := int64(DataOffset) + int64(x)*f.uhl.RecordSize()
	if err := r.Seek(offset); err != nil {
		return nil, err
	}

	sentinel, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if sentinel != recordSentinel {
		return nil, fmt.Errorf("%w: got %#x at offset %d", common.ErrBadSentinel, sentinel, offset)
	}

	var counts [7]byte
	if _, err := io.ReadFull(r, counts[:]); err != nil {
		return nil, err
	}

	sum := uint32(sentinel)
	for _, b := range counts {
		sum += uint32(b)
	}

	posts := make([]int16, f.uhl.NumLatPoints)
	for y := range posts {
		v, err := r.ReadInt16()
		if err != nil {
			return nil, err
		}
		posts[y] = v
		u := uint16(v)
		sum += uint32(u>>8) + uint32(u&0xff)
	}

	if f.opts.VerifyChecksum {
		stored, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		if stored != sum {
			return nil, fmt.Errorf("%w: column %d stored %d computed %d", common.ErrChecksum, x, stored, sum)
		}
	}
	return posts, nil
}

// ReleaseHandleIfIdle closes the file unless a query is in progress. The
// next column load reopens it.
func (f *Frame) ReleaseHandleIfIdle() bool {
	if !f.mu.TryLock() {
		return false
	}
	defer f.mu.Unlock()

	if f.reader == nil || !f.reader.IsOpen() {
		return false
	}
	if err := f.reader.Close(); err != nil {
		slog.Warn("Error closing frame", "path", f.path, "error", err)
	}
	return true
}

// Dispose closes the file, drops the elevation data and removes the frame
// from its pool. The frame is invalid afterwards. Dispose is idempotent.
func (f *Frame) Dispose() {
	f.mu.Lock()
	if f.disposed {
		f.mu.Unlock()
		return
	}
	f.disposed = true
	f.valid = false
	f.columns = nil
	if f.reader != nil {
		if err := f.reader.Close(); err != nil {
			slog.Warn("Error closing frame", "path", f.path, "error", err)
		}
	}
	f.mu.Unlock()

	f.opts.Pool.Deregister(f.id)
}

func (f *Frame) String() string {
	if !f.IsValid() {
		return fmt.Sprintf("Frame %s (invalid)", f.path)
	}
	return fmt.Sprintf("Frame %s %dx%d [%.4f,%.4f]-[%.4f,%.4f]",
		f.path, f.uhl.NumLonLines, f.uhl.NumLatPoints,
		f.dsi.SWLat, f.dsi.SWLon, f.dsi.NELat, f.dsi.NELon)
}

// Package frametest builds synthetic DTED files for tests.
package frametest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/frame"

	"github.com/klauspost/compress/zstd"
)

// Fixture describes a synthetic cell. Start from Default and override fields.
type Fixture struct {
	// South-west corner in degrees and post spacing in tenths of arc seconds.
	LatOrigin, LonOrigin      float64
	LatInterval, LonInterval  int
	NumLonLines, NumLatPoints int

	// Raw 4-byte UHL accuracy field and ACC fields in file order.
	VerticalAccuracy string
	Accuracy         []string
	Series           string
	Elevation        func(col, row int) int16

	// OmitCorners leaves the DSI corner fields blank.
	OmitCorners bool

	// Raw interval fields override the numeric ones when set.
	RawLatInterval string
	RawLonInterval string
}

// Default is an 11x11 cell at 37N 123W with 0.01 degree posts and
// elevation col*100 + row*10.
func Default() Fixture {
	return Fixture{
		LatOrigin:        37,
		LonOrigin:        -123,
		LatInterval:      360,
		LonInterval:      360,
		NumLonLines:      11,
		NumLatPoints:     11,
		VerticalAccuracy: "0020",
		Accuracy:         []string{"0050", "0020", "NA$$", "N/A "},
		Series:           "DTED1",
		Elevation:        func(col, row int) int16 { return int16(col*100 + row*10) },
	}
}

// Encode renders the fx as a DTED file.
func Encode(s Fixture) []byte {
	if s.Elevation == nil {
		s.Elevation = func(int, int) int16 { return 0 }
	}
	var buf bytes.Buffer
	buf.Write(uhl(s))
	buf.Write(dsi(s))
	buf.Write(acc(s))
	for col := 0; col < s.NumLonLines; col++ {
		buf.Write(Record(col, s.NumLatPoints, func(row int) int16 { return s.Elevation(col, row) }))
	}
	return buf.Bytes()
}

// Record renders one data record with a valid checksum.
func Record(col, numLatPoints int, elevation func(row int) int16) []byte {
	rec := make([]byte, 0, 12+2*numLatPoints)
	rec = append(rec, 0xAA, byte(col>>16), byte(col>>8), byte(col))
	rec = binary.BigEndian.AppendUint16(rec, uint16(col))
	rec = binary.BigEndian.AppendUint16(rec, 0)
	for row := 0; row < numLatPoints; row++ {
		rec = binary.BigEndian.AppendUint16(rec, uint16(elevation(row)))
	}
	var sum uint32
	for _, b := range rec {
		sum += uint32(b)
	}
	return binary.BigEndian.AppendUint32(rec, sum)
}

// RecordOffset returns the file offset of column col.
func RecordOffset(col, numLatPoints int) int {
	return frame.DataOffset + col*(12+2*numLatPoints)
}

// WriteFile encodes the fx to path, creating parent directories. Paths
// ending in .zst are zstd compressed.
func WriteFile(path string, s Fixture) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data := Encode(s)
	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
	}
	return os.WriteFile(path, data, 0o644)
}

func field(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func interval(raw string, v int) string {
	if raw != "" {
		return field(raw, 4)
	}
	return fmt.Sprintf("%04d", v)
}

func uhl(s Fixture) []byte {
	var b strings.Builder
	b.WriteString("UHL1")
	b.WriteString(frame.FormatLongitude(s.LonOrigin))
	b.WriteString("0" + frame.FormatLatitude(s.LatOrigin))
	b.WriteString(interval(s.RawLonInterval, s.LonInterval))
	b.WriteString(interval(s.RawLatInterval, s.LatInterval))
	b.WriteString(field(s.VerticalAccuracy, 4))
	b.WriteString(field("U", 3))
	b.WriteString(field("SYNTHETIC", 12))
	b.WriteString(fmt.Sprintf("%04d", s.NumLonLines))
	b.WriteString(fmt.Sprintf("%04d", s.NumLatPoints))
	b.WriteString("0")
	return []byte(field(b.String(), frame.UHLSize))
}

func dsi(s Fixture) []byte {
	rec := []byte(strings.Repeat(" ", frame.DSISize))
	put := func(offset int, v string) { copy(rec[offset:], v) }

	neLat := s.LatOrigin + float64(s.NumLatPoints-1)*float64(s.LatInterval)/36000
	neLon := s.LonOrigin + float64(s.NumLonLines-1)*float64(s.LonInterval)/36000
	withTenths := func(a string) string { return a[:len(a)-1] + ".0" + a[len(a)-1:] }

	put(0, "DSIU")
	put(59, field(s.Series, 5))
	put(64, field("SYNTHETIC", 15))
	put(87, "01")
	put(89, "A")
	put(141, "MSL")
	put(144, "WGS84")
	put(185, withTenths(frame.FormatLatitude(s.LatOrigin)))
	put(194, withTenths(frame.FormatLongitude(s.LonOrigin)))
	if !s.OmitCorners {
		put(204, frame.FormatLatitude(s.LatOrigin))
		put(211, frame.FormatLongitude(s.LonOrigin))
		put(219, frame.FormatLatitude(neLat))
		put(226, frame.FormatLongitude(s.LonOrigin))
		put(234, frame.FormatLatitude(neLat))
		put(241, frame.FormatLongitude(neLon))
		put(249, frame.FormatLatitude(s.LatOrigin))
		put(256, frame.FormatLongitude(neLon))
	}
	put(264, "0000000.0")
	put(273, interval(s.RawLatInterval, s.LatInterval))
	put(277, interval(s.RawLonInterval, s.LonInterval))
	put(281, fmt.Sprintf("%04d", s.NumLatPoints))
	put(285, fmt.Sprintf("%04d", s.NumLonLines))
	put(289, "00")
	return rec
}

func acc(s Fixture) []byte {
	rec := []byte(strings.Repeat(" ", frame.ACCSize))
	copy(rec, "ACC")
	for i, v := range s.Accuracy {
		if i == 4 {
			break
		}
		copy(rec[3+4*i:], field(v, 4))
	}
	return rec
}

package frame

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/binio"
)

// NotAvailable is stored for accuracy fields marked NA in the file.
const NotAvailable = -1

// fieldReader reads consecutive fixed-length ASCII fields from one record
// and remembers the first I/O error. Later reads are no-ops once an error
// has occurred, so a parser can read its whole layout and check err once.
type fieldReader struct {
	r      binio.RecordReader
	record string
	err    error
}

func (fr *fieldReader) seek(offset int64) {
	if fr.err != nil {
		return
	}
	fr.err = fr.r.Seek(offset)
}

func (fr *fieldReader) skip(n int) {
	if fr.err != nil {
		return
	}
	fr.err = fr.r.Skip(n)
}

func (fr *fieldReader) str(n int) string {
	if fr.err != nil {
		return ""
	}
	s, err := fr.r.ReadFixedString(n)
	if err != nil {
		fr.err = err
		return ""
	}
	return s
}

// trimmed reads a field and strips padding.
func (fr *fieldReader) trimmed(n int) string {
	return strings.TrimSpace(fr.str(n))
}

// integer reads a numeric field. Malformed values are logged and read as 0.
func (fr *fieldReader) integer(name string, n int) int {
	raw := fr.str(n)
	if fr.err != nil {
		return 0
	}
	return parseInt(fr.record, name, raw)
}

// accuracy reads a numeric field that may be marked not available.
func (fr *fieldReader) accuracy(name string, n int) int {
	raw := fr.str(n)
	if fr.err != nil {
		return 0
	}
	return parseAccuracy(fr.record, name, raw)
}

// angle reads a hemisphere-suffixed degrees/minutes/seconds field.
func (fr *fieldReader) angle(name string, n int) float64 {
	raw := fr.str(n)
	if fr.err != nil {
		return 0
	}
	v, err := ParseAngle(raw)
	if err != nil {
		slog.Warn("Malformed angle field, using 0",
			"record", fr.record,
			"field", name,
			"value", raw,
			"error", err)
		return 0
	}
	return v
}

func parseInt(record, name, raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		slog.Warn("Malformed numeric field, using 0",
			"record", record,
			"field", name,
			"value", raw)
		return 0
	}
	return v
}

func parseAccuracy(record, name, raw string) int {
	if isNotAvailable(raw) {
		return NotAvailable
	}
	return parseInt(record, name, raw)
}

// isNotAvailable matches "NA", "N/A" and their padded forms such as "NA$$".
func isNotAvailable(raw string) bool {
	s := strings.TrimRight(strings.TrimSpace(raw), "$")
	return s == "NA" || s == "N/A"
}

// ParseAngle decodes the angle notations used in the header records into
// decimal degrees: DDDMMSSH, DDMMSSH, DDMMSS.SH, DDDMMSS.SH. The hemisphere
// letter may be missing, and a leading sign is accepted. S, W or '-' give a
// negative result.
func ParseAngle(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("empty angle")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("angle %q has no digits", raw)
	}

	switch s[len(s)-1] {
	case 'S', 's', 'W', 'w':
		negative = true
		s = s[:len(s)-1]
	case 'N', 'n', 'E', 'e':
		s = s[:len(s)-1]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(whole) < 5 || len(whole) > 7 {
		return 0, fmt.Errorf("angle %q has %d integer digits", raw, len(whole))
	}

	degDigits := len(whole) - 4
	deg, err := strconv.Atoi(whole[:degDigits])
	if err != nil {
		return 0, fmt.Errorf("angle %q degrees: %w", raw, err)
	}
	minutes, err := strconv.Atoi(whole[degDigits : degDigits+2])
	if err != nil {
		return 0, fmt.Errorf("angle %q minutes: %w", raw, err)
	}
	secText := whole[degDigits+2:]
	if frac != "" {
		secText += "." + frac
	}
	sec, err := strconv.ParseFloat(secText, 64)
	if err != nil {
		return 0, fmt.Errorf("angle %q seconds: %w", raw, err)
	}
	if minutes >= 60 || sec >= 60 {
		return 0, fmt.Errorf("angle %q out of range", raw)
	}

	v := float64(deg) + float64(minutes)/60 + sec/3600
	if negative {
		v = -v
	}
	return v, nil
}

// FormatLatitude renders a latitude as DDMMSSH.
func FormatLatitude(lat float64) string {
	return formatAngle(lat, 2, 'N', 'S')
}

// FormatLongitude renders a longitude as DDDMMSSH.
func FormatLongitude(lon float64) string {
	return formatAngle(lon, 3, 'E', 'W')
}

func formatAngle(v float64, degDigits int, pos, neg byte) string {
	h := pos
	if v < 0 {
		h = neg
		v = -v
	}
	totalSec := int(v*3600 + 0.5)
	deg := totalSec / 3600
	minutes := (totalSec % 3600) / 60
	sec := totalSec % 60
	return fmt.Sprintf("%0*d%02d%02d%c", degDigits, deg, minutes, sec, h)
}

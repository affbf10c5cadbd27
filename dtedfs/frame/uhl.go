package frame

import (
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/binio"
)

// Record sizes and offsets of a DTED file.
const (
	UHLSize    = 80
	DSISize    = 648
	ACCSize    = 2700
	DSIOffset  = UHLSize
	ACCOffset  = UHLSize + DSISize
	DataOffset = UHLSize + DSISize + ACCSize
)

// UHL is the User Header Label.
type UHL struct {
	LonOrigin        float64 // decimal degrees
	LatOrigin        float64 // decimal degrees
	LonPostInterval  int     // tenths of arc seconds
	LatPostInterval  int     // tenths of arc seconds
	VerticalAccuracy int     // meters, NotAvailable if NA
	SecurityCode     string
	Reference        string
	NumLonLines      int // columns
	NumLatPoints     int // posts per column
	MultipleAccuracy bool
}

// ReadUHL parses the user header label at the start of the file.
func ReadUHL(r binio.RecordReader) (UHL, error) {
	fr := &fieldReader{r: r, record: "UHL"}
	var u UHL

	fr.seek(0)
	if sentinel := fr.str(3); fr.err == nil && sentinel != "UHL" {
		slog.Debug("Unexpected UHL recognition code", "file", r.Name(), "value", sentinel)
	}
	fr.skip(1)
	u.LonOrigin = fr.angle("lon_origin", 8)
	u.LatOrigin = fr.angle("lat_origin", 8)
	u.LonPostInterval = fr.integer("lon_post_interval", 4)
	u.LatPostInterval = fr.integer("lat_post_interval", 4)
	u.VerticalAccuracy = fr.accuracy("abs_vert_acc", 4)
	u.SecurityCode = fr.trimmed(3)
	u.Reference = fr.trimmed(12)
	u.NumLonLines = fr.integer("num_lon_lines", 4)
	u.NumLatPoints = fr.integer("num_lat_points", 4)
	u.MultipleAccuracy = fr.trimmed(1) == "1"

	if fr.err != nil {
		return UHL{}, fmt.Errorf("read UHL of %s: %w", r.Name(), fr.err)
	}
	return u, nil
}

// RecordSize returns the size in bytes of one data record.
func (u UHL) RecordSize() int64 {
	return int64(12 + 2*u.NumLatPoints)
}

func (u UHL) String() string {
	return fmt.Sprintf("UHL origin=(%.4f, %.4f) interval=(%d, %d) size=%dx%d vacc=%d sec=%q ref=%q",
		u.LatOrigin, u.LonOrigin, u.LatPostInterval, u.LonPostInterval,
		u.NumLonLines, u.NumLatPoints, u.VerticalAccuracy, u.SecurityCode, u.Reference)
}

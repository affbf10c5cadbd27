package frame

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/binio"
)

// dsiField locates a field inside the DSI record.
type dsiField struct {
	offset int
	length int
}

// dsiLayout follows MIL-PRF-89020 (DTED), offsets relative to the start of
// the DSI record.
var dsiLayout = map[string]dsiField{
	"recognition":       {0, 3},
	"security_class":    {3, 1},
	"security_markings": {4, 2},
	"security_handling": {6, 27},
	"series":            {59, 5},
	"unique_ref":        {64, 15},
	"edition":           {87, 2},
	"merge_version":     {89, 1},
	"maintenance_date":  {90, 4},
	"merge_date":        {94, 4},
	"maintenance_code":  {98, 4},
	"producer":          {102, 8},
	"product_spec":      {126, 9},
	"spec_amendment":    {135, 2},
	"spec_date":         {137, 4},
	"vertical_datum":    {141, 3},
	"horizontal_datum":  {144, 5},
	"collection_system": {149, 10},
	"compilation_date":  {159, 4},
	"lat_origin":        {185, 9},
	"lon_origin":        {194, 10},
	"sw_lat":            {204, 7},
	"sw_lon":            {211, 8},
	"nw_lat":            {219, 7},
	"nw_lon":            {226, 8},
	"ne_lat":            {234, 7},
	"ne_lon":            {241, 8},
	"se_lat":            {249, 7},
	"se_lon":            {256, 8},
	"orientation":       {264, 9},
	"lat_interval":      {273, 4},
	"lon_interval":      {277, 4},
	"lat_lines":         {281, 4},
	"lon_lines":         {285, 4},
	"partial_cell":      {289, 2},
}

// DSI is the Data Set Identification record.
type DSI struct {
	SecurityClass     string
	Series            string // e.g. DTED1
	UniqueRef         string
	Edition           int
	MergeVersion      string
	MaintenanceDate   string
	MergeDate         string
	MaintenanceCode   string
	Producer          string
	ProductSpec       string
	SpecDate          string
	VerticalDatum     string
	HorizontalDatum   string
	CollectionSystem  string
	CompilationDate   string
	LatOrigin         float64
	LonOrigin         float64
	Orientation       string
	LatPostInterval   int // tenths of arc seconds
	LonPostInterval   int // tenths of arc seconds
	NumLatLines       int
	NumLonLines       int
	PartialCell       int
	NWLat, NWLon      float64
	SELat, SELon      float64
	SWLat, SWLon      float64
	NELat, NELon      float64
	BoundsFromHeaders bool // true when the corners were derived from the UHL
}

// dsiRecord gives named access to the raw DSI bytes.
type dsiRecord string

func (d dsiRecord) raw(name string) string {
	f, ok := dsiLayout[name]
	if !ok || f.offset+f.length > len(d) {
		return ""
	}
	return string(d[f.offset : f.offset+f.length])
}

func (d dsiRecord) text(name string) string {
	return strings.TrimSpace(d.raw(name))
}

func (d dsiRecord) integer(name string) int {
	return parseInt("DSI", name, d.raw(name))
}

func (d dsiRecord) angle(name string) float64 {
	raw := d.raw(name)
	v, err := ParseAngle(raw)
	if err != nil {
		slog.Warn("Malformed angle field, using 0",
			"record", "DSI",
			"field", name,
			"value", raw,
			"error", err)
		return 0
	}
	return v
}

// ReadDSI parses the data set identification record. The UHL is used to
// derive the bounding box when the corner fields are unusable.
func ReadDSI(r binio.RecordReader, uhl UHL) (DSI, error) {
	fr := &fieldReader{r: r, record: "DSI"}
	fr.seek(DSIOffset)
	rec := dsiRecord(fr.str(DSISize))
	if fr.err != nil {
		return DSI{}, fmt.Errorf("read DSI of %s: %w", r.Name(), fr.err)
	}

	d := DSI{
		SecurityClass:    rec.text("security_class"),
		Series:           rec.text("series"),
		UniqueRef:        rec.text("unique_ref"),
		Edition:          rec.integer("edition"),
		MergeVersion:     rec.text("merge_version"),
		MaintenanceDate:  rec.text("maintenance_date"),
		MergeDate:        rec.text("merge_date"),
		MaintenanceCode:  rec.text("maintenance_code"),
		Producer:         rec.text("producer"),
		ProductSpec:      rec.text("product_spec"),
		SpecDate:         rec.text("spec_date"),
		VerticalDatum:    rec.text("vertical_datum"),
		HorizontalDatum:  rec.text("horizontal_datum"),
		CollectionSystem: rec.text("collection_system"),
		CompilationDate:  rec.text("compilation_date"),
		LatOrigin:        rec.angle("lat_origin"),
		LonOrigin:        rec.angle("lon_origin"),
		SWLat:            rec.angle("sw_lat"),
		SWLon:            rec.angle("sw_lon"),
		NWLat:            rec.angle("nw_lat"),
		NWLon:            rec.angle("nw_lon"),
		NELat:            rec.angle("ne_lat"),
		NELon:            rec.angle("ne_lon"),
		SELat:            rec.angle("se_lat"),
		SELon:            rec.angle("se_lon"),
		Orientation:      rec.text("orientation"),
		LatPostInterval:  rec.integer("lat_interval"),
		LonPostInterval:  rec.integer("lon_interval"),
		NumLatLines:      rec.integer("lat_lines"),
		NumLonLines:      rec.integer("lon_lines"),
		PartialCell:      rec.integer("partial_cell"),
	}

	if !(d.NELat > d.SWLat && d.NELon > d.SWLon) {
		d.deriveBounds(uhl)
	}
	return d, nil
}

// deriveBounds computes the corners from the UHL origin and extents.
func (d *DSI) deriveBounds(uhl UHL) {
	d.SWLat = uhl.LatOrigin
	d.SWLon = uhl.LonOrigin
	d.NELat = uhl.LatOrigin + float64(max(uhl.NumLatPoints-1, 0))*float64(uhl.LatPostInterval)/36000
	d.NELon = uhl.LonOrigin + float64(max(uhl.NumLonLines-1, 0))*float64(uhl.LonPostInterval)/36000
	d.NWLat, d.NWLon = d.NELat, d.SWLon
	d.SELat, d.SELon = d.SWLat, d.NELon
	d.BoundsFromHeaders = true
}

// Contains reports whether (lat, lon) lies inside the inclusive bounding box.
func (d DSI) Contains(lat, lon float64) bool {
	return lat >= d.SWLat && lat <= d.NELat && lon >= d.SWLon && lon <= d.NELon
}

func (d DSI) String() string {
	return fmt.Sprintf("DSI %s ref=%q edition=%d box=[%.4f,%.4f]-[%.4f,%.4f] datum=%s/%s",
		d.Series, d.UniqueRef, d.Edition, d.SWLat, d.SWLon, d.NELat, d.NELon,
		d.HorizontalDatum, d.VerticalDatum)
}

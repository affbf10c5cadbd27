package directory

import (
	"gonum.org/v1/gonum/spatial/kdtree"
)

// cellPoint places an indexed cell at its centre for nearest-frame search.
type cellPoint struct {
	Lat, Lon float64
	Cell     Cell
}

func newCellPoint(c Cell) cellPoint {
	return cellPoint{Lat: float64(c.Lat) + 0.5, Lon: float64(c.Lon) + 0.5, Cell: c}
}

func (p cellPoint) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return p.Lat
	}
	return p.Lon
}

// Compare performs axis comparisons for the KD-Tree.
func (p cellPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(cellPoint).coord(d)
}

func (p cellPoint) Dims() int { return 2 }

// Distance returns the squared distance in degrees, as kdtree expects.
func (p cellPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cellPoint)
	dlat := p.Lat - q.Lat
	dlon := p.Lon - q.Lon
	return dlat*dlat + dlon*dlon
}

// cellPoints is the KD-Tree backing collection.
type cellPoints []cellPoint

func (p cellPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p cellPoints) Len() int                              { return len(p) }
func (p cellPoints) Pivot(d kdtree.Dim) int                { return cellPlane{Dim: d, cellPoints: p}.Pivot() }
func (p cellPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// cellPlane sorts a collection along one dimension.
type cellPlane struct {
	kdtree.Dim
	cellPoints
}

func (p cellPlane) Less(i, j int) bool { return p.cellPoints[i].coord(p.Dim) < p.cellPoints[j].coord(p.Dim) }
func (p cellPlane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p cellPlane) Swap(i, j int)      { p.cellPoints[i], p.cellPoints[j] = p.cellPoints[j], p.cellPoints[i] }

func (p cellPlane) Slice(start, end int) kdtree.SortSlicer {
	p.cellPoints = p.cellPoints[start:end]
	return p
}

// buildNearest returns nil when there is nothing to search.
func buildNearest(cells []Cell) *kdtree.Tree {
	if len(cells) == 0 {
		return nil
	}
	pts := make(cellPoints, len(cells))
	for i, c := range cells {
		pts[i] = newCellPoint(c)
	}
	return kdtree.New(pts, false)
}

// nearestCell finds the indexed cell whose centre is closest to (lat, lon).
func nearestCell(t *kdtree.Tree, lat, lon float64) (Cell, bool) {
	if t == nil {
		return Cell{}, false
	}
	got, _ := t.Nearest(cellPoint{Lat: lat, Lon: lon})
	p, ok := got.(cellPoint)
	if !ok {
		return Cell{}, false
	}
	return p.Cell, true
}

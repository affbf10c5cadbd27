package frame

import (
	"fmt"

	"github.com/ZanzyTHEbar/dtedfs/dtedfs/binio"
)

// ACC is the Accuracy Description record. Every value is in meters and
// NotAvailable when the file marks it NA.
type ACC struct {
	AbsHorizontal int
	AbsVertical   int
	RelHorizontal int
	RelVertical   int
}

// ReadACC parses the accuracy description record.
func ReadACC(r binio.RecordReader) (ACC, error) {
	fr := &fieldReader{r: r, record: "ACC"}
	a := ACC{
		AbsHorizontal: NotAvailable,
		AbsVertical:   NotAvailable,
		RelHorizontal: NotAvailable,
		RelVertical:   NotAvailable,
	}

	fr.seek(ACCOffset)
	fr.skip(3)
	a.AbsHorizontal = fr.accuracy("abs_horiz_acc", 4)
	a.AbsVertical = fr.accuracy("abs_vert_acc", 4)
	a.RelHorizontal = fr.accuracy("rel_horiz_acc", 4)
	a.RelVertical = fr.accuracy("rel_vert_acc", 4)

	if fr.err != nil {
		return ACC{}, fmt.Errorf("read ACC of %s: %w", r.Name(), fr.err)
	}
	return a, nil
}

func (a ACC) String() string {
	return fmt.Sprintf("ACC abs=(%d, %d) rel=(%d, %d)",
		a.AbsHorizontal, a.AbsVertical, a.RelHorizontal, a.RelVertical)
}

// Package assembler rebuilds rows from the flat, cell-level event stream of a scan.
//
// An Assembler is fed startRow, then any number of startCell / cellValue+ / finishCell
// sequences, then finishRow. Cell values may arrive split over several chunks and are
// concatenated in order. The finished row lists families sorted by name and, inside each
// family, columns sorted by qualifier bytes; cells keep the order the server sent them in.
package assembler

import (
	"bytes"
	"github.com/litetable/litetable-io/internal/litetable"
	"slices"
	"sort"
)

type cellState struct {
	family    string
	qualifier []byte
	timestamp int64
	labels    []string
	value     []byte
}

// Assembler holds the working state of the row being built. State left over from a previous
// row is a correctness bug, so a row must either be finished on a fresh Assembler or Reset
// must be called in between.
type Assembler struct {
	key     litetable.Key
	inRow   bool
	current *cellState

	// family name -> qualifier -> cells
	families map[string]map[string][]litetable.Cell
}

// New returns an empty Assembler.
func New() *Assembler {
	return &Assembler{
		families: make(map[string]map[string][]litetable.Cell),
	}
}

// StartRow opens the row identified by key.
func (a *Assembler) StartRow(key litetable.Key) error {
	if a.inRow {
		return litetable.NewError(litetable.ErrInvariant, "row %q started before %q finished",
			key, a.key)
	}
	if len(key) == 0 {
		return litetable.NewError(litetable.ErrInvariant, "row started with an empty key")
	}
	a.key = bytes.Clone(key)
	a.inRow = true
	return nil
}

// StartCell opens a cell. size is the announced full value size and is used to presize the
// value buffer.
func (a *Assembler) StartCell(family string, qualifier []byte, timestampMicros int64,
	labels []string, size int64) error {
	if !a.inRow {
		return litetable.NewError(litetable.ErrInvariant, "cell started outside of a row")
	}
	if a.current != nil {
		return litetable.NewError(litetable.ErrInvariant, "cell started before the previous one finished")
	}
	if size < 0 {
		size = 0
	}
	a.current = &cellState{
		family:    family,
		qualifier: bytes.Clone(qualifier),
		timestamp: timestampMicros,
		labels:    slices.Clone(labels),
		value:     make([]byte, 0, size),
	}
	return nil
}

// CellValue appends the next chunk of the current cell value.
func (a *Assembler) CellValue(chunk []byte) error {
	if a.current == nil {
		return litetable.NewError(litetable.ErrInvariant, "cell value without a started cell")
	}
	a.current.value = append(a.current.value, chunk...)
	return nil
}

// FinishCell stores the current cell under its family and qualifier.
func (a *Assembler) FinishCell() error {
	c := a.current
	if c == nil {
		return litetable.NewError(litetable.ErrInvariant, "cell finished without being started")
	}

	columns, ok := a.families[c.family]
	if !ok {
		columns = make(map[string][]litetable.Cell)
		a.families[c.family] = columns
	}
	q := string(c.qualifier)
	columns[q] = append(columns[q], litetable.Cell{
		Value:           c.value,
		TimestampMicros: c.timestamp,
		Labels:          c.labels,
	})

	a.current = nil
	return nil
}

// FinishRow returns the assembled row. The Assembler must be Reset before it is used for the
// next row.
func (a *Assembler) FinishRow() (*litetable.Row, error) {
	if !a.inRow {
		return nil, litetable.NewError(litetable.ErrInvariant, "row finished without being started")
	}
	if a.current != nil {
		return nil, litetable.NewError(litetable.ErrInvariant, "row %q finished inside a cell", a.key)
	}

	names := make([]string, 0, len(a.families))
	for name := range a.families {
		names = append(names, name)
	}
	sort.Strings(names)

	row := &litetable.Row{
		Key:      a.key,
		Families: make([]litetable.Family, 0, len(names)),
	}
	for _, name := range names {
		columns := a.families[name]
		qualifiers := make([]string, 0, len(columns))
		for q := range columns {
			qualifiers = append(qualifiers, q)
		}
		// string order is byte order, which is the qualifier order
		sort.Strings(qualifiers)

		f := litetable.Family{
			Name:    name,
			Columns: make([]litetable.Column, 0, len(qualifiers)),
		}
		for _, q := range qualifiers {
			f.Columns = append(f.Columns, litetable.Column{
				Qualifier: []byte(q),
				Cells:     columns[q],
			})
		}
		row.Families = append(row.Families, f)
	}

	a.inRow = false
	return row, nil
}

// ScanMarker returns the metadata-only marker row. It carries no key so it can never be mistaken
// for data.
func (a *Assembler) ScanMarker() *litetable.Row {
	return &litetable.Row{}
}

// Reset discards all per-row state.
func (a *Assembler) Reset() {
	a.key = nil
	a.inRow = false
	a.current = nil
	a.families = make(map[string]map[string][]litetable.Cell)
}

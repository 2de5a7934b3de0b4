package emulator

import (
	"bytes"
	"github.com/litetable/litetable-io/internal/litetable"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"sort"
	"time"
)

// serverTimestamp asks the store to stamp a SetCell with its own clock.
const serverTimestamp = -1

// apply runs every mutation of entry against the row. Nothing is applied unless all of them
// are valid.
func (t *table) apply(entry *litetable.MutationEntry) error {
	if len(entry.RowKey) == 0 {
		return status.Error(codes.InvalidArgument, "row key is required")
	}
	for _, m := range entry.Mutations {
		if err := t.check(m); err != nil {
			return err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows.Get(&storedRow{key: entry.RowKey})
	if !ok {
		row = &storedRow{
			key:      bytes.Clone(entry.RowKey),
			families: make(map[string]map[string][]litetable.Cell),
		}
	}

	for _, m := range entry.Mutations {
		switch m.Type {
		case litetable.MutationSetCell:
			setCell(row, m)
		case litetable.MutationDeleteFromColumn:
			deleteFromColumn(row, m)
		case litetable.MutationDeleteFromFamily:
			delete(row.families, m.Family)
		case litetable.MutationDeleteFromRow:
			row.families = make(map[string]map[string][]litetable.Cell)
		}
	}

	if row.empty() {
		t.rows.Delete(row)
		return nil
	}
	t.rows.ReplaceOrInsert(row)
	return nil
}

func (t *table) check(m litetable.Mutation) error {
	switch m.Type {
	case litetable.MutationSetCell, litetable.MutationDeleteFromColumn, litetable.MutationDeleteFromFamily:
		if !t.isFamilyAllowed(m.Family) {
			return status.Errorf(codes.NotFound, "column family not allowed: %s", m.Family)
		}
	case litetable.MutationDeleteFromRow:
	default:
		return status.Errorf(codes.InvalidArgument, "unknown mutation %s", m.Type)
	}
	if m.Type == litetable.MutationDeleteFromColumn && m.EndMicros != 0 && m.EndMicros <= m.StartMicros {
		return status.Errorf(codes.InvalidArgument, "empty timestamp range [%d, %d)",
			m.StartMicros, m.EndMicros)
	}
	return nil
}

// setCell keeps the cells of a column ordered newest first. A cell with the same timestamp is
// overwritten.
func setCell(row *storedRow, m litetable.Mutation) {
	ts := m.TimestampMicros
	if ts == serverTimestamp {
		ts = time.Now().UnixMicro()
	}

	columns, ok := row.families[m.Family]
	if !ok {
		columns = make(map[string][]litetable.Cell)
		row.families[m.Family] = columns
	}
	q := string(m.Qualifier)
	cells := columns[q]

	i := sort.Search(len(cells), func(i int) bool {
		return cells[i].TimestampMicros <= ts
	})
	cell := litetable.Cell{Value: bytes.Clone(m.Value), TimestampMicros: ts}
	if i < len(cells) && cells[i].TimestampMicros == ts {
		cells[i] = cell
	} else {
		cells = append(cells, litetable.Cell{})
		copy(cells[i+1:], cells[i:])
		cells[i] = cell
	}
	columns[q] = cells
}

func deleteFromColumn(row *storedRow, m litetable.Mutation) {
	columns, ok := row.families[m.Family]
	if !ok {
		return
	}
	q := string(m.Qualifier)

	kept := columns[q][:0]
	for _, c := range columns[q] {
		inRange := c.TimestampMicros >= m.StartMicros && (m.EndMicros == 0 || c.TimestampMicros < m.EndMicros)
		if !inRange {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(columns, q)
		return
	}
	columns[q] = kept
}

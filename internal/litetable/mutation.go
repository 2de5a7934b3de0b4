package litetable

// MutationType identifies the kind of change a Mutation applies to a row.
type MutationType int

const (
	MutationUnknown MutationType = iota
	// MutationSetCell writes a value into a family/qualifier at a timestamp.
	MutationSetCell
	// MutationDeleteFromColumn removes the cells of a qualifier, optionally limited to a
	// timestamp range.
	MutationDeleteFromColumn
	// MutationDeleteFromFamily removes every cell of a family.
	MutationDeleteFromFamily
	// MutationDeleteFromRow removes the whole row.
	MutationDeleteFromRow
)

func (t MutationType) String() string {
	switch t {
	case MutationSetCell:
		return "SET_CELL"
	case MutationDeleteFromColumn:
		return "DELETE_FROM_COLUMN"
	case MutationDeleteFromFamily:
		return "DELETE_FROM_FAMILY"
	case MutationDeleteFromRow:
		return "DELETE_FROM_ROW"
	}
	return "UNKNOWN"
}

// Mutation is a single change to a row. The writer never looks inside a mutation; only the
// store applying the batch does.
type Mutation struct {
	Type            MutationType `json:"type"`
	Family          string       `json:"family,omitempty"`
	Qualifier       []byte       `json:"qualifier,omitempty"`
	TimestampMicros int64        `json:"timestamp,omitempty"`
	Value           []byte       `json:"value,omitempty"`

	// StartMicros and EndMicros bound a DeleteFromColumn. Zero means unbounded; the range is
	// [StartMicros, EndMicros).
	StartMicros int64 `json:"start,omitempty"`
	EndMicros   int64 `json:"end,omitempty"`
}

// SetCell returns a mutation writing value at family/qualifier.
func SetCell(family string, qualifier []byte, timestampMicros int64, value []byte) Mutation {
	return Mutation{
		Type:            MutationSetCell,
		Family:          family,
		Qualifier:       qualifier,
		TimestampMicros: timestampMicros,
		Value:           value,
	}
}

// DeleteFromColumn returns a mutation removing every cell of family/qualifier.
func DeleteFromColumn(family string, qualifier []byte) Mutation {
	return Mutation{Type: MutationDeleteFromColumn, Family: family, Qualifier: qualifier}
}

// DeleteFromFamily returns a mutation removing a whole family from the row.
func DeleteFromFamily(family string) Mutation {
	return Mutation{Type: MutationDeleteFromFamily, Family: family}
}

// DeleteFromRow returns a mutation removing the row.
func DeleteFromRow() Mutation {
	return Mutation{Type: MutationDeleteFromRow}
}

// MutationEntry is the unit handed to a batcher: all mutations for one row, applied atomically.
type MutationEntry struct {
	RowKey    Key
	Mutations []Mutation
}

// RowMutations converts a row into the SetCell mutations that would recreate it.
func RowMutations(r *Row) []Mutation {
	var out []Mutation
	for _, f := range r.Families {
		for _, c := range f.Columns {
			for _, cell := range c.Cells {
				out = append(out, SetCell(f.Name, c.Qualifier, cell.TimestampMicros, cell.Value))
			}
		}
	}
	return out
}

package litetable

import (
	"bytes"
	"sort"
)

// Key is a row key. Keys order by unsigned lexicographic comparison of their bytes; the empty
// key is reserved as the open end of the keyspace and never names a row.
type Key []byte

// Compare returns -1, 0 or 1 comparing k and o byte-wise.
func (k Key) Compare(o Key) int {
	return bytes.Compare(k, o)
}

func (k Key) String() string {
	return string(k)
}

// Cell is a single timestamped value stored under a family/qualifier pair.
type Cell struct {
	Value           []byte   `json:"value"`
	TimestampMicros int64    `json:"timestamp"`
	Labels          []string `json:"labels,omitempty"`
}

// Column holds the cells of one qualifier in the order the server delivered them.
type Column struct {
	Qualifier []byte `json:"qualifier"`
	Cells     []Cell `json:"cells"`
}

// Family groups the columns of one column family, ordered by qualifier bytes.
type Family struct {
	Name    string   `json:"name"`
	Columns []Column `json:"cols"`
}

// Row defines a row of data read from a table:
//
// Example:
//
//	Row{
//	  Key: Key("row1"),
//	  Families: []Family{
//	    {Name: "family1", Columns: []Column{
//	      {Qualifier: []byte("qualifier1"), Cells: []Cell{{Value: []byte("value1")}}},
//	      {Qualifier: []byte("qualifier2"), Cells: []Cell{{Value: []byte("value2")}}},
//	    }},
//	    {Name: "family2", Columns: []Column{
//	      {Qualifier: []byte("qualifier1"), Cells: []Cell{{Value: []byte("value3")}}},
//	    }},
//	  },
//	}
//
// Families are ordered by name and columns by qualifier bytes. A Row with a nil Key is a scan
// marker: it carries no data and only tells the reader how far the server has scanned.
type Row struct {
	Key      Key      `json:"key"`
	Families []Family `json:"families"`
}

// IsScanMarker reports whether r is a metadata-only marker row.
func (r *Row) IsScanMarker() bool {
	return r != nil && r.Key == nil
}

// Family returns the named family, if present.
func (r *Row) Family(name string) (*Family, bool) {
	i := sort.Search(len(r.Families), func(i int) bool {
		return r.Families[i].Name >= name
	})
	if i < len(r.Families) && r.Families[i].Name == name {
		return &r.Families[i], true
	}
	return nil, false
}

// Cells returns the cells stored under family/qualifier, or nil.
func (r *Row) Cells(family string, qualifier []byte) []Cell {
	f, ok := r.Family(family)
	if !ok {
		return nil
	}
	i := sort.Search(len(f.Columns), func(i int) bool {
		return bytes.Compare(f.Columns[i].Qualifier, qualifier) >= 0
	})
	if i < len(f.Columns) && bytes.Equal(f.Columns[i].Qualifier, qualifier) {
		return f.Columns[i].Cells
	}
	return nil
}

// SerializedSize approximates the encoded size of the row on the wire. It is used to bound
// how much data a single scan segment may buffer.
func (r *Row) SerializedSize() int64 {
	size := int64(len(r.Key))
	for _, f := range r.Families {
		size += int64(len(f.Name))
		for _, c := range f.Columns {
			size += int64(len(c.Qualifier))
			for _, cell := range c.Cells {
				// timestamp varint upper bound
				size += int64(len(cell.Value)) + 8
				for _, l := range cell.Labels {
					size += int64(len(l))
				}
			}
		}
	}
	return size
}

// KeyOffset is a sampled row key together with the approximate number of bytes stored in the
// table up to that key.
type KeyOffset struct {
	Key    Key
	Offset int64
}

// Package emulator is an in-process store that answers the transport.Client calls. Every
// table is an ordered keyspace held in a B-tree; rows are stored as family -> qualifier ->
// cells, newest cell first.
package emulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/btree"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"io"
	"sort"
	"sync"
	"time"
)

const (
	defaultDegree          = 32
	defaultSampleBytes     = 1 << 20
	defaultMaxBatchEntries = 100
)

type storedRow struct {
	key      litetable.Key
	families map[string]map[string][]litetable.Cell
}

func lessRow(a, b *storedRow) bool {
	return bytes.Compare(a.key, b.key) < 0
}

func (r *storedRow) empty() bool {
	for _, columns := range r.families {
		for _, cells := range columns {
			if len(cells) > 0 {
				return false
			}
		}
	}
	return true
}

// row returns a copy of r with families and qualifiers in order.
func (r *storedRow) row() *litetable.Row {
	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &litetable.Row{Key: bytes.Clone(r.key)}
	for _, name := range names {
		columns := r.families[name]
		qualifiers := make([]string, 0, len(columns))
		for q, cells := range columns {
			if len(cells) > 0 {
				qualifiers = append(qualifiers, q)
			}
		}
		if len(qualifiers) == 0 {
			continue
		}
		sort.Strings(qualifiers)

		f := litetable.Family{Name: name}
		for _, q := range qualifiers {
			f.Columns = append(f.Columns, litetable.Column{
				Qualifier: []byte(q),
				Cells:     append([]litetable.Cell(nil), columns[q]...),
			})
		}
		out.Families = append(out.Families, f)
	}
	return out
}

type table struct {
	mu              sync.RWMutex
	rows            *btree.BTreeG[*storedRow]
	allowedFamilies map[string]struct{}
}

func (t *table) isFamilyAllowed(family string) bool {
	_, ok := t.allowedFamilies[family]
	return ok
}

// Emulator implements transport.Client over in-memory tables.
type Emulator struct {
	mu     sync.RWMutex
	tables map[string]*table

	degree          int
	chunkSize       int
	sampleBytes     int64
	maxBatchEntries int
	flushInterval   time.Duration
	scanMarkers     bool
}

type Config struct {
	// Degree of the B-tree of every table.
	Degree int
	// ChunkSize splits cell values into chunks of at most this many bytes on a scan. Zero
	// sends every value in one chunk.
	ChunkSize int
	// SampleBytes is the distance between two sampled keys.
	SampleBytes int64
	// MaxBatchEntries queued on a batcher trigger a flush.
	MaxBatchEntries int
	// FlushInterval makes batchers flush on a timer as well. Zero disables it.
	FlushInterval time.Duration
	// ScanMarkers emits a scan marker after every row of a scan.
	ScanMarkers bool
}

func (c *Config) validate() error {
	var errs []error
	if c.Degree < 0 || c.Degree == 1 {
		errs = append(errs, errors.New("degree must be at least 2"))
	}
	if c.ChunkSize < 0 {
		errs = append(errs, errors.New("chunk size must not be negative"))
	}
	if c.SampleBytes < 0 {
		errs = append(errs, errors.New("sample bytes must not be negative"))
	}
	if c.MaxBatchEntries < 0 {
		errs = append(errs, errors.New("max batch entries must not be negative"))
	}
	if c.FlushInterval < 0 {
		errs = append(errs, errors.New("flush interval must not be negative"))
	}
	return errors.Join(errs...)
}

// New returns an Emulator without any tables.
func New(cfg *Config) (*Emulator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	e := &Emulator{
		tables:          make(map[string]*table),
		degree:          cfg.Degree,
		chunkSize:       cfg.ChunkSize,
		sampleBytes:     cfg.SampleBytes,
		maxBatchEntries: cfg.MaxBatchEntries,
		flushInterval:   cfg.FlushInterval,
		scanMarkers:     cfg.ScanMarkers,
	}
	if e.degree == 0 {
		e.degree = defaultDegree
	}
	if e.sampleBytes == 0 {
		e.sampleBytes = defaultSampleBytes
	}
	if e.maxBatchEntries == 0 {
		e.maxBatchEntries = defaultMaxBatchEntries
	}
	return e, nil
}

// CreateTable adds an empty table accepting the given column families.
func (e *Emulator) CreateTable(id string, families ...string) error {
	if id == "" {
		return status.Error(codes.InvalidArgument, "table id is required")
	}
	if len(families) == 0 {
		return status.Errorf(codes.InvalidArgument, "table %s needs at least one family", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.tables[id]; exists {
		return status.Errorf(codes.AlreadyExists, "table %s already exists", id)
	}

	t := &table{
		rows:            btree.NewG[*storedRow](e.degree, lessRow),
		allowedFamilies: make(map[string]struct{}, len(families)),
	}
	for _, f := range families {
		t.allowedFamilies[f] = struct{}{}
	}
	e.tables[id] = t

	log.Debug().Str("table", id).Strs("families", families).Msg("table created")
	return nil
}

func (e *Emulator) table(id string) (*table, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, ok := e.tables[id]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "table %s not found", id)
	}
	return t, nil
}

func (e *Emulator) TableExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, status.FromContextError(err).Err()
	}
	_, err := e.table(id)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	return err == nil, err
}

// Families returns the column families table id accepts, sorted by name.
func (e *Emulator) Families(id string) ([]string, error) {
	t, err := e.table(id)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(t.allowedFamilies))
	for f := range t.allowedFamilies {
		names = append(names, f)
	}
	sort.Strings(names)
	return names, nil
}

// Load writes the rows of a JSON stream into table, creating it with the families it finds
// when it does not exist yet. Cells keep their timestamps.
func (e *Emulator) Load(id string, r io.Reader) (int, error) {
	var rows []*litetable.Row
	families := make(map[string]struct{})

	dec := json.NewDecoder(r)
	for {
		var row litetable.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to decode row %d: %w", len(rows)+1, err)
		}
		if len(row.Key) == 0 {
			return 0, fmt.Errorf("row %d has no key", len(rows)+1)
		}
		for _, f := range row.Families {
			families[f.Name] = struct{}{}
		}
		rows = append(rows, &row)
	}

	if _, err := e.table(id); status.Code(err) == codes.NotFound {
		names := make([]string, 0, len(families))
		for f := range families {
			names = append(names, f)
		}
		sort.Strings(names)
		if err := e.CreateTable(id, names...); err != nil {
			return 0, err
		}
	}

	t, err := e.table(id)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := t.apply(&litetable.MutationEntry{
			RowKey:    row.Key,
			Mutations: litetable.RowMutations(row),
		}); err != nil {
			return 0, err
		}
	}

	log.Info().Str("table", id).Int("rows", len(rows)).Msg("table loaded")
	return len(rows), nil
}

var _ transport.Client = (*Emulator)(nil)

package config

import (
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const full = `
# copy job
project_id = p1
instance_id = i1
source_table = events
destination_table = events_copy
ranges = a..c, m.., ..b0
row_filter = family:f
max_buffer_element_count = 500
max_segment_bytes = 64MB
attempt_timeout = 2s
operation_timeout = 1m
bundle_size = 1 GiB
parallelism = 8
metrics_address = :9090
seed_file = /tmp/seed.json
debug = true
not_a_key_value_line
unknown_key = whatever
`

func TestParse(t *testing.T) {
	t.Parallel()
	req := require.New(t)

	got, err := Parse(strings.NewReader(full))
	req.NoError(err)

	count := 500
	req.Equal(&Config{
		ProjectID:        "p1",
		InstanceID:       "i1",
		SourceTable:      "events",
		DestinationTable: "events_copy",
		Ranges: []keyrange.KeyRange{
			keyrange.ClosedOpen(litetable.Key("a"), litetable.Key("c")),
			{StartKey: litetable.Key("m"), StartBound: keyrange.Closed},
			{EndKey: litetable.Key("b0"), EndBound: keyrange.Open},
		},
		RowFilter:             []byte("family:f"),
		MaxBufferElementCount: &count,
		MaxSegmentBytes:       64_000_000,
		AttemptTimeout:        2 * time.Second,
		OperationTimeout:      time.Minute,
		BundleSize:            1 << 30,
		Parallelism:           8,
		MetricsAddress:        ":9090",
		SeedFile:              "/tmp/seed.json",
		Debug:                 true,
	}, got)
}

func TestParse_errors(t *testing.T) {
	t.Parallel()
	const tables = "source_table = a\ndestination_table = b\n"
	tests := map[string]struct {
		input   string
		wantErr string
	}{
		"missing tables": {
			input:   "debug = true",
			wantErr: "source_table is required\ndestination_table is required",
		},
		"range without separator": {
			input:   tables + "ranges = a-c",
			wantErr: `invalid ranges value: range "a-c" has no ..`,
		},
		"bad size": {
			input:   tables + "max_segment_bytes = lots",
			wantErr: "invalid max segment bytes value",
		},
		"bad duration": {
			input:   tables + "attempt_timeout = 5",
			wantErr: "invalid attempt timeout value",
		},
		"bad count": {
			input:   tables + "max_buffer_element_count = ten",
			wantErr: "invalid max buffer element count value",
		},
		"non positive count": {
			input:   tables + "max_buffer_element_count = 0",
			wantErr: "max_buffer_element_count must be positive",
		},
		"negative parallelism": {
			input:   tables + "parallelism = -2",
			wantErr: "parallelism must not be negative",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestParse_bufferCountAbsent(t *testing.T) {
	t.Parallel()
	got, err := Parse(strings.NewReader("source_table = a\ndestination_table = b"))
	require.NoError(t, err)
	require.Nil(t, got.MaxBufferElementCount)
	require.Nil(t, got.Ranges)
}

func TestNewConfig(t *testing.T) {
	t.Parallel()
	req := require.New(t)
	dir := t.TempDir()

	_, err := NewConfig(filepath.Join(dir, "missing.conf"))
	req.ErrorContains(err, "not found")

	path := filepath.Join(dir, "job.conf")
	req.NoError(os.WriteFile(path, []byte(full), 0o600))
	got, err := NewConfig(path)
	req.NoError(err)
	req.Equal("events", got.SourceTable)
}

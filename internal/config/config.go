package config

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/litetable/litetable-io/internal/keyrange"
	"github.com/litetable/litetable-io/internal/litetable"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	configFileName = "litetable-io.conf"
	rangeSeparator = ".."
)

// Config is the configuration of a copy job, read from a key = value file. Lines starting
// with # are comments.
type Config struct {
	ProjectID        string
	InstanceID       string
	SourceTable      string
	DestinationTable string

	// Ranges are closed at the start and open at the end. An empty side is unbounded.
	Ranges    []keyrange.KeyRange
	RowFilter []byte

	// MaxBufferElementCount is nil unless max_buffer_element_count is present.
	MaxBufferElementCount *int
	MaxSegmentBytes       int64
	AttemptTimeout        time.Duration
	OperationTimeout      time.Duration

	BundleSize  int64
	Parallelism int

	MetricsAddress string
	SeedFile       string
	Debug          bool
}

// NewConfig reads the configuration at path. An empty path reads litetable-io.conf from the
// LiteTable directory.
func NewConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = litetable.DefaultPath(configFileName)
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file %s not found", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a configuration from r. Unknown keys are ignored.
func Parse(r io.Reader) (*Config, error) {
	config := &Config{}
	scanner := bufio.NewScanner(r)

	var err error
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "project_id":
			config.ProjectID = value
		case "instance_id":
			config.InstanceID = value
		case "source_table":
			config.SourceTable = value
		case "destination_table":
			config.DestinationTable = value
		case "ranges":
			config.Ranges, err = parseRanges(value)
			if err != nil {
				return nil, fmt.Errorf("invalid ranges value: %w", err)
			}
		case "row_filter":
			config.RowFilter = []byte(value)
		case "max_buffer_element_count":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid max buffer element count value: %w", err)
			}
			config.MaxBufferElementCount = &n
		case "max_segment_bytes":
			config.MaxSegmentBytes, err = parseBytes(value)
			if err != nil {
				return nil, fmt.Errorf("invalid max segment bytes value: %w", err)
			}
		case "attempt_timeout":
			config.AttemptTimeout, err = time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid attempt timeout value: %w", err)
			}
		case "operation_timeout":
			config.OperationTimeout, err = time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid operation timeout value: %w", err)
			}
		case "bundle_size":
			config.BundleSize, err = parseBytes(value)
			if err != nil {
				return nil, fmt.Errorf("invalid bundle size value: %w", err)
			}
		case "parallelism":
			config.Parallelism, err = strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid parallelism value: %w", err)
			}
		case "metrics_address":
			config.MetricsAddress = value
		case "seed_file":
			config.SeedFile = value
		case "debug":
			config.Debug = value == "true"
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.SourceTable == "" {
		errs = append(errs, errors.New("source_table is required"))
	}
	if c.DestinationTable == "" {
		errs = append(errs, errors.New("destination_table is required"))
	}
	if c.MaxBufferElementCount != nil && *c.MaxBufferElementCount <= 0 {
		errs = append(errs, errors.New("max_buffer_element_count must be positive"))
	}
	if c.AttemptTimeout < 0 || c.OperationTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.Parallelism < 0 {
		errs = append(errs, errors.New("parallelism must not be negative"))
	}
	return errors.Join(errs...)
}

// parseBytes accepts sizes such as 64MB, 1 GiB or 4096.
func parseBytes(value string) (int64, error) {
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%s is too large", value)
	}
	return int64(n), nil
}

// parseRanges reads a comma separated list of start..end ranges.
func parseRanges(value string) ([]keyrange.KeyRange, error) {
	var out []keyrange.KeyRange
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start, end, ok := strings.Cut(part, rangeSeparator)
		if !ok {
			return nil, fmt.Errorf("range %q has no %s", part, rangeSeparator)
		}
		out = append(out, keyrange.ClosedOpen(key(start), key(end)))
	}
	return out, nil
}

func key(s string) litetable.Key {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return litetable.Key(s)
}

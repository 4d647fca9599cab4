// Package ingest loads the broker deal ledger, the strategy trade log and the
// signal log from CSV into the typed rows the reconciler consumes.
//
// Cells are read as text and cast leniently: an empty or malformed numeric
// cell becomes zero. Broker money columns stay text because the reconciler
// owns their parsing.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cast"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// LoadFile opens path and applies load to it.
func LoadFile[T any](path string, load func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return rows, nil
}

// readCSV reads all of r and checks the header for required columns. An
// empty input yields nil data.
func readCSV(r io.Reader, required ...string) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return data, nil
}

// decode unmarshals every record of data into out.
func decode(data []byte, out any) error {
	if err := gocsv.Unmarshal(bytes.NewReader(data), out); err != nil {
		return fmt.Errorf("decode csv: %w", err)
	}
	return nil
}

func toInt64(s string) int64 {
	return cast.ToInt64(strings.TrimSpace(s))
}

func toFloat(s string) float64 {
	return cast.ToFloat64(strings.TrimSpace(s))
}

// toFloatPtr returns nil for an empty or malformed cell.
func toFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return nil
	}
	return &v
}

func toBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true
	}
	return cast.ToBool(strings.TrimSpace(s))
}

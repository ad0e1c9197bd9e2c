// Package csvfile keeps tables as flat CSV files with a header row. Files
// are read whole and rewritten whole.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
)

type record map[string]string

func (r record) intValue(column string) int {
	v := strings.TrimSpace(r[column])
	if v == "" {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	// pandas writes integer columns as floats once a NaN has been seen
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return int(f)
	}
	return 0
}

func (r record) clone() record {
	if r == nil {
		return make(record)
	}
	return maps.Clone(r)
}

// keep reports whether the cell already holds text for column that reads
// back as the wanted value. Untouched cells keep their original spelling.
func (r record) keep(column string, same func(raw string) bool) bool {
	raw, ok := r[column]
	return ok && same(raw)
}

func (r record) setInt(column string, n int) {
	if r.keep(column, func(string) bool { return r.intValue(column) == n }) {
		return
	}
	r[column] = strconv.Itoa(n)
}

func (r record) setTimestamp(column string, ts time.Time) {
	if r.keep(column, func(raw string) bool { return models.ParseTimestamp(raw).Equal(ts) }) {
		return
	}
	r[column] = models.FormatTimestamp(ts)
}

// table is a file as read: its header in file order and one record per
// row. Columns the code does not know about ride along untouched.
type table struct {
	header  []string
	records []record
}

// withColumns appends any of columns the header lacks, keeping the
// existing order.
func (t *table) withColumns(columns []string) {
	have := make(map[string]bool, len(t.header))
	for _, col := range t.header {
		have[col] = true
	}
	for _, col := range columns {
		if !have[col] {
			t.header = append(t.header, col)
		}
	}
}

func (t *table) rows() [][]string {
	rows := make([][]string, 0, len(t.records))
	for _, rec := range t.records {
		row := make([]string, len(t.header))
		for i, col := range t.header {
			row[i] = rec[col]
		}
		rows = append(rows, row)
	}
	return rows
}

// readTable returns an empty table for a missing, empty or malformed file.
func readTable(path string) (table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return table{}, nil
	}
	if err != nil {
		return table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return table{}, nil
	}
	if err != nil {
		logger.Error.Printf("Malformed header in %s, treating as empty: %v", path, err)
		return table{}, nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows, err := r.ReadAll()
	if err != nil {
		logger.Error.Printf("Malformed CSV in %s, treating as empty: %v", path, err)
		return table{}, nil
	}

	records := make([]record, 0, len(rows))
	for _, row := range rows {
		rec := make(record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return table{header: header, records: records}, nil
}

// writeTable replaces the file in one rename so readers never see a half-written table.
func writeTable(path string, t table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(t.header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(t.rows()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Package record loads the recognizer output that an operator reviews.
package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	vimage "anpr-validator/internal/image"
)

// Required input columns.
const (
	ColumnID         = "vdata_id"
	ColumnFrontText  = "fr_anpr"
	ColumnRearText   = "re_anpr"
	ColumnFrontImage = "fr_mediaid"
	ColumnRearImage  = "re_mediaid"
)

// RequiredColumns lists the columns every input file must carry.
var RequiredColumns = []string{ColumnID, ColumnFrontText, ColumnRearText, ColumnFrontImage, ColumnRearImage}

// MissingColumnsError reports required columns absent from an input header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// ErrEmptyFile is returned for an input without a header row.
var ErrEmptyFile = errors.New("input file is empty")

// SourceRecord is one row of the input dataset.
type SourceRecord struct {
	Index  int
	header []string
	values []string
	cols   map[string]int
}

// Get returns the value of the named column, or "" if absent.
func (r SourceRecord) Get(column string) string {
	i, ok := r.cols[column]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// ID returns the record's unique key.
func (r SourceRecord) ID() string {
	return r.Get(ColumnID)
}

// Text returns the recognized plate text for a side.
func (r SourceRecord) Text(side vimage.Side) string {
	if side == vimage.SideRear {
		return r.Get(ColumnRearText)
	}
	return r.Get(ColumnFrontText)
}

// ImageRef returns the media reference for a side.
func (r SourceRecord) ImageRef(side vimage.Side) string {
	if side == vimage.SideRear {
		return r.Get(ColumnRearImage)
	}
	return r.Get(ColumnFrontImage)
}

// Values returns a copy of the row in input column order.
func (r SourceRecord) Values() []string {
	out := make([]string, len(r.header))
	copy(out, r.values)
	return out
}

// Dataset is the full input table, loaded once per session.
type Dataset struct {
	Path    string
	header  []string
	cols    map[string]int
	records []SourceRecord
	byID    map[string]int
}

// Load reads a CSV dataset and checks the required columns.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Parse(f)
	if err != nil {
		return nil, err
	}
	ds.Path = path
	return ds, nil
}

// Parse reads a CSV dataset from r.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	ds := &Dataset{
		header: header,
		cols:   cols,
		byID:   make(map[string]int),
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(ds.records)+2, err)
		}

		values := make([]string, len(header))
		copy(values, row)
		for i := range values {
			values[i] = strings.TrimSpace(values[i])
		}

		rec := SourceRecord{
			Index:  len(ds.records),
			header: header,
			values: values,
			cols:   cols,
		}
		if _, dup := ds.byID[rec.ID()]; dup {
			log.Printf("Dataset: duplicate %s %q at row %d, ledger keeps the first", ColumnID, rec.ID(), rec.Index+2)
		} else {
			ds.byID[rec.ID()] = rec.Index
		}
		ds.records = append(ds.records, rec)
	}

	return ds, nil
}

// Header returns the input columns in order.
func (d *Dataset) Header() []string {
	out := make([]string, len(d.header))
	copy(out, d.header)
	return out
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the record at index i.
func (d *Dataset) At(i int) (SourceRecord, bool) {
	if i < 0 || i >= len(d.records) {
		return SourceRecord{}, false
	}
	return d.records[i], true
}

// Lookup returns the first record with the given id.
func (d *Dataset) Lookup(id string) (SourceRecord, bool) {
	i, ok := d.byID[id]
	if !ok {
		return SourceRecord{}, false
	}
	return d.records[i], true
}

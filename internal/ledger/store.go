package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// OutputSuffix is appended to the input base name to form the ledger file name.
const OutputSuffix = "_VALIDATED.csv"

var errNoLedger = errors.New("no ledger file")

// Store persists a full snapshot of the ledger.
type Store interface {
	Write(header []string, rows []Row) error
	Close() error
}

// OutputPath returns the ledger path for an input dataset: the input's
// directory and base name with OutputSuffix.
func OutputPath(input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), base+OutputSuffix)
}

// CSVStore writes the ledger as a CSV file. Each write goes to a temporary
// file in the same directory which is then renamed over Path.
type CSVStore struct {
	Path string
}

// NewCSVStore creates a store writing to path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// Write replaces the file with header and rows.
func (s *CSVStore) Write(header []string, rows []Row) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, header, rows); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.Path, err)
	}
	return nil
}

// Close is a no-op; every Write is complete on return.
func (s *CSVStore) Close() error {
	return nil
}

func writeCSV(w io.Writer, header []string, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Fields()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a ledger file written by CSVStore.
func ReadCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, errNoLedger
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, errNoLedger
	}
	return all[0], all[1:], nil
}

// MultiStore writes to several stores. Every store is tried and the errors
// are joined.
type MultiStore []Store

// Write writes to every store.
func (m MultiStore) Write(header []string, rows []Row) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(header, rows); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every store.
func (m MultiStore) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

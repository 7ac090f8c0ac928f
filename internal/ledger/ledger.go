// Package ledger accumulates operator verdicts per record and side and keeps
// them persisted after every change.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/record"
	"anpr-validator/internal/verdict"
)

// Columns appended to the input header.
const (
	ColumnFrontValidation = "fr_validation"
	ColumnRearValidation  = "re_validation"
)

// ErrUnknownRecord is returned for a verdict on an id the source does not hold.
var ErrUnknownRecord = errors.New("unknown record")

// Source supplies the input header and the records rows are created from.
// *record.Dataset satisfies it.
type Source interface {
	Header() []string
	Lookup(id string) (record.SourceRecord, bool)
}

// ValidationColumn returns the ledger column holding a side's verdict.
func ValidationColumn(side vimage.Side) string {
	if side == vimage.SideRear {
		return ColumnRearValidation
	}
	return ColumnFrontValidation
}

// Row is one ledger entry: the input values of a record plus its verdicts.
type Row struct {
	ID     string
	Values []string
	Front  verdict.Verdict
	Rear   verdict.Verdict
}

// Verdict returns the verdict recorded for side.
func (r Row) Verdict(side vimage.Side) verdict.Verdict {
	if side == vimage.SideRear {
		return r.Rear
	}
	return r.Front
}

// Complete reports whether both sides carry a verdict.
func (r Row) Complete() bool {
	return r.Front != verdict.None && r.Rear != verdict.None
}

// Fields returns the row as written to the ledger file.
func (r Row) Fields() []string {
	out := make([]string, 0, len(r.Values)+2)
	out = append(out, r.Values...)
	return append(out, string(r.Front), string(r.Rear))
}

func (r *Row) set(side vimage.Side, v verdict.Verdict) {
	if side == vimage.SideRear {
		r.Rear = v
	} else {
		r.Front = v
	}
}

func (r Row) clone() Row {
	r.Values = append([]string(nil), r.Values...)
	return r
}

// Ledger is the in-memory table of verdicts backed by a Store. Rows are
// unique by record id and kept in first-touch order.
type Ledger struct {
	mu     sync.Mutex
	source Source
	store  Store
	header []string
	rows   []*Row
	index  map[string]int
	dirty  bool
}

// New returns an empty ledger without touching the store.
func New(source Source, store Store) *Ledger {
	header := source.Header()
	header = append(header, ColumnFrontValidation, ColumnRearValidation)
	return &Ledger{
		source: source,
		store:  store,
		header: header,
		index:  make(map[string]int),
	}
}

// Create returns an empty ledger and writes its header immediately.
func Create(source Source, store Store) (*Ledger, error) {
	l := New(source, store)
	if err := l.Flush(); err != nil {
		return l, err
	}
	return l, nil
}

// Open resumes the ledger previously written at path. A missing file starts
// an empty ledger like Create.
func Open(source Source, store Store, path string) (*Ledger, error) {
	l := New(source, store)

	header, rows, err := ReadCSV(path)
	if errors.Is(err, errNoLedger) {
		return Create(source, store)
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}
	if _, ok := cols[record.ColumnID]; !ok {
		return nil, fmt.Errorf("failed to resume ledger %s: no %s column", path, record.ColumnID)
	}

	inputHeader := l.header[:len(l.header)-2]
	for n, fields := range rows {
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}
		id := strings.TrimSpace(get(record.ColumnID))
		if id == "" {
			log.Printf("Ledger: skipping row %d of %s without %s", n+2, path, record.ColumnID)
			continue
		}
		if _, dup := l.index[id]; dup {
			continue
		}

		row := &Row{ID: id, Values: make([]string, len(inputHeader))}
		for i, h := range inputHeader {
			row.Values[i] = get(h)
		}
		if row.Front, err = verdict.Parse(get(ColumnFrontValidation)); err != nil {
			return nil, fmt.Errorf("failed to resume ledger row %d: %w", n+2, err)
		}
		if row.Rear, err = verdict.Parse(get(ColumnRearValidation)); err != nil {
			return nil, fmt.Errorf("failed to resume ledger row %d: %w", n+2, err)
		}
		l.index[id] = len(l.rows)
		l.rows = append(l.rows, row)
	}

	log.Printf("Ledger: resumed %d rows from %s", len(l.rows), path)
	return l, nil
}

// Header returns the ledger columns: the input columns followed by the two
// validation columns.
func (l *Ledger) Header() []string {
	return append([]string(nil), l.header...)
}

// RecordVerdict sets the verdict for one side of a record, creating the row
// on first touch, and persists the whole ledger. When persisting fails the
// change is kept in memory and the error is returned; the next write retries.
func (l *Ledger) RecordVerdict(id string, side vimage.Side, v verdict.Verdict) error {
	if !v.Valid() {
		return fmt.Errorf("invalid verdict %q", v)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[id]
	if !ok {
		rec, found := l.source.Lookup(id)
		if !found {
			return fmt.Errorf("%w: %q", ErrUnknownRecord, id)
		}
		i = len(l.rows)
		l.rows = append(l.rows, &Row{ID: id, Values: rec.Values()})
		l.index[id] = i
	}
	l.rows[i].set(side, v)
	l.dirty = true

	return l.flush()
}

// Flush writes the full ledger to the store. It is safe to call repeatedly.
func (l *Ledger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flush()
}

func (l *Ledger) flush() error {
	rows := make([]Row, len(l.rows))
	for i, r := range l.rows {
		rows[i] = *r
	}
	if err := l.store.Write(l.header, rows); err != nil {
		l.dirty = true
		log.Printf("Ledger: write failed, %d rows kept in memory: %v", len(rows), err)
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	l.dirty = false
	return nil
}

// Dirty reports whether the in-memory state has not been persisted.
func (l *Ledger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// RowCount returns the number of rows.
func (l *Ledger) RowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// Row returns a copy of the row for id.
func (l *Ledger) Row(id string) (Row, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[id]
	if !ok {
		return Row{}, false
	}
	return l.rows[i].clone(), true
}

// Rows returns copies of all rows in first-touch order.
func (l *Ledger) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Row, len(l.rows))
	for i, r := range l.rows {
		out[i] = r.clone()
	}
	return out
}

// Close releases the store.
func (l *Ledger) Close() error {
	return l.store.Close()
}

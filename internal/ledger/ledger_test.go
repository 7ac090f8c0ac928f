package ledger_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/ledger"
	"anpr-validator/internal/record"
	"anpr-validator/internal/verdict"
)

const input = `vdata_id,fr_anpr,re_anpr,fr_mediaid,re_mediaid,lane
A,AB1,AB1,a_f,a_r,1
B,CD2,CD3,b_f,b_r,2
C,EF4,EF4,c_f,c_r,3
`

func loadDataset(t *testing.T) *record.Dataset {
	t.Helper()
	ds, err := record.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("failed to parse dataset: %v", err)
	}
	return ds
}

// flakyStore records snapshots and fails while fail is set.
type flakyStore struct {
	fail   bool
	writes int
	header []string
	rows   []ledger.Row
}

func (s *flakyStore) Write(header []string, rows []ledger.Row) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.writes++
	s.header = header
	s.rows = rows
	return nil
}

func (s *flakyStore) Close() error { return nil }

func TestCreate_WritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass_VALIDATED.csv")
	l, err := ledger.Create(loadDataset(t), ledger.NewCSVStore(path))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if l.RowCount() != 0 {
		t.Errorf("expected empty ledger, got %d rows", l.RowCount())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected header-only file: %v", err)
	}
	want := "vdata_id,fr_anpr,re_anpr,fr_mediaid,re_mediaid,lane,fr_validation,re_validation\n"
	if string(data) != want {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestRecordVerdict_Uniqueness(t *testing.T) {
	store := &flakyStore{}
	l := ledger.New(loadDataset(t), store)

	steps := []struct {
		id   string
		side vimage.Side
		v    verdict.Verdict
	}{
		{"A", vimage.SideFront, verdict.Correct},
		{"A", vimage.SideRear, verdict.Blur},
		{"B", vimage.SideRear, verdict.Hidden},
		{"A", vimage.SideFront, verdict.Fail},
		{"B", vimage.SideFront, verdict.Correct},
		{"A", vimage.SideRear, verdict.Correct},
	}
	for _, s := range steps {
		if err := l.RecordVerdict(s.id, s.side, s.v); err != nil {
			t.Fatalf("RecordVerdict(%s, %v) failed: %v", s.id, s.side, err)
		}
	}

	if l.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", l.RowCount())
	}
	if store.writes != len(steps) {
		t.Errorf("expected one write per verdict, got %d", store.writes)
	}

	rows := l.Rows()
	if rows[0].ID != "A" || rows[1].ID != "B" {
		t.Errorf("rows out of first-touch order: %s, %s", rows[0].ID, rows[1].ID)
	}
	a, _ := l.Row("A")
	if a.Front != verdict.Fail || a.Rear != verdict.Correct {
		t.Errorf("expected last write to win, got %q/%q", a.Front, a.Rear)
	}
	if got := a.Values[len(a.Values)-1]; got != "1" {
		t.Errorf("expected passthrough lane value, got %q", got)
	}
}

func TestRecordVerdict_OverwriteKeepsRowCount(t *testing.T) {
	l := ledger.New(loadDataset(t), &flakyStore{})
	l.RecordVerdict("C", vimage.SideFront, verdict.Correct)
	before := l.RowCount()
	l.RecordVerdict("C", vimage.SideFront, verdict.Moto)
	if l.RowCount() != before {
		t.Errorf("overwrite changed row count: %d -> %d", before, l.RowCount())
	}
	if r, _ := l.Row("C"); r.Front != verdict.Moto {
		t.Errorf("expected moto, got %q", r.Front)
	}
}

func TestRecordVerdict_Rejects(t *testing.T) {
	l := ledger.New(loadDataset(t), &flakyStore{})

	if err := l.RecordVerdict("Z", vimage.SideFront, verdict.Correct); !errors.Is(err, ledger.ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
	if err := l.RecordVerdict("A", vimage.SideFront, verdict.Verdict("meh")); err == nil {
		t.Error("expected error for an invalid verdict")
	}
	if l.RowCount() != 0 {
		t.Errorf("rejected verdicts must not create rows, got %d", l.RowCount())
	}
}

func TestTwoRecordScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	l, err := ledger.Create(loadDataset(t), ledger.NewCSVStore(path))
	if err != nil {
		t.Fatal(err)
	}

	l.RecordVerdict("A", vimage.SideFront, verdict.Correct)
	l.RecordVerdict("A", vimage.SideRear, verdict.Correct)
	if err := l.RecordVerdict("B", vimage.SideFront, verdict.Blur); err != nil {
		t.Fatal(err)
	}

	if l.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", l.RowCount())
	}
	b, ok := l.Row("B")
	if !ok || b.Front != verdict.Blur || b.Rear != verdict.None {
		t.Errorf("unexpected row B: %+v", b)
	}

	header, rows, err := ledger.ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(header) != 8 || len(rows) != 2 {
		t.Fatalf("expected 8 columns and 2 rows, got %d and %d", len(header), len(rows))
	}
	if rows[1][6] != "blur" || rows[1][7] != "" {
		t.Errorf("unexpected persisted row %v", rows[1])
	}
}

func TestWriteFailure_Retried(t *testing.T) {
	store := &flakyStore{fail: true}
	l := ledger.New(loadDataset(t), store)

	if err := l.RecordVerdict("A", vimage.SideFront, verdict.Correct); err == nil {
		t.Fatal("expected write error")
	}
	if l.RowCount() != 1 || !l.Dirty() {
		t.Fatalf("expected the verdict kept in memory and dirty, rows=%d dirty=%v", l.RowCount(), l.Dirty())
	}

	store.fail = false
	if err := l.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if l.Dirty() {
		t.Error("expected clean ledger after flush")
	}
	if len(store.rows) != 1 || store.rows[0].Front != verdict.Correct {
		t.Errorf("expected retried snapshot with the verdict, got %+v", store.rows)
	}
	if err := l.Flush(); err != nil {
		t.Errorf("second Flush failed: %v", err)
	}
}

func TestOpen_Resume(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	ds := loadDataset(t)

	first, err := ledger.Create(ds, ledger.NewCSVStore(path))
	if err != nil {
		t.Fatal(err)
	}
	first.RecordVerdict("B", vimage.SideRear, verdict.WrongPair)
	first.RecordVerdict("A", vimage.SideFront, verdict.Correct)

	resumed, err := ledger.Open(ds, ledger.NewCSVStore(path), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if resumed.RowCount() != 2 {
		t.Fatalf("expected 2 resumed rows, got %d", resumed.RowCount())
	}
	if rows := resumed.Rows(); rows[0].ID != "B" || rows[0].Rear != verdict.WrongPair {
		t.Errorf("unexpected first row %+v", rows[0])
	}

	resumed.RecordVerdict("A", vimage.SideRear, verdict.Correct)
	if resumed.RowCount() != 2 {
		t.Errorf("resumed verdict must update in place, got %d rows", resumed.RowCount())
	}

	fresh := filepath.Join(t.TempDir(), "none.csv")
	empty, err := ledger.Open(ds, ledger.NewCSVStore(fresh), fresh)
	if err != nil {
		t.Fatalf("Open on a missing file failed: %v", err)
	}
	if empty.RowCount() != 0 {
		t.Errorf("expected empty ledger, got %d rows", empty.RowCount())
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("expected header file to be created: %v", err)
	}
}

func TestOpen_ShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	content := "lane,vdata_id,fr_anpr,re_anpr,fr_mediaid,re_mediaid,fr_validation,re_validation\n" +
		"9\n" +
		"2,B,CD2,CD3,b_f,b_r,correct\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := ledger.Open(loadDataset(t), ledger.NewCSVStore(path), path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if l.RowCount() != 1 {
		t.Fatalf("expected the row without an id skipped, got %d rows", l.RowCount())
	}
	row, ok := l.Row("B")
	if !ok || row.Front != verdict.Correct || row.Rear != verdict.None {
		t.Errorf("unexpected resumed row %+v", row)
	}
}

func TestOutputPath(t *testing.T) {
	got := ledger.OutputPath(filepath.Join("data", "pass_01.csv"))
	want := filepath.Join("data", "pass_01_VALIDATED.csv")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}

func TestSQLiteMirror(t *testing.T) {
	dir := t.TempDir()
	db, err := ledger.OpenSQLite(filepath.Join(dir, "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	store := ledger.MultiStore{ledger.NewCSVStore(filepath.Join(dir, "out.csv")), db}
	l, err := ledger.Create(loadDataset(t), store)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.RecordVerdict("A", vimage.SideFront, verdict.Correct)
	l.RecordVerdict("A", vimage.SideRear, verdict.NoPlate)
	l.RecordVerdict("C", vimage.SideFront, verdict.Broken)

	got, err := db.Verdicts()
	if err != nil {
		t.Fatalf("Verdicts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 mirrored rows, got %d", len(got))
	}
	if got["A"] != [2]string{"correct", "no_LP"} {
		t.Errorf("unexpected row A %v", got["A"])
	}
	if got["C"] != [2]string{"broken", ""} {
		t.Errorf("unexpected row C %v", got["C"])
	}
}

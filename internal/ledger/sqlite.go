package ledger

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLiteStore mirrors the ledger into a SQLite table, one row per record.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite mirror: %w", err)
	}
	if err := initDatabase(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init sqlite mirror: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initDatabase(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		return err
	}
	_, err := db.Exec(schema)
	return err
}

// DB exposes the underlying handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Write upserts every row in a single transaction.
func (s *SQLiteStore) Write(header []string, rows []Row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT INTO ledger_rows (record_id, position, fr_validation, re_validation, fields, updated_at)
	VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(record_id) DO UPDATE SET
		position = excluded.position,
		fr_validation = excluded.fr_validation,
		re_validation = excluded.re_validation,
		fields = excluded.fields,
		updated_at = CURRENT_TIMESTAMP
	WHERE ledger_rows.fr_validation != excluded.fr_validation
		OR ledger_rows.re_validation != excluded.re_validation
		OR ledger_rows.position != excluded.position;`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	inputHeader := header
	if len(inputHeader) >= 2 {
		inputHeader = inputHeader[:len(inputHeader)-2]
	}
	for i, r := range rows {
		fields := make(map[string]string, len(inputHeader))
		for j, h := range inputHeader {
			if j < len(r.Values) {
				fields[h] = r.Values[j]
			}
		}
		data, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to encode row %s: %w", r.ID, err)
		}
		if _, err := stmt.Exec(r.ID, i, string(r.Front), string(r.Rear), string(data)); err != nil {
			return fmt.Errorf("failed to upsert row %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Verdicts returns the stored verdicts keyed by record id.
func (s *SQLiteStore) Verdicts() (map[string][2]string, error) {
	rows, err := s.db.Query("SELECT record_id, fr_validation, re_validation FROM ledger_rows ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][2]string)
	for rows.Next() {
		var id, fr, re string
		if err := rows.Scan(&id, &fr, &re); err != nil {
			return nil, err
		}
		out[id] = [2]string{fr, re}
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

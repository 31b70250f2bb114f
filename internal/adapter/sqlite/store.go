// Package sqlite persists verification records in an append-only SQLite
// table. Records are audit artifacts: inserted once, never updated.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claimsight/dol-evidence/internal/domain"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("verification record not found")

// Store wraps a SQLite database for verification-record persistence.
type Store struct {
	db *sql.DB
}

// New opens or creates the SQLite database at path, creating parent
// directories as needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS verifications (
			id           TEXT PRIMARY KEY,
			event_type   TEXT NOT NULL,
			location     TEXT NOT NULL,
			candidates   TEXT NOT NULL,
			evidence     TEXT,
			verified_dol TEXT,
			confidence   TEXT NOT NULL,
			created_at   DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_verifications_created_at ON verifications(created_at);
		CREATE INDEX IF NOT EXISTS idx_verifications_event_type ON verifications(event_type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// candidatesColumn is the JSON shape stored in the candidates column.
type candidatesColumn struct {
	Wind []domain.WindCandidate `json:"wind,omitempty"`
	Hail []domain.HailCandidate `json:"hail,omitempty"`
}

// SaveVerification inserts a verification record. Records are append-only;
// inserting an existing id is an error.
func (s *Store) SaveVerification(ctx context.Context, rec domain.VerificationRecord) error {
	location, err := json.Marshal(rec.Location)
	if err != nil {
		return fmt.Errorf("marshal location: %w", err)
	}
	candidates, err := json.Marshal(candidatesColumn{Wind: rec.WindCandidates, Hail: rec.HailCandidates})
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	var evidence []byte
	if rec.Evidence != nil {
		if evidence, err = json.Marshal(rec.Evidence); err != nil {
			return fmt.Errorf("marshal evidence: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verifications (id, event_type, location, candidates, evidence, verified_dol, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.EventType,
		string(location),
		string(candidates),
		nullableString(evidence),
		string(rec.VerifiedDOL),
		string(rec.Confidence),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert verification: %w", err)
	}
	return nil
}

// GetVerification loads a verification record by id.
func (s *Store) GetVerification(ctx context.Context, id string) (domain.VerificationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, event_type, location, candidates, evidence, verified_dol, confidence, created_at
		FROM verifications WHERE id = ?`, id)

	var (
		rec        domain.VerificationRecord
		location   string
		candidates string
		evidence   sql.NullString
		dol        string
		confidence string
		createdAt  string
	)
	err := row.Scan(&rec.ID, &rec.EventType, &location, &candidates, &evidence, &dol, &confidence, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.VerificationRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("query verification: %w", err)
	}

	if err := json.Unmarshal([]byte(location), &rec.Location); err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("unmarshal location: %w", err)
	}
	var cands candidatesColumn
	if err := json.Unmarshal([]byte(candidates), &cands); err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("unmarshal candidates: %w", err)
	}
	rec.WindCandidates = cands.Wind
	rec.HailCandidates = cands.Hail
	if evidence.Valid && evidence.String != "" {
		rec.Evidence = &domain.AggregatedEvidence{}
		if err := json.Unmarshal([]byte(evidence.String), rec.Evidence); err != nil {
			return domain.VerificationRecord{}, fmt.Errorf("unmarshal evidence: %w", err)
		}
	}
	rec.VerifiedDOL = domain.Day(dol)
	rec.Confidence = domain.Confidence(confidence)
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.VerificationRecord{}, fmt.Errorf("parse created_at: %w", err)
	}
	return rec, nil
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

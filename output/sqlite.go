package output

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kbukum/speakline/errors"
	"github.com/kbukum/speakline/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcript_segments (
	run_id        TEXT    NOT NULL,
	position      INTEGER NOT NULL,
	start_seconds REAL    NOT NULL,
	end_seconds   REAL    NOT NULL,
	speaker       TEXT    NOT NULL,
	text          TEXT    NOT NULL,
	created_at    TEXT    NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_transcript_segments_speaker ON transcript_segments (run_id, speaker);
`

const insertSegment = `
INSERT INTO transcript_segments (run_id, position, start_seconds, end_seconds, speaker, text, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// SQLiteSink stores a run's records in one transaction, committed on Close.
type SQLiteSink struct {
	path  string
	runID string
	now   func() time.Time

	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	pos  int
}

// SQLiteOption configures a SQLiteSink.
type SQLiteOption func(*SQLiteSink)

// WithRunID overrides the generated run id.
func WithRunID(id string) SQLiteOption {
	return func(s *SQLiteSink) { s.runID = id }
}

// NewSQLiteSink creates a sink writing to the database file at path.
func NewSQLiteSink(path string, opts ...SQLiteOption) *SQLiteSink {
	s := &SQLiteSink{path: path, runID: uuid.NewString(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunID returns the id the records of this run are stored under.
func (s *SQLiteSink) RunID() string { return s.runID }

// Path returns the database file.
func (s *SQLiteSink) Path() string { return s.path }

// Open creates the schema if needed and begins the run's transaction.
func (s *SQLiteSink) Open(ctx context.Context) error {
	if s.db != nil {
		return errors.Output("sqlite").WithDetail("reason", "already open")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return s.fail(err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return s.fail(fmt.Errorf("open database: %w", err))
	}
	// One writer; keeps the transaction and its statement on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return s.fail(fmt.Errorf("ping database: %w", err))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return s.fail(fmt.Errorf("create schema: %w", err))
	}

	// The transaction outlives Open, so it must not be bound to ctx.
	tx, err := db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		_ = db.Close()
		return s.fail(fmt.Errorf("begin: %w", err))
	}
	stmt, err := tx.PrepareContext(ctx, insertSegment)
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return s.fail(fmt.Errorf("prepare insert: %w", err))
	}

	s.db, s.tx, s.stmt = db, tx, stmt
	logger.Get("output").WithContext(ctx).Debug("sink opened", logger.Fields("sink", "sqlite", logger.FieldPath, s.path, logger.FieldRunID, s.runID))
	return nil
}

// Emit inserts the record at the next position.
func (s *SQLiteSink) Emit(ctx context.Context, rec Record) error {
	if s.stmt == nil {
		return errors.Output("sqlite").WithDetail("reason", "not open")
	}
	_, err := s.stmt.ExecContext(ctx, s.runID, s.pos, rec.Start, rec.End, rec.Speaker, rec.Text, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return s.fail(fmt.Errorf("insert: %w", err))
	}
	s.pos++
	return nil
}

// Close commits the transaction and closes the database.
func (s *SQLiteSink) Close() error {
	if s.db == nil {
		return nil
	}
	stmtErr := s.stmt.Close()
	commitErr := s.tx.Commit()
	dbErr := s.db.Close()
	s.db, s.tx, s.stmt = nil, nil, nil

	if err := stderrors.Join(stmtErr, commitErr, dbErr); err != nil {
		return s.fail(err)
	}
	logger.Get("output").Info("transcript written", logger.Fields("sink", "sqlite", logger.FieldPath, s.path, logger.FieldRunID, s.runID, "records", s.pos))
	return nil
}

func (s *SQLiteSink) fail(err error) error {
	return errors.Output("sqlite").WithCause(err).WithDetails(map[string]any{
		logger.FieldPath:  s.path,
		logger.FieldRunID: s.runID,
	})
}

// LoadRun reads back the records of one run in emit order.
func LoadRun(ctx context.Context, path, runID string) ([]Record, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT start_seconds, end_seconds, text, speaker
		FROM transcript_segments
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Start, &r.End, &r.Text, &r.Speaker); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Package sqlite is a single-file store for local runs. It mirrors the Postgres
// tables closely enough for the pipelines to run unchanged.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/common"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS resumes (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT,
	text          TEXT,
	structured    TEXT,
	zip_id        TEXT
);
CREATE INDEX IF NOT EXISTS resumes_filename_idx ON resumes (filename);
CREATE TABLE IF NOT EXISTS zip_archives (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS project_uploads (
	id            TEXT PRIMARY KEY,
	filename      TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS projects (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	upload_id    TEXT NOT NULL,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	requirements TEXT NOT NULL DEFAULT '',
	manager      TEXT NOT NULL DEFAULT '',
	deadline     TEXT NOT NULL DEFAULT '',
	priority     INTEGER NOT NULL DEFAULT 0,
	intern_cap   INTEGER NOT NULL DEFAULT 1
);`

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ repository.Store = (*Store)(nil)

// Open opens (or creates) the database at dsn and ensures the tables exist.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps a :memory: database on a single connection.
	db.SetMaxOpenConns(1)

	s := New(db, logger)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return s, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) UpdateStatus(ctx context.Context, kind constants.JobKind, id uuid.UUID, status constants.JobStatus, errMsg *string) error {
	table := kind.StatusTable()
	if table == "" {
		return fmt.Errorf("unknown job kind %q", kind)
	}
	q := fmt.Sprintf(`UPDATE %s SET status = ?, error_message = ? WHERE id = ?`, table)
	if _, err := s.db.ExecContext(ctx, q, string(status), errMsg, id.String()); err != nil {
		s.logger.ErrorContext(ctx, "status update failed", "table", table, "job_id", id, "error", err)
		return err
	}
	return nil
}

func (s *Store) UpsertText(ctx context.Context, id uuid.UUID, text string, structured json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `UPDATE resumes SET text = ?, structured = ? WHERE id = ?`,
		text, string(structured), id.String())
	if err != nil {
		s.logger.ErrorContext(ctx, "resume text update failed", "job_id", id, "error", err)
	}
	return err
}

func (s *Store) LinkToArchive(ctx context.Context, archiveID uuid.UUID, uploadPath string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE resumes SET zip_id = ? WHERE filename = ?`, archiveID.String(), uploadPath)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) InsertProjects(ctx context.Context, uploadID uuid.UUID, projects []entity.Project) (int64, error) {
	if len(projects) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO projects
		(upload_id, title, description, requirements, manager, deadline, priority, intern_cap)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	var n int64
	for _, p := range projects {
		if _, err := stmt.ExecContext(ctx, uploadID.String(), p.Title, p.Description, p.Requirements,
			p.Manager, p.Deadline, p.Priority, p.InternCap); err != nil {
			s.logger.ErrorContext(ctx, "project insert failed", "upload_id", uploadID, "error", err)
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateJob inserts a pending row for kind, the way the trigger source would.
func (s *Store) CreateJob(ctx context.Context, kind constants.JobKind, id uuid.UUID, filename string) error {
	table := kind.StatusTable()
	if table == "" {
		return fmt.Errorf("unknown job kind %q", kind)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, filename, status) VALUES (?, ?, ?)`, table)
	_, err := s.db.ExecContext(ctx, q, id.String(), filename, string(constants.JobStatusPending))
	return err
}

// JobStatus reads the status and error message of a job row.
func (s *Store) JobStatus(ctx context.Context, kind constants.JobKind, id uuid.UUID) (constants.JobStatus, *string, error) {
	table := kind.StatusTable()
	if table == "" {
		return "", nil, fmt.Errorf("unknown job kind %q", kind)
	}
	var (
		status string
		msg    sql.NullString
	)
	q := fmt.Sprintf(`SELECT status, error_message FROM %s WHERE id = ?`, table)
	if err := s.db.QueryRowContext(ctx, q, id.String()).Scan(&status, &msg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, common.ErrNotFound
		}
		return "", nil, err
	}
	if msg.Valid {
		return constants.JobStatus(status), &msg.String, nil
	}
	return constants.JobStatus(status), nil, nil
}

// GetResume loads a resume row.
func (s *Store) GetResume(ctx context.Context, id uuid.UUID) (*entity.Resume, error) {
	var (
		r                         entity.Resume
		rid                       string
		errMsg, text, doc, zipStr sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, error_message, text, structured, zip_id FROM resumes WHERE id = ?`,
		id.String()).Scan(&rid, &r.Filename, &r.Status, &errMsg, &text, &doc, &zipStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	r.ID = id
	if errMsg.Valid {
		r.ErrorMessage = &errMsg.String
	}
	if text.Valid {
		r.Text = &text.String
	}
	if doc.Valid && strings.TrimSpace(doc.String) != "" {
		r.Structured = json.RawMessage(doc.String)
	}
	if zipStr.Valid {
		zid, err := uuid.Parse(zipStr.String)
		if err != nil {
			return nil, fmt.Errorf("resume %s: bad zip_id: %w", id, err)
		}
		r.ZipID = &zid
	}
	return &r, nil
}

// ListProjects returns the projects imported by an upload in insertion order.
func (s *Store) ListProjects(ctx context.Context, uploadID uuid.UUID) ([]entity.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title, description, requirements, manager, deadline, priority, intern_cap
		FROM projects WHERE upload_id = ? ORDER BY id`, uploadID.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []entity.Project
	for rows.Next() {
		var p entity.Project
		if err := rows.Scan(&p.Title, &p.Description, &p.Requirements, &p.Manager, &p.Deadline, &p.Priority, &p.InternCap); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/resume-ingestor/constants"
	"github.com/joseph-ayodele/resume-ingestor/internal/entity"
)

const (
	qUpdateText = `UPDATE resumes SET text = $1, structured = $2 WHERE id = $3`
	qLinkZip    = `UPDATE resumes SET zip_id = $1 WHERE filename = $2`
)

type pgStore struct {
	db     DBTX
	logger *slog.Logger
}

var _ Store = (*pgStore)(nil)

// NewPostgresStore returns a Store backed by pgx.
func NewPostgresStore(db DBTX, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &pgStore{db: db, logger: logger}
}

func (r *pgStore) CreateJob(ctx context.Context, kind constants.JobKind, id uuid.UUID, filename string) error {
	table := kind.StatusTable()
	if table == "" {
		return fmt.Errorf("unknown job kind %q", kind)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, filename, status) VALUES ($1, $2, $3)`, table)
	if _, err := r.db.Exec(ctx, q, id, filename, string(constants.JobStatusPending)); err != nil {
		r.logger.ErrorContext(ctx, "job insert failed", "table", table, "job_id", id, "error", err)
		return err
	}
	return nil
}

func (r *pgStore) UpdateStatus(ctx context.Context, kind constants.JobKind, id uuid.UUID, status constants.JobStatus, errMsg *string) error {
	table := kind.StatusTable()
	if table == "" {
		return fmt.Errorf("unknown job kind %q", kind)
	}
	q := fmt.Sprintf(`UPDATE %s SET status = $1, error_message = $2 WHERE id = $3`, table)
	if _, err := r.db.Exec(ctx, q, string(status), errMsg, id); err != nil {
		r.logger.ErrorContext(ctx, "status update failed", "table", table, "job_id", id, "status", status, "error", err)
		return err
	}
	return nil
}

func (r *pgStore) UpsertText(ctx context.Context, id uuid.UUID, text string, structured json.RawMessage) error {
	tag, err := r.db.Exec(ctx, qUpdateText, text, structured, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "resume text update failed", "job_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "resume text update matched no row", "job_id", id)
	}
	return nil
}

func (r *pgStore) LinkToArchive(ctx context.Context, archiveID uuid.UUID, uploadPath string) (int64, error) {
	tag, err := r.db.Exec(ctx, qLinkZip, archiveID, uploadPath)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertProjects writes all rows with one multi-row INSERT so an upload is imported entirely or not at all.
func (r *pgStore) InsertProjects(ctx context.Context, uploadID uuid.UUID, projects []entity.Project) (int64, error) {
	if len(projects) == 0 {
		return 0, nil
	}
	const cols = 8
	var sb strings.Builder
	sb.WriteString(`INSERT INTO projects (upload_id, title, description, requirements, manager, deadline, priority, intern_cap) VALUES `)
	args := make([]any, 0, len(projects)*cols)
	for i, p := range projects {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c+1)
		}
		sb.WriteByte(')')
		args = append(args, uploadID, p.Title, p.Description, p.Requirements, p.Manager, p.Deadline, p.Priority, p.InternCap)
	}

	tag, err := r.db.Exec(ctx, sb.String(), args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "project insert failed", "upload_id", uploadID, "rows", len(projects), "error", err)
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package constants

// JobStatus is the canonical status for rows in resumes, zip_archives and project_uploads.
type JobStatus string

// Stable values (store these exact strings in DB, they match the job_status enum).
const (
	JobStatusPending    JobStatus = "pending" // written only when the job row is created
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed" // terminal failure, error_message is set
)

// IsTerminal reports whether no further status write is expected for the job.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobKind selects which pipeline handles a trigger and which table tracks its status.
type JobKind string

const (
	JobKindResume      JobKind = "resume"
	JobKindArchive     JobKind = "archive"
	JobKindSpreadsheet JobKind = "spreadsheet"
)

// StatusTable returns the table holding status rows for the kind.
func (k JobKind) StatusTable() string {
	switch k {
	case JobKindResume:
		return "resumes"
	case JobKindArchive:
		return "zip_archives"
	case JobKindSpreadsheet:
		return "project_uploads"
	}
	return ""
}

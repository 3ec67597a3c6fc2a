package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDFEntry(t *testing.T) {
	assert.True(t, IsPDFEntry("a.pdf", false))
	assert.True(t, IsPDFEntry("nested/dir/cv.pdf", false))
	assert.False(t, IsPDFEntry("b/", true))
	assert.False(t, IsPDFEntry("c.txt", false))
	assert.False(t, IsPDFEntry("upper.PDF", false))
	assert.False(t, IsPDFEntry("folder.pdf", true))
}

func TestArchiveUploadPath(t *testing.T) {
	assert.Equal(t, "batch.zip_a.pdf", ArchiveUploadPath("batch.zip", "a.pdf"))
	assert.Equal(t, "batch.zip_sub/d.pdf", ArchiveUploadPath("batch.zip", "sub/d.pdf"))
}

func TestKindForFile(t *testing.T) {
	cases := map[string]JobKind{
		"cv.pdf":        JobKindResume,
		"CV.PDF":        JobKindResume,
		"batch.zip":     JobKindArchive,
		"projects.csv":  JobKindSpreadsheet,
		"projects.xlsx": JobKindSpreadsheet,
		"old.xls":       JobKindSpreadsheet,
	}
	for name, want := range cases {
		got, ok := KindForFile(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}
	_, ok := KindForFile("notes.txt")
	assert.False(t, ok)
}

func TestStatusTable(t *testing.T) {
	assert.Equal(t, "resumes", JobKindResume.StatusTable())
	assert.Equal(t, "zip_archives", JobKindArchive.StatusTable())
	assert.Equal(t, "project_uploads", JobKindSpreadsheet.StatusTable())
	assert.Empty(t, JobKind("invoice").StatusTable())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
}

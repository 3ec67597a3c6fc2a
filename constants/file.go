package constants

import (
	"path"
	"strings"
)

// Default artifact store buckets.
const (
	BucketResumes      = "resumes"
	BucketZipArchives  = "zip-archives"
	BucketSpreadsheets = "project-spreadsheets"
)

// ContentTypePDF is attached to every resume uploaded out of an archive.
const ContentTypePDF = "application/pdf"

// SpreadsheetExtensions holds the file extensions accepted by the project import.
var SpreadsheetExtensions = map[string]struct{}{
	"csv":  {},
	"xlsx": {},
	"xls":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDFEntry reports whether an archive entry should be promoted to a resume upload.
// Matching is on the literal ".pdf" suffix.
func IsPDFEntry(name string, isDir bool) bool {
	return !isDir && strings.HasSuffix(name, ".pdf")
}

// ArchiveUploadPath is the resumes key for a PDF found inside an archive.
func ArchiveUploadPath(archiveFilename, entryName string) string {
	return archiveFilename + "_" + entryName
}

// FileExt returns the normalized extension of a storage key.
func FileExt(key string) string {
	return NormalizeExt(path.Ext(key))
}

// KindForFile picks the job kind a dropped file starts, by extension.
func KindForFile(name string) (JobKind, bool) {
	ext := FileExt(name)
	switch {
	case ext == "pdf":
		return JobKindResume, true
	case ext == "zip":
		return JobKindArchive, true
	default:
		if _, ok := SpreadsheetExtensions[ext]; ok {
			return JobKindSpreadsheet, true
		}
	}
	return "", false
}

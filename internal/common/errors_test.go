package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesCode(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := fmt.Errorf("resume 42: %w", NewExtractionError(cause))

	assert.True(t, errors.Is(err, ErrExtraction))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrStructuring))
}

func TestAppError_StructuringKinds(t *testing.T) {
	err := NewStructuringError(StructuringKindNoCandidates, "no candidates returned", nil)

	assert.True(t, errors.Is(err, ErrStructuring))
	assert.True(t, errors.Is(err, &AppError{Code: CodeStructuring, Kind: StructuringKindNoCandidates}))
	assert.False(t, errors.Is(err, &AppError{Code: CodeStructuring, Kind: StructuringKindInvalidJSON}))
	assert.Equal(t, "STRUCTURING_ERROR[no_candidates]: no candidates returned", err.Error())
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "", StatusMessage(nil))
	assert.Equal(t, "failed to extract text from PDF: bad xref",
		StatusMessage(NewExtractionError(errors.New("bad xref"))))
	assert.Equal(t, "plain", StatusMessage(errors.New("plain")))
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("id", "not-a-uuid", Required, UUID).
		Field("filename", "projects.pdf", Required, Extension(map[string]struct{}{"csv": {}, "xlsx": {}}))

	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.True(t, errors.Is(v.Err(), ErrInvalidInput))

	ok := NewValidator().Field("filename", "team.XLSX", Required, Extension(map[string]struct{}{"xlsx": {}}))
	assert.NoError(t, ok.Err())
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/internal/common"
)

func TestContextHandler_AddsJobAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	ctx := common.WithRequestID(context.Background(), "req-1")
	ctx = common.WithJob(ctx, "job-9", "resume")
	log.With("component", "pipeline").InfoContext(ctx, "resume.start")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "resume.start", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "job-9", rec["job_id"])
	assert.Equal(t, "resume", rec["job_kind"])
	assert.Equal(t, "pipeline", rec["component"])
}

func TestContextHandler_NoContextValues(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.InfoContext(context.Background(), "plain")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.NotContains(t, rec, "job_id")
	assert.NotContains(t, rec, "request_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

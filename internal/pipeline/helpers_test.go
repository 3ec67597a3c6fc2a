package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/resume-ingestor/internal/llm"
	"github.com/joseph-ayodele/resume-ingestor/internal/repository/sqlite"
	"github.com/joseph-ayodele/resume-ingestor/internal/storage"
)

func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	for _, line := range lines {
		pdf.Cell(0, 10, line)
		pdf.Ln(10)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

type zipFile struct {
	name string
	data []byte
}

func buildZip(t *testing.T, files ...zipFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		if f.data != nil {
			_, err = w.Write(f.data)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeStructurer answers every request with the same document or error.
type fakeStructurer struct {
	mu       sync.Mutex
	calls    int
	requests []llm.StructureRequest
	content  string
	err      error
}

func (f *fakeStructurer) Structure(_ context.Context, req llm.StructureRequest) (llm.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Document{}, f.err
	}
	return llm.Document{Content: json.RawMessage(f.content), Model: "test-model"}, nil
}

func (f *fakeStructurer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// linkScript scripts LinkToArchive results per upload path. Paths without a
// script always report zero rows.
type linkScript struct {
	mu      sync.Mutex
	results map[string][]linkResult
	calls   map[string][]time.Time
	linked  map[string]uuid.UUID
}

type linkResult struct {
	rows int64
	err  error
}

func newLinkScript() *linkScript {
	return &linkScript{
		results: map[string][]linkResult{},
		calls:   map[string][]time.Time{},
		linked:  map[string]uuid.UUID{},
	}
}

func (l *linkScript) script(path string, results ...linkResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[path] = results
}

func (l *linkScript) UpsertText(context.Context, uuid.UUID, string, json.RawMessage) error {
	return nil
}

func (l *linkScript) LinkToArchive(_ context.Context, archiveID uuid.UUID, uploadPath string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[uploadPath] = append(l.calls[uploadPath], time.Now())
	n := len(l.calls[uploadPath])
	script := l.results[uploadPath]
	var r linkResult
	if n <= len(script) {
		r = script[n-1]
	} else if len(script) > 0 {
		r = script[len(script)-1]
	}
	if r.err == nil && r.rows > 0 {
		l.linked[uploadPath] = archiveID
	}
	return r.rows, r.err
}

func (l *linkScript) callTimes(path string) []time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]time.Time(nil), l.calls[path]...)
}

// failingPuts rejects uploads of the listed keys and delegates everything else.
type failingPuts struct {
	*storage.MemoryStore
	fail map[string]bool
}

func (f *failingPuts) Put(ctx context.Context, bucket, key string, data []byte, contentType string, upsert bool) error {
	if f.fail[key] {
		return errors.New("storage unavailable")
	}
	return f.MemoryStore.Put(ctx, bucket, key, data, contentType, upsert)
}

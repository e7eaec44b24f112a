package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avvvet/chatrag/internal/knowledge"
	"github.com/avvvet/chatrag/internal/models"
)

type fakeIngester struct {
	ensureErr error
	ingestErr error
	got       []knowledge.Document
}

func (f *fakeIngester) EnsureCollection(ctx context.Context) error {
	return f.ensureErr
}

func (f *fakeIngester) Ingest(ctx context.Context, docs []knowledge.Document) (int, error) {
	if f.ingestErr != nil {
		return 0, f.ingestErr
	}
	f.got = docs
	return len(docs), nil
}

func ingestRequest(t *testing.T, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(string(raw)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleIngest(t *testing.T) {
	kb := &fakeIngester{}
	h := NewIngestHandler(kb)

	rec := httptest.NewRecorder()
	h.HandleIngest(rec, ingestRequest(t, models.IngestRequest{
		Documents: []models.Document{
			{Text: "go is fun", Metadata: map[string]any{"source": "blog"}},
			{ID: "doc-2", Text: "qdrant stores vectors"},
		},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.IngestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Count != 2 {
		t.Errorf("response = %+v", resp)
	}
	if len(kb.got) != 2 || kb.got[1].ID != "doc-2" {
		t.Errorf("documents not forwarded: %+v", kb.got)
	}
}

func TestHandleIngestEmptyDocuments(t *testing.T) {
	h := NewIngestHandler(&fakeIngester{})

	rec := httptest.NewRecorder()
	h.HandleIngest(rec, ingestRequest(t, models.IngestRequest{}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleIngestNotConfigured(t *testing.T) {
	h := NewIngestHandler(nil)

	rec := httptest.NewRecorder()
	h.HandleIngest(rec, ingestRequest(t, models.IngestRequest{
		Documents: []models.Document{{Text: "doc"}},
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Knowledge base not configured") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleIngestFailure(t *testing.T) {
	h := NewIngestHandler(&fakeIngester{ingestErr: fmt.Errorf("qdrant unreachable")})

	rec := httptest.NewRecorder()
	h.HandleIngest(rec, ingestRequest(t, models.IngestRequest{
		Documents: []models.Document{{Text: "doc"}},
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

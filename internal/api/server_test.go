package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/fpbviz/fpbviz/pkg/config"
	"github.com/fpbviz/fpbviz/pkg/export"
	"github.com/fpbviz/fpbviz/pkg/fpb"
	"github.com/fpbviz/fpbviz/pkg/pipeline"
	"github.com/fpbviz/fpbviz/pkg/session"
	"github.com/fpbviz/fpbviz/pkg/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	docs, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("create document store: %v", err)
	}

	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	return NewServer(config.Default(), runner, session.NewMemoryStore(), docs, logger)
}

func testModel() *fpb.ProcessModel {
	return &fpb.ProcessModel{
		Title:            "test",
		States:           []fpb.State{{ID: "s1", Type: fpb.StateProduct, Label: "In"}, {ID: "s2", Type: fpb.StateProduct, Label: "Out"}},
		ProcessOperators: []fpb.ProcessOperator{{ID: "p1", Label: "Do"}},
		Flows: []fpb.Flow{
			{ID: "f1", SourceRef: "s1", TargetRef: "p1"},
			{ID: "f2", SourceRef: "p1", TargetRef: "s2"},
		},
	}
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLayoutEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := postJSON(t, srv, "/api/layout", map[string]any{"model": testModel()})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var diagram export.Diagram
	if err := json.Unmarshal(rec.Body.Bytes(), &diagram); err != nil {
		t.Fatalf("decode diagram: %v", err)
	}
	if len(diagram.Elements) != 3 {
		t.Errorf("elements = %d, want 3", len(diagram.Elements))
	}
	if len(diagram.Connections) != 2 {
		t.Errorf("connections = %d, want 2", len(diagram.Connections))
	}
}

func TestLayoutEndpointBadRequests(t *testing.T) {
	srv := testServer(t)

	// Invalid JSON body.
	req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d, want 400", rec.Code)
	}

	// Missing model.
	rec = postJSON(t, srv, "/api/layout", map[string]any{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing model: status = %d, want 400", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if resp.Error.Code != "INVALID_INPUT" {
		t.Errorf("error code = %s, want INVALID_INPUT", resp.Error.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/export/dot", map[string]any{"model": testModel()})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %s, want text/vnd.graphviz", ct)
	}
	if !strings.Contains(rec.Body.String(), "digraph") {
		t.Error("DOT output missing digraph header")
	}

	rec = postJSON(t, srv, "/api/export/bmp", map[string]any{"model": testModel()})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status = %d, want 400", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := testServer(t)

	rec := postJSON(t, srv, "/api/sessions/", map[string]any{"model": testModel()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID      string         `json:"id"`
		Diagram export.Diagram `json:"diagram"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("create returned no session ID")
	}
	if len(created.Diagram.Elements) != 3 {
		t.Errorf("initial diagram elements = %d, want 3", len(created.Diagram.Elements))
	}

	// Read it back.
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	srv.ServeHTTP(getRec, req)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", getRec.Code)
	}

	// Update with a grown model.
	model := testModel()
	model.States = append(model.States, fpb.State{ID: "s3", Type: fpb.StateEnergy, Label: "Heat"})
	model.Flows = append(model.Flows, fpb.Flow{ID: "f3", SourceRef: "s3", TargetRef: "p1"})
	data, _ := json.Marshal(map[string]any{"model": model})
	putReq := httptest.NewRequest(http.MethodPut, "/api/sessions/"+created.ID, bytes.NewReader(data))
	putRec := httptest.NewRecorder()
	srv.ServeHTTP(putRec, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", putRec.Code, putRec.Body.String())
	}
	var updated export.Diagram
	if err := json.Unmarshal(putRec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated diagram: %v", err)
	}
	if len(updated.Elements) != 4 {
		t.Errorf("updated diagram elements = %d, want 4", len(updated.Elements))
	}

	// Delete, then the session is gone.
	delReq := httptest.NewRequest(http.MethodDelete, "/api/sessions/"+created.ID, nil)
	delRec := httptest.NewRecorder()
	srv.ServeHTTP(delRec, delReq)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", delRec.Code)
	}

	goneRec := httptest.NewRecorder()
	srv.ServeHTTP(goneRec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+created.ID, nil))
	if goneRec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", goneRec.Code)
	}
}

func TestSessionsDisabled(t *testing.T) {
	logger := log.New(io.Discard)
	srv := NewServer(config.Default(), pipeline.NewRunner(nil, nil, logger), nil, nil, logger)

	rec := postJSON(t, srv, "/api/sessions/", map[string]any{"model": testModel()})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when no session store is configured", rec.Code)
	}
}

func TestDocumentCRUD(t *testing.T) {
	srv := testServer(t)

	// Empty list first.
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list []store.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("fresh store should list no documents, got %d", len(list))
	}

	// Put two documents.
	for i, id := range []string{"brewing", "welding"} {
		doc := store.Document{Title: fmt.Sprintf("Doc %d", i), Model: testModel()}
		data, _ := json.Marshal(doc)
		req := httptest.NewRequest(http.MethodPut, "/api/documents/"+id, bytes.NewReader(data))
		putRec := httptest.NewRecorder()
		srv.ServeHTTP(putRec, req)
		if putRec.Code != http.StatusOK {
			t.Fatalf("put %s: status = %d, body %s", id, putRec.Code, putRec.Body.String())
		}
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/", nil))
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("list after puts = %d documents, want 2", len(list))
	}

	// Get one back; the path ID wins over any ID in the body.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/brewing", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var doc store.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.ID != "brewing" {
		t.Errorf("document ID = %s, want brewing", doc.ID)
	}

	// Delete and 404 afterwards.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/documents/brewing", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents/brewing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

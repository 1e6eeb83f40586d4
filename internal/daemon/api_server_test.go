package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"reelmatch/internal/api"
	"reelmatch/internal/ingest"
	"reelmatch/internal/runstore"
)

type runStoreStub struct {
	runs    []*runstore.Run
	results []*runstore.Result
}

func (s *runStoreStub) ListRuns(context.Context, int) ([]*runstore.Run, error) {
	return s.runs, nil
}

func (s *runStoreStub) GetRun(_ context.Context, runID string) (*runstore.Run, error) {
	for _, run := range s.runs {
		if run.RunID == runID {
			return run, nil
		}
	}
	return nil, nil
}

func (s *runStoreStub) LatestRun(context.Context) (*runstore.Run, error) {
	if len(s.runs) == 0 {
		return nil, nil
	}
	return s.runs[0], nil
}

func (s *runStoreStub) ResultsForRun(context.Context, string) ([]*runstore.Result, error) {
	return s.results, nil
}

func (s *runStoreStub) Stats(context.Context) (map[ingest.State]int, error) {
	return map[ingest.State]int{ingest.StateCompleted: len(s.runs)}, nil
}

func TestAPIServerHandleRuns(t *testing.T) {
	store := &runStoreStub{runs: []*runstore.Run{
		{RunID: "run-1", State: ingest.StateCompleted, Total: 3, Processed: 3, Successful: 3},
		{RunID: "run-2", State: ingest.StateAborted, Total: 5, Processed: 2, Successful: 1, Failed: 1},
	}}
	srv := &apiServer{history: api.NewHistoryService(store)}

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	w := httptest.NewRecorder()
	srv.handleRuns(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.RunListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(resp.Runs))
	}
	if resp.Runs[0].RunID != "run-1" {
		t.Fatalf("unexpected run id: %q", resp.Runs[0].RunID)
	}
	if resp.Runs[1].State != string(ingest.StateAborted) {
		t.Fatalf("unexpected state: %q", resp.Runs[1].State)
	}
}

func TestAPIServerHandleRunDetail(t *testing.T) {
	store := &runStoreStub{
		runs: []*runstore.Run{{RunID: "run-1", State: ingest.StateCompleted, Total: 1, Processed: 1, Successful: 1}},
		results: []*runstore.Result{{
			RunID:          "run-1",
			CandidateTitle: "Heat",
			Outcome:        ingest.OutcomeAccepted,
			CatalogID:      949,
		}},
	}
	srv := &apiServer{history: api.NewHistoryService(store)}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil)
	w := httptest.NewRecorder()
	srv.handleRunDetail(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	var resp api.RunDetailResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Run.RunID != "run-1" {
		t.Fatalf("unexpected run id: %q", resp.Run.RunID)
	}
	if len(resp.Results) != 1 || resp.Results[0].CandidateTitle != "Heat" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestAPIServerHandleRunDetailMissing(t *testing.T) {
	srv := &apiServer{history: api.NewHistoryService(&runStoreStub{})}

	req := httptest.NewRequest(http.MethodGet, "/api/runs/absent", nil)
	w := httptest.NewRecorder()
	srv.handleRunDetail(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIServerHandleRunsMethodNotAllowed(t *testing.T) {
	srv := &apiServer{history: api.NewHistoryService(&runStoreStub{})}

	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	w := httptest.NewRecorder()
	srv.handleRuns(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestAPIServerHandleLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reelmatchd.log")
	if err := os.WriteFile(path, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	srv := &apiServer{daemon: &Daemon{logPath: path}}

	req := httptest.NewRequest(http.MethodGet, "/api/logs?offset=-1&limit=2", nil)
	w := httptest.NewRecorder()
	srv.handleLogs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload api.LogTailResponse
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Lines) != 2 || payload.Lines[0] != "second" || payload.Lines[1] != "third" {
		t.Fatalf("unexpected lines: %#v", payload.Lines)
	}
	if payload.Offset == 0 {
		t.Fatal("expected offset to advance")
	}

	bad := httptest.NewRequest(http.MethodGet, "/api/logs?offset=oops", nil)
	badRec := httptest.NewRecorder()
	srv.handleLogs(badRec, bad)
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad offset, got %d", badRec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without header, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d", w.Code)
	}
}

func TestAuthMiddlewareEmptyTokenPassesThrough(t *testing.T) {
	handler := authMiddleware("", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without auth, got %d", w.Code)
	}
}

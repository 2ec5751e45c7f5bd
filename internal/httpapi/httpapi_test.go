package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/route-beacon/bgpsim/internal/bgpcore"
	"github.com/route-beacon/bgpsim/internal/validate"
)

type mockStore struct {
	saved bool
	err   error
}

func (m *mockStore) SaveRun(_ context.Context, _ bgpcore.Config, _ bgpcore.Results) (bool, error) {
	m.saved = true
	return true, m.err
}

type mockPublisher struct {
	published bool
}

func (m *mockPublisher) PublishTimeline(_ context.Context, _ string, _ []bgpcore.Event) {
	m.published = true
}

func newTestServer(store RunPersister, pub TimelinePublisher) *Server {
	limits := validate.Limits{MaxNodes: 100, MaxPrefixes: 50}
	return NewServer(":0", limits, store, pub, zap.NewNop())
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	return w
}

func TestStatus_OK(t *testing.T) {
	s := newTestServer(nil, nil)
	w := doRequest(s, http.MethodGet, "/status", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "bgpsim" {
		t.Errorf("expected service 'bgpsim', got %q", body["service"])
	}
}

func TestExamples_ReturnsCatalog(t *testing.T) {
	s := newTestServer(nil, nil)
	w := doRequest(s, http.MethodGet, "/examples", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected non-empty example catalog")
	}
}

func TestValidate_ValidRequestReturnsOK(t *testing.T) {
	s := newTestServer(nil, nil)
	req := validate.Request{
		Nodes:    []string{"100", "200"},
		Links:    [][]string{{"100", "200"}},
		OriginAS: "100",
		Scenario: "baseline",
	}
	w := doRequest(s, http.MethodPost, "/validate", req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidate_InvalidRequestReturns400(t *testing.T) {
	s := newTestServer(nil, nil)
	req := validate.Request{Nodes: []string{}}
	w := doRequest(s, http.MethodPost, "/validate", req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestValidate_MalformedJSONReturns400(t *testing.T) {
	s := newTestServer(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSimulate_ValidRequestRunsAndPersists(t *testing.T) {
	store := &mockStore{}
	pub := &mockPublisher{}
	s := newTestServer(store, pub)

	req := validate.Request{
		Nodes:    []string{"100", "200", "300"},
		Links:    [][]string{{"100", "200"}, {"200", "300"}},
		OriginAS: "100",
		Scenario: "baseline",
	}
	w := doRequest(s, http.MethodPost, "/simulate", req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var results bgpcore.Results
	if err := json.NewDecoder(w.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results.FinalRIBs) == 0 {
		t.Error("expected non-empty final ribs")
	}
	if !store.saved {
		t.Error("expected run to be persisted")
	}
	if !pub.published {
		t.Error("expected timeline to be published")
	}
}

func TestSimulate_InvalidRequestReturns400(t *testing.T) {
	s := newTestServer(nil, nil)
	req := validate.Request{
		Nodes:    []string{"100"},
		Scenario: "not_a_real_scenario",
	}
	w := doRequest(s, http.MethodPost, "/simulate", req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSimulate_GetMethodNotAllowed(t *testing.T) {
	s := newTestServer(nil, nil)
	w := doRequest(s, http.MethodGet, "/simulate", nil)

	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

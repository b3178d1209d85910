package testutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/nfrund/patientdesk/internal/backend"
)

// RecordedRequest is one request seen by a FakeBackend.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r RecordedRequest) JSON(t testing.TB) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		t.Fatalf("recorded %s %s body is not JSON: %v", r.Method, r.Path, err)
	}
	return m
}

// FakeBackend is an httptest server that answers like the account backend on
// the default endpoint paths and records every request it receives.
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	overrides map[string]http.HandlerFunc

	CSRFToken string
	Access    string
	FirstName string
}

// NewFakeBackend starts a FakeBackend that is closed when the test ends.
func NewFakeBackend(t testing.TB) *FakeBackend {
	t.Helper()
	f := &FakeBackend{
		overrides: make(map[string]http.HandlerFunc),
		CSRFToken: "abc",
		Access:    "tok123",
		FirstName: "julia",
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// Handle replaces the default answer for method and path.
func (f *FakeBackend) Handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[method+" "+path] = h
}

// Fail makes method and path answer with status.
func (f *FakeBackend) Fail(method, path string, status int) {
	f.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"rejected"}`, status)
	})
}

// Requests returns a copy of everything recorded so far.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestsTo returns the recorded requests for method and path.
func (f *FakeBackend) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	h, overridden := f.overrides[r.Method+" "+r.URL.Path]
	token, access, firstName := f.CSRFToken, f.Access, f.FirstName
	f.mu.Unlock()

	if overridden {
		h(w, r)
		return
	}

	ep := backend.DefaultEndpoints()
	switch r.Method + " " + r.URL.Path {
	case http.MethodGet + " " + ep.CSRFToken:
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: token, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
	case http.MethodPost + " " + ep.Login:
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "session-1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]string{"detail": "ok"})
	case http.MethodPost + " " + ep.Registration:
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "session-1", Path: "/"})
		writeJSON(w, http.StatusCreated, map[string]string{"access": access, "refresh": "refresh-1"})
	case http.MethodPatch + " " + ep.UserProfile:
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			http.Error(w, `{"detail":"unauthenticated"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"first_name": firstName})
	case http.MethodGet + " " + ep.CurrentUser:
		if _, err := r.Cookie("sessionid"); err != nil {
			http.Error(w, `{"detail":"not logged in"}`, http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"username": "julia", "first_name": firstName})
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

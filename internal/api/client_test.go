package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, baseURL string, maxRetries int) *Client {
	t.Helper()
	c := NewClient(ClientConfig{
		BaseURL:     baseURL,
		MaxRetries:  maxRetries,
		BackoffBase: 0,
	})
	t.Cleanup(c.Close)
	return c
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/" {
			t.Errorf("path = %q, want /projects/ (trailing slash)", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want 10", got)
		}
		fmt.Fprint(w, `[{"id":"p1"}]`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	raw, err := c.Get(context.Background(), "/projects", url.Values{"limit": {"10"}})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0]["id"] != "p1" {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "sekrit", BackoffBase: 0})
	defer c.Close()
	if _, err := c.Get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
}

func TestPost_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["title"] != "fix it" {
			t.Errorf("title = %v", body["title"])
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"i1"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 0)
	raw, err := c.Post(context.Background(), "/issues", map[string]any{"title": "fix it"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !strings.Contains(string(raw), "i1") {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestRetry_502AllAttempts(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.Get(context.Background(), "/projects", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := requests.Load(); got != 4 {
		t.Errorf("requests = %d, want 4 (1 + max retries)", got)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	if apiErr.Kind != KindServerError {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindServerError)
	}
	want := "Error: Turbo API server error on GET /projects (502). Try: Wait a moment and retry."
	if got := apiErr.AgentMessage(); got != want {
		t.Errorf("AgentMessage = %q, want %q", got, want)
	}
}

func TestRetry_503ThenSuccess(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	raw, err := c.Get(context.Background(), "/projects", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := requests.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
	if !strings.Contains(string(raw), "ok") {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestNonRetryableStatusFailsImmediately(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"no such project"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.Get(context.Background(), "/projects/p404", nil)
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1 (404 must not retry)", got)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.Kind != KindNotFound || apiErr.Status != 404 {
		t.Errorf("Kind/Status = %q/%d", apiErr.Kind, apiErr.Status)
	}
	want := "Error: GET /projects/p404 not found (404). Try: Use a list tool to find valid IDs."
	if got := apiErr.AgentMessage(); got != want {
		t.Errorf("AgentMessage = %q, want %q", got, want)
	}
}

func TestInvalidRequestMessageIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail":"title required"}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 0)
	_, err := c.Post(context.Background(), "/issues", map[string]any{})
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T", err)
	}
	msg := apiErr.AgentMessage()
	if !strings.HasPrefix(msg, "Error: Invalid input for POST /issues (422). Details: ") {
		t.Errorf("AgentMessage = %q", msg)
	}
	if !strings.Contains(msg, "title required") || !strings.HasSuffix(msg, "Try: Check required fields and value formats.") {
		t.Errorf("AgentMessage = %q", msg)
	}
}

func TestConnectivityError(t *testing.T) {
	// Grab a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	base := "http://" + ln.Addr().String()
	ln.Close()

	c := testClient(t, base, 2)
	_, err = c.Get(context.Background(), "/projects", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.Kind != KindConnectivity {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindConnectivity)
	}
	want := "Cannot connect to Turbo API at " + base
	if got := apiErr.AgentMessage(); got != want {
		t.Errorf("AgentMessage = %q, want %q", got, want)
	}
}

// flakyTransport fails the first n round trips with a dial error, then
// delegates to the default transport.
type flakyTransport struct {
	failures atomic.Int32
	failFor  int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.failures.Add(1) <= f.failFor {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestRetry_ConnectErrorThenSuccess(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	transport := &flakyTransport{failFor: 2}
	c.httpClient = &http.Client{Transport: transport}

	raw, err := c.Get(context.Background(), "/projects", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := transport.failures.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("server requests = %d, want 1", got)
	}
	if !strings.Contains(string(raw), "ok") {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestCircuitBreaker(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:          srv.URL,
		MaxRetries:       0,
		BackoffBase:      0,
		BreakerThreshold: 5,
		BreakerRecovery:  30 * time.Second,
	})
	defer c.Close()

	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		if _, err := c.Get(context.Background(), "/projects", nil); err == nil {
			t.Fatalf("call %d should fail", i+1)
		}
	}
	if got := requests.Load(); got != 5 {
		t.Fatalf("requests = %d, want 5", got)
	}

	// Sixth call short-circuits: no network I/O.
	_, err := c.Get(context.Background(), "/projects", nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type %T: %v", err, err)
	}
	if apiErr.Kind != KindCircuitOpen {
		t.Errorf("Kind = %q, want %q", apiErr.Kind, KindCircuitOpen)
	}
	if got := apiErr.AgentMessage(); got != "Circuit breaker open. API calls paused for 30s." {
		t.Errorf("AgentMessage = %q", got)
	}
	if got := requests.Load(); got != 5 {
		t.Errorf("requests = %d after short-circuit, want 5", got)
	}

	// After the recovery window a probe is admitted; success closes the
	// circuit.
	now = now.Add(31 * time.Second)
	srvOK := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srvOK.Close()
	c.baseURL = srvOK.URL

	if _, err := c.Get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("probe after recovery: %v", err)
	}
	if _, err := c.Get(context.Background(), "/projects", nil); err != nil {
		t.Fatalf("call after circuit closed: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://localhost:1"})
	c.Close()
	c.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()
	c2 := testClient(t, srv.URL, 0)
	if _, err := c2.Get(context.Background(), "/x", nil); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c2.Close()
	c2.Close()
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://example.com/api/v1/"})
	defer c.Close()
	if got := c.BaseURL(); got != "http://example.com/api/v1" {
		t.Errorf("BaseURL = %q", got)
	}
}

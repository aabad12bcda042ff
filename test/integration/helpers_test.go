package integration

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linearmcp/linear-mcp/internal/observability"
)

// cleanupMetrics tears down global telemetry state so each test starts clean.
// Lingering exporters can block later binds in sandboxes.
func cleanupMetrics(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		if observability.PrometheusExporter != nil {
			_ = observability.PrometheusExporter.Stop()
			observability.PrometheusExporter = nil
		}
		observability.TelemetrySystem = nil
	})
}

// isPermissionError normalizes OS-specific permission errors (macOS/Linux/BSD)
// so we can skip when loopback sockets are blocked.
func isPermissionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EACCES) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"permission denied", "operation not permitted", "not permitted"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}

	return false
}

func initMetricsOrSkip(t *testing.T) {
	t.Helper()

	if err := observability.InitMetrics("test", 0); err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping metrics tests due to sandbox permissions: %v", err)
		}
		require.NoError(t, err)
	}

	cleanupMetrics(t)
}

// listenLoopback binds IPv4 loopback explicitly and skips when the sandbox
// refuses to open sockets.
func listenLoopback(t *testing.T) net.Listener {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if isPermissionError(err) {
			t.Skipf("skipping: loopback listener unavailable: %v", err)
		}
		require.NoError(t, err)
	}
	return listener
}

func startHTTPServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	ts := &httptest.Server{
		Listener: listenLoopback(t),
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

// fakeLinear is a GraphQL endpoint that answers the operations the client
// sends, keyed by operation name.
type fakeLinear struct {
	mu         sync.Mutex
	operations []string
	variables  []map[string]any
}

func (f *fakeLinear) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.operations...)
}

func (f *fakeLinear) lastVariables() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.variables) == 0 {
		return nil
	}
	return f.variables[len(f.variables)-1]
}

func (f *fakeLinear) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.Header.Get("Authorization") != "lin_api_test" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"authentication required"}]}`))
		return
	}

	fields := strings.Fields(req.Query)
	name := ""
	if len(fields) > 1 {
		name, _, _ = strings.Cut(fields[1], "(")
	}

	f.mu.Lock()
	f.operations = append(f.operations, name)
	f.variables = append(f.variables, req.Variables)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch name {
	case "SearchIssues", "Issues":
		_, _ = w.Write([]byte(`{"data":{"issues":{"nodes":[` + issueJSON + `]}}}`))
	case "AssignedIssues":
		_, _ = w.Write([]byte(`{"data":{"viewer":{"id":"u1","assignedIssues":{"nodes":[` + issueJSON + `]}}}}`))
	case "IssueCreate":
		_, _ = w.Write([]byte(`{"data":{"issueCreate":{"success":true,"issue":` + issueJSON + `}}}`))
	case "Issue":
		_, _ = w.Write([]byte(`{"data":{"issue":` + issueJSON + `}}`))
	case "Organization":
		_, _ = w.Write([]byte(`{"data":{"organization":{"id":"o1","name":"Acme","urlKey":"acme"}}}`))
	case "Teams":
		_, _ = w.Write([]byte(`{"data":{"teams":{"nodes":[{"id":"t1","name":"Mobile","key":"MOB","states":{"nodes":[{"id":"s1","name":"Todo","type":"unstarted","color":"#fff"}]}}]}}}`))
	default:
		_, _ = w.Write([]byte(`{"errors":[{"message":"unknown operation ` + name + `"}]}`))
	}
}

const issueJSON = `{
	"id": "i1",
	"identifier": "MOB-7",
	"title": "Crash on launch",
	"description": "App exits immediately",
	"priority": 1,
	"url": "https://linear.app/acme/issue/MOB-7",
	"createdAt": "2026-01-02T03:04:05Z",
	"estimate": 3,
	"state": {"id": "s2", "name": "In Progress", "type": "started"},
	"assignee": {"id": "u1", "name": "Sam Doe"},
	"team": {"id": "t1", "name": "Mobile", "key": "MOB"},
	"labels": {"nodes": [{"id": "l1", "name": "bug"}]}
}`

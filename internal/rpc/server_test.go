package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/callback"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer() (*Server, *session.Pool) {
	log := zap.NewNop()
	pool := session.NewPool()
	router := callback.NewRouter(pool, log)
	core := NewCoreService(pool, log)
	task := NewTaskService(pool, router, log)
	return NewServer(core, task, log), pool
}

// TestCloseConnectionUnknownSessionIsNotFound exercises the not_found
// mapping of spec.md §4.9's close_connection without needing a loaded
// native library: an unknown session id always 404s.
func TestCloseConnectionUnknownSessionIsNotFound(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/connections/close", nil)
	require.NoError(t, err)
	var id ffi.SessionID
	req.Header.Set(sessionHeader, sessionIDToHex(id))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestCloseConnectionMissingHeaderIsInvalidArgument exercises the
// invalid_argument mapping when the session header is absent.
func TestCloseConnectionMissingHeaderIsInvalidArgument(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/connections/close", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestUnloadCoreWithoutLoadIsFailedPrecondition exercises the
// failed_precondition mapping of unload_core called before load_core.
func TestUnloadCoreWithoutLoadIsFailedPrecondition(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/core/unload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusPreconditionFailed, resp.StatusCode)
}

// TestAppendTaskUnknownSession exercises an internal error on an
// unknown session, since the Session Pool reports an error rather than
// a typed not_found for task operations (mirrors session.Tasks.Append).
func TestAppendTaskUnknownSession(t *testing.T) {
	srv, _ := newTestServer()
	ts := httptest.NewServer(srv)
	defer ts.Close()

	body, err := json.Marshal(appendTaskRequest{TaskType: ffi.TaskStartUp, Params: "{}"})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/tasks/append", bytes.NewReader(body))
	require.NoError(t, err)
	var id ffi.SessionID
	req.Header.Set(sessionHeader, sessionIDToHex(id))

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestSessionIDFromHeaderRoundTrip(t *testing.T) {
	var id ffi.SessionID
	copy(id[:], []byte("0123456789abcdef"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, sessionIDToHex(id))

	got, ok := sessionIDFromHeader(req)
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestSessionIDFromHeaderRejectsMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(sessionHeader, "not-hex")
	_, ok := sessionIDFromHeader(req)
	require.False(t, ok)

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok = sessionIDFromHeader(req2)
	require.False(t, ok)
}

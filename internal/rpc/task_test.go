package rpc

import (
	"context"
	"testing"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/callback"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestTaskService() *TaskService {
	log := zap.NewNop()
	pool := session.NewPool()
	router := callback.NewRouter(pool, log)
	return NewTaskService(pool, router, log)
}

// TestNewConnectionWithoutLoadedCoreIsInternal exercises new_connection's
// failure path when MaaCore hasn't been loaded: AsstCreateEx can't be
// called, so the request surfaces as an internal error rather than
// hanging or panicking.
func TestNewConnectionWithoutLoadedCoreIsInternal(t *testing.T) {
	task := newTestTaskService()
	_, err := task.NewConnection(context.Background(), NewConnectionRequest{
		AdbPath: "/usr/bin/adb",
		Address: "127.0.0.1:5555",
	})
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	require.Equal(t, CodeInternal, st.Code)
}

func TestCloseConnectionUnknownSession(t *testing.T) {
	task := newTestTaskService()
	var id ffi.SessionID
	err := task.CloseConnection(id)
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	require.Equal(t, CodeNotFound, st.Code)
}

func TestTaskStateUpdateResourceExhaustedOnUnknownSession(t *testing.T) {
	task := newTestTaskService()
	var id ffi.SessionID
	_, err := task.TaskStateUpdate(id)
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	require.Equal(t, CodeResourceExhausted, st.Code)
}

func TestFetchLogsUnknownSessionReturnsNil(t *testing.T) {
	task := newTestTaskService()
	var id ffi.SessionID
	require.Nil(t, task.FetchLogs(id, 0))
}

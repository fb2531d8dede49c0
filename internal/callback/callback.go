// Package callback implements the Callback Router of spec.md §4.10,
// grounded on original_source's crates/maa-server/src/callback.rs: it
// parses the native callback's JSON details, logs every message to the
// session's global log, and dispatches by message code to either the
// one-shot connection handshake or the per-task state machine.
package callback

import (
	"encoding/json"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"go.uber.org/zap"
)

// MsgCode mirrors MaaCore's AsstMsg numbering, reconstructed from the
// variant names used throughout original_source's callback.rs (the
// enum's numeric source, maa-types::TaskStateType, isn't itself in the
// retrieval pack).
type MsgCode int32

const (
	MsgInternalError     MsgCode = 0
	MsgInitFailed        MsgCode = 1
	MsgConnectionInfo    MsgCode = 2
	MsgAllTasksCompleted MsgCode = 3
	MsgAsyncCallInfo     MsgCode = 4
	MsgDestroyed         MsgCode = 5

	MsgTaskChainError     MsgCode = 10000
	MsgTaskChainStart     MsgCode = 10001
	MsgTaskChainCompleted MsgCode = 10002
	MsgTaskChainExtraInfo MsgCode = 10003
	MsgTaskChainStopped   MsgCode = 10004

	MsgSubTaskError     MsgCode = 20000
	MsgSubTaskStart     MsgCode = 20001
	MsgSubTaskCompleted MsgCode = 20002
	MsgSubTaskExtraInfo MsgCode = 20003
	MsgSubTaskStopped   MsgCode = 20004
)

// Router dispatches native callback invocations into the Session Pool.
type Router struct {
	pool *session.Pool
	log  *zap.Logger
}

func NewRouter(pool *session.Pool, log *zap.Logger) *Router {
	return &Router{pool: pool, log: log}
}

// Handler returns a ffi.Handler bound to id, suitable for passing to
// ffi.NewAssistant. The handler returns nothing to MaaCore: sessions are
// torn down by the RPC layer's unload/remove path, or dropped from the
// pool by route when MaaCore reports MsgDestroyed.
func (r *Router) Handler(id ffi.SessionID) ffi.Handler {
	return func(msgID int32, detailsJSON string) {
		r.route(id, MsgCode(msgID), detailsJSON)
	}
}

func (r *Router) route(id ffi.SessionID, code MsgCode, detailsJSON string) {
	r.pool.Log(id).Log(session.LogEntry{Code: int32(code), Message: detailsJSON})

	var raw map[string]any
	if err := json.Unmarshal([]byte(detailsJSON), &raw); err != nil {
		r.log.Debug("failed to parse callback details", zap.Int32("code", int32(code)), zap.Error(err))
		return
	}

	switch code {
	case MsgInternalError:
	case MsgInitFailed:
		r.log.Error("native initialization failed")
	case MsgConnectionInfo:
		r.routeConnectionInfo(id, raw)
	case MsgAllTasksCompleted:
		r.log.Info("all tasks completed")
		r.pool.Log(id).PushSubscriber(session.LogEntry{Code: int32(code), Message: detailsJSON})
	case MsgAsyncCallInfo:
	case MsgDestroyed:
		r.log.Info("native instance destroyed")
		r.pool.RemoveDestroyed(id)
	case MsgTaskChainError, MsgTaskChainStart, MsgTaskChainCompleted, MsgTaskChainExtraInfo, MsgTaskChainStopped:
		r.routeTaskChain(id, code, raw, detailsJSON)
	case MsgSubTaskError, MsgSubTaskStart, MsgSubTaskCompleted, MsgSubTaskExtraInfo, MsgSubTaskStopped:
		r.routeSubtask(id, code, raw, detailsJSON)
	default:
		r.log.Debug("unknown callback code", zap.Int32("code", int32(code)))
	}
}

func (r *Router) routeConnectionInfo(id ffi.SessionID, raw map[string]any) {
	what, _ := raw["what"].(string)
	switch what {
	case "UuidGot":
		r.pool.ReportConnect(id, nil)
	case "ConnectFailed":
		why, _ := raw["why"].(string)
		r.pool.ReportConnect(id, connectError(why))
	default:
		r.log.Debug("connection info", zap.String("what", what))
	}
}

func (r *Router) routeTaskChain(id ffi.SessionID, code MsgCode, raw map[string]any, detailsJSON string) {
	taskID, ok := taskIDOf(raw)
	if !ok {
		return
	}
	r.pool.Tasks(id).UpdateLog(taskID, session.LogEntry{Code: int32(code), Message: detailsJSON})

	var next session.TaskState
	switch code {
	case MsgTaskChainStart:
		next = session.StateRunning
	case MsgTaskChainCompleted:
		next = session.StateCompleted
	case MsgTaskChainStopped:
		next = session.StateCanceled
	case MsgTaskChainError:
		next = session.StateError
	case MsgTaskChainExtraInfo:
		return
	default:
		return
	}
	r.pool.Tasks(id).UpdateState(taskID, next)
}

func (r *Router) routeSubtask(id ffi.SessionID, code MsgCode, raw map[string]any, detailsJSON string) {
	taskID, ok := taskIDOf(raw)
	if !ok {
		return
	}
	r.pool.Tasks(id).UpdateLog(taskID, session.LogEntry{Code: int32(code), Message: detailsJSON})
}

func taskIDOf(raw map[string]any) (int32, bool) {
	v, ok := raw["taskid"].(float64)
	if !ok {
		return 0, false
	}
	return int32(v), true
}

type connectErr string

func (e connectErr) Error() string { return string(e) }

func connectError(why string) error {
	if why == "" {
		why = "connection failed"
	}
	return connectErr(why)
}

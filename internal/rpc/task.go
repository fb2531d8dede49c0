package rpc

import (
	"context"
	"time"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/callback"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService implements spec.md §4.9's Task service, delegating each
// operation to the Session Pool and Callback Router.
type TaskService struct {
	pool   *session.Pool
	router *callback.Router
	log    *zap.Logger
}

func NewTaskService(pool *session.Pool, router *callback.Router, log *zap.Logger) *TaskService {
	return &TaskService{pool: pool, router: router, log: log}
}

// NewConnectionRequest carries the connection config and instance
// options of spec.md §4.9's new_connection operation.
type NewConnectionRequest struct {
	AdbPath          string
	Address          string
	Config           string
	TouchMode        ffi.TouchMode
	HandshakeTimeout time.Duration
}

// NewConnection creates a session, connects the native handle, and
// blocks for the one-shot connection handshake. Session ids are random
// per original_source's use of opaque session identifiers; uuid
// (the teacher's own ID generation library) supplies the 16 random
// bytes directly, since a UUIDv4's byte layout already matches
// spec.md §3's 16-byte session id.
func (t *TaskService) NewConnection(ctx context.Context, req NewConnectionRequest) (ffi.SessionID, error) {
	var id ffi.SessionID
	raw := uuid.New()
	copy(id[:], raw[:])

	assistant, err := ffi.NewAssistant(id, t.router.Handler(id))
	if err != nil {
		return id, newStatus(CodeInternal, err.Error())
	}

	if err := assistant.SetInstanceOption(ffi.InstanceOptionTouchMode, req.TouchMode); err != nil {
		_ = assistant.Destroy()
		return id, newStatus(CodeInternal, err.Error())
	}

	connectCh := t.pool.Create(id, assistant)

	if err := assistant.Connect(req.AdbPath, req.Address, req.Config); err != nil {
		t.pool.Remove(id)
		return id, newStatus(CodeFailedPrecondition, err.Error())
	}

	timeout := req.HandshakeTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	select {
	case res := <-connectCh:
		if res.Err != nil {
			t.pool.Remove(id)
			return id, newStatus(CodeFailedPrecondition, res.Err.Error())
		}
		return id, nil
	case <-time.After(timeout):
		t.pool.Remove(id)
		return id, newStatus(CodeFailedPrecondition, "connection handshake timed out")
	case <-ctx.Done():
		t.pool.Remove(id)
		return id, newStatus(CodeFailedPrecondition, ctx.Err().Error())
	}
}

// CloseConnection removes the session, reporting not_found if it
// doesn't exist.
func (t *TaskService) CloseConnection(id ffi.SessionID) error {
	if !t.pool.Remove(id) {
		return newStatus(CodeNotFound, "unknown session")
	}
	return nil
}

// AppendTask queues a task, returning its id in the Waiting state.
func (t *TaskService) AppendTask(id ffi.SessionID, taskType ffi.TaskType, paramsJSON string) (int32, error) {
	taskID, err := t.pool.Tasks(id).Append(taskType, paramsJSON)
	if err != nil {
		return 0, newStatus(CodeInternal, err.Error())
	}
	return taskID, nil
}

// ModifyTask patches a task's params.
func (t *TaskService) ModifyTask(id ffi.SessionID, taskID int32, paramsJSON string) error {
	if err := t.pool.Tasks(id).PatchParams(taskID, paramsJSON); err != nil {
		return newStatus(CodeInvalidArgument, err.Error())
	}
	return nil
}

// DeactivateTask patches a task's params with {"enable":false}.
func (t *TaskService) DeactivateTask(id ffi.SessionID, taskID int32) error {
	if err := t.pool.Tasks(id).PatchParams(taskID, `{"enable":false}`); err != nil {
		return newStatus(CodeInvalidArgument, err.Error())
	}
	return nil
}

func (t *TaskService) StartTasks(id ffi.SessionID) error {
	if err := t.pool.Tasks(id).Start(); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	return nil
}

func (t *TaskService) StopTasks(id ffi.SessionID) error {
	if err := t.pool.Tasks(id).Stop(); err != nil {
		return newStatus(CodeInternal, err.Error())
	}
	return nil
}

// TaskStateUpdateEvent is one message of the task_state_update stream.
type TaskStateUpdateEvent struct {
	Content string
	State   int32
}

// TaskStateUpdate returns the session's log subscriber as a channel of
// stream events, erroring resource_exhausted if one was already taken.
func (t *TaskService) TaskStateUpdate(id ffi.SessionID) (<-chan TaskStateUpdateEvent, error) {
	sub, ok := t.pool.TakeSubscriber(id)
	if !ok {
		return nil, newStatus(CodeResourceExhausted, "already subscribed or unknown session")
	}
	out := make(chan TaskStateUpdateEvent)
	go func() {
		defer close(out)
		for {
			entry, ok := sub.Recv()
			if !ok {
				return
			}
			out <- TaskStateUpdateEvent{Content: entry.Message, State: entry.Code}
			if callback.MsgCode(entry.Code) == callback.MsgAllTasksCompleted {
				return
			}
		}
	}()
	return out, nil
}

// FetchLogs returns the log tail starting at skip.
func (t *TaskService) FetchLogs(id ffi.SessionID, skip int) []session.LogEntry {
	return t.pool.Log(id).GetSkip(skip)
}

// Package session implements the process-wide Session Pool of spec.md
// §4.8, grounded on original_source's crates/maa-server/src/session.rs:
// a single reader-writer-locked map from session id to session state,
// with Tasks/Log wrapper types mirroring the original's SessionExt
// surface.
package session

import (
	"sync"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
)

// TaskState is the five-state machine of spec.md §3/§4.8: Waiting is the
// only start state, and only Running may leave it.
type TaskState int

const (
	StateWaiting TaskState = iota
	StateRunning
	StateCompleted
	StateCanceled
	StateError
)

// LogEntry is one (code, message) pair, the unit both the per-task log
// and the per-session global log ring are built from.
type LogEntry struct {
	Code    int32
	Message string
}

// Task is one session's task record.
type Task struct {
	State TaskState
	Log   []LogEntry
}

// transition reports whether moving from s to next is legal: Waiting may
// only become Running; Running may only become a terminal state;
// terminal states never move. Mirrors session.rs's debug_assert_eq
// transition table (testable property 7).
func (s TaskState) transition(next TaskState) bool {
	switch s {
	case StateWaiting:
		return next == StateRunning
	case StateRunning:
		return next == StateCompleted || next == StateCanceled || next == StateError
	default:
		return false
	}
}

// ConnectResult is delivered exactly once per session, at connection
// handshake time: nil means ConnectionInfo.UuidGot, non-nil carries the
// ConnectFailed detail.
type ConnectResult struct {
	Err error
}

// Session is one client's state: its native handle, its tasks, its
// global log, and the channel machinery used to stream log entries and
// to signal the one-shot connection handshake.
type Session struct {
	mu sync.Mutex

	Assistant *ffi.Assistant
	tasks     map[int32]*Task
	logs      []LogEntry

	subscriber    *unboundedChan
	subscriberOK  bool
	connectOnce   chan ConnectResult
	connectClosed bool
}

func newSession(a *ffi.Assistant) *Session {
	return &Session{
		Assistant:    a,
		tasks:        make(map[int32]*Task),
		subscriber:   newUnboundedChan(),
		subscriberOK: true,
		connectOnce:  make(chan ConnectResult, 1),
	}
}

// Pool is the process-global Session Pool of spec.md §4.8.
type Pool struct {
	mu       sync.RWMutex
	sessions map[ffi.SessionID]*Session
}

func NewPool() *Pool {
	return &Pool{sessions: make(map[ffi.SessionID]*Session)}
}

// Create inserts a new session for id, wrapping the already-created
// native assistant handle. Returns the one-shot channel the caller
// should await for the connection handshake result.
func (p *Pool) Create(id ffi.SessionID, a *ffi.Assistant) <-chan ConnectResult {
	s := newSession(a)
	p.mu.Lock()
	p.sessions[id] = s
	p.mu.Unlock()
	return s.connectOnce
}

// Remove drops the session and destroys its native handle, reporting
// whether one existed. Used when the RPC layer initiates teardown
// (close_connection, unload_core).
func (p *Pool) Remove(id ffi.SessionID) bool {
	s, ok := p.drop(id)
	if ok {
		_ = s.Assistant.Destroy()
	}
	return ok
}

// RemoveDestroyed drops the session without touching its native handle:
// the Callback Router calls this on the Destroyed message, at which
// point the handle is already gone on the native side and a second
// AsstDestroy would be a use-after-free.
func (p *Pool) RemoveDestroyed(id ffi.SessionID) bool {
	_, ok := p.drop(id)
	return ok
}

func (p *Pool) drop(id ffi.SessionID) (*Session, bool) {
	p.mu.Lock()
	s, ok := p.sessions[id]
	if ok {
		delete(p.sessions, id)
	}
	p.mu.Unlock()
	if ok {
		s.subscriber.close()
	}
	return s, ok
}

// RemoveAll tears down every session in the pool, e.g. on unload_core.
func (p *Pool) RemoveAll() {
	p.mu.Lock()
	ids := make([]ffi.SessionID, 0, len(p.sessions))
	for id := range p.sessions {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	for _, id := range ids {
		p.Remove(id)
	}
}

func (p *Pool) get(id ffi.SessionID) (*Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.sessions[id]
	return s, ok
}

// TakeSubscriber moves out the receiving half of the session's streaming
// channel. Returns ok=false if the session doesn't exist or a subscriber
// was already taken (at-most-one subscriber per session).
func (p *Pool) TakeSubscriber(id ffi.SessionID) (*unboundedChan, bool) {
	p.mu.RLock()
	s, ok := p.sessions[id]
	p.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subscriberOK {
		return nil, false
	}
	s.subscriberOK = false
	return s.subscriber, true
}

// ReportConnect delivers the one-shot connection handshake result. Safe
// to call at most meaningfully once; later calls are no-ops since the
// channel is already drained or full.
func (p *Pool) ReportConnect(id ffi.SessionID, err error) {
	s, ok := p.get(id)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connectClosed {
		return
	}
	s.connectClosed = true
	s.connectOnce <- ConnectResult{Err: err}
}

// Tasks returns the task-scoped operations for id.
func (p *Pool) Tasks(id ffi.SessionID) Tasks { return Tasks{pool: p, id: id} }

// Log returns the log-scoped operations for id.
func (p *Pool) Log(id ffi.SessionID) Log { return Log{pool: p, id: id} }

// Tasks wraps a session id with the task-service operations of
// spec.md §4.8, delegated to the session's native handle.
type Tasks struct {
	pool *Pool
	id   ffi.SessionID
}

// Append queues a new task on the native handle and inserts a blank
// Waiting task record for it.
func (t Tasks) Append(taskType ffi.TaskType, paramsJSON string) (int32, error) {
	s, ok := t.pool.get(t.id)
	if !ok {
		return 0, errs.New(errs.Other, "session.Tasks.Append", "unknown session")
	}
	taskID, err := s.Assistant.AppendTask(taskType, paramsJSON)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.tasks[taskID] = &Task{State: StateWaiting}
	s.mu.Unlock()
	return taskID, nil
}

// PatchParams updates a previously appended task's params.
func (t Tasks) PatchParams(taskID int32, paramsJSON string) error {
	s, ok := t.pool.get(t.id)
	if !ok {
		return errs.New(errs.Other, "session.Tasks.PatchParams", "unknown session")
	}
	return s.Assistant.SetTaskParams(taskID, paramsJSON)
}

// Start begins execution of the task chain.
func (t Tasks) Start() error {
	s, ok := t.pool.get(t.id)
	if !ok {
		return errs.New(errs.Other, "session.Tasks.Start", "unknown session")
	}
	return s.Assistant.Start()
}

// Stop halts the running task chain.
func (t Tasks) Stop() error {
	s, ok := t.pool.get(t.id)
	if !ok {
		return errs.New(errs.Other, "session.Tasks.Stop", "unknown session")
	}
	return s.Assistant.Stop()
}

// UpdateState transitions a task's state. Illegal transitions
// (spec.md §3/§8 testable property 7) are silently ignored, matching
// the debug-assertion-only enforcement of the original.
func (t Tasks) UpdateState(taskID int32, next TaskState) {
	s, ok := t.pool.get(t.id)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok || !task.State.transition(next) {
		return
	}
	task.State = next
}

// UpdateLog appends one log entry to a task's own log and pushes it to
// the subscriber, mirroring original_source's update()/update_log:
// content delivered this way never also lands in the session's global
// log — Log.Log owns that.
func (t Tasks) UpdateLog(taskID int32, entry LogEntry) {
	s, ok := t.pool.get(t.id)
	if !ok {
		return
	}
	s.mu.Lock()
	if task, ok := s.tasks[taskID]; ok {
		task.Log = append(task.Log, entry)
	}
	s.mu.Unlock()
	s.subscriber.send(entry)
}

// Log wraps a session id with the global-log operations of spec.md
// §4.8.
type Log struct {
	pool *Pool
	id   ffi.SessionID
}

// Log appends one entry to the session's global log only,
// mirroring original_source's log().log: unlike UpdateLog it never
// touches the subscriber channel.
func (l Log) Log(entry LogEntry) {
	s, ok := l.pool.get(l.id)
	if !ok {
		return
	}
	s.mu.Lock()
	s.logs = append(s.logs, entry)
	s.mu.Unlock()
}

// PushSubscriber delivers entry to the session's subscriber without
// touching the global log, the channel-only counterpart Log.Log lacks —
// used for messages like AllTasksCompleted that must reach the stream
// but were already recorded in the global log by the router.
func (l Log) PushSubscriber(entry LogEntry) {
	s, ok := l.pool.get(l.id)
	if !ok {
		return
	}
	s.subscriber.send(entry)
}

// GetSkip returns the log tail starting at index n.
func (l Log) GetSkip(n int) []LogEntry {
	s, ok := l.pool.get(l.id)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= len(s.logs) {
		return nil
	}
	out := make([]LogEntry, len(s.logs)-n)
	copy(out, s.logs[n:])
	return out
}

package rpc

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/config"
	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/ffi"
	"go.uber.org/zap"
)

// sessionHeader is the header carrying a request's session id, hex-encoded.
const sessionHeader = "x-session-id"

// Server wires the Core and Task services onto plain net/http handlers.
// spec.md §4.9's operations map one-to-one onto routes under /v1.
type Server struct {
	mux  *http.ServeMux
	core *CoreService
	task *TaskService
	log  *zap.Logger
}

func NewServer(core *CoreService, task *TaskService, log *zap.Logger) *Server {
	s := &Server{mux: http.NewServeMux(), core: core, task: task, log: log}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	s.mux.HandleFunc("/v1/core/load", s.handleLoadCore)
	s.mux.HandleFunc("/v1/core/unload", s.handleUnloadCore)
	s.mux.HandleFunc("/v1/connections", s.handleNewConnection)
	s.mux.HandleFunc("/v1/connections/close", s.handleCloseConnection)
	s.mux.HandleFunc("/v1/tasks/append", s.handleAppendTask)
	s.mux.HandleFunc("/v1/tasks/modify", s.handleModifyTask)
	s.mux.HandleFunc("/v1/tasks/deactivate", s.handleDeactivateTask)
	s.mux.HandleFunc("/v1/tasks/start", s.handleStartTasks)
	s.mux.HandleFunc("/v1/tasks/stop", s.handleStopTasks)
	s.mux.HandleFunc("/v1/tasks/state-updates", s.handleTaskStateUpdate)
	s.mux.HandleFunc("/v1/logs", s.handleFetchLogs)
}

func httpStatus(code Code) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	st, ok := err.(*Status)
	if !ok {
		st = newStatus(CodeInternal, err.Error())
	}
	w.WriteHeader(httpStatus(st.Code))
	_ = json.NewEncoder(w).Encode(map[string]string{"message": st.Message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func sessionIDFromHeader(r *http.Request) (ffi.SessionID, bool) {
	var id ffi.SessionID
	raw := r.Header.Get(sessionHeader)
	if raw == "" {
		return id, false
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != len(id) {
		return id, false
	}
	copy(id[:], decoded)
	return id, true
}

func sessionIDToHex(id ffi.SessionID) string { return hex.EncodeToString(id[:]) }

func (s *Server) handleLoadCore(w http.ResponseWriter, r *http.Request) {
	var cfg config.FFIConfig
	if err := decodeBody(r, &cfg); err != nil {
		writeErr(w, newStatus(CodeInvalidArgument, err.Error()))
		return
	}
	if err := s.core.LoadCore(cfg); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleUnloadCore(w http.ResponseWriter, r *http.Request) {
	if err := s.core.UnloadCore(); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleNewConnection(w http.ResponseWriter, r *http.Request) {
	var req NewConnectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, newStatus(CodeInvalidArgument, err.Error()))
		return
	}
	id, err := s.task.NewConnection(r.Context(), req)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]string{"session_id": sessionIDToHex(id)})
}

func (s *Server) handleCloseConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	if err := s.task.CloseConnection(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type appendTaskRequest struct {
	TaskType ffi.TaskType `json:"task_type"`
	Params   string       `json:"params"`
}

func (s *Server) handleAppendTask(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	var req appendTaskRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, newStatus(CodeInvalidArgument, err.Error()))
		return
	}
	taskID, err := s.task.AppendTask(id, req.TaskType, req.Params)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, map[string]int32{"task_id": taskID})
}

type taskIDRequest struct {
	TaskID int32  `json:"task_id"`
	Params string `json:"params"`
}

func (s *Server) handleModifyTask(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	var req taskIDRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, newStatus(CodeInvalidArgument, err.Error()))
		return
	}
	if err := s.task.ModifyTask(id, req.TaskID, req.Params); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleDeactivateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	var req taskIDRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, newStatus(CodeInvalidArgument, err.Error()))
		return
	}
	if err := s.task.DeactivateTask(id, req.TaskID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStartTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	if err := s.task.StartTasks(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStopTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	if err := s.task.StopTasks(id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleTaskStateUpdate streams task state updates as newline-delimited
// JSON, flushing after each entry so clients observe events as they
// arrive rather than buffered at response completion.
func (s *Server) handleTaskStateUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	events, err := s.task.TaskStateUpdate(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

func (s *Server) handleFetchLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromHeader(r)
	if !ok {
		writeErr(w, newStatus(CodeInvalidArgument, "missing or malformed "+sessionHeader))
		return
	}
	skip := 0
	if raw := r.URL.Query().Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeErr(w, newStatus(CodeInvalidArgument, "invalid skip"))
			return
		}
		skip = n
	}
	writeJSON(w, s.task.FetchLogs(id, skip))
}

//go:build unix

package ffi

/*
#include <stdlib.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/MaaAssistantArknights/maa-cli-sub002/internal/errs"
)

var global struct {
	mu  sync.RWMutex
	lib *symbolTable
}

// Load dlopen's the MaaCore shared library at path and binds its entry
// points. It is a process-global operation per spec.md §4.2: MaaCore may
// only be loaded once per process, mirroring original_source's
// maa-sys::binding::MaaCore::load.
func Load(path string) error {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.lib != nil {
		return errs.New(errs.Native, "ffi.Load", "MaaCore already loaded")
	}
	lib, err := dlopenLibrary(path)
	if err != nil {
		return errs.Wrap(errs.Native, "ffi.Load", "dlopen failed", err)
	}
	global.lib = lib
	return nil
}

// Unload releases the process-global MaaCore handle.
func Unload() error {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.lib == nil {
		return errs.New(errs.Native, "ffi.Unload", "MaaCore not loaded")
	}
	global.lib.dlclose()
	global.lib = nil
	return nil
}

// Loaded reports whether MaaCore is currently loaded.
func Loaded() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.lib != nil
}

func libOrErr(op string) (*symbolTable, error) {
	global.mu.RLock()
	defer global.mu.RUnlock()
	if global.lib == nil {
		return nil, errs.New(errs.Native, op, "MaaCore not loaded")
	}
	return global.lib, nil
}

func withCString(s string, use func(*C.char)) {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	use(cs)
}

func toCString(arg ToCString) (string, error) {
	if arg == nil {
		return "", nil
	}
	return arg.CString()
}

// SetUserDir sets MaaCore's user data directory. Process-global, must be
// called before any Assistant is created.
func SetUserDir(path string) error {
	lib, err := libOrErr("ffi.SetUserDir")
	if err != nil {
		return err
	}
	var ok int32
	withCString(path, func(c *C.char) { ok = lib.setUserDirC(c) })
	if ok == 0 {
		return errs.New(errs.Native, "ffi.SetUserDir", "AsstSetUserDir returned false")
	}
	return nil
}

// LoadResource loads a resource bundle from path.
func LoadResource(path string) error {
	lib, err := libOrErr("ffi.LoadResource")
	if err != nil {
		return err
	}
	var ok int32
	withCString(path, func(c *C.char) { ok = lib.loadResourceC(c) })
	if ok == 0 {
		return errs.New(errs.Native, "ffi.LoadResource", "AsstLoadResource returned false")
	}
	return nil
}

// SetStaticOption sets a process-global static option, e.g. CPU/GPU OCR.
func SetStaticOption(key StaticOptionKey, value ToCString) error {
	lib, err := libOrErr("ffi.SetStaticOption")
	if err != nil {
		return err
	}
	s, err := toCString(value)
	if err != nil {
		return errs.Wrap(errs.Native, "ffi.SetStaticOption", "value conversion failed", err)
	}
	var ok int32
	withCString(s, func(c *C.char) { ok = lib.setStaticOptionC(int32(key), c) })
	if ok == 0 {
		return errs.New(errs.Native, "ffi.SetStaticOption", "AsstSetStaticOption returned false")
	}
	return nil
}

// GetVersion returns MaaCore's reported version string.
func GetVersion() (string, error) {
	lib, err := libOrErr("ffi.GetVersion")
	if err != nil {
		return "", err
	}
	return lib.getVersionC(), nil
}

// Log forwards a message to MaaCore's own logger.
func Log(level, message string) error {
	lib, err := libOrErr("ffi.Log")
	if err != nil {
		return err
	}
	withCString(level, func(clevel *C.char) {
		withCString(message, func(cmsg *C.char) {
			lib.logC(clevel, cmsg)
		})
	})
	return nil
}

// Assistant wraps one native AsstHandle: the per-session instance spec.md
// §4.2 and §4.8 build a Session around. Every Assistant is bound to a
// SessionID at creation and routes its native callbacks through the
// package-level registry in callback.go.
type Assistant struct {
	handle unsafe.Pointer
	id     SessionID
}

// NewAssistant creates a native instance (AsstCreateEx) whose callbacks
// route to handler via id. Register must outlive the Assistant; callers
// should defer a.Destroy() which also calls Forget(id).
func NewAssistant(id SessionID, handler Handler) (*Assistant, error) {
	lib, err := libOrErr("ffi.NewAssistant")
	if err != nil {
		return nil, err
	}
	customArg := Register(id, handler)
	h := lib.createExC(customArg)
	if h == nil {
		Forget(id)
		return nil, errs.New(errs.Native, "ffi.NewAssistant", "AsstCreateEx returned null")
	}
	return &Assistant{handle: h, id: id}, nil
}

// Destroy releases the native instance and its callback registration.
func (a *Assistant) Destroy() error {
	lib, err := libOrErr("Assistant.Destroy")
	if err != nil {
		return err
	}
	lib.destroyC(a.handle)
	Forget(a.id)
	a.handle = nil
	return nil
}

// SetInstanceOption sets a per-instance option, e.g. touch mode.
func (a *Assistant) SetInstanceOption(key InstanceOptionKey, value ToCString) error {
	lib, err := libOrErr("Assistant.SetInstanceOption")
	if err != nil {
		return err
	}
	s, err := toCString(value)
	if err != nil {
		return errs.Wrap(errs.Native, "Assistant.SetInstanceOption", "value conversion failed", err)
	}
	var ok int32
	withCString(s, func(c *C.char) { ok = lib.setInstanceOptionC(a.handle, int32(key), c) })
	if ok == 0 {
		return errs.New(errs.Native, "Assistant.SetInstanceOption", "AsstSetInstanceOption returned false")
	}
	return nil
}

// Connect attaches the instance to a device via adb.
func (a *Assistant) Connect(adbPath, address, config string) error {
	lib, err := libOrErr("Assistant.Connect")
	if err != nil {
		return err
	}
	var ok int32
	withCString(adbPath, func(cadb *C.char) {
		withCString(address, func(caddr *C.char) {
			withCString(config, func(ccfg *C.char) {
				ok = lib.connectC(a.handle, cadb, caddr, ccfg)
			})
		})
	})
	if ok == 0 {
		return errs.New(errs.Native, "Assistant.Connect", "AsstConnect returned false")
	}
	return nil
}

// AppendTask queues a task of the given type with the given JSON params,
// returning its native task id.
func (a *Assistant) AppendTask(taskType TaskType, paramsJSON string) (int32, error) {
	lib, err := libOrErr("Assistant.AppendTask")
	if err != nil {
		return 0, err
	}
	typ, err := taskType.CString()
	if err != nil {
		return 0, errs.Wrap(errs.Native, "Assistant.AppendTask", "task type conversion failed", err)
	}
	var id int32
	withCString(typ, func(ctyp *C.char) {
		withCString(paramsJSON, func(cparams *C.char) {
			id = lib.appendTaskC(a.handle, ctyp, cparams)
		})
	})
	if id == 0 {
		return 0, errs.New(errs.Native, "Assistant.AppendTask", "AsstAppendTask returned 0")
	}
	return id, nil
}

// SetTaskParams updates the JSON params of a previously appended task.
func (a *Assistant) SetTaskParams(taskID int32, paramsJSON string) error {
	lib, err := libOrErr("Assistant.SetTaskParams")
	if err != nil {
		return err
	}
	var ok int32
	withCString(paramsJSON, func(c *C.char) { ok = lib.setTaskParamsC(a.handle, taskID, c) })
	if ok == 0 {
		return errs.New(errs.Native, "Assistant.SetTaskParams", "AsstSetTaskParams returned false")
	}
	return nil
}

// Start begins asynchronous execution of the queued task chain.
func (a *Assistant) Start() error {
	lib, err := libOrErr("Assistant.Start")
	if err != nil {
		return err
	}
	if lib.startC(a.handle) == 0 {
		return errs.New(errs.Native, "Assistant.Start", "AsstStart returned false")
	}
	return nil
}

// Stop halts the running task chain.
func (a *Assistant) Stop() error {
	lib, err := libOrErr("Assistant.Stop")
	if err != nil {
		return err
	}
	if lib.stopC(a.handle) == 0 {
		return errs.New(errs.Native, "Assistant.Stop", "AsstStop returned false")
	}
	return nil
}

// Package ffi wraps the MaaCore native C-ABI surface: process-global
// dynamic loading, a typed conversion trait for marshalling arguments
// into C strings, and instance methods bound to an assistant handle.
// spec.md §4.2. This is the one package built directly on cgo rather
// than a pack third-party library — no example repo in the retrieval
// pack performs native dynamic-library loading, and the teacher's
// go-rod is a remote-DevTools-protocol client, not a C-ABI FFI
// mechanism, so it cannot serve this concern. See DESIGN.md.
package ffi

import "fmt"

// TaskType enumerates MaaCore's task kinds, ported from
// original_source/crates/maa-types/src/task_type.rs.
type TaskType int

const (
	TaskStartUp TaskType = iota
	TaskCloseDown
	TaskFight
	TaskRecruit
	TaskInfrast
	TaskMall
	TaskAward
	TaskRoguelike
	TaskCopilot
	TaskSSSCopilot
	TaskParadoxCopilot
	TaskDepot
	TaskOperBox
	TaskReclamation
	TaskCustom
	TaskSingleStep
	TaskVideoRecognition
)

var taskTypeNames = [...]string{
	"StartUp", "CloseDown", "Fight", "Recruit", "Infrast", "Mall", "Award",
	"Roguelike", "Copilot", "SSSCopilot", "ParadoxCopilot", "Depot",
	"OperBox", "Reclamation", "Custom", "SingleStep", "VideoRecognition",
}

func (t TaskType) String() string {
	if int(t) < 0 || int(t) >= len(taskTypeNames) {
		return "Unknown"
	}
	return taskTypeNames[t]
}

// CString renders t via the conversion trait of spec.md §4.2: domain
// enums convert to their canonical name string.
func (t TaskType) CString() (string, error) {
	if int(t) < 0 || int(t) >= len(taskTypeNames) {
		return "", fmt.Errorf("ffi: unknown task type %d", int(t))
	}
	return taskTypeNames[t], nil
}

// TouchMode enumerates MaaCore's touch-emulation backends, ported from
// original_source/crates/maa-types/src/touch_mode.rs.
type TouchMode int

const (
	TouchADB TouchMode = iota
	TouchMiniTouch
	TouchMaaTouch
	TouchMacPlayTools
)

var touchModeNames = [...]string{"ADB", "MiniTouch", "MaaTouch", "MacPlayTools"}

func (m TouchMode) String() string {
	if int(m) < 0 || int(m) >= len(touchModeNames) {
		return "Unknown"
	}
	return touchModeNames[m]
}

func (m TouchMode) CString() (string, error) {
	if int(m) < 0 || int(m) >= len(touchModeNames) {
		return "", fmt.Errorf("ffi: unknown touch mode %d", int(m))
	}
	return touchModeNames[m], nil
}

// StaticOptionKey identifies a process-global static option
// (AsstSetStaticOption), e.g. CPU/GPU OCR toggles.
type StaticOptionKey int32

const (
	StaticOptionCPUOCR StaticOptionKey = 1
	StaticOptionGPUOCR StaticOptionKey = 2
)

// InstanceOptionKey identifies a per-handle instance option
// (AsstSetInstanceOption).
type InstanceOptionKey int32

const (
	InstanceOptionTouchMode           InstanceOptionKey = 2
	InstanceOptionDeploymentWithPause InstanceOptionKey = 3
)

// ToCString is the conversion trait of spec.md §4.2: every string
// argument crossing the FFI boundary implements it. Strings, booleans
// ("1"/"0"), integers, and the domain enums above all implement it.
type ToCString interface {
	CString() (string, error)
}

type stringArg string

func (s stringArg) CString() (string, error) { return string(s), nil }

// Str wraps a plain string as a ToCString.
func Str(s string) ToCString { return stringArg(s) }

type boolArg bool

func (b boolArg) CString() (string, error) {
	if b {
		return "1", nil
	}
	return "0", nil
}

// Bool wraps a bool as a ToCString, rendering "1"/"0" per spec.md §4.2.
func Bool(b bool) ToCString { return boolArg(b) }

type intArg int64

func (i intArg) CString() (string, error) { return fmt.Sprintf("%d", int64(i)), nil }

// Int wraps an integer as a ToCString.
func Int(i int64) ToCString { return intArg(i) }

//go:build unix

package ffi

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef void* AsstHandle;
typedef int32_t AsstBool;
typedef int32_t AsstTaskId;
typedef int32_t AsstAsyncCallId;
typedef uint64_t AsstSize;
typedef int32_t AsstMsgId;

typedef void (*AsstCallback)(AsstMsgId msg, const char* details_json, void* custom_arg);

extern void goAsstCallback(AsstMsgId msg, char* details_json, void* custom_arg);

static AsstBool call_AsstSetUserDir(void* fn, const char* path) {
	typedef AsstBool (*F)(const char*);
	return ((F)fn)(path);
}
static AsstBool call_AsstLoadResource(void* fn, const char* path) {
	typedef AsstBool (*F)(const char*);
	return ((F)fn)(path);
}
static AsstBool call_AsstSetStaticOption(void* fn, int32_t key, const char* value) {
	typedef AsstBool (*F)(int32_t, const char*);
	return ((F)fn)(key, value);
}
static AsstHandle call_AsstCreate(void* fn) {
	typedef AsstHandle (*F)();
	return ((F)fn)();
}
static AsstHandle call_AsstCreateEx(void* fn, void* custom_arg) {
	typedef AsstHandle (*F)(AsstCallback, void*);
	return ((F)fn)((AsstCallback)goAsstCallback, custom_arg);
}
static void call_AsstDestroy(void* fn, AsstHandle h) {
	typedef void (*F)(AsstHandle);
	((F)fn)(h);
}
static AsstBool call_AsstSetInstanceOption(void* fn, AsstHandle h, int32_t key, const char* value) {
	typedef AsstBool (*F)(AsstHandle, int32_t, const char*);
	return ((F)fn)(h, key, value);
}
static AsstBool call_AsstConnect(void* fn, AsstHandle h, const char* adb_path, const char* address, const char* config) {
	typedef AsstBool (*F)(AsstHandle, const char*, const char*, const char*);
	return ((F)fn)(h, adb_path, address, config);
}
static AsstTaskId call_AsstAppendTask(void* fn, AsstHandle h, const char* type_, const char* params) {
	typedef AsstTaskId (*F)(AsstHandle, const char*, const char*);
	return ((F)fn)(h, type_, params);
}
static AsstBool call_AsstSetTaskParams(void* fn, AsstHandle h, AsstTaskId id, const char* params) {
	typedef AsstBool (*F)(AsstHandle, AsstTaskId, const char*);
	return ((F)fn)(h, id, params);
}
static AsstBool call_AsstStart(void* fn, AsstHandle h) {
	typedef AsstBool (*F)(AsstHandle);
	return ((F)fn)(h);
}
static AsstBool call_AsstStop(void* fn, AsstHandle h) {
	typedef AsstBool (*F)(AsstHandle);
	return ((F)fn)(h);
}
static const char* call_AsstGetVersion(void* fn) {
	typedef const char* (*F)();
	return ((F)fn)();
}
static void call_AsstLog(void* fn, const char* level, const char* message) {
	typedef void (*F)(const char*, const char*);
	((F)fn)(level, message);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// symbolTable holds every MaaCore entry point this binding uses, loaded
// once by dlopen/dlsym in load(), matching the function list of
// original_source/maa-sys/src/binding.rs.
type symbolTable struct {
	handle unsafe.Pointer

	setUserDir       unsafe.Pointer
	loadResource     unsafe.Pointer
	setStaticOption  unsafe.Pointer
	create           unsafe.Pointer
	createEx         unsafe.Pointer
	destroy          unsafe.Pointer
	setInstanceOpt   unsafe.Pointer
	connect          unsafe.Pointer
	appendTask       unsafe.Pointer
	setTaskParams    unsafe.Pointer
	start            unsafe.Pointer
	stop             unsafe.Pointer
	getVersion       unsafe.Pointer
	log              unsafe.Pointer
}

func dlopenLibrary(path string) (*symbolTable, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_GLOBAL)
	if h == nil {
		return nil, fmt.Errorf("ffi: dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	sym := func(name string) (unsafe.Pointer, error) {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		p := C.dlsym(h, cname)
		if p == nil {
			return nil, fmt.Errorf("ffi: dlsym %s: %s", name, C.GoString(C.dlerror()))
		}
		return p, nil
	}

	t := &symbolTable{handle: h}
	var err error
	for _, bind := range []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{"AsstSetUserDir", &t.setUserDir},
		{"AsstLoadResource", &t.loadResource},
		{"AsstSetStaticOption", &t.setStaticOption},
		{"AsstCreate", &t.create},
		{"AsstCreateEx", &t.createEx},
		{"AsstDestroy", &t.destroy},
		{"AsstSetInstanceOption", &t.setInstanceOpt},
		{"AsstConnect", &t.connect},
		{"AsstAppendTask", &t.appendTask},
		{"AsstSetTaskParams", &t.setTaskParams},
		{"AsstStart", &t.start},
		{"AsstStop", &t.stop},
		{"AsstGetVersion", &t.getVersion},
		{"AsstLog", &t.log},
	} {
		*bind.dst, err = sym(bind.name)
		if err != nil {
			C.dlclose(h)
			return nil, err
		}
	}
	return t, nil
}

func (t *symbolTable) dlclose() {
	C.dlclose(t.handle)
}

func (t *symbolTable) setUserDirC(path *C.char) int32 {
	return int32(C.call_AsstSetUserDir(t.setUserDir, path))
}
func (t *symbolTable) loadResourceC(path *C.char) int32 {
	return int32(C.call_AsstLoadResource(t.loadResource, path))
}
func (t *symbolTable) setStaticOptionC(key int32, value *C.char) int32 {
	return int32(C.call_AsstSetStaticOption(t.setStaticOption, C.int32_t(key), value))
}
func (t *symbolTable) createC() unsafe.Pointer {
	return unsafe.Pointer(C.call_AsstCreate(t.create))
}
func (t *symbolTable) createExC(customArg unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.call_AsstCreateEx(t.createEx, customArg))
}
func (t *symbolTable) destroyC(h unsafe.Pointer) {
	C.call_AsstDestroy(t.destroy, C.AsstHandle(h))
}
func (t *symbolTable) setInstanceOptionC(h unsafe.Pointer, key int32, value *C.char) int32 {
	return int32(C.call_AsstSetInstanceOption(t.setInstanceOpt, C.AsstHandle(h), C.int32_t(key), value))
}
func (t *symbolTable) connectC(h unsafe.Pointer, adb, address, config *C.char) int32 {
	return int32(C.call_AsstConnect(t.connect, C.AsstHandle(h), adb, address, config))
}
func (t *symbolTable) appendTaskC(h unsafe.Pointer, typ, params *C.char) int32 {
	return int32(C.call_AsstAppendTask(t.appendTask, C.AsstHandle(h), typ, params))
}
func (t *symbolTable) setTaskParamsC(h unsafe.Pointer, id int32, params *C.char) int32 {
	return int32(C.call_AsstSetTaskParams(t.setTaskParams, C.AsstHandle(h), C.AsstTaskId(id), params))
}
func (t *symbolTable) startC(h unsafe.Pointer) int32 {
	return int32(C.call_AsstStart(t.start, C.AsstHandle(h)))
}
func (t *symbolTable) stopC(h unsafe.Pointer) int32 {
	return int32(C.call_AsstStop(t.stop, C.AsstHandle(h)))
}
func (t *symbolTable) getVersionC() string {
	return C.GoString(C.call_AsstGetVersion(t.getVersion))
}
func (t *symbolTable) logC(level, message *C.char) {
	C.call_AsstLog(t.log, level, message)
}

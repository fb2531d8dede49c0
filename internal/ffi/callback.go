//go:build unix

package ffi

/*
#include <stdint.h>
#include <stdlib.h>
#include <string.h>

typedef int32_t AsstMsgId;

static void* alloc_session_id(const unsigned char* bytes, int n) {
	void* p = malloc(n);
	memcpy(p, bytes, n);
	return p;
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// SessionID is the native callback's routing token, carried through
// AsstCreateEx's custom_arg as a pointer to an immutable heap-allocated
// copy rather than as the 8-byte void* itself: the pointer-sized
// custom_arg cannot hold 16 bytes directly (original_source's
// maa-server/src/lib.rs defines SessionID = [u8; 16]), so each session
// owns one malloc'd 16-byte buffer for its lifetime and the callback
// reads it back by value. The buffer is never treated as a live
// pointer into Go state, so routing never dereferences stale memory
// once a session is torn down; lookups after Forget silently miss.
type SessionID [16]byte

// Handler receives one native callback invocation: the message code and
// its accompanying details JSON, matching spec.md §4.10's callback
// shape of (msg_id, details_json).
type Handler func(msgID int32, detailsJSON string)

var callbackRegistry = struct {
	mu       sync.RWMutex
	handlers map[SessionID]Handler
	buffers  map[SessionID]unsafe.Pointer
}{
	handlers: make(map[SessionID]Handler),
	buffers:  make(map[SessionID]unsafe.Pointer),
}

// Register allocates the custom_arg buffer for id and records handler as
// the callback to invoke for messages routed through it. The returned
// pointer must be passed as AsstCreateEx's custom_arg.
func Register(id SessionID, handler Handler) unsafe.Pointer {
	buf := C.alloc_session_id((*C.uchar)(unsafe.Pointer(&id[0])), C.int(len(id)))

	callbackRegistry.mu.Lock()
	defer callbackRegistry.mu.Unlock()
	callbackRegistry.handlers[id] = handler
	callbackRegistry.buffers[id] = buf
	return buf
}

// Forget releases the custom_arg buffer for id and removes its handler.
// Call this once the owning session is destroyed (AsstDestroy) so no
// further callback can route to it.
func Forget(id SessionID) {
	callbackRegistry.mu.Lock()
	defer callbackRegistry.mu.Unlock()
	if buf, ok := callbackRegistry.buffers[id]; ok {
		C.free(buf)
		delete(callbackRegistry.buffers, id)
	}
	delete(callbackRegistry.handlers, id)
}

//export goAsstCallback
func goAsstCallback(msg C.AsstMsgId, detailsJSON *C.char, customArg unsafe.Pointer) {
	if customArg == nil {
		return
	}
	var id SessionID
	copy(id[:], C.GoBytes(customArg, C.int(len(id))))

	callbackRegistry.mu.RLock()
	h, ok := callbackRegistry.handlers[id]
	callbackRegistry.mu.RUnlock()
	if !ok {
		return
	}
	h(int32(msg), C.GoString(detailsJSON))
}

//go:build linux && cgo

package vc

/*
#include <interface/mmal/mmal.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/pedrosland/rascam/pkg/mmal"
)

// ports maps native port pointers to their Go wrapper and armed callback.
// Deliveries arrive on VCOS threads and re-enter Go through the exported
// trampoline below.
var (
	portsMu sync.Mutex
	ports   = map[unsafe.Pointer]*portState{}
)

type portState struct {
	port *port
	cb   mmal.BufferCallback
}

func wrapPort(ptr *C.MMAL_PORT_T, name string) *port {
	key := unsafe.Pointer(ptr)

	portsMu.Lock()
	defer portsMu.Unlock()

	if st, ok := ports[key]; ok {
		return st.port
	}
	p := &port{ptr: ptr, name: name}
	ports[key] = &portState{port: p}
	return p
}

func registerCallback(p *port, cb mmal.BufferCallback) {
	portsMu.Lock()
	ports[unsafe.Pointer(p.ptr)].cb = cb
	portsMu.Unlock()
}

func unregisterCallback(p *port) {
	portsMu.Lock()
	if st, ok := ports[unsafe.Pointer(p.ptr)]; ok {
		st.cb = nil
	}
	portsMu.Unlock()
}

//export rascamBufferCallback
func rascamBufferCallback(cport *C.MMAL_PORT_T, cbuf *C.MMAL_BUFFER_HEADER_T) {
	portsMu.Lock()
	st := ports[unsafe.Pointer(cport)]
	portsMu.Unlock()

	b := &buffer{ptr: cbuf}
	if st == nil || st.cb == nil {
		b.Release()
		return
	}
	st.cb(st.port, b)
}

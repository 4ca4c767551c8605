//go:build windows

package singleinstance

import (
	"syscall"
	"unsafe"
)

const mutexName = "Global\\WhisperDocClientMutex"
const errorAlreadyExists = 183

var (
	kernel32     = syscall.NewLazyDLL("kernel32.dll")
	procCreateMx = kernel32.NewProc("CreateMutexW")
	procClose    = kernel32.NewProc("CloseHandle")
	procRelease  = kernel32.NewProc("ReleaseMutex")
)

// Lock is an acquired single-instance mutex handle.
type Lock struct {
	handle uintptr
}

// Acquire attempts to create the global named mutex. It returns (lock, true)
// when this process holds the lock, or (nil, false) if another instance
// already holds it. If the mutex cannot be created at all it returns a lock
// that holds nothing, and true.
func Acquire() (*Lock, bool) {
	namePtr, err := syscall.UTF16PtrFromString(mutexName)
	if err != nil {
		return &Lock{}, true
	}

	handle, _, lastErr := procCreateMx.Call(0, 1, uintptr(unsafe.Pointer(namePtr)))

	if lastErr == syscall.Errno(errorAlreadyExists) {
		if handle != 0 {
			procClose.Call(handle)
		}
		return nil, false
	}
	if handle == 0 {
		return &Lock{}, true
	}
	return &Lock{handle: handle}, true
}

// Release releases and closes the mutex handle.
func (l *Lock) Release() {
	if l == nil || l.handle == 0 {
		return
	}
	procRelease.Call(l.handle)
	procClose.Call(l.handle)
}

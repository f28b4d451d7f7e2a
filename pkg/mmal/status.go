package mmal

import "strconv"

// Status is a native MMAL status code.
type Status uint32

const (
	StatusSuccess      Status = iota // operation completed
	StatusNoMemory                   // out of memory
	StatusNoSpace                    // out of resources other than memory
	StatusInvalid                    // argument is invalid
	StatusNoSys                      // function not implemented
	StatusNoEnt                      // no such file or directory
	StatusNxIO                       // no such device or address
	StatusIO                         // I/O error
	StatusSPipe                      // illegal seek
	StatusCorrupt                    // data is corrupt
	StatusNotReady                   // component is not ready
	StatusConfig                     // component is not configured
	StatusIsConn                     // port is already connected
	StatusNotConn                    // port is disconnected
	StatusAgain                      // resource temporarily unavailable
	StatusFault                      // bad address

	// StatusMax marks failures for which the driver reports no code,
	// for example a null pool from the buffer allocator.
	StatusMax Status = 0x7FFFFFFF
)

var statusNames = [...]string{
	"SUCCESS", "ENOMEM", "ENOSPC", "EINVAL", "ENOSYS", "ENOENT", "ENXIO",
	"EIO", "ESPIPE", "ECORRUPT", "ENOTREADY", "ECONFIG", "EISCONN",
	"ENOTCONN", "EAGAIN", "EFAULT",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "UNKNOWN(" + strconv.FormatUint(uint64(s), 10) + ")"
}

// Error is a failed native operation. Op describes what was attempted.
type Error struct {
	Op     string
	Status Status
}

func (e *Error) Error() string {
	if e.Status == StatusMax {
		return "mmal: " + e.Op
	}
	return "mmal: " + e.Op + ": " + e.Status.String()
}

// Errorf builds an Error from an op description and a native status.
func Errorf(op string, status Status) error {
	return &Error{Op: op, Status: status}
}

package wl

import "sync"

// eventPool recycles Event structs between reads and dispatches.
var eventPool = sync.Pool{
	New: func() interface{} {
		return &Event{data: make([]byte, 0, 4096)}
	},
}

// Event is a decoded protocol event. The argument accessors consume the
// payload left to right, mirroring the event's wire signature.
type Event struct {
	ProxyID uint32
	Opcode  uint16

	data    []byte
	offset  int
	display *Display
}

// Data returns the raw event payload.
func (e *Event) Data() []byte { return e.data }

// Uint32 reads the next uint32 argument.
func (e *Event) Uint32() uint32 {
	if e.offset+4 > len(e.data) {
		return 0
	}
	v := byteOrder.Uint32(e.data[e.offset:])
	e.offset += 4
	return v
}

// Int32 reads the next int32 argument.
func (e *Event) Int32() int32 {
	return int32(e.Uint32())
}

// Fixed reads the next 24.8 fixed-point argument.
func (e *Event) Fixed() Fixed {
	return Fixed(e.Int32())
}

// String reads the next string argument, dropping the NUL terminator and
// skipping the 32-bit padding.
func (e *Event) String() string {
	strlen := int(e.Uint32())
	if strlen == 0 || e.offset+strlen > len(e.data) {
		return ""
	}
	s := string(e.data[e.offset : e.offset+strlen-1])
	e.offset += strlen + pad4(strlen)
	return s
}

// Array reads the next array argument as a copy of its bytes.
func (e *Event) Array() []byte {
	arrlen := int(e.Uint32())
	if arrlen == 0 || e.offset+arrlen > len(e.data) {
		return nil
	}
	arr := make([]byte, arrlen)
	copy(arr, e.data[e.offset:e.offset+arrlen])
	e.offset += arrlen + pad4(arrlen)
	return arr
}

// FD pops the next file descriptor received as ancillary data. FDs are not
// part of the message body, so order of FD arguments across queued events
// follows the order of the reads that delivered them.
func (e *Event) FD() int {
	if e.display == nil || len(e.display.inFDs) == 0 {
		return -1
	}
	fd := e.display.inFDs[0]
	e.display.inFDs = e.display.inFDs[1:]
	return fd
}

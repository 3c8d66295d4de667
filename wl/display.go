// Package wl implements a pure-Go client for the Wayland wire protocol:
// connection management, object lifetimes, the global registry, and the
// prepare-read/read-events reservation discipline over the receive buffer.
//
// The package speaks the core protocol only; shell extensions live in
// sibling packages built on top of Proxy.
package wl

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Reservation protocol errors. PrepareRead/ReadEvents/CancelRead form a
// two-phase lock over the receive buffer: between a successful PrepareRead
// and the matching ReadEvents or CancelRead no other dispatch may run.
var (
	ErrPendingEvents = errors.New("wl: undispatched events pending; dispatch before reading")
	ErrNoReadIntent  = errors.New("wl: read-events without prepare-read")
	ErrClosed        = errors.New("wl: connection closed")
)

// Display represents a connection to the Wayland display server. It owns
// the socket, the object table, and the registry. All protocol I/O happens
// synchronously on the caller's goroutine; Display is not safe for
// concurrent dispatch.
type Display struct {
	conn *net.UnixConn
	file *os.File
	fd   int

	objects sync.Map // map[uint32]Proxy
	nextID  uint32

	context  *Context
	registry *Registry

	sendMu sync.Mutex
	out    []byte
	outFDs []int

	// Receive side. recvBuf accumulates raw wire data; pending holds
	// decoded events awaiting DispatchPending.
	recvBuf      []byte
	pending      []*Event
	inFDs        []int
	readPrepared bool

	lastError error
	closed    atomic.Bool
}

// Connect connects to the Wayland display socket. An empty name falls back
// to $WAYLAND_DISPLAY, then "wayland-0", resolved under $XDG_RUNTIME_DIR.
func Connect(socketPath string) (*Display, error) {
	if socketPath == "" {
		socketPath = os.Getenv("WAYLAND_DISPLAY")
		if socketPath == "" {
			socketPath = "wayland-0"
		}
	}
	if !filepath.IsAbs(socketPath) {
		runDir := os.Getenv("XDG_RUNTIME_DIR")
		if runDir == "" {
			return nil, errors.New("wl: XDG_RUNTIME_DIR not set")
		}
		socketPath = filepath.Join(runDir, socketPath)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("wl: connect to %s: %w", socketPath, err)
	}
	uconn := conn.(*net.UnixConn)

	file, err := uconn.File()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("wl: socket fd: %w", err)
	}
	fd := int(file.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = file.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("wl: set nonblocking: %w", err)
	}

	d := &Display{
		conn:   uconn,
		file:   file,
		fd:     fd,
		nextID: 2, // 1 is wl_display itself
	}
	d.context = &Context{display: d}

	d.registry = &Registry{
		BaseProxy: BaseProxy{id: d.allocateID(), context: d.context},
		globals:   make(map[uint32]Global),
		handlers:  make(map[string]GlobalHandler),
	}
	d.objects.Store(d.registry.id, d.registry)

	// wl_display.get_registry
	if err := d.Enqueue(1, opDisplayGetRegistry, nil, d.registry.id); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("wl: get registry: %w", err)
	}

	return d, nil
}

// Close closes the display connection. Further operations fail with
// ErrClosed.
func (d *Display) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	ferr := d.file.Close()
	cerr := d.conn.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}

// ID returns the display's object ID, always 1.
func (d *Display) ID() uint32 { return 1 }

// Fd returns the connection's file descriptor for readiness polling.
func (d *Display) Fd() int { return d.fd }

// Context returns the request context shared by all proxies on this
// connection.
func (d *Display) Context() *Context { return d.context }

// Registry returns the global registry.
func (d *Display) Registry() *Registry { return d.registry }

// Err returns the sticky protocol error, if the server reported one.
func (d *Display) Err() error { return d.lastError }

func (d *Display) allocateID() uint32 {
	return atomic.AddUint32(&d.nextID, 1) - 1
}

// AllocateID allocates a fresh client-side object ID.
func (d *Display) AllocateID() uint32 { return d.allocateID() }

// Enqueue marshals a request into the outgoing buffer. Nothing is written
// to the socket until Flush. File descriptors ride along as SCM_RIGHTS
// ancillary data on the flush that carries their message.
func (d *Display) Enqueue(objectID uint32, opcode uint16, fds []int, args ...interface{}) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if d.lastError != nil {
		return d.lastError
	}
	msg, err := marshalMessage(objectID, opcode, args...)
	if err != nil {
		return fmt.Errorf("wl: marshal request %d.%d: %w", objectID, opcode, err)
	}
	d.sendMu.Lock()
	d.out = append(d.out, msg...)
	d.outFDs = append(d.outFDs, fds...)
	d.sendMu.Unlock()
	return nil
}

// Flush writes buffered requests to the socket. EAGAIN is returned to the
// caller unwrapped; it means the socket is full and the flush should be
// retried after the next readiness wait, not that the connection failed.
func (d *Display) Flush() error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	for len(d.out) > 0 {
		n, err := d.sendmsg(d.out, d.outFDs)
		if n > 0 {
			d.out = d.out[n:]
			d.outFDs = nil
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return unix.EAGAIN
			}
			return fmt.Errorf("wl: flush: %w", err)
		}
	}
	return nil
}

// PrepareRead reserves the receive buffer for a read. It fails with
// ErrPendingEvents while decoded events await dispatch; the caller must
// drain DispatchPending first and retry.
func (d *Display) PrepareRead() error {
	if d.closed.Load() {
		return ErrClosed
	}
	if len(d.pending) > 0 {
		return ErrPendingEvents
	}
	d.readPrepared = true
	return nil
}

// CancelRead releases a reservation taken by PrepareRead without reading.
// Safe to call when no reservation is held.
func (d *Display) CancelRead() {
	d.readPrepared = false
}

// ReadEvents consumes the reservation and drains everything currently
// readable on the socket into the pending event queue. It never blocks:
// EAGAIN ends the drain. The events are not dispatched; see
// DispatchPending.
func (d *Display) ReadEvents() error {
	if !d.readPrepared {
		return ErrNoReadIntent
	}
	d.readPrepared = false

	var buf [4096]byte
	for {
		n, fds, err := d.recvmsg(buf[:])
		if n > 0 {
			d.recvBuf = append(d.recvBuf, buf[:n]...)
			d.inFDs = append(d.inFDs, fds...)
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				break
			}
			return fmt.Errorf("wl: read events: %w", err)
		}
		if n == 0 {
			d.closed.Store(true)
			return ErrClosed
		}
	}

	return d.decodePending()
}

// decodePending splits complete wire messages out of recvBuf into the
// pending queue. A partial trailing message stays buffered for the next
// read.
func (d *Display) decodePending() error {
	for len(d.recvBuf) >= 8 {
		objectID := byteOrder.Uint32(d.recvBuf[0:4])
		sizeOpcode := byteOrder.Uint32(d.recvBuf[4:8])
		size := sizeOpcode >> 16
		opcode := uint16(sizeOpcode & 0xffff)
		if size < 8 {
			return fmt.Errorf("wl: malformed event header: size %d", size)
		}
		if uint32(len(d.recvBuf)) < size {
			break
		}

		ev := eventPool.Get().(*Event)
		ev.ProxyID = objectID
		ev.Opcode = opcode
		ev.data = append(ev.data[:0], d.recvBuf[8:size]...)
		ev.offset = 0
		ev.display = d
		d.pending = append(d.pending, ev)

		d.recvBuf = d.recvBuf[size:]
	}
	if len(d.recvBuf) == 0 {
		d.recvBuf = nil
	}
	return nil
}

// DispatchPending dispatches every queued event to its proxy and returns
// the count. It never reads the socket, so it is always safe between
// PrepareRead attempts.
func (d *Display) DispatchPending() int {
	count := 0
	for len(d.pending) > 0 {
		ev := d.pending[0]
		d.pending = d.pending[1:]
		count++

		if ev.ProxyID == 1 {
			d.handleDisplayEvent(ev)
		} else if obj, ok := d.objects.Load(ev.ProxyID); ok {
			obj.(Proxy).Dispatch(ev)
		}

		ev.display = nil
		eventPool.Put(ev)
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return count
}

// handleDisplayEvent handles events on the wl_display object itself.
func (d *Display) handleDisplayEvent(ev *Event) {
	switch ev.Opcode {
	case evDisplayError:
		objectID := ev.Uint32()
		code := ev.Uint32()
		message := ev.String()
		d.lastError = fmt.Errorf("wl: protocol error on object %d, code %d: %s", objectID, code, message)
	case evDisplayDeleteID:
		id := ev.Uint32()
		d.objects.Delete(id)
		d.context.proxies.Delete(id)
	}
}

// Dispatch pumps one prepare/flush/wait/read cycle, blocking until the
// socket becomes readable. It is the building block behind Roundtrip;
// higher-level loops implement their own variant with timeouts.
func (d *Display) Dispatch() (int, error) {
	n := 0
	for {
		err := d.PrepareRead()
		if err == nil {
			break
		}
		if !errors.Is(err, ErrPendingEvents) {
			return n, err
		}
		n += d.DispatchPending()
	}
	if err := d.Flush(); err != nil && !errors.Is(err, unix.EAGAIN) {
		d.CancelRead()
		return n, err
	}
	if err := d.pollIn(-1); err != nil {
		d.CancelRead()
		return n, err
	}
	if err := d.ReadEvents(); err != nil {
		return n, err
	}
	n += d.DispatchPending()
	if d.lastError != nil {
		return n, d.lastError
	}
	return n, nil
}

// pollIn waits up to timeout milliseconds for the socket to become
// readable. A negative timeout waits indefinitely.
func (d *Display) pollIn(timeout int) error {
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("wl: poll: %w", err)
		}
		if n == 0 {
			return nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			d.closed.Store(true)
			return ErrClosed
		}
		return nil
	}
}

// Sync sends wl_display.sync and returns the callback proxy. The server
// answers with done once all prior requests have been processed.
func (d *Display) Sync() (*Callback, error) {
	cb := &Callback{BaseProxy: BaseProxy{id: d.allocateID(), context: d.context}}
	d.context.Register(cb)
	if err := d.Enqueue(1, opDisplaySync, nil, cb.id); err != nil {
		d.context.Unregister(cb)
		return nil, err
	}
	return cb, nil
}

// Roundtrip blocks until the server has processed every request sent so
// far, dispatching events as they arrive.
func (d *Display) Roundtrip() error {
	done := false
	cb, err := d.Sync()
	if err != nil {
		return err
	}
	cb.Done = func(uint32) { done = true }

	for !done {
		if _, err := d.Dispatch(); err != nil {
			return err
		}
	}
	return nil
}

package wlshell

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// protocolConn is the slice of the connection the dispatch loop drives.
type protocolConn interface {
	PrepareRead() error
	CancelRead()
	ReadEvents() error
	DispatchPending() int
	Flush() error
	Fd() int
	Err() error
}

// WindowManager ties the display, the xdg shell, and the windows into a
// single-threaded event loop. It composes its parts; it is not a kind of
// display or a kind of window.
type WindowManager struct {
	display *Display
	wm      *XdgWm
	windows []*Window
	tasks   *TaskQueue

	conn protocolConn
}

// NewWindowManager connects to the display and binds the shell. Like
// Connect, an unreachable server is fatal; a server without xdg_wm_base
// is an error.
func NewWindowManager(opts *Options) (*WindowManager, error) {
	display := Connect(opts)
	wm, err := NewXdgWm(display)
	if err != nil {
		_ = display.Close()
		return nil, err
	}
	return &WindowManager{
		display: display,
		wm:      wm,
		tasks:   NewTaskQueue(),
		conn:    display.Conn(),
	}, nil
}

// Display returns the display.
func (m *WindowManager) Display() *Display { return m.display }

// XdgWm returns the shell binding.
func (m *WindowManager) XdgWm() *XdgWm { return m.wm }

// Window returns the first created window, nil before CreateWindow.
func (m *WindowManager) Window() *Window {
	if len(m.windows) == 0 {
		return nil
	}
	return m.windows[0]
}

// CreateWindow creates a toplevel window and pumps the connection until
// the compositor's first configure lands, so the window comes back
// mapped and (when a draw callback is set) already frame-paced.
func (m *WindowManager) CreateWindow(title, appID string, width, height int32, kind WindowKind, draw DrawFunc) (*Window, error) {
	w, err := m.wm.CreateWindow(title, appID, width, height, kind, draw)
	if err != nil {
		return nil, err
	}
	m.windows = append(m.windows, w)

	for !w.Configured() {
		if n := m.dispatchConn(-1); n < 0 {
			w.Destroy()
			m.windows = m.windows[:len(m.windows)-1]
			if err := m.conn.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("connection failed during configure (%d)", n)
		}
	}
	return w, nil
}

// Post queues a task for the next Dispatch pass. Safe from any
// goroutine.
func (m *WindowManager) Post(t Task) { m.tasks.Post(t) }

// Running reports whether the loop should keep going: no window has been
// asked to close and the connection carries no protocol error.
func (m *WindowManager) Running() bool {
	if m.conn.Err() != nil {
		return false
	}
	for _, w := range m.windows {
		if !w.Running() {
			return false
		}
	}
	return true
}

// maxTaskDrains bounds how many drain passes one Dispatch runs, so a
// task that keeps reposting itself cannot starve protocol events.
const maxTaskDrains = 8

// Dispatch runs one pass of the event loop: drain queued tasks
// (including tasks they post, up to maxTaskDrains passes), then wait up
// to timeout milliseconds for protocol events and dispatch them. A
// negative timeout blocks until events arrive. Returns the number of
// events dispatched, or a negative errno-style code on connection
// failure.
func (m *WindowManager) Dispatch(timeout int) int {
	for i := 0; i < maxTaskDrains; i++ {
		if m.tasks.Drain() == 0 {
			break
		}
	}
	return m.dispatchConn(timeout)
}

// PollEvents dispatches whatever protocol events are already readable,
// without the task drain and without waiting on the descriptor: after
// the flush it goes straight to the nonblocking read, so an idle
// connection returns immediately. The timeout argument keeps the
// signature symmetric with Dispatch and is ignored.
func (m *WindowManager) PollEvents(timeout int) int {
	n := 0
	for {
		err := m.conn.PrepareRead()
		if err == nil {
			break
		}
		if errors.Is(err, wl.ErrPendingEvents) {
			n += m.conn.DispatchPending()
			continue
		}
		return errCode(err)
	}

	if err := m.conn.Flush(); err != nil && !errors.Is(err, unix.EAGAIN) {
		m.conn.CancelRead()
		logger.Error("flush failed", "err", err)
		return errCode(err)
	}

	if err := m.conn.ReadEvents(); err != nil {
		return errCode(err)
	}
	n += m.conn.DispatchPending()

	if err := m.conn.Err(); err != nil {
		logger.Error("protocol error", "err", err)
		return errCode(err)
	}
	return n
}

// dispatchConn is the prepare-read cycle. Every exit path after a
// successful PrepareRead either reads or cancels; leaking the
// reservation would wedge the next pass.
func (m *WindowManager) dispatchConn(timeout int) int {
	n := 0
	for {
		err := m.conn.PrepareRead()
		if err == nil {
			break
		}
		if errors.Is(err, wl.ErrPendingEvents) {
			n += m.conn.DispatchPending()
			continue
		}
		return errCode(err)
	}

	if err := m.conn.Flush(); err != nil && !errors.Is(err, unix.EAGAIN) {
		m.conn.CancelRead()
		logger.Error("flush failed", "err", err)
		return errCode(err)
	}

	ready, err := pollReadable(m.conn.Fd(), timeout)
	if err != nil {
		m.conn.CancelRead()
		logger.Error("poll failed", "err", err)
		return errCode(err)
	}
	if !ready {
		m.conn.CancelRead()
		return n
	}

	if err := m.conn.ReadEvents(); err != nil {
		// the reservation is consumed by ReadEvents, success or not
		return errCode(err)
	}
	n += m.conn.DispatchPending()

	if err := m.conn.Err(); err != nil {
		logger.Error("protocol error", "err", err)
		return errCode(err)
	}
	return n
}

// pollReadable waits for the fd to become readable. false means the
// timeout expired.
func pollReadable(fd int, timeout int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		if fds[0].Revents&(unix.POLLERR|unix.POLLHUP) != 0 {
			return false, wl.ErrClosed
		}
		return true, nil
	}
}

// errCode maps a failure to the loop's negative return convention.
func errCode(err error) int {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return -int(errno)
	}
	return -1
}

// Destroy tears down windows, the shell binding, and the connection, in
// that order.
func (m *WindowManager) Destroy() {
	for _, w := range m.windows {
		w.Destroy()
	}
	m.windows = nil
	m.wm.Destroy()
	if err := m.display.Close(); err != nil {
		logger.Debugf("display close: %v", err)
	}
}

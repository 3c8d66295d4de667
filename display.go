// Package wlshell is a client-side windowing layer for Wayland: it binds
// the core globals as the server advertises them, manages per-seat input
// device lifecycles, runs the xdg-shell configure handshake, and paces
// redraws off the compositor's frame callbacks.
package wlshell

import (
	"fmt"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// Versions requested for the core globals; the negotiated version is
// min(requested, advertised).
const (
	compositorRequestVersion    uint32 = 4
	subcompositorRequestVersion uint32 = 1
	shmRequestVersion           uint32 = 1
	outputRequestVersion        uint32 = 2
	seatRequestVersion          uint32 = 5
)

// Options configures a display connection.
type Options struct {
	// Socket names the display socket; empty means $WAYLAND_DISPLAY.
	Socket string
	// EnableCursor turns on client-side cursor rendering for pointers.
	EnableCursor bool
	// CursorTheme names the cursor theme; empty means the built-in one.
	CursorTheme string
}

// GlobalObserver is notified of every registry announce and removal, after
// the display's own bindings have been made. An observer may therefore
// assume the compositor and shm globals are bound by the time it sees any
// later global.
type GlobalObserver interface {
	GlobalAnnounce(registry *wl.Registry, name uint32, iface string, version uint32)
	GlobalRemove(name uint32)
}

// boundGlobal records a binding made from a registry announce so removal
// events can tear it down again.
type boundGlobal struct {
	iface      string
	negotiated uint32
}

// Display owns the server connection and the bindings of the core
// globals. It is the single owner of the registry; all other components
// observe globals through it.
type Display struct {
	conn     *wl.Display
	registry *wl.Registry

	compositor           *wl.Compositor
	compositorVersion    uint32
	subcompositor        *wl.Subcompositor
	subcompositorVersion uint32
	shm                  *wl.Shm
	hasXRGB              bool
	bufferScaling        bool

	enableCursor bool
	cursorTheme  string

	bound   map[uint32]boundGlobal
	outputs map[uint32]*Output
	seats   map[uint32]*Seat

	observers []GlobalObserver
}

// Connect connects to the display server and performs the initial
// roundtrip so the core globals are bound before it returns. There is no
// degraded mode without a server: an unreachable server terminates the
// process.
func Connect(opts *Options) *Display {
	d, err := connect(opts)
	if err != nil {
		logger.Fatalf("failed to connect to Wayland display: %v", err)
	}
	return d
}

func connect(opts *Options) (*Display, error) {
	if opts == nil {
		opts = &Options{EnableCursor: true}
	}
	conn, err := wl.Connect(opts.Socket)
	if err != nil {
		return nil, err
	}
	d := newDisplay(conn, opts)
	if err := conn.Roundtrip(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initial roundtrip: %w", err)
	}
	return d, nil
}

// newDisplay wires a Display onto an established connection without the
// initial roundtrip.
func newDisplay(conn *wl.Display, opts *Options) *Display {
	d := &Display{
		conn:         conn,
		registry:     conn.Registry(),
		enableCursor: opts.EnableCursor,
		cursorTheme:  opts.CursorTheme,
		bound:        make(map[uint32]boundGlobal),
		outputs:      make(map[uint32]*Output),
		seats:        make(map[uint32]*Seat),
	}
	d.registry.AddHandler("*", d.handleGlobal)
	d.registry.AddRemoveHandler(d.handleGlobalRemove)
	return d
}

// Close releases every binding and closes the connection.
func (d *Display) Close() error {
	for name, seat := range d.seats {
		seat.release()
		delete(d.seats, name)
	}
	for name, output := range d.outputs {
		output.release()
		delete(d.outputs, name)
	}
	return d.conn.Close()
}

// Conn returns the protocol connection.
func (d *Display) Conn() *wl.Display { return d.conn }

// Registry returns the global registry.
func (d *Display) Registry() *wl.Registry { return d.registry }

// Compositor returns the bound wl_compositor, or nil before the first
// roundtrip completes.
func (d *Display) Compositor() *wl.Compositor { return d.compositor }

// Shm returns the bound wl_shm global.
func (d *Display) Shm() *wl.Shm { return d.shm }

// HasXRGB reports whether the server advertised the XRGB8888 pixel
// format, the canonical fallback every compositor is expected to support.
func (d *Display) HasXRGB() bool { return d.hasXRGB }

// BufferScaling reports whether the negotiated compositor version supports
// per-surface buffer scale.
func (d *Display) BufferScaling() bool { return d.bufferScaling }

// Outputs returns the live outputs keyed by registry name.
func (d *Display) Outputs() map[uint32]*Output { return d.outputs }

// Seats returns the live seats keyed by registry name.
func (d *Display) Seats() map[uint32]*Seat { return d.seats }

// AddObserver registers an observer for registry events. Observers run
// synchronously, after internal bindings.
func (d *Display) AddObserver(o GlobalObserver) {
	d.observers = append(d.observers, o)
}

func negotiate(requested, advertised uint32) uint32 {
	if advertised < requested {
		return advertised
	}
	return requested
}

// handleGlobal binds the globals the display cares about, then forwards
// the announce to external observers.
func (d *Display) handleGlobal(r *wl.Registry, name uint32, version uint32) {
	g, ok := r.Globals()[name]
	if !ok {
		return
	}

	switch g.Interface {
	case wl.CompositorInterface:
		v := negotiate(compositorRequestVersion, version)
		c := &wl.Compositor{}
		if err := r.Bind(name, g.Interface, v, c); err != nil {
			logger.Warnf("bind wl_compositor: %v", err)
			break
		}
		d.compositor = c
		d.compositorVersion = v
		d.bufferScaling = v >= 3
		d.bound[name] = boundGlobal{iface: g.Interface, negotiated: v}

	case wl.SubcompositorInterface:
		v := negotiate(subcompositorRequestVersion, version)
		s := &wl.Subcompositor{}
		if err := r.Bind(name, g.Interface, v, s); err != nil {
			logger.Warnf("bind wl_subcompositor: %v", err)
			break
		}
		d.subcompositor = s
		d.subcompositorVersion = v
		d.bound[name] = boundGlobal{iface: g.Interface, negotiated: v}

	case wl.ShmInterface:
		v := negotiate(shmRequestVersion, version)
		s := &wl.Shm{}
		if err := r.Bind(name, g.Interface, v, s); err != nil {
			logger.Warnf("bind wl_shm: %v", err)
			break
		}
		s.SetListener(d)
		d.shm = s
		d.bound[name] = boundGlobal{iface: g.Interface, negotiated: v}

	case wl.OutputInterface:
		v := negotiate(outputRequestVersion, version)
		proxy := &wl.Output{}
		if err := r.Bind(name, g.Interface, v, proxy); err != nil {
			logger.Warnf("bind wl_output: %v", err)
			break
		}
		d.outputs[name] = NewOutput(proxy, v)
		d.bound[name] = boundGlobal{iface: g.Interface, negotiated: v}

	case wl.SeatInterface:
		v := negotiate(seatRequestVersion, version)
		proxy := &wl.Seat{}
		if err := r.Bind(name, g.Interface, v, proxy); err != nil {
			logger.Warnf("bind wl_seat: %v", err)
			break
		}
		d.seats[name] = NewSeat(proxy, d, v)
		d.bound[name] = boundGlobal{iface: g.Interface, negotiated: v}
	}

	for _, o := range d.observers {
		o.GlobalAnnounce(r, name, g.Interface, version)
	}
}

// handleGlobalRemove tears down whatever was bound for the withdrawn
// name, keeping "name unique per live connection" true, then forwards the
// removal to observers.
func (d *Display) handleGlobalRemove(_ *wl.Registry, name uint32) {
	if seat, ok := d.seats[name]; ok {
		seat.release()
		delete(d.seats, name)
	}
	if output, ok := d.outputs[name]; ok {
		output.release()
		delete(d.outputs, name)
	}
	delete(d.bound, name)

	for _, o := range d.observers {
		o.GlobalRemove(name)
	}
}

// ShmFormat records whether the canonical XRGB8888 fallback format is
// available. Implements wl.ShmListener.
func (d *Display) ShmFormat(format uint32) {
	if format == wl.FormatXRGB8888 {
		d.hasXRGB = true
	}
}

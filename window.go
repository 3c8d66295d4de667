package wlshell

import (
	"fmt"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
	"github.com/bnema/wlshell/xdg"
)

// DrawFunc renders one frame. time is the compositor's presentation
// timestamp in milliseconds; a synthesized first frame passes zero.
type DrawFunc func(time uint32)

// Window is a toplevel surface: it runs the xdg_surface configure
// handshake, tracks the compositor-imposed window state, and paces
// redraws off frame callbacks so the client never renders faster than
// the compositor presents.
type Window struct {
	display *Display
	wmBase  *xdg.WmBase

	surface    *wl.Surface
	xdgSurface *xdg.Surface
	toplevel   *xdg.Toplevel

	// window size, held stable across maximize/fullscreen spans
	width  int32
	height int32
	// latest configured geometry, whatever the state
	geometryWidth  int32
	geometryHeight int32

	maximized  bool
	fullscreen bool
	resizing   bool
	activated  bool

	waitForConfigure bool
	running          bool

	backend       Backend
	kind          WindowKind
	draw          DrawFunc
	frameCB       *wl.Callback
	framesRunning bool
	pendingResize bool

	// OnConfigured fires once, after the first configure is acked.
	OnConfigured func()
	// OnResize fires when the configured geometry changes.
	OnResize func(width, height int32)
	// OnClose fires on the compositor's close request; the window keeps
	// working until the application destroys it.
	OnClose func()
}

// NewWindow creates a toplevel window. The surface is committed bare so
// the compositor responds with the initial configure; the first buffer is
// attached only after that configure is acked.
func NewWindow(display *Display, wmBase *xdg.WmBase, title, appID string, width, height int32, kind WindowKind, draw DrawFunc) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	compositor := display.Compositor()
	if compositor == nil {
		return nil, fmt.Errorf("no wl_compositor bound")
	}

	surface, err := compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("create surface: %w", err)
	}

	w := &Window{
		display:          display,
		wmBase:           wmBase,
		surface:          surface,
		width:            width,
		height:           height,
		geometryWidth:    width,
		geometryHeight:   height,
		waitForConfigure: true,
		running:          true,
		kind:             kind,
		draw:             draw,
	}

	w.xdgSurface, err = wmBase.GetXdgSurface(surface)
	if err != nil {
		_ = surface.Destroy()
		return nil, fmt.Errorf("get xdg_surface: %w", err)
	}
	w.xdgSurface.SetListener(w)

	w.toplevel, err = w.xdgSurface.GetToplevel()
	if err != nil {
		_ = w.xdgSurface.Destroy()
		_ = surface.Destroy()
		return nil, fmt.Errorf("get toplevel: %w", err)
	}
	w.toplevel.SetListener(w)

	if title != "" {
		_ = w.toplevel.SetTitle(title)
	}
	if appID != "" {
		_ = w.toplevel.SetAppID(appID)
	}

	w.backend, err = newBackend(kind, w, width, height)
	if err != nil {
		_ = w.toplevel.Destroy()
		_ = w.xdgSurface.Destroy()
		_ = surface.Destroy()
		return nil, err
	}

	if err := surface.Commit(); err != nil {
		w.Destroy()
		return nil, fmt.Errorf("initial commit: %w", err)
	}
	logger.Debug("window created", "title", title, "width", width, "height", height, "backend", kind.String())
	return w, nil
}

// Surface returns the underlying wl_surface.
func (w *Window) Surface() *wl.Surface { return w.surface }

// Toplevel returns the xdg_toplevel role object.
func (w *Window) Toplevel() *xdg.Toplevel { return w.toplevel }

// Backend returns the rendering backend.
func (w *Window) Backend() Backend { return w.backend }

// Size returns the window size, which stays at the floating size while
// the window is maximized or fullscreen.
func (w *Window) Size() (width, height int32) { return w.width, w.height }

// Geometry returns the latest configured geometry.
func (w *Window) Geometry() (width, height int32) { return w.geometryWidth, w.geometryHeight }

// Maximized reports the compositor-applied maximized state.
func (w *Window) Maximized() bool { return w.maximized }

// Fullscreen reports the compositor-applied fullscreen state.
func (w *Window) Fullscreen() bool { return w.fullscreen }

// Resizing reports whether an interactive resize is in progress.
func (w *Window) Resizing() bool { return w.resizing }

// Activated reports whether the window has focus.
func (w *Window) Activated() bool { return w.activated }

// Running reports whether the compositor has asked the window to close.
func (w *Window) Running() bool { return w.running }

// Configured reports whether the initial configure handshake finished.
func (w *Window) Configured() bool { return !w.waitForConfigure }

// SetTitle updates the window title.
func (w *Window) SetTitle(title string) error { return w.toplevel.SetTitle(title) }

// SetMaximized asks the compositor to maximize; the state changes only
// when the matching configure arrives.
func (w *Window) SetMaximized(on bool) error {
	if on {
		return w.toplevel.SetMaximized()
	}
	return w.toplevel.UnsetMaximized()
}

// SetFullscreen asks the compositor for fullscreen on an output of its
// choice.
func (w *Window) SetFullscreen(on bool) error {
	if on {
		return w.toplevel.SetFullscreen(nil)
	}
	return w.toplevel.UnsetFullscreen()
}

// Move starts an interactive move from the pointer's latest enter serial.
func (w *Window) Move(seat *Seat) error {
	p := seat.Pointer()
	if p == nil {
		return fmt.Errorf("seat has no pointer")
	}
	return w.toplevel.Move(seatObject{seat}, p.EnterSerial())
}

// Resize starts an interactive resize on the given edge.
func (w *Window) Resize(seat *Seat, edge uint32) error {
	p := seat.Pointer()
	if p == nil {
		return fmt.Errorf("seat has no pointer")
	}
	return w.toplevel.Resize(seatObject{seat}, p.EnterSerial(), edge)
}

// seatObject adapts a Seat to the wire-level object argument.
type seatObject struct{ seat *Seat }

func (s seatObject) ID() uint32 { return s.seat.proxy.ID() }

// SurfaceConfigure acks every configure with its own serial, applies any
// pending resize, and completes the handshake exactly once. Implements
// xdg.SurfaceListener.
func (w *Window) SurfaceConfigure(serial uint32) {
	_ = w.xdgSurface.AckConfigure(serial)

	if w.pendingResize {
		w.pendingResize = false
		if err := w.backend.Resize(w.geometryWidth, w.geometryHeight); err != nil {
			logger.Warnf("backend resize: %v", err)
		}
		if w.OnResize != nil {
			w.OnResize(w.geometryWidth, w.geometryHeight)
		}
	}

	if w.waitForConfigure {
		w.waitForConfigure = false
		logger.Debug("window configured", "serial", serial)
		if w.OnConfigured != nil {
			w.OnConfigured()
		}
		if w.draw != nil {
			w.StartFrames()
		}
	}
}

// ToplevelConfigure applies the compositor's window state. A zero size
// leaves the client in charge and is ignored entirely; otherwise the
// state flags are rebuilt from the array, the geometry always follows,
// and the window size follows only in the floating state. Implements
// xdg.ToplevelListener.
func (w *Window) ToplevelConfigure(width, height int32, states []uint32) {
	if width == 0 || height == 0 {
		return
	}

	w.maximized = false
	w.fullscreen = false
	w.resizing = false
	w.activated = false
	for _, s := range states {
		switch s {
		case xdg.StateMaximized:
			w.maximized = true
		case xdg.StateFullscreen:
			w.fullscreen = true
		case xdg.StateResizing:
			w.resizing = true
		case xdg.StateActivated:
			w.activated = true
		}
	}

	if width != w.geometryWidth || height != w.geometryHeight {
		w.pendingResize = true
	}
	w.geometryWidth = width
	w.geometryHeight = height
	if !w.fullscreen && !w.maximized {
		w.width = width
		w.height = height
	}
}

// ToplevelClose marks the window as closing. Advisory only; resources
// stay valid until Destroy. Implements xdg.ToplevelListener.
func (w *Window) ToplevelClose() {
	w.running = false
	if w.OnClose != nil {
		w.OnClose()
	}
}

// StartFrames begins (or restarts) the redraw loop by synthesizing a
// frame completion with a zero timestamp. At most one frame callback is
// outstanding at any time.
func (w *Window) StartFrames() {
	w.StopFrames()
	w.framesRunning = true
	w.frameDone(0)
}

// StopFrames cancels the redraw loop and the outstanding callback.
func (w *Window) StopFrames() {
	w.framesRunning = false
	if w.frameCB != nil {
		w.frameCB.Destroy()
		w.frameCB = nil
	}
}

// frameDone runs one frame: draw, present, arm the next callback, commit.
func (w *Window) frameDone(time uint32) {
	w.frameCB = nil
	if !w.framesRunning {
		return
	}

	if w.draw != nil {
		w.backend.MakeCurrent()
		w.draw(time)
		if !w.backend.SwapBuffers() {
			logger.Warn("frame dropped: present failed")
		}
	}

	cb, err := w.surface.Frame()
	if err != nil {
		logger.Warnf("frame request: %v", err)
		w.framesRunning = false
		return
	}
	cb.Done = w.frameDone
	w.frameCB = cb
	_ = w.surface.Commit()
}

// Destroy stops frame pacing and tears the window down, role object
// first.
func (w *Window) Destroy() {
	w.StopFrames()
	if w.backend != nil {
		w.backend.Destroy()
		w.backend = nil
	}
	if w.toplevel != nil {
		_ = w.toplevel.Destroy()
		w.toplevel = nil
	}
	if w.xdgSurface != nil {
		_ = w.xdgSurface.Destroy()
		w.xdgSurface = nil
	}
	if w.surface != nil {
		_ = w.surface.Destroy()
		w.surface = nil
	}
}

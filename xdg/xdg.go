// Package xdg provides client proxies for the xdg-shell protocol: the
// wm_base liveness object, the surface configure handshake, and the
// toplevel window role.
package xdg

import (
	"github.com/bnema/wlshell/wl"
)

// Protocol interface names.
const (
	WmBaseInterface = "xdg_wm_base"
)

const (
	opWmBaseDestroy       uint16 = 0
	opWmBaseGetXdgSurface uint16 = 2
	opWmBasePong          uint16 = 3

	evWmBasePing uint16 = 0

	opSurfaceDestroy      uint16 = 0
	opSurfaceGetToplevel  uint16 = 1
	opSurfaceSetGeometry  uint16 = 3
	opSurfaceAckConfigure uint16 = 4

	evSurfaceConfigure uint16 = 0

	opToplevelDestroy         uint16 = 0
	opToplevelSetTitle        uint16 = 2
	opToplevelSetAppID        uint16 = 3
	opToplevelMove            uint16 = 5
	opToplevelResize          uint16 = 6
	opToplevelSetMaximized    uint16 = 9
	opToplevelUnsetMaximized  uint16 = 10
	opToplevelSetFullscreen   uint16 = 11
	opToplevelUnsetFullscreen uint16 = 12

	evToplevelConfigure uint16 = 0
	evToplevelClose     uint16 = 1
)

// Toplevel state values carried in the configure event's state array.
const (
	StateMaximized  uint32 = 1
	StateFullscreen uint32 = 2
	StateResizing   uint32 = 3
	StateActivated  uint32 = 4
)

// Resize edge values for Toplevel.Resize.
const (
	ResizeEdgeNone        uint32 = 0
	ResizeEdgeTop         uint32 = 1
	ResizeEdgeBottom      uint32 = 2
	ResizeEdgeLeft        uint32 = 4
	ResizeEdgeTopLeft     uint32 = 5
	ResizeEdgeBottomLeft  uint32 = 6
	ResizeEdgeRight       uint32 = 8
	ResizeEdgeTopRight    uint32 = 9
	ResizeEdgeBottomRight uint32 = 10
)

// WmBaseListener observes ping events. Pings are answered automatically;
// the listener is informational.
type WmBaseListener interface {
	WmBasePing(serial uint32)
}

// WmBase represents the xdg_wm_base global.
type WmBase struct {
	wl.BaseProxy
	listener WmBaseListener
}

// BindWmBase binds the xdg_wm_base global through the registry.
func BindWmBase(registry *wl.Registry, name, version uint32) (*WmBase, error) {
	b := &WmBase{}
	if err := registry.Bind(name, WmBaseInterface, version, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SetListener installs an observer for ping events.
func (b *WmBase) SetListener(l WmBaseListener) { b.listener = l }

// Pong answers a ping with the same serial.
func (b *WmBase) Pong(serial uint32) error {
	return b.Context().SendRequest(b, opWmBasePong, serial)
}

// GetXdgSurface creates the xdg_surface role object for a wl_surface.
func (b *WmBase) GetXdgSurface(surface *wl.Surface) (*Surface, error) {
	ctx := b.Context()
	s := &Surface{}
	s.SetContext(ctx)
	s.SetID(ctx.AllocateID())
	ctx.Register(s)

	if err := ctx.SendRequest(b, opWmBaseGetXdgSurface, s.ID(), surface); err != nil {
		ctx.Unregister(s)
		return nil, err
	}
	return s, nil
}

// Destroy destroys the wm_base binding.
func (b *WmBase) Destroy() error {
	err := b.Context().SendRequest(b, opWmBaseDestroy)
	if err == nil {
		b.Context().Unregister(b)
	}
	return err
}

// Dispatch handles wm_base events. A ping is answered with a pong carrying
// the same serial before anything else happens; the compositor kills
// clients that miss its ping deadline.
func (b *WmBase) Dispatch(ev *wl.Event) {
	if ev.Opcode == evWmBasePing {
		serial := ev.Uint32()
		_ = b.Pong(serial)
		if b.listener != nil {
			b.listener.WmBasePing(serial)
		}
	}
}

// SurfaceListener observes xdg_surface configure events.
type SurfaceListener interface {
	SurfaceConfigure(serial uint32)
}

// Surface represents an xdg_surface role object.
type Surface struct {
	wl.BaseProxy
	listener SurfaceListener
}

// SetListener installs the configure event sink.
func (s *Surface) SetListener(l SurfaceListener) { s.listener = l }

// GetToplevel assigns the toplevel role to the surface.
func (s *Surface) GetToplevel() (*Toplevel, error) {
	ctx := s.Context()
	t := &Toplevel{}
	t.SetContext(ctx)
	t.SetID(ctx.AllocateID())
	ctx.Register(t)

	if err := ctx.SendRequest(s, opSurfaceGetToplevel, t.ID()); err != nil {
		ctx.Unregister(t)
		return nil, err
	}
	return t, nil
}

// AckConfigure acknowledges a configure event by serial.
func (s *Surface) AckConfigure(serial uint32) error {
	return s.Context().SendRequest(s, opSurfaceAckConfigure, serial)
}

// SetWindowGeometry declares the visible bounds of the surface.
func (s *Surface) SetWindowGeometry(x, y, width, height int32) error {
	return s.Context().SendRequest(s, opSurfaceSetGeometry, x, y, width, height)
}

// Destroy destroys the xdg_surface.
func (s *Surface) Destroy() error {
	err := s.Context().SendRequest(s, opSurfaceDestroy)
	if err == nil {
		s.Context().Unregister(s)
	}
	return err
}

// Dispatch handles xdg_surface events.
func (s *Surface) Dispatch(ev *wl.Event) {
	if ev.Opcode == evSurfaceConfigure && s.listener != nil {
		s.listener.SurfaceConfigure(ev.Uint32())
	}
}

// ToplevelListener observes xdg_toplevel events.
type ToplevelListener interface {
	ToplevelConfigure(width, height int32, states []uint32)
	ToplevelClose()
}

// Toplevel represents an xdg_toplevel window role.
type Toplevel struct {
	wl.BaseProxy
	listener ToplevelListener
}

// SetListener installs the event sink for this toplevel.
func (t *Toplevel) SetListener(l ToplevelListener) { t.listener = l }

// SetTitle sets the window title.
func (t *Toplevel) SetTitle(title string) error {
	return t.Context().SendRequest(t, opToplevelSetTitle, title)
}

// SetAppID sets the application identifier used for window grouping.
func (t *Toplevel) SetAppID(appID string) error {
	return t.Context().SendRequest(t, opToplevelSetAppID, appID)
}

// Move starts an interactive move driven by the given seat; serial must
// come from the triggering input event.
func (t *Toplevel) Move(seat wl.Object, serial uint32) error {
	return t.Context().SendRequest(t, opToplevelMove, seat, serial)
}

// Resize starts an interactive resize on the given edge.
func (t *Toplevel) Resize(seat wl.Object, serial uint32, edge uint32) error {
	return t.Context().SendRequest(t, opToplevelResize, seat, serial, edge)
}

// SetMaximized asks the compositor to maximize the window.
func (t *Toplevel) SetMaximized() error {
	return t.Context().SendRequest(t, opToplevelSetMaximized)
}

// UnsetMaximized asks the compositor to restore the floating size.
func (t *Toplevel) UnsetMaximized() error {
	return t.Context().SendRequest(t, opToplevelUnsetMaximized)
}

// SetFullscreen asks the compositor to make the window fullscreen; a nil
// output lets the compositor choose.
func (t *Toplevel) SetFullscreen(output wl.Object) error {
	return t.Context().SendRequest(t, opToplevelSetFullscreen, output)
}

// UnsetFullscreen leaves fullscreen.
func (t *Toplevel) UnsetFullscreen() error {
	return t.Context().SendRequest(t, opToplevelUnsetFullscreen)
}

// Destroy destroys the toplevel role.
func (t *Toplevel) Destroy() error {
	err := t.Context().SendRequest(t, opToplevelDestroy)
	if err == nil {
		t.Context().Unregister(t)
	}
	return err
}

// Dispatch handles toplevel events.
func (t *Toplevel) Dispatch(ev *wl.Event) {
	if t.listener == nil {
		return
	}
	switch ev.Opcode {
	case evToplevelConfigure:
		width := ev.Int32()
		height := ev.Int32()
		raw := ev.Array()
		states := make([]uint32, 0, len(raw)/4)
		for i := 0; i+4 <= len(raw); i += 4 {
			states = append(states, uint32(raw[i])|uint32(raw[i+1])<<8|uint32(raw[i+2])<<16|uint32(raw[i+3])<<24)
		}
		t.listener.ToplevelConfigure(width, height, states)
	case evToplevelClose:
		t.listener.ToplevelClose()
	}
}

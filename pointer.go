package wlshell

import (
	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// SerialSource provides the serial of the most recent pointer enter,
// which the protocol requires for set_cursor and interactive move/resize.
type SerialSource interface {
	EnterSerial() uint32
}

// Pointer wraps a wl_pointer device: it tracks the enter serial and
// current position, keeps the cursor image applied across surface
// crossings, and forwards raw events to an optional handler.
type Pointer struct {
	proxy  *wl.Pointer
	cursor *Cursor

	enterSerial uint32
	surfaceID   uint32
	x, y        wl.Fixed

	handler wl.PointerListener
}

// NewPointer wraps a wl_pointer proxy. When cursor rendering is enabled
// the built-in theme is loaded eagerly; a theme failure disables cursor
// rendering but leaves input delivery intact.
func NewPointer(proxy *wl.Pointer, shm *wl.Shm, compositor *wl.Compositor, enableCursor bool, theme string) *Pointer {
	p := &Pointer{proxy: proxy}
	if enableCursor && shm != nil && compositor != nil {
		c, err := NewCursor(p, proxy, shm, compositor, theme)
		if err != nil {
			logger.Warnf("cursor theme unavailable, pointer will use server cursor: %v", err)
		} else {
			p.cursor = c
		}
	}
	proxy.SetListener(p)
	return p
}

// SetHandler installs a raw event handler. Events are forwarded after the
// pointer's own bookkeeping.
func (p *Pointer) SetHandler(h wl.PointerListener) { p.handler = h }

// EnterSerial returns the serial of the latest enter event.
func (p *Pointer) EnterSerial() uint32 { return p.enterSerial }

// Position returns the latest surface-local pointer position.
func (p *Pointer) Position() (x, y wl.Fixed) { return p.x, p.y }

// SurfaceID returns the proxy ID of the surface currently under the
// pointer, zero when outside all of the client's surfaces.
func (p *Pointer) SurfaceID() uint32 { return p.surfaceID }

// Cursor returns the cursor controller, nil when cursor rendering is
// disabled.
func (p *Pointer) Cursor() *Cursor { return p.cursor }

// PointerEnter records the serial and reapplies the cursor image; the
// compositor resets the cursor on every enter. Implements
// wl.PointerListener.
func (p *Pointer) PointerEnter(serial uint32, surfaceID uint32, sx, sy wl.Fixed) {
	p.enterSerial = serial
	p.surfaceID = surfaceID
	p.x, p.y = sx, sy
	if p.cursor != nil {
		p.cursor.apply(serial)
	}
	if p.handler != nil {
		p.handler.PointerEnter(serial, surfaceID, sx, sy)
	}
}

// PointerLeave implements wl.PointerListener.
func (p *Pointer) PointerLeave(serial uint32, surfaceID uint32) {
	p.surfaceID = 0
	if p.handler != nil {
		p.handler.PointerLeave(serial, surfaceID)
	}
}

// PointerMotion implements wl.PointerListener.
func (p *Pointer) PointerMotion(time uint32, sx, sy wl.Fixed) {
	p.x, p.y = sx, sy
	if p.handler != nil {
		p.handler.PointerMotion(time, sx, sy)
	}
}

// PointerButton implements wl.PointerListener.
func (p *Pointer) PointerButton(serial, time, button, state uint32) {
	if p.handler != nil {
		p.handler.PointerButton(serial, time, button, state)
	}
}

// PointerAxis implements wl.PointerListener.
func (p *Pointer) PointerAxis(time uint32, axis uint32, value wl.Fixed) {
	if p.handler != nil {
		p.handler.PointerAxis(time, axis, value)
	}
}

// PointerFrame implements wl.PointerListener.
func (p *Pointer) PointerFrame() {
	if p.handler != nil {
		p.handler.PointerFrame()
	}
}

// release destroys the cursor resources and the device handle.
func (p *Pointer) release() {
	if p.cursor != nil {
		p.cursor.destroy()
		p.cursor = nil
	}
	if err := p.proxy.Release(); err != nil {
		logger.Debugf("pointer release: %v", err)
	}
}

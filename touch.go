package wlshell

import (
	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// TouchPoint is the last known state of one active touch point.
type TouchPoint struct {
	ID   int32
	X, Y wl.Fixed
}

// Touch wraps a wl_touch device: it tracks active touch points between
// frames and forwards raw events to an optional handler.
type Touch struct {
	proxy   *wl.Touch
	points  map[int32]*TouchPoint
	handler wl.TouchListener
}

// NewTouch wraps a wl_touch proxy.
func NewTouch(proxy *wl.Touch) *Touch {
	t := &Touch{
		proxy:  proxy,
		points: make(map[int32]*TouchPoint),
	}
	proxy.SetListener(t)
	return t
}

// SetHandler installs a raw event handler.
func (t *Touch) SetHandler(h wl.TouchListener) { t.handler = h }

// Points returns the active touch points keyed by touch ID.
func (t *Touch) Points() map[int32]*TouchPoint { return t.points }

// TouchDown implements wl.TouchListener.
func (t *Touch) TouchDown(serial, time uint32, surfaceID uint32, id int32, x, y wl.Fixed) {
	t.points[id] = &TouchPoint{ID: id, X: x, Y: y}
	if t.handler != nil {
		t.handler.TouchDown(serial, time, surfaceID, id, x, y)
	}
}

// TouchUp implements wl.TouchListener.
func (t *Touch) TouchUp(serial, time uint32, id int32) {
	delete(t.points, id)
	if t.handler != nil {
		t.handler.TouchUp(serial, time, id)
	}
}

// TouchMotion implements wl.TouchListener.
func (t *Touch) TouchMotion(time uint32, id int32, x, y wl.Fixed) {
	if p, ok := t.points[id]; ok {
		p.X, p.Y = x, y
	}
	if t.handler != nil {
		t.handler.TouchMotion(time, id, x, y)
	}
}

// TouchFrame implements wl.TouchListener.
func (t *Touch) TouchFrame() {
	if t.handler != nil {
		t.handler.TouchFrame()
	}
}

// TouchCancel drops all active points; the compositor took over the
// gesture. Implements wl.TouchListener.
func (t *Touch) TouchCancel() {
	t.points = make(map[int32]*TouchPoint)
	if t.handler != nil {
		t.handler.TouchCancel()
	}
}

// release destroys the device handle.
func (t *Touch) release() {
	if err := t.proxy.Release(); err != nil {
		logger.Debugf("touch release: %v", err)
	}
}

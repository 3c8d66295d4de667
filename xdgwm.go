package wlshell

import (
	"fmt"
	"sync/atomic"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/xdg"
)

const wmBaseRequestVersion uint32 = 3

// XdgWm owns the xdg_wm_base binding. Pings are answered inside the
// proxy before any other work; XdgWm only counts them.
type XdgWm struct {
	display *Display
	wmBase  *xdg.WmBase
	version uint32
	pings   atomic.Uint32
}

// NewXdgWm binds the xdg_wm_base global. The server not advertising
// xdg_wm_base means no window management at all, which is an error, not
// a degraded mode.
func NewXdgWm(display *Display) (*XdgWm, error) {
	g, ok := display.Registry().FindGlobal(xdg.WmBaseInterface)
	if !ok {
		return nil, fmt.Errorf("server does not advertise %s", xdg.WmBaseInterface)
	}
	v := negotiate(wmBaseRequestVersion, g.Version)
	wmBase, err := xdg.BindWmBase(display.Registry(), g.Name, v)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", xdg.WmBaseInterface, err)
	}

	x := &XdgWm{display: display, wmBase: wmBase, version: v}
	wmBase.SetListener(x)
	logger.Debug("xdg_wm_base bound", "version", v)
	return x, nil
}

// WmBase returns the underlying binding.
func (x *XdgWm) WmBase() *xdg.WmBase { return x.wmBase }

// Version returns the negotiated xdg_wm_base version.
func (x *XdgWm) Version() uint32 { return x.version }

// Pings returns how many liveness pings have been answered.
func (x *XdgWm) Pings() uint32 { return x.pings.Load() }

// WmBasePing implements xdg.WmBaseListener; the pong already went out.
func (x *XdgWm) WmBasePing(serial uint32) {
	x.pings.Add(1)
	logger.Debug("answered wm_base ping", "serial", serial)
}

// CreateWindow creates a toplevel window under this wm_base.
func (x *XdgWm) CreateWindow(title, appID string, width, height int32, kind WindowKind, draw DrawFunc) (*Window, error) {
	return NewWindow(x.display, x.wmBase, title, appID, width, height, kind, draw)
}

// Destroy destroys the wm_base binding. All windows must be destroyed
// first; the protocol forbids destroying a wm_base with live surfaces.
func (x *XdgWm) Destroy() {
	if err := x.wmBase.Destroy(); err != nil {
		logger.Debugf("wm_base destroy: %v", err)
	}
}

package wlshell

import (
	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// wl_output mode flags.
const (
	OutputModeCurrent   uint32 = 1
	OutputModePreferred uint32 = 2
)

// Mode is one advertised output mode.
type Mode struct {
	Flags   uint32
	Width   int32
	Height  int32
	Refresh int32 // mHz
}

// Output accumulates the state of one wl_output across its event burst.
// Fields settle when the done event arrives; Ready reports whether at
// least one burst has completed.
type Output struct {
	proxy   *wl.Output
	version uint32

	x, y           int32
	physicalWidth  int32
	physicalHeight int32
	subpixel       int32
	make, model    string
	transform      int32
	modes          []Mode
	current        Mode
	scale          int32
	name           string
	description    string
	ready          bool
}

// NewOutput wraps a bound wl_output proxy and starts accumulating its
// state.
func NewOutput(proxy *wl.Output, version uint32) *Output {
	o := &Output{proxy: proxy, version: version, scale: 1}
	proxy.SetListener(o)
	return o
}

// Ready reports whether the first done event has arrived.
func (o *Output) Ready() bool { return o.ready }

// Position returns the output position in the global compositor space.
func (o *Output) Position() (x, y int32) { return o.x, o.y }

// PhysicalSize returns the physical dimensions in millimeters.
func (o *Output) PhysicalSize() (w, h int32) { return o.physicalWidth, o.physicalHeight }

// Make returns the monitor manufacturer string.
func (o *Output) Make() string { return o.make }

// Model returns the monitor model string.
func (o *Output) Model() string { return o.model }

// Modes returns all advertised modes.
func (o *Output) Modes() []Mode { return o.modes }

// CurrentMode returns the active mode.
func (o *Output) CurrentMode() Mode { return o.current }

// Scale returns the output scale factor, 1 until announced.
func (o *Output) Scale() int32 { return o.scale }

// Name returns the output name (version 4+), empty otherwise.
func (o *Output) Name() string { return o.name }

// Description returns the output description (version 4+).
func (o *Output) Description() string { return o.description }

// OutputGeometry implements wl.OutputListener.
func (o *Output) OutputGeometry(x, y, physicalWidth, physicalHeight, subpixel int32, mk, model string, transform int32) {
	o.x, o.y = x, y
	o.physicalWidth, o.physicalHeight = physicalWidth, physicalHeight
	o.subpixel = subpixel
	o.make, o.model = mk, model
	o.transform = transform
}

// OutputMode implements wl.OutputListener.
func (o *Output) OutputMode(flags uint32, width, height, refresh int32) {
	m := Mode{Flags: flags, Width: width, Height: height, Refresh: refresh}
	o.modes = append(o.modes, m)
	if flags&OutputModeCurrent != 0 {
		o.current = m
	}
}

// OutputDone implements wl.OutputListener.
func (o *Output) OutputDone() {
	o.ready = true
	logger.Debug("output ready",
		"name", o.name, "model", o.model,
		"width", o.current.Width, "height", o.current.Height, "scale", o.scale)
}

// OutputScale implements wl.OutputListener.
func (o *Output) OutputScale(factor int32) { o.scale = factor }

// OutputName implements wl.OutputListener.
func (o *Output) OutputName(name string) { o.name = name }

// OutputDescription implements wl.OutputListener.
func (o *Output) OutputDescription(description string) { o.description = description }

// release drops the binding. Release is a version 3+ request; older
// servers just see the proxy go quiet.
func (o *Output) release() {
	if o.version >= 3 {
		if err := o.proxy.Release(); err != nil {
			logger.Debugf("output release: %v", err)
		}
	}
}

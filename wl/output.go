package wl

const (
	opOutputRelease uint16 = 0

	evOutputGeometry    uint16 = 0
	evOutputMode        uint16 = 1
	evOutputDone        uint16 = 2
	evOutputScale       uint16 = 3
	evOutputName        uint16 = 4
	evOutputDescription uint16 = 5
)

// OutputListener receives wl_output events.
type OutputListener interface {
	OutputGeometry(x, y, physicalWidth, physicalHeight, subpixel int32, make, model string, transform int32)
	OutputMode(flags uint32, width, height, refresh int32)
	OutputDone()
	OutputScale(factor int32)
	OutputName(name string)
	OutputDescription(description string)
}

// Output represents a wl_output global binding.
type Output struct {
	BaseProxy
	listener OutputListener
}

// SetListener installs the event sink for this output.
func (o *Output) SetListener(l OutputListener) { o.listener = l }

// Release releases the output binding (version 3+).
func (o *Output) Release() error {
	err := o.context.SendRequest(o, opOutputRelease)
	if err == nil {
		o.context.Unregister(o)
	}
	return err
}

// Dispatch handles output events.
func (o *Output) Dispatch(ev *Event) {
	if o.listener == nil {
		return
	}
	switch ev.Opcode {
	case evOutputGeometry:
		x := ev.Int32()
		y := ev.Int32()
		pw := ev.Int32()
		ph := ev.Int32()
		subpixel := ev.Int32()
		mk := ev.String()
		model := ev.String()
		transform := ev.Int32()
		o.listener.OutputGeometry(x, y, pw, ph, subpixel, mk, model, transform)
	case evOutputMode:
		flags := ev.Uint32()
		w := ev.Int32()
		h := ev.Int32()
		refresh := ev.Int32()
		o.listener.OutputMode(flags, w, h, refresh)
	case evOutputDone:
		o.listener.OutputDone()
	case evOutputScale:
		o.listener.OutputScale(ev.Int32())
	case evOutputName:
		o.listener.OutputName(ev.String())
	case evOutputDescription:
		o.listener.OutputDescription(ev.String())
	}
}

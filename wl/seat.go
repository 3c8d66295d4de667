package wl

// Seat capability bits.
const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
	SeatCapabilityTouch    uint32 = 4
)

const (
	opSeatGetPointer  uint16 = 0
	opSeatGetKeyboard uint16 = 1
	opSeatGetTouch    uint16 = 2
	opSeatRelease     uint16 = 3

	evSeatCapabilities uint16 = 0
	evSeatName         uint16 = 1

	opPointerSetCursor uint16 = 0
	opPointerRelease   uint16 = 1

	evPointerEnter        uint16 = 0
	evPointerLeave        uint16 = 1
	evPointerMotion       uint16 = 2
	evPointerButton       uint16 = 3
	evPointerAxis         uint16 = 4
	evPointerFrame        uint16 = 5
	evPointerAxisSource   uint16 = 6
	evPointerAxisStop     uint16 = 7
	evPointerAxisDiscrete uint16 = 8

	opKeyboardRelease uint16 = 0

	evKeyboardKeymap     uint16 = 0
	evKeyboardEnter      uint16 = 1
	evKeyboardLeave      uint16 = 2
	evKeyboardKey        uint16 = 3
	evKeyboardModifiers  uint16 = 4
	evKeyboardRepeatInfo uint16 = 5

	opTouchRelease uint16 = 0

	evTouchDown   uint16 = 0
	evTouchUp     uint16 = 1
	evTouchMotion uint16 = 2
	evTouchFrame  uint16 = 3
	evTouchCancel uint16 = 4
)

// SeatListener receives wl_seat events.
type SeatListener interface {
	SeatCapabilities(caps uint32)
	SeatName(name string)
}

// Seat represents a wl_seat global binding.
type Seat struct {
	BaseProxy
	listener SeatListener
}

// SetListener installs the event sink for this seat.
func (s *Seat) SetListener(l SeatListener) { s.listener = l }

// GetPointer requests the seat's pointer device handle.
func (s *Seat) GetPointer() (*Pointer, error) {
	p := newProxy(s.context, &Pointer{})
	if err := s.context.SendRequest(s, opSeatGetPointer, p.ID()); err != nil {
		s.context.Unregister(p)
		return nil, err
	}
	return p, nil
}

// GetKeyboard requests the seat's keyboard device handle.
func (s *Seat) GetKeyboard() (*Keyboard, error) {
	k := newProxy(s.context, &Keyboard{})
	if err := s.context.SendRequest(s, opSeatGetKeyboard, k.ID()); err != nil {
		s.context.Unregister(k)
		return nil, err
	}
	return k, nil
}

// GetTouch requests the seat's touch device handle.
func (s *Seat) GetTouch() (*Touch, error) {
	t := newProxy(s.context, &Touch{})
	if err := s.context.SendRequest(s, opSeatGetTouch, t.ID()); err != nil {
		s.context.Unregister(t)
		return nil, err
	}
	return t, nil
}

// Release releases the seat binding.
func (s *Seat) Release() error {
	err := s.context.SendRequest(s, opSeatRelease)
	if err == nil {
		s.context.Unregister(s)
	}
	return err
}

// Dispatch handles seat events.
func (s *Seat) Dispatch(ev *Event) {
	if s.listener == nil {
		return
	}
	switch ev.Opcode {
	case evSeatCapabilities:
		s.listener.SeatCapabilities(ev.Uint32())
	case evSeatName:
		s.listener.SeatName(ev.String())
	}
}

// PointerListener receives wl_pointer events.
type PointerListener interface {
	PointerEnter(serial uint32, surfaceID uint32, sx, sy Fixed)
	PointerLeave(serial uint32, surfaceID uint32)
	PointerMotion(time uint32, sx, sy Fixed)
	PointerButton(serial, time, button, state uint32)
	PointerAxis(time uint32, axis uint32, value Fixed)
	PointerFrame()
}

// Pointer represents a wl_pointer device.
type Pointer struct {
	BaseProxy
	listener PointerListener
}

// SetListener installs the event sink for this pointer.
func (p *Pointer) SetListener(l PointerListener) { p.listener = l }

// SetCursor sets the cursor surface shown while the pointer is over one of
// the client's surfaces. serial must be the serial of the latest enter.
func (p *Pointer) SetCursor(serial uint32, surface *Surface, hotspotX, hotspotY int32) error {
	return p.context.SendRequest(p, opPointerSetCursor, serial, surface, hotspotX, hotspotY)
}

// Release destroys the pointer device handle server-side.
func (p *Pointer) Release() error {
	err := p.context.SendRequest(p, opPointerRelease)
	if err == nil {
		p.context.Unregister(p)
	}
	return err
}

// Dispatch handles pointer events.
func (p *Pointer) Dispatch(ev *Event) {
	if p.listener == nil {
		return
	}
	switch ev.Opcode {
	case evPointerEnter:
		serial := ev.Uint32()
		surface := ev.Uint32()
		sx := ev.Fixed()
		sy := ev.Fixed()
		p.listener.PointerEnter(serial, surface, sx, sy)
	case evPointerLeave:
		serial := ev.Uint32()
		surface := ev.Uint32()
		p.listener.PointerLeave(serial, surface)
	case evPointerMotion:
		t := ev.Uint32()
		sx := ev.Fixed()
		sy := ev.Fixed()
		p.listener.PointerMotion(t, sx, sy)
	case evPointerButton:
		serial := ev.Uint32()
		t := ev.Uint32()
		button := ev.Uint32()
		state := ev.Uint32()
		p.listener.PointerButton(serial, t, button, state)
	case evPointerAxis:
		t := ev.Uint32()
		axis := ev.Uint32()
		value := ev.Fixed()
		p.listener.PointerAxis(t, axis, value)
	case evPointerFrame:
		p.listener.PointerFrame()
	case evPointerAxisSource, evPointerAxisStop, evPointerAxisDiscrete:
		// decoded on demand by callers that care; nothing to do here
	}
}

// KeyboardListener receives wl_keyboard events.
type KeyboardListener interface {
	KeyboardKeymap(format uint32, fd int, size uint32)
	KeyboardEnter(serial uint32, surfaceID uint32, keys []byte)
	KeyboardLeave(serial uint32, surfaceID uint32)
	KeyboardKey(serial, time, key, state uint32)
	KeyboardModifiers(serial, depressed, latched, locked, group uint32)
	KeyboardRepeatInfo(rate, delay int32)
}

// Keyboard represents a wl_keyboard device.
type Keyboard struct {
	BaseProxy
	listener KeyboardListener
}

// SetListener installs the event sink for this keyboard.
func (k *Keyboard) SetListener(l KeyboardListener) { k.listener = l }

// Release destroys the keyboard device handle server-side.
func (k *Keyboard) Release() error {
	err := k.context.SendRequest(k, opKeyboardRelease)
	if err == nil {
		k.context.Unregister(k)
	}
	return err
}

// Dispatch handles keyboard events.
func (k *Keyboard) Dispatch(ev *Event) {
	if k.listener == nil {
		return
	}
	switch ev.Opcode {
	case evKeyboardKeymap:
		format := ev.Uint32()
		fd := ev.FD()
		size := ev.Uint32()
		k.listener.KeyboardKeymap(format, fd, size)
	case evKeyboardEnter:
		serial := ev.Uint32()
		surface := ev.Uint32()
		keys := ev.Array()
		k.listener.KeyboardEnter(serial, surface, keys)
	case evKeyboardLeave:
		serial := ev.Uint32()
		surface := ev.Uint32()
		k.listener.KeyboardLeave(serial, surface)
	case evKeyboardKey:
		serial := ev.Uint32()
		t := ev.Uint32()
		key := ev.Uint32()
		state := ev.Uint32()
		k.listener.KeyboardKey(serial, t, key, state)
	case evKeyboardModifiers:
		serial := ev.Uint32()
		depressed := ev.Uint32()
		latched := ev.Uint32()
		locked := ev.Uint32()
		group := ev.Uint32()
		k.listener.KeyboardModifiers(serial, depressed, latched, locked, group)
	case evKeyboardRepeatInfo:
		rate := ev.Int32()
		delay := ev.Int32()
		k.listener.KeyboardRepeatInfo(rate, delay)
	}
}

// TouchListener receives wl_touch events.
type TouchListener interface {
	TouchDown(serial, time uint32, surfaceID uint32, id int32, x, y Fixed)
	TouchUp(serial, time uint32, id int32)
	TouchMotion(time uint32, id int32, x, y Fixed)
	TouchFrame()
	TouchCancel()
}

// Touch represents a wl_touch device.
type Touch struct {
	BaseProxy
	listener TouchListener
}

// SetListener installs the event sink for this touch device.
func (t *Touch) SetListener(l TouchListener) { t.listener = l }

// Release destroys the touch device handle server-side.
func (t *Touch) Release() error {
	err := t.context.SendRequest(t, opTouchRelease)
	if err == nil {
		t.context.Unregister(t)
	}
	return err
}

// Dispatch handles touch events.
func (t *Touch) Dispatch(ev *Event) {
	if t.listener == nil {
		return
	}
	switch ev.Opcode {
	case evTouchDown:
		serial := ev.Uint32()
		tm := ev.Uint32()
		surface := ev.Uint32()
		id := ev.Int32()
		x := ev.Fixed()
		y := ev.Fixed()
		t.listener.TouchDown(serial, tm, surface, id, x, y)
	case evTouchUp:
		serial := ev.Uint32()
		tm := ev.Uint32()
		id := ev.Int32()
		t.listener.TouchUp(serial, tm, id)
	case evTouchMotion:
		tm := ev.Uint32()
		id := ev.Int32()
		x := ev.Fixed()
		y := ev.Fixed()
		t.listener.TouchMotion(tm, id, x, y)
	case evTouchFrame:
		t.listener.TouchFrame()
	case evTouchCancel:
		t.listener.TouchCancel()
	}
}

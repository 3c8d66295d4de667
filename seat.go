package wlshell

import (
	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// Seat tracks one wl_seat's capability set and materializes device
// handles to match it: a capability bit is set exactly when the matching
// device object is live.
type Seat struct {
	proxy   *wl.Seat
	display *Display
	version uint32

	capabilities uint32
	name         string

	pointer  *Pointer
	keyboard *Keyboard
	touch    *Touch
}

// NewSeat wraps a bound wl_seat proxy and starts listening for
// capability announcements. The shm and compositor globals are looked
// up through the display when a device is built, not now; registry
// announce order between the seat and those globals does not matter.
func NewSeat(proxy *wl.Seat, display *Display, version uint32) *Seat {
	s := &Seat{
		proxy:   proxy,
		display: display,
		version: version,
	}
	proxy.SetListener(s)
	return s
}

// Name returns the seat name, empty until the server announces it.
func (s *Seat) Name() string { return s.name }

// Capabilities returns the last announced capability bitmask.
func (s *Seat) Capabilities() uint32 { return s.capabilities }

// Pointer returns the pointer device, nil while the seat has no pointer
// capability.
func (s *Seat) Pointer() *Pointer { return s.pointer }

// Keyboard returns the keyboard device, nil while the seat has no
// keyboard capability.
func (s *Seat) Keyboard() *Keyboard { return s.keyboard }

// Touch returns the touch device, nil while the seat has no touch
// capability.
func (s *Seat) Touch() *Touch { return s.touch }

// SeatCapabilities reconciles the device set against the announced
// bitmask. Each device kind transitions independently; re-announcing an
// unchanged mask is a no-op. Implements wl.SeatListener.
func (s *Seat) SeatCapabilities(caps uint32) {
	s.capabilities = caps

	if caps&wl.SeatCapabilityPointer != 0 && s.pointer == nil {
		p, err := s.proxy.GetPointer()
		if err != nil {
			logger.Warnf("seat %q: get pointer: %v", s.name, err)
		} else {
			s.pointer = NewPointer(p, s.display.Shm(), s.display.Compositor(), s.display.enableCursor, s.display.cursorTheme)
			logger.Debug("pointer capability added", "seat", s.name)
		}
	} else if caps&wl.SeatCapabilityPointer == 0 && s.pointer != nil {
		s.pointer.release()
		s.pointer = nil
		logger.Debug("pointer capability removed", "seat", s.name)
	}

	if caps&wl.SeatCapabilityKeyboard != 0 && s.keyboard == nil {
		k, err := s.proxy.GetKeyboard()
		if err != nil {
			logger.Warnf("seat %q: get keyboard: %v", s.name, err)
		} else {
			s.keyboard = NewKeyboard(k)
			logger.Debug("keyboard capability added", "seat", s.name)
		}
	} else if caps&wl.SeatCapabilityKeyboard == 0 && s.keyboard != nil {
		s.keyboard.release()
		s.keyboard = nil
		logger.Debug("keyboard capability removed", "seat", s.name)
	}

	if caps&wl.SeatCapabilityTouch != 0 && s.touch == nil {
		t, err := s.proxy.GetTouch()
		if err != nil {
			logger.Warnf("seat %q: get touch: %v", s.name, err)
		} else {
			s.touch = NewTouch(t)
			logger.Debug("touch capability added", "seat", s.name)
		}
	} else if caps&wl.SeatCapabilityTouch == 0 && s.touch != nil {
		s.touch.release()
		s.touch = nil
		logger.Debug("touch capability removed", "seat", s.name)
	}
}

// SeatName stores the seat name. Implements wl.SeatListener.
func (s *Seat) SeatName(name string) { s.name = name }

// release tears down all live devices and the seat binding itself. Used
// when the global is withdrawn or the display shuts down.
func (s *Seat) release() {
	if s.pointer != nil {
		s.pointer.release()
		s.pointer = nil
	}
	if s.keyboard != nil {
		s.keyboard.release()
		s.keyboard = nil
	}
	if s.touch != nil {
		s.touch.release()
		s.touch = nil
	}
	s.capabilities = 0
	if err := s.proxy.Release(); err != nil {
		logger.Debugf("seat release: %v", err)
	}
}

package wlshell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/wlshell/wl"
)

func announceSeat(t *testing.T, d *Display, srv *fakeServer) *Seat {
	t.Helper()
	srv.announce(7, "wl_seat", 5)
	dispatch(t, d)
	require.Len(t, d.Seats(), 1)
	return d.Seats()[7]
}

func TestSeatCapabilityTransitions(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	seat := announceSeat(t, d, srv)
	seatID := seat.proxy.ID()

	assert.Nil(t, seat.Pointer())
	assert.Nil(t, seat.Keyboard())
	assert.Nil(t, seat.Touch())

	srv.sendEvent(seatID, 0, wl.SeatCapabilityPointer|wl.SeatCapabilityKeyboard)
	dispatch(t, d)
	require.NotNil(t, seat.Pointer())
	require.NotNil(t, seat.Keyboard())
	assert.Nil(t, seat.Touch())

	// each kind transitions independently: dropping the pointer keeps the
	// same keyboard object
	keyboard := seat.Keyboard()
	srv.sendEvent(seatID, 0, wl.SeatCapabilityKeyboard)
	dispatch(t, d)
	assert.Nil(t, seat.Pointer())
	assert.Same(t, keyboard, seat.Keyboard())

	// re-announcing an unchanged mask changes nothing
	srv.sendEvent(seatID, 0, wl.SeatCapabilityKeyboard)
	dispatch(t, d)
	assert.Same(t, keyboard, seat.Keyboard())

	srv.sendEvent(seatID, 0, uint32(0))
	dispatch(t, d)
	assert.Nil(t, seat.Pointer())
	assert.Nil(t, seat.Keyboard())
	assert.Nil(t, seat.Touch())
}

func TestSeatAnnouncedBeforeCoreGlobals(t *testing.T) {
	d, srv := newTestDisplay(t, &Options{EnableCursor: true})

	// registry bursts carry no ordering guarantee; the seat may arrive
	// before wl_compositor and wl_shm
	srv.announce(7, "wl_seat", 5)
	dispatch(t, d)
	seat := d.Seats()[7]
	require.NotNil(t, seat)

	srv.announce(1, "wl_compositor", 4)
	srv.announce(2, "wl_shm", 1)
	dispatch(t, d)
	require.NotNil(t, d.Compositor())
	require.NotNil(t, d.Shm())

	srv.sendEvent(seat.proxy.ID(), 0, wl.SeatCapabilityPointer)
	dispatch(t, d)
	require.NotNil(t, seat.Pointer())
	assert.NotNil(t, seat.Pointer().Cursor())
}

func TestSeatTouchCapability(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	seat := announceSeat(t, d, srv)

	srv.sendEvent(seat.proxy.ID(), 0, wl.SeatCapabilityTouch)
	dispatch(t, d)
	require.NotNil(t, seat.Touch())
	assert.Nil(t, seat.Pointer())
	assert.Equal(t, wl.SeatCapabilityTouch, seat.Capabilities())
}

func TestSeatName(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	seat := announceSeat(t, d, srv)
	assert.Equal(t, "", seat.Name())

	srv.sendEvent(seat.proxy.ID(), 1, "seat0")
	dispatch(t, d)
	assert.Equal(t, "seat0", seat.Name())
}

func TestPointerTracksEnterSerialAndPosition(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	seat := announceSeat(t, d, srv)

	srv.sendEvent(seat.proxy.ID(), 0, wl.SeatCapabilityPointer)
	dispatch(t, d)
	pointer := seat.Pointer()
	require.NotNil(t, pointer)

	pointerID := pointer.proxy.ID()
	// enter at (10.0, 20.5)
	srv.sendEvent(pointerID, 0, uint32(41), uint32(9), uint32(10*256), uint32(20*256+128))
	dispatch(t, d)
	assert.Equal(t, uint32(41), pointer.EnterSerial())
	assert.Equal(t, uint32(9), pointer.SurfaceID())
	x, y := pointer.Position()
	assert.InDelta(t, 10.0, x.Float64(), 0.01)
	assert.InDelta(t, 20.5, y.Float64(), 0.01)

	// leave clears the surface, keeps the serial
	srv.sendEvent(pointerID, 1, uint32(42), uint32(9))
	dispatch(t, d)
	assert.Equal(t, uint32(0), pointer.SurfaceID())
	assert.Equal(t, uint32(41), pointer.EnterSerial())
}

func TestTouchPointTracking(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	seat := announceSeat(t, d, srv)

	srv.sendEvent(seat.proxy.ID(), 0, wl.SeatCapabilityTouch)
	dispatch(t, d)
	touch := seat.Touch()
	require.NotNil(t, touch)
	touchID := touch.proxy.ID()

	srv.sendEvent(touchID, 0, uint32(1), uint32(100), uint32(9), int32(0), uint32(5*256), uint32(6*256))
	srv.sendEvent(touchID, 0, uint32(2), uint32(101), uint32(9), int32(1), uint32(7*256), uint32(8*256))
	dispatch(t, d)
	assert.Len(t, touch.Points(), 2)

	srv.sendEvent(touchID, 2, uint32(102), int32(0), uint32(50*256), uint32(60*256))
	srv.sendEvent(touchID, 1, uint32(3), uint32(103), int32(1))
	dispatch(t, d)
	require.Len(t, touch.Points(), 1)
	assert.InDelta(t, 50.0, touch.Points()[0].X.Float64(), 0.01)

	srv.sendEvent(touchID, 4)
	dispatch(t, d)
	assert.Empty(t, touch.Points())
}

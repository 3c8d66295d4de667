package wlshell

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShellDisplay(t *testing.T) (*Display, *fakeServer, *XdgWm) {
	t.Helper()
	d, srv := newTestDisplay(t, nil)
	srv.announce(1, "wl_compositor", 4)
	srv.announce(2, "wl_shm", 1)
	srv.announce(3, "xdg_wm_base", 3)
	dispatch(t, d)

	wm, err := NewXdgWm(d)
	require.NoError(t, err)
	return d, srv, wm
}

func TestNoWmBaseIsAnError(t *testing.T) {
	d, srv := newTestDisplay(t, nil)
	srv.announce(1, "wl_compositor", 4)
	dispatch(t, d)

	_, err := NewXdgWm(d)
	assert.Error(t, err)
}

func TestWmBasePingCounted(t *testing.T) {
	d, srv, wm := newShellDisplay(t)

	srv.sendEvent(wm.WmBase().ID(), 0, uint32(7))
	dispatch(t, d)
	assert.Equal(t, uint32(1), wm.Pings())

	flush(t, d)
	body := srv.expectRequest(wm.WmBase().ID(), 3)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(body))
}

func TestConfigureHandshake(t *testing.T) {
	d, srv, wm := newShellDisplay(t)

	draws := 0
	win, err := NewWindow(d, wm.WmBase(), "test", "com.example.test", 64, 64, WindowShm, func(time uint32) {
		draws++
	})
	require.NoError(t, err)

	configured := 0
	win.OnConfigured = func() { configured++ }
	flush(t, d)

	assert.False(t, win.Configured())
	assert.Zero(t, draws)

	// first configure: zero toplevel size keeps the client's choice
	srv.sendEvent(win.toplevel.ID(), 0, int32(0), int32(0), []uint32{})
	srv.sendEvent(win.xdgSurface.ID(), 0, uint32(42))
	dispatch(t, d)
	flush(t, d)

	// the ack must echo the configure serial
	body := srv.expectRequest(win.xdgSurface.ID(), 4)
	assert.Equal(t, uint32(42), binary.LittleEndian.Uint32(body))

	assert.True(t, win.Configured())
	assert.Equal(t, 1, configured)
	assert.Equal(t, 1, draws)
	width, height := win.Size()
	assert.Equal(t, int32(64), width)
	assert.Equal(t, int32(64), height)

	// later configures ack but do not re-run the handshake
	srv.sendEvent(win.xdgSurface.ID(), 0, uint32(43))
	dispatch(t, d)
	flush(t, d)
	body = srv.expectRequest(win.xdgSurface.ID(), 4)
	assert.Equal(t, uint32(43), binary.LittleEndian.Uint32(body))
	assert.Equal(t, 1, configured)
	assert.Equal(t, 1, draws)
}

func TestFrameCallbackChain(t *testing.T) {
	d, srv, wm := newShellDisplay(t)

	draws := 0
	win, err := NewWindow(d, wm.WmBase(), "frames", "com.example.frames", 32, 32, WindowShm, func(time uint32) {
		draws++
	})
	require.NoError(t, err)
	flush(t, d)

	srv.sendEvent(win.toplevel.ID(), 0, int32(0), int32(0), []uint32{})
	srv.sendEvent(win.xdgSurface.ID(), 0, uint32(1))
	dispatch(t, d)
	flush(t, d)

	// the synthesized first frame drew and armed exactly one callback
	require.Equal(t, 1, draws)
	require.NotNil(t, win.frameCB)
	body := srv.expectRequest(win.surface.ID(), 3)
	firstCB := binary.LittleEndian.Uint32(body)
	assert.Equal(t, win.frameCB.ID(), firstCB)

	// completion draws again and chains a fresh callback
	srv.sendEvent(firstCB, 0, uint32(16))
	dispatch(t, d)
	flush(t, d)
	assert.Equal(t, 2, draws)
	require.NotNil(t, win.frameCB)
	body = srv.expectRequest(win.surface.ID(), 3)
	secondCB := binary.LittleEndian.Uint32(body)
	assert.NotEqual(t, firstCB, secondCB)
	assert.Equal(t, win.frameCB.ID(), secondCB)

	// after StopFrames a stale completion is inert
	win.StopFrames()
	assert.Nil(t, win.frameCB)
	srv.sendEvent(secondCB, 0, uint32(32))
	dispatch(t, d)
	assert.Equal(t, 2, draws)

	// StartFrames synthesizes a new first frame immediately
	win.StartFrames()
	assert.Equal(t, 3, draws)
	require.NotNil(t, win.frameCB)
}

func TestWindowRejectsBadSize(t *testing.T) {
	d, _, wm := newShellDisplay(t)
	_, err := NewWindow(d, wm.WmBase(), "bad", "app", 0, 64, WindowShm, nil)
	assert.Error(t, err)
}

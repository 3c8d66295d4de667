package wlshell

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"

	"github.com/bnema/wlshell/wl"
)

func TestKeyboardFocusTracking(t *testing.T) {
	k := NewKeyboard(&wl.Keyboard{})
	assert.False(t, k.Focused())

	k.KeyboardEnter(1, 9, nil)
	assert.True(t, k.Focused())
	k.KeyboardLeave(2, 9)
	assert.False(t, k.Focused())
}

func TestKeyboardClosesKeymapFD(t *testing.T) {
	fds := make([]int, 2)
	if err := unix.Pipe(fds); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(fds[1])

	k := NewKeyboard(&wl.Keyboard{})
	k.KeyboardKeymap(1, fds[0], 0)

	_, err := unix.FcntlInt(uintptr(fds[0]), unix.F_GETFD, 0)
	assert.Error(t, err, "keymap fd should be closed")
}

func TestKeyboardRepeat(t *testing.T) {
	k := NewKeyboard(&wl.Keyboard{})

	var repeats atomic.Int32
	k.OnRepeat = func(key uint32) {
		if key == 30 {
			repeats.Add(1)
		}
	}

	// 100 repeats/sec after 1ms
	k.KeyboardRepeatInfo(100, 1)
	rate, delay := k.RepeatInfo()
	assert.Equal(t, int32(100), rate)
	assert.Equal(t, int32(1), delay)

	k.KeyboardKey(1, 0, 30, KeyStatePressed)
	time.Sleep(120 * time.Millisecond)
	k.KeyboardKey(2, 0, 30, KeyStateReleased)

	got := repeats.Load()
	assert.GreaterOrEqual(t, got, int32(2), "held key should repeat")

	// no repeats after release
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, got, repeats.Load())
}

func TestKeyboardRepeatStopsOnFocusLoss(t *testing.T) {
	k := NewKeyboard(&wl.Keyboard{})

	var repeats atomic.Int32
	k.OnRepeat = func(uint32) { repeats.Add(1) }
	k.KeyboardRepeatInfo(100, 20)

	k.KeyboardEnter(1, 9, nil)
	k.KeyboardKey(2, 0, 30, KeyStatePressed)
	k.KeyboardLeave(3, 9)

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, repeats.Load(), "repeat must not survive focus loss")
}

func TestKeyboardRepeatDisabledByZeroRate(t *testing.T) {
	k := NewKeyboard(&wl.Keyboard{})

	var repeats atomic.Int32
	k.OnRepeat = func(uint32) { repeats.Add(1) }
	k.KeyboardRepeatInfo(0, 1)

	k.KeyboardKey(1, 0, 30, KeyStatePressed)
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, repeats.Load())
}

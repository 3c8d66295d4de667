package wlshell

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

const (
	// wl_keyboard key states
	KeyStateReleased uint32 = 0
	KeyStatePressed  uint32 = 1
)

// Keyboard wraps a wl_keyboard device. It tracks focus and the server's
// repeat parameters, synthesizes key-repeat events for held keys, and
// forwards raw events to an optional handler.
type Keyboard struct {
	proxy *wl.Keyboard

	mu          sync.Mutex
	focused     bool
	repeatRate  int32 // repeats per second, 0 disables
	repeatDelay int32 // ms before the first repeat
	repeatKey   uint32
	repeatTimer *time.Timer

	handler wl.KeyboardListener

	// OnRepeat fires for synthesized repeats of a held key.
	OnRepeat func(key uint32)
}

// NewKeyboard wraps a wl_keyboard proxy.
func NewKeyboard(proxy *wl.Keyboard) *Keyboard {
	k := &Keyboard{proxy: proxy}
	proxy.SetListener(k)
	return k
}

// SetHandler installs a raw event handler.
func (k *Keyboard) SetHandler(h wl.KeyboardListener) { k.handler = h }

// Focused reports whether one of the client's surfaces holds keyboard
// focus.
func (k *Keyboard) Focused() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.focused
}

// RepeatInfo returns the server-announced repeat rate and delay.
func (k *Keyboard) RepeatInfo() (rate, delay int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.repeatRate, k.repeatDelay
}

// KeyboardKeymap closes the keymap descriptor; keymap interpretation is
// left to the application. Implements wl.KeyboardListener.
func (k *Keyboard) KeyboardKeymap(format uint32, fd int, size uint32) {
	if k.handler != nil {
		k.handler.KeyboardKeymap(format, fd, size)
	}
	if fd >= 0 {
		_ = unix.Close(fd)
	}
}

// KeyboardEnter implements wl.KeyboardListener.
func (k *Keyboard) KeyboardEnter(serial uint32, surfaceID uint32, keys []byte) {
	k.mu.Lock()
	k.focused = true
	k.mu.Unlock()
	if k.handler != nil {
		k.handler.KeyboardEnter(serial, surfaceID, keys)
	}
}

// KeyboardLeave stops any pending repeat; held keys do not repeat across
// a focus loss. Implements wl.KeyboardListener.
func (k *Keyboard) KeyboardLeave(serial uint32, surfaceID uint32) {
	k.mu.Lock()
	k.focused = false
	k.stopRepeatLocked()
	k.mu.Unlock()
	if k.handler != nil {
		k.handler.KeyboardLeave(serial, surfaceID)
	}
}

// KeyboardKey arms or cancels the repeat timer, then forwards. Implements
// wl.KeyboardListener.
func (k *Keyboard) KeyboardKey(serial, time, key, state uint32) {
	k.mu.Lock()
	switch state {
	case KeyStatePressed:
		k.armRepeatLocked(key)
	case KeyStateReleased:
		if k.repeatKey == key {
			k.stopRepeatLocked()
		}
	}
	k.mu.Unlock()
	if k.handler != nil {
		k.handler.KeyboardKey(serial, time, key, state)
	}
}

// KeyboardModifiers implements wl.KeyboardListener.
func (k *Keyboard) KeyboardModifiers(serial, depressed, latched, locked, group uint32) {
	if k.handler != nil {
		k.handler.KeyboardModifiers(serial, depressed, latched, locked, group)
	}
}

// KeyboardRepeatInfo stores the repeat parameters. Implements
// wl.KeyboardListener.
func (k *Keyboard) KeyboardRepeatInfo(rate, delay int32) {
	k.mu.Lock()
	k.repeatRate = rate
	k.repeatDelay = delay
	k.mu.Unlock()
	logger.Debug("keyboard repeat info", "rate", rate, "delay", delay)
	if k.handler != nil {
		k.handler.KeyboardRepeatInfo(rate, delay)
	}
}

func (k *Keyboard) armRepeatLocked(key uint32) {
	k.stopRepeatLocked()
	if k.repeatRate <= 0 {
		return
	}
	k.repeatKey = key
	interval := time.Second / time.Duration(k.repeatRate)
	delay := time.Duration(k.repeatDelay) * time.Millisecond

	var fire func()
	fire = func() {
		k.mu.Lock()
		if k.repeatKey != key || k.repeatTimer == nil {
			k.mu.Unlock()
			return
		}
		cb := k.OnRepeat
		k.repeatTimer = time.AfterFunc(interval, fire)
		k.mu.Unlock()
		if cb != nil {
			cb(key)
		}
	}
	k.repeatTimer = time.AfterFunc(delay, fire)
}

func (k *Keyboard) stopRepeatLocked() {
	if k.repeatTimer != nil {
		k.repeatTimer.Stop()
		k.repeatTimer = nil
	}
	k.repeatKey = 0
}

// release cancels repeat and destroys the device handle.
func (k *Keyboard) release() {
	k.mu.Lock()
	k.stopRepeatLocked()
	k.mu.Unlock()
	if err := k.proxy.Release(); err != nil {
		logger.Debugf("keyboard release: %v", err)
	}
}

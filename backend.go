package wlshell

import (
	"fmt"

	"github.com/bnema/wlshell/internal/logger"
	"github.com/bnema/wlshell/wl"
)

// WindowKind selects the rendering backend for a window.
type WindowKind int

const (
	// WindowShm renders through shared-memory buffers; always available.
	WindowShm WindowKind = iota
	// WindowEGL expects a registered EGL backend factory.
	WindowEGL
	// WindowVulkan expects a registered Vulkan backend factory.
	WindowVulkan
)

func (k WindowKind) String() string {
	switch k {
	case WindowShm:
		return "shm"
	case WindowEGL:
		return "egl"
	case WindowVulkan:
		return "vulkan"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Backend is a window's rendering surface. SwapBuffers presents the
// frame that was just drawn; it reports false when presentation failed
// and the frame should be dropped.
type Backend interface {
	MakeCurrent() bool
	ClearCurrent() bool
	SwapBuffers() bool
	Resize(width, height int32) error
	Destroy()
}

// BackendFactory builds a backend for a window at creation time.
type BackendFactory func(w *Window, width, height int32) (Backend, error)

var backendFactories = map[WindowKind]BackendFactory{}

// RegisterBackend installs a factory for a window kind. GPU-backed kinds
// have no built-in factory; linking a backend package registers one.
func RegisterBackend(kind WindowKind, f BackendFactory) {
	backendFactories[kind] = f
}

func newBackend(kind WindowKind, w *Window, width, height int32) (Backend, error) {
	if f, ok := backendFactories[kind]; ok {
		return f(w, width, height)
	}
	if kind == WindowShm {
		format := wl.FormatARGB8888
		if w.display.HasXRGB() {
			format = wl.FormatXRGB8888
		}
		return NewShmBackend(w.display.Shm(), w.surface, width, height, format)
	}
	return nil, fmt.Errorf("no %s backend registered", kind)
}

// ShmBackend is a double-buffered software backend: two buffers carved
// from one pool, presented alternately so the client never writes a
// buffer the server still reads.
type ShmBackend struct {
	shm     *wl.Shm
	surface *wl.Surface
	pool    *wl.ShmPool
	bufs    [2]*wl.Buffer
	busy    [2]bool
	active  int
	width   int32
	height  int32
	format  uint32
}

// NewShmBackend allocates the pool and both buffers.
func NewShmBackend(shm *wl.Shm, surface *wl.Surface, width, height int32, format uint32) (*ShmBackend, error) {
	b := &ShmBackend{shm: shm, surface: surface, format: format}
	if err := b.allocate(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ShmBackend) allocate(width, height int32) error {
	stride := width * 4
	// 64-byte alignment padding per buffer, same as the pool allocator
	poolSize := (int(stride*height) + 64) * 2
	pool, err := b.shm.CreatePool(poolSize)
	if err != nil {
		return fmt.Errorf("shm backend pool: %w", err)
	}
	var bufs [2]*wl.Buffer
	for i := range bufs {
		buf, err := pool.CreateBuffer(width, height, stride, b.format)
		if err != nil {
			for _, done := range bufs {
				if done != nil {
					_ = done.Destroy()
				}
			}
			_ = pool.Destroy()
			return fmt.Errorf("shm backend buffer: %w", err)
		}
		bufs[i] = buf
	}

	b.pool = pool
	b.bufs = bufs
	b.busy = [2]bool{}
	b.active = 0
	b.width, b.height = width, height
	for i := range b.bufs {
		i := i
		b.bufs[i].OnRelease = func() { b.busy[i] = false }
	}
	return nil
}

// Pixels returns the writable pixel bytes of the back buffer, laid out as
// 32-bit little-endian pixels with a stride of Width*4.
func (b *ShmBackend) Pixels() []byte { return b.bufs[b.active].Data() }

// Width returns the buffer width in pixels.
func (b *ShmBackend) Width() int32 { return b.width }

// Height returns the buffer height in pixels.
func (b *ShmBackend) Height() int32 { return b.height }

// MakeCurrent is a no-op for software rendering.
func (b *ShmBackend) MakeCurrent() bool { return true }

// ClearCurrent is a no-op for software rendering.
func (b *ShmBackend) ClearCurrent() bool { return true }

// SwapBuffers attaches and damages the back buffer, then flips to the
// other one. The surface commit is the caller's; frame pacing owns it.
func (b *ShmBackend) SwapBuffers() bool {
	buf := b.bufs[b.active]
	if err := b.surface.Attach(buf, 0, 0); err != nil {
		logger.Warnf("shm backend attach: %v", err)
		return false
	}
	if err := b.surface.Damage(0, 0, b.width, b.height); err != nil {
		logger.Warnf("shm backend damage: %v", err)
		return false
	}
	b.busy[b.active] = true

	next := 1 - b.active
	if b.busy[next] {
		// both busy; keep drawing into the released-last buffer
		next = b.active
	}
	b.active = next
	return true
}

// Resize reallocates the pool at the new size. Contents are not
// preserved; the next frame redraws everything.
func (b *ShmBackend) Resize(width, height int32) error {
	if width == b.width && height == b.height {
		return nil
	}
	b.Destroy()
	return b.allocate(width, height)
}

// Destroy frees the buffers and the pool.
func (b *ShmBackend) Destroy() {
	for i, buf := range b.bufs {
		if buf != nil {
			_ = buf.Destroy()
			b.bufs[i] = nil
		}
	}
	if b.pool != nil {
		_ = b.pool.Destroy()
		b.pool = nil
	}
}

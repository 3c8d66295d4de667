package wlshell

import (
	"fmt"

	"github.com/bnema/wlshell/wl"
)

// CursorKind selects one of the built-in cursor images.
type CursorKind int

const (
	CursorArrow CursorKind = iota
	CursorHand
	CursorText
	CursorForbidden
	cursorKindCount
)

const cursorSize = 24

// Cursor renders client-side cursor images from a shared-memory pool and
// keeps the chosen image applied to the pointer. All images live in one
// pool allocated up front; if the pool cannot be created the pointer
// falls back to the server cursor.
type Cursor struct {
	serials  SerialSource
	pointer  *wl.Pointer
	surface  *wl.Surface
	pool     *wl.ShmPool
	buffers  [cursorKindCount]*wl.Buffer
	hotspots [cursorKindCount][2]int32
	kind     CursorKind
	hidden   bool
	theme    string
}

// NewCursor builds the cursor theme. theme is recorded for diagnostics;
// the images themselves are procedural.
func NewCursor(serials SerialSource, pointer *wl.Pointer, shm *wl.Shm, compositor *wl.Compositor, theme string) (*Cursor, error) {
	surface, err := compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("cursor surface: %w", err)
	}

	poolSize := cursorSize * cursorSize * 4 * int(cursorKindCount)
	pool, err := shm.CreatePool(poolSize)
	if err != nil {
		_ = surface.Destroy()
		return nil, fmt.Errorf("cursor pool: %w", err)
	}

	c := &Cursor{
		serials: serials,
		pointer: pointer,
		surface: surface,
		pool:    pool,
		theme:   theme,
	}
	for kind := CursorKind(0); kind < cursorKindCount; kind++ {
		buf, err := pool.CreateBuffer(cursorSize, cursorSize, cursorSize*4, wl.FormatARGB8888)
		if err != nil {
			c.destroy()
			return nil, fmt.Errorf("cursor buffer: %w", err)
		}
		c.buffers[kind] = buf
		c.hotspots[kind] = renderCursor(kind, buf.Data())
	}
	return c, nil
}

// SetKind switches the cursor image; the change takes effect immediately
// when the pointer is over one of the client's surfaces.
func (c *Cursor) SetKind(kind CursorKind) {
	if kind < 0 || kind >= cursorKindCount {
		return
	}
	c.kind = kind
	c.hidden = false
	c.apply(c.serials.EnterSerial())
}

// Hide makes the pointer invisible over the client's surfaces.
func (c *Cursor) Hide() {
	c.hidden = true
	c.apply(c.serials.EnterSerial())
}

// Kind returns the current cursor image.
func (c *Cursor) Kind() CursorKind { return c.kind }

// apply commits the current image to the pointer with the given enter
// serial. A zero serial means no enter has happened yet; the compositor
// would reject the request, so it is skipped.
func (c *Cursor) apply(serial uint32) {
	if serial == 0 {
		return
	}
	if c.hidden {
		_ = c.pointer.SetCursor(serial, nil, 0, 0)
		return
	}
	buf := c.buffers[c.kind]
	hs := c.hotspots[c.kind]
	_ = c.surface.Attach(buf, 0, 0)
	_ = c.surface.Damage(0, 0, cursorSize, cursorSize)
	_ = c.surface.Commit()
	_ = c.pointer.SetCursor(serial, c.surface, hs[0], hs[1])
}

// destroy frees the buffers, pool, and surface.
func (c *Cursor) destroy() {
	for i, buf := range c.buffers {
		if buf != nil {
			_ = buf.Destroy()
			c.buffers[i] = nil
		}
	}
	if c.pool != nil {
		_ = c.pool.Destroy()
		c.pool = nil
	}
	if c.surface != nil {
		_ = c.surface.Destroy()
		c.surface = nil
	}
}

const (
	cursorBlack = 0xff000000
	cursorWhite = 0xffffffff
)

func putPixel(data []byte, x, y int, argb uint32) {
	if x < 0 || y < 0 || x >= cursorSize || y >= cursorSize {
		return
	}
	off := (y*cursorSize + x) * 4
	data[off] = byte(argb)
	data[off+1] = byte(argb >> 8)
	data[off+2] = byte(argb >> 16)
	data[off+3] = byte(argb >> 24)
}

// renderCursor draws the image for a kind into data and returns its
// hotspot.
func renderCursor(kind CursorKind, data []byte) [2]int32 {
	for i := range data {
		data[i] = 0
	}
	switch kind {
	case CursorArrow:
		// left-edge arrow, white core with black outline
		for y := 0; y < 16; y++ {
			w := y*2/3 + 1
			for x := 0; x <= w; x++ {
				col := uint32(cursorWhite)
				if x == 0 || x == w || y == 15 {
					col = cursorBlack
				}
				putPixel(data, x, y, col)
			}
		}
		return [2]int32{0, 0}

	case CursorHand:
		// palm block with a raised index finger
		for y := 8; y < 20; y++ {
			for x := 6; x < 17; x++ {
				col := uint32(cursorWhite)
				if x == 6 || x == 16 || y == 8 || y == 19 {
					col = cursorBlack
				}
				putPixel(data, x, y, col)
			}
		}
		for y := 2; y < 9; y++ {
			for x := 10; x < 14; x++ {
				col := uint32(cursorWhite)
				if x == 10 || x == 13 || y == 2 {
					col = cursorBlack
				}
				putPixel(data, x, y, col)
			}
		}
		return [2]int32{11, 2}

	case CursorText:
		// I-beam
		for y := 2; y < 22; y++ {
			putPixel(data, 11, y, cursorBlack)
			putPixel(data, 12, y, cursorBlack)
		}
		for _, y := range []int{2, 3, 20, 21} {
			for x := 8; x < 16; x++ {
				putPixel(data, x, y, cursorBlack)
			}
		}
		return [2]int32{11, 11}

	case CursorForbidden:
		// circle with diagonal bar
		cx, cy, r := 11, 11, 9
		for y := 0; y < cursorSize; y++ {
			for x := 0; x < cursorSize; x++ {
				dx, dy := x-cx, y-cy
				d2 := dx*dx + dy*dy
				if d2 <= r*r && d2 >= (r-3)*(r-3) {
					putPixel(data, x, y, cursorBlack)
				}
			}
		}
		for i := -r + 2; i <= r-2; i++ {
			putPixel(data, cx+i, cy+i, cursorBlack)
			putPixel(data, cx+i+1, cy+i, cursorBlack)
		}
		return [2]int32{11, 11}
	}
	return [2]int32{0, 0}
}

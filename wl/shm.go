package wl

import (
	"fmt"

	"golang.org/x/sys/unix"
)

const (
	opShmCreatePool uint16 = 0

	evShmFormat uint16 = 0

	opShmPoolCreateBuffer uint16 = 0
	opShmPoolDestroy      uint16 = 1
	opShmPoolResize       uint16 = 2

	opBufferDestroy uint16 = 0

	evBufferRelease uint16 = 0
)

// Wayland pixel formats.
const (
	// 32-bit formats
	FormatARGB8888 uint32 = 0
	FormatXRGB8888 uint32 = 1

	// 24-bit formats
	FormatRGB888 uint32 = 0x34324752 // 'RG24'
	FormatBGR888 uint32 = 0x34324742 // 'BG24'

	// 16-bit formats
	FormatRGB565   uint32 = 0x36314752 // 'RG16'
	FormatXRGB1555 uint32 = 0x35315258 // 'XR15'
)

// ShmListener receives wl_shm format advertisements.
type ShmListener interface {
	ShmFormat(format uint32)
}

// Shm represents the wl_shm global.
type Shm struct {
	BaseProxy
	listener ShmListener
}

// SetListener installs the format event sink.
func (s *Shm) SetListener(l ShmListener) { s.listener = l }

// Dispatch handles shm events.
func (s *Shm) Dispatch(ev *Event) {
	if ev.Opcode == evShmFormat && s.listener != nil {
		s.listener.ShmFormat(ev.Uint32())
	}
}

// CreatePool creates a shared-memory pool of the given size: an anonymous
// memfd mapped locally, with the descriptor handed to the server over
// SCM_RIGHTS.
func (s *Shm) CreatePool(size int) (*ShmPool, error) {
	fd, err := CreateAnonymousFile(int64(size))
	if err != nil {
		return nil, fmt.Errorf("wl: shm pool file: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("wl: shm pool mmap: %w", err)
	}

	proxy := newProxy(s.context, &shmPoolProxy{})
	// fd travels as ancillary data only, not in the message body
	if err := s.context.SendRequestWithFDs(s, opShmCreatePool, []int{fd}, proxy.ID(), int32(size)); err != nil {
		s.context.Unregister(proxy)
		_ = unix.Munmap(data)
		_ = unix.Close(fd)
		return nil, err
	}

	return &ShmPool{proxy: proxy, fd: fd, size: size, data: data}, nil
}

type shmPoolProxy struct {
	BaseProxy
}

// ShmPool is a shared-memory pool: the local mapping plus the server-side
// wl_shm_pool object carved from the same memfd.
type ShmPool struct {
	proxy  *shmPoolProxy
	fd     int
	size   int
	data   []byte
	offset int
}

// Data returns the memory-mapped pool contents.
func (p *ShmPool) Data() []byte { return p.data }

// Size returns the pool size in bytes.
func (p *ShmPool) Size() int { return p.size }

// CreateBuffer allocates a buffer from the pool's free space and creates
// the matching wl_buffer.
func (p *ShmPool) CreateBuffer(width, height, stride int32, format uint32) (*Buffer, error) {
	size := int(height * stride)
	if p.offset+size > p.size {
		return nil, fmt.Errorf("wl: shm pool exhausted: need %d, have %d", size, p.size-p.offset)
	}

	ctx := p.proxy.Context()
	buf := newProxy(ctx, &Buffer{
		pool:   p,
		offset: p.offset,
		width:  width,
		height: height,
		stride: stride,
		format: format,
	})
	if err := ctx.SendRequest(p.proxy, opShmPoolCreateBuffer,
		buf.ID(), int32(p.offset), width, height, stride, format); err != nil {
		ctx.Unregister(buf)
		return nil, err
	}

	p.offset += size
	// 64-byte alignment between buffers
	p.offset += (64 - (p.offset % 64)) % 64

	return buf, nil
}

// Destroy destroys the server-side pool object and unmaps the local
// mapping. Buffers created from the pool stay valid server-side until
// destroyed themselves.
func (p *ShmPool) Destroy() error {
	ctx := p.proxy.Context()
	if err := ctx.SendRequest(p.proxy, opShmPoolDestroy); err != nil {
		return err
	}
	ctx.Unregister(p.proxy)

	if p.data != nil {
		if err := unix.Munmap(p.data); err != nil {
			return err
		}
		p.data = nil
	}
	if p.fd >= 0 {
		if err := unix.Close(p.fd); err != nil {
			return err
		}
		p.fd = -1
	}
	return nil
}

// Buffer is a wl_buffer backed by a region of an ShmPool. OnRelease fires
// when the server is done reading the buffer.
type Buffer struct {
	BaseProxy
	pool   *ShmPool
	offset int
	width  int32
	height int32
	stride int32
	format uint32

	OnRelease func()
}

// Data returns the buffer's pixel bytes within its pool.
func (b *Buffer) Data() []byte {
	size := int(b.height * b.stride)
	return b.pool.data[b.offset : b.offset+size]
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int32 { return b.width }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int32 { return b.height }

// Stride returns the buffer row stride in bytes.
func (b *Buffer) Stride() int32 { return b.stride }

// Destroy destroys the wl_buffer.
func (b *Buffer) Destroy() error {
	err := b.context.SendRequest(b, opBufferDestroy)
	if err == nil {
		b.context.Unregister(b)
	}
	return err
}

// Dispatch handles buffer events.
func (b *Buffer) Dispatch(ev *Event) {
	if ev.Opcode == evBufferRelease && b.OnRelease != nil {
		b.OnRelease()
	}
}

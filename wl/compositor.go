package wl

// Interface names for the core globals.
const (
	CompositorInterface    = "wl_compositor"
	SubcompositorInterface = "wl_subcompositor"
	ShmInterface           = "wl_shm"
	SeatInterface          = "wl_seat"
	OutputInterface        = "wl_output"
)

const (
	opCompositorCreateSurface uint16 = 0
	opCompositorCreateRegion  uint16 = 1

	opSurfaceDestroy      uint16 = 0
	opSurfaceAttach       uint16 = 1
	opSurfaceDamage       uint16 = 2
	opSurfaceFrame        uint16 = 3
	opSurfaceSetOpaque    uint16 = 4
	opSurfaceSetInput     uint16 = 5
	opSurfaceCommit       uint16 = 6
	opSurfaceSetTransform uint16 = 7
	opSurfaceSetScale     uint16 = 8

	evSurfaceEnter uint16 = 0
	evSurfaceLeave uint16 = 1

	opRegionDestroy  uint16 = 0
	opRegionAdd      uint16 = 1
	opRegionSubtract uint16 = 2

	opSubcompositorDestroy       uint16 = 0
	opSubcompositorGetSubsurface uint16 = 1
)

// Compositor represents the wl_compositor global.
type Compositor struct {
	BaseProxy
}

// CreateSurface creates a new drawable surface.
func (c *Compositor) CreateSurface() (*Surface, error) {
	s := newProxy(c.context, &Surface{})
	if err := c.context.SendRequest(c, opCompositorCreateSurface, s.ID()); err != nil {
		c.context.Unregister(s)
		return nil, err
	}
	return s, nil
}

// CreateRegion creates a new region.
func (c *Compositor) CreateRegion() (*Region, error) {
	r := newProxy(c.context, &Region{})
	if err := c.context.SendRequest(c, opCompositorCreateRegion, r.ID()); err != nil {
		c.context.Unregister(r)
		return nil, err
	}
	return r, nil
}

// SurfaceListener receives wl_surface output enter/leave events.
type SurfaceListener interface {
	SurfaceEnter(outputID uint32)
	SurfaceLeave(outputID uint32)
}

// Surface represents a wl_surface.
type Surface struct {
	BaseProxy
	listener SurfaceListener
}

// SetListener installs the event sink for this surface.
func (s *Surface) SetListener(l SurfaceListener) { s.listener = l }

// Destroy destroys the surface.
func (s *Surface) Destroy() error {
	err := s.context.SendRequest(s, opSurfaceDestroy)
	if err == nil {
		s.context.Unregister(s)
	}
	return err
}

// Attach attaches a buffer to the surface. A nil buffer detaches.
func (s *Surface) Attach(buffer Object, x, y int32) error {
	return s.context.SendRequest(s, opSurfaceAttach, buffer, x, y)
}

// Damage marks a surface region as needing repaint.
func (s *Surface) Damage(x, y, width, height int32) error {
	return s.context.SendRequest(s, opSurfaceDamage, x, y, width, height)
}

// Frame requests a one-shot frame completion callback for this surface.
func (s *Surface) Frame() (*Callback, error) {
	cb := newProxy(s.context, &Callback{})
	if err := s.context.SendRequest(s, opSurfaceFrame, cb.ID()); err != nil {
		s.context.Unregister(cb)
		return nil, err
	}
	return cb, nil
}

// SetOpaqueRegion sets the opaque region hint.
func (s *Surface) SetOpaqueRegion(region *Region) error {
	return s.context.SendRequest(s, opSurfaceSetOpaque, region)
}

// SetInputRegion sets the input region.
func (s *Surface) SetInputRegion(region *Region) error {
	return s.context.SendRequest(s, opSurfaceSetInput, region)
}

// Commit atomically applies the pending surface state.
func (s *Surface) Commit() error {
	return s.context.SendRequest(s, opSurfaceCommit)
}

// SetBufferScale sets the buffer scale factor (compositor version 3+).
func (s *Surface) SetBufferScale(scale int32) error {
	return s.context.SendRequest(s, opSurfaceSetScale, scale)
}

// Dispatch handles surface events.
func (s *Surface) Dispatch(ev *Event) {
	if s.listener == nil {
		return
	}
	switch ev.Opcode {
	case evSurfaceEnter:
		s.listener.SurfaceEnter(ev.Uint32())
	case evSurfaceLeave:
		s.listener.SurfaceLeave(ev.Uint32())
	}
}

// Region represents a wl_region.
type Region struct {
	BaseProxy
}

// Add adds a rectangle to the region.
func (r *Region) Add(x, y, width, height int32) error {
	return r.context.SendRequest(r, opRegionAdd, x, y, width, height)
}

// Subtract removes a rectangle from the region.
func (r *Region) Subtract(x, y, width, height int32) error {
	return r.context.SendRequest(r, opRegionSubtract, x, y, width, height)
}

// Destroy destroys the region.
func (r *Region) Destroy() error {
	err := r.context.SendRequest(r, opRegionDestroy)
	if err == nil {
		r.context.Unregister(r)
	}
	return err
}

// Subcompositor represents the wl_subcompositor global. Bound so the
// negotiated handle is available to embedders; subsurfaces themselves are
// not wrapped here.
type Subcompositor struct {
	BaseProxy
}

// Destroy destroys the subcompositor binding.
func (s *Subcompositor) Destroy() error {
	err := s.context.SendRequest(s, opSubcompositorDestroy)
	if err == nil {
		s.context.Unregister(s)
	}
	return err
}

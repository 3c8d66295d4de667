package wl

import (
	"sync"
	"sync/atomic"
)

// Object is anything addressable on the wire.
type Object interface {
	ID() uint32
}

// Proxy is the client-side representation of a protocol object. Events for
// the object's ID are delivered to Dispatch.
type Proxy interface {
	Object
	SetID(uint32)
	Context() *Context
	SetContext(*Context)
	Dispatch(*Event)
}

// BaseProxy provides the boilerplate half of Proxy; protocol types embed it
// and implement Dispatch.
type BaseProxy struct {
	id      uint32
	context *Context
}

// ID returns the proxy's object ID.
func (p *BaseProxy) ID() uint32 { return p.id }

// SetID sets the proxy's object ID.
func (p *BaseProxy) SetID(id uint32) { p.id = id }

// Context returns the proxy's request context.
func (p *BaseProxy) Context() *Context { return p.context }

// SetContext sets the proxy's request context.
func (p *BaseProxy) SetContext(ctx *Context) { p.context = ctx }

// Dispatch drops the event; types with events override it.
func (p *BaseProxy) Dispatch(*Event) {}

// Context routes requests from proxies to their display connection and
// tracks proxy registration.
type Context struct {
	display *Display
	proxies sync.Map // map[uint32]Proxy
	closed  atomic.Bool
}

// Display returns the underlying connection.
func (c *Context) Display() *Display { return c.display }

// AllocateID allocates a fresh object ID.
func (c *Context) AllocateID() uint32 { return c.display.allocateID() }

// SendRequest enqueues a request from proxy with the given opcode.
func (c *Context) SendRequest(proxy Proxy, opcode uint16, args ...interface{}) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.display.Enqueue(proxy.ID(), opcode, nil, args...)
}

// SendRequestWithFDs enqueues a request carrying file descriptors.
func (c *Context) SendRequestWithFDs(proxy Proxy, opcode uint16, fds []int, args ...interface{}) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.display.Enqueue(proxy.ID(), opcode, fds, args...)
}

// Register adds a proxy to the object table so events reach it.
func (c *Context) Register(proxy Proxy) {
	if proxy != nil && proxy.ID() != 0 {
		c.proxies.Store(proxy.ID(), proxy)
		c.display.objects.Store(proxy.ID(), proxy)
	}
}

// Unregister removes a proxy from the object table.
func (c *Context) Unregister(proxy Proxy) {
	if proxy != nil {
		c.proxies.Delete(proxy.ID())
		c.display.objects.Delete(proxy.ID())
	}
}

// Close marks the context closed and closes the connection.
func (c *Context) Close() error {
	c.closed.Store(true)
	return c.display.Close()
}

// newProxy allocates an ID for p, wires it to ctx and registers it. Helper
// for the create-style requests below.
func newProxy[T Proxy](ctx *Context, p T) T {
	p.SetContext(ctx)
	p.SetID(ctx.AllocateID())
	ctx.Register(p)
	return p
}

// Callback represents a wl_callback; Done fires once with the event's
// timestamp-or-serial payload, after which the object is dead.
type Callback struct {
	BaseProxy
	Done func(data uint32)
}

// Dispatch handles the done event.
func (c *Callback) Dispatch(ev *Event) {
	if ev.Opcode == evCallbackDone {
		data := ev.Uint32()
		if c.Done != nil {
			c.Done(data)
		}
		c.context.Unregister(c)
	}
}

// Destroy drops the callback client-side. wl_callback has no destructor
// request; the server forgets it after done.
func (c *Callback) Destroy() {
	c.context.Unregister(c)
}

package wl

import (
	"sync"
)

// Global describes a server-advertised global object.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// GlobalHandler is called when a global matching its interface is
// announced.
type GlobalHandler func(r *Registry, name uint32, version uint32)

// GlobalRemoveHandler is called when the server withdraws a global.
type GlobalRemoveHandler func(r *Registry, name uint32)

// Registry is the wl_registry proxy: it records announced globals and
// fans announce/remove events out to registered handlers.
type Registry struct {
	BaseProxy

	mu       sync.RWMutex
	globals  map[uint32]Global
	handlers map[string]GlobalHandler
	removes  []GlobalRemoveHandler
}

// AddHandler registers a handler for one interface name. The wildcard "*"
// matches every announce and runs after the interface-specific handler.
func (r *Registry) AddHandler(iface string, handler GlobalHandler) {
	r.mu.Lock()
	r.handlers[iface] = handler
	r.mu.Unlock()
}

// AddRemoveHandler registers a handler for global removal events.
func (r *Registry) AddRemoveHandler(handler GlobalRemoveHandler) {
	r.mu.Lock()
	r.removes = append(r.removes, handler)
	r.mu.Unlock()
}

// Bind binds proxy to the named global at the given version. The proxy
// gets an ID allocated if it has none.
func (r *Registry) Bind(name uint32, iface string, version uint32, proxy Proxy) error {
	if proxy.Context() == nil {
		proxy.SetContext(r.context)
	}
	if proxy.ID() == 0 {
		proxy.SetID(r.context.AllocateID())
	}
	r.context.Register(proxy)

	// bind carries a full new_id: interface string, version, then the ID
	if err := r.context.SendRequest(r, opRegistryBind, name, iface, version, proxy.ID()); err != nil {
		r.context.Unregister(proxy)
		return err
	}
	return nil
}

// Globals returns a snapshot of the announced globals.
func (r *Registry) Globals() map[uint32]Global {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uint32]Global, len(r.globals))
	for k, v := range r.globals {
		out[k] = v
	}
	return out
}

// FindGlobal returns the first announced global with the given interface.
func (r *Registry) FindGlobal(iface string) (Global, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, g := range r.globals {
		if g.Interface == iface {
			return g, true
		}
	}
	return Global{}, false
}

// Dispatch handles registry events.
func (r *Registry) Dispatch(ev *Event) {
	switch ev.Opcode {
	case evRegistryGlobal:
		name := ev.Uint32()
		iface := ev.String()
		version := ev.Uint32()
		r.handleGlobal(name, iface, version)
	case evRegistryGlobalRemove:
		name := ev.Uint32()
		r.handleGlobalRemove(name)
	}
}

func (r *Registry) handleGlobal(name uint32, iface string, version uint32) {
	r.mu.Lock()
	r.globals[name] = Global{Name: name, Interface: iface, Version: version}
	specific := r.handlers[iface]
	wildcard := r.handlers["*"]
	r.mu.Unlock()

	if specific != nil {
		specific(r, name, version)
	}
	if wildcard != nil {
		wildcard(r, name, version)
	}
}

func (r *Registry) handleGlobalRemove(name uint32) {
	r.mu.Lock()
	delete(r.globals, name)
	removes := r.removes
	r.mu.Unlock()

	for _, h := range removes {
		h(r, name)
	}
}

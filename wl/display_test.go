package wl

import (
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"
)

// testServer is the compositor end of a loopback connection. It speaks
// just enough of the wire format to feed events in and check requests
// out.
type testServer struct {
	t    *testing.T
	conn *net.UnixConn
}

func newTestConn(t *testing.T) (*Display, *testServer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayland-test")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	type accepted struct {
		conn net.Conn
		err  error
	}
	ch := make(chan accepted, 1)
	go func() {
		c, err := ln.Accept()
		ch <- accepted{c, err}
	}()

	d, err := Connect(path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	a := <-ch
	_ = ln.Close()
	if a.err != nil {
		t.Fatalf("accept: %v", a.err)
	}

	srv := &testServer{t: t, conn: a.conn.(*net.UnixConn)}
	t.Cleanup(func() {
		_ = d.Close()
		_ = srv.conn.Close()
	})
	return d, srv
}

// sendEvent writes one event; events and requests share the wire format.
func (s *testServer) sendEvent(objectID uint32, opcode uint16, args ...interface{}) {
	s.t.Helper()
	msg, err := marshalMessage(objectID, opcode, args...)
	if err != nil {
		s.t.Fatalf("marshal event: %v", err)
	}
	if _, err := s.conn.Write(msg); err != nil {
		s.t.Fatalf("write event: %v", err)
	}
}

// readRequest reads one request and returns it as a decodable Event.
func (s *testServer) readRequest() (uint32, uint16, *Event) {
	s.t.Helper()
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hdr [8]byte
	if _, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		s.t.Fatalf("read request header: %v", err)
	}
	objectID := byteOrder.Uint32(hdr[0:4])
	sizeOpcode := byteOrder.Uint32(hdr[4:8])
	size := sizeOpcode >> 16
	opcode := uint16(sizeOpcode & 0xffff)

	body := make([]byte, size-8)
	if _, err := io.ReadFull(s.conn, body); err != nil {
		s.t.Fatalf("read request body: %v", err)
	}
	return objectID, opcode, &Event{data: body}
}

// expectRequest reads requests until one matches, failing on anything
// unexpected taking too long.
func (s *testServer) expectRequest(objectID uint32, opcode uint16) *Event {
	s.t.Helper()
	for i := 0; i < 32; i++ {
		obj, op, ev := s.readRequest()
		if obj == objectID && op == opcode {
			return ev
		}
	}
	s.t.Fatalf("request %d.%d never arrived", objectID, opcode)
	return nil
}

func TestAllocateID(t *testing.T) {
	d := &Display{nextID: 2}

	if id := d.allocateID(); id != 2 {
		t.Errorf("first ID = %d, want 2", id)
	}
	if id := d.allocateID(); id != 3 {
		t.Errorf("second ID = %d, want 3", id)
	}
	if id := d.allocateID(); id != 4 {
		t.Errorf("third ID = %d, want 4", id)
	}
}

func TestRegistryGlobalStorage(t *testing.T) {
	registry := &Registry{
		globals:  make(map[uint32]Global),
		handlers: make(map[string]GlobalHandler),
	}
	registry.globals[1] = Global{Name: 1, Interface: "wl_compositor", Version: 4}
	registry.globals[2] = Global{Name: 2, Interface: "wl_seat", Version: 7}

	if got := registry.Globals(); len(got) != 2 {
		t.Errorf("Globals() returned %d globals, want 2", len(got))
	}

	found, ok := registry.FindGlobal("wl_compositor")
	if !ok {
		t.Fatal("wl_compositor should be found")
	}
	if found.Name != 1 || found.Version != 4 {
		t.Errorf("found global = %+v", found)
	}

	if _, ok := registry.FindGlobal("non_existent"); ok {
		t.Error("non_existent should not be found")
	}
}

func TestReadReservation(t *testing.T) {
	d, srv := newTestConn(t)

	// reading without a reservation is a protocol bug
	if err := d.ReadEvents(); !errors.Is(err, ErrNoReadIntent) {
		t.Fatalf("ReadEvents without prepare = %v, want ErrNoReadIntent", err)
	}

	if err := d.PrepareRead(); err != nil {
		t.Fatalf("PrepareRead: %v", err)
	}
	srv.sendEvent(d.registry.id, evRegistryGlobal, uint32(1), "wl_test", uint32(1))
	if err := d.pollIn(2000); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if err := d.ReadEvents(); err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}

	// undispatched events block the next reservation
	if err := d.PrepareRead(); !errors.Is(err, ErrPendingEvents) {
		t.Fatalf("PrepareRead with pending = %v, want ErrPendingEvents", err)
	}
	if n := d.DispatchPending(); n != 1 {
		t.Fatalf("DispatchPending = %d, want 1", n)
	}
	if err := d.PrepareRead(); err != nil {
		t.Fatalf("PrepareRead after drain: %v", err)
	}
	d.CancelRead()

	// a cancelled reservation leaves the connection usable
	if err := d.PrepareRead(); err != nil {
		t.Fatalf("PrepareRead after cancel: %v", err)
	}
	d.CancelRead()
}

func TestRegistryAnnounceAndBind(t *testing.T) {
	d, srv := newTestConn(t)

	var gotName, gotVersion uint32
	d.Registry().AddHandler("wl_seat", func(r *Registry, name, version uint32) {
		gotName, gotVersion = name, version
	})

	srv.sendEvent(d.registry.id, evRegistryGlobal, uint32(3), "wl_seat", uint32(7))
	if _, err := d.Dispatch(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotName != 3 || gotVersion != 7 {
		t.Fatalf("handler got name=%d version=%d, want 3/7", gotName, gotVersion)
	}
	if _, ok := d.Registry().FindGlobal("wl_seat"); !ok {
		t.Fatal("global not recorded")
	}

	seat := &Seat{}
	if err := d.Registry().Bind(3, "wl_seat", 5, seat); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ev := srv.expectRequest(d.registry.id, opRegistryBind)
	if name := ev.Uint32(); name != 3 {
		t.Errorf("bind name = %d, want 3", name)
	}
	if iface := ev.String(); iface != "wl_seat" {
		t.Errorf("bind interface = %q, want wl_seat", iface)
	}
	if version := ev.Uint32(); version != 5 {
		t.Errorf("bind version = %d, want 5", version)
	}
	if id := ev.Uint32(); id != seat.ID() {
		t.Errorf("bind id = %d, want %d", id, seat.ID())
	}
}

func TestRoundtrip(t *testing.T) {
	d, srv := newTestConn(t)

	go func() {
		for {
			obj, op, ev := srv.readRequest()
			if obj == 1 && op == opDisplaySync {
				srv.sendEvent(ev.Uint32(), evCallbackDone, uint32(0))
				return
			}
		}
	}()

	if err := d.Roundtrip(); err != nil {
		t.Fatalf("roundtrip: %v", err)
	}
}

func TestPartialMessageStaysBuffered(t *testing.T) {
	d, srv := newTestConn(t)

	msg, err := marshalMessage(d.registry.id, evRegistryGlobal, uint32(9), "wl_output", uint32(2))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if _, err := srv.conn.Write(msg[:6]); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := d.PrepareRead(); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if err := d.pollIn(2000); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if err := d.ReadEvents(); err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := d.DispatchPending(); n != 0 {
		t.Fatalf("dispatched %d events from a partial message", n)
	}

	if _, err := srv.conn.Write(msg[6:]); err != nil {
		t.Fatalf("write rest: %v", err)
	}
	if _, err := d.Dispatch(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := d.Registry().FindGlobal("wl_output"); !ok {
		t.Fatal("global from reassembled message not recorded")
	}
}

func TestProtocolErrorIsSticky(t *testing.T) {
	d, srv := newTestConn(t)

	srv.sendEvent(1, evDisplayError, uint32(4), uint32(2), "bad request")
	if _, err := d.Dispatch(); err == nil {
		t.Fatal("dispatch should surface the protocol error")
	}
	if d.Err() == nil {
		t.Fatal("Err() should be sticky after a protocol error")
	}
	if err := d.Enqueue(1, opDisplaySync, nil, uint32(99)); err == nil {
		t.Fatal("Enqueue should fail after a protocol error")
	}
}

func TestDeleteIDDropsProxy(t *testing.T) {
	d, srv := newTestConn(t)

	cb, err := d.Sync()
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if _, ok := d.objects.Load(cb.ID()); !ok {
		t.Fatal("callback not registered")
	}

	srv.sendEvent(1, evDisplayDeleteID, cb.ID())
	if _, err := d.Dispatch(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, ok := d.objects.Load(cb.ID()); ok {
		t.Fatal("proxy still registered after delete_id")
	}
}

package wlshell

import (
	"encoding/binary"
	"io"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/wlshell/wl"
)

// fakeServer is the compositor end of a loopback connection, speaking
// just enough wire protocol to drive the client under test.
type fakeServer struct {
	t          *testing.T
	conn       net.Conn
	registryID uint32
}

func newTestDisplay(t *testing.T, opts *Options) (*Display, *fakeServer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wayland-test")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ch := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		ch <- c
	}()

	conn, err := wl.Connect(path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	server := <-ch
	_ = ln.Close()
	if server == nil {
		t.Fatal("accept failed")
	}

	if opts == nil {
		opts = &Options{}
	}
	d := newDisplay(conn, opts)
	srv := &fakeServer{t: t, conn: server, registryID: conn.Registry().ID()}
	t.Cleanup(func() {
		_ = conn.Close()
		_ = server.Close()
	})
	return d, srv
}

// wireMsg builds one wire message from uint32, int32, and string args.
func wireMsg(objectID uint32, opcode uint16, args ...interface{}) []byte {
	body := []byte{}
	put32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		body = append(body, b[:]...)
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case uint32:
			put32(v)
		case int32:
			put32(uint32(v))
		case string:
			put32(uint32(len(v) + 1))
			body = append(body, v...)
			body = append(body, 0)
			for len(body)%4 != 0 {
				body = append(body, 0)
			}
		case []uint32:
			put32(uint32(len(v) * 4))
			for _, e := range v {
				put32(e)
			}
		default:
			panic("unsupported arg")
		}
	}
	msg := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(msg[0:4], objectID)
	binary.LittleEndian.PutUint32(msg[4:8], uint32(len(msg))<<16|uint32(opcode))
	copy(msg[8:], body)
	return msg
}

// sendEvent writes one event to the client.
func (s *fakeServer) sendEvent(objectID uint32, opcode uint16, args ...interface{}) {
	s.t.Helper()
	if _, err := s.conn.Write(wireMsg(objectID, opcode, args...)); err != nil {
		s.t.Fatalf("write event: %v", err)
	}
}

// announce advertises a global through the registry.
func (s *fakeServer) announce(name uint32, iface string, version uint32) {
	s.sendEvent(s.registryID, 0, name, iface, version)
}

// remove withdraws a global.
func (s *fakeServer) remove(name uint32) {
	s.sendEvent(s.registryID, 1, name)
}

// readRequest reads one client request.
func (s *fakeServer) readRequest() (uint32, uint16, []byte) {
	s.t.Helper()
	_ = s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hdr [8]byte
	if _, err := io.ReadFull(s.conn, hdr[:]); err != nil {
		s.t.Fatalf("read request header: %v", err)
	}
	objectID := binary.LittleEndian.Uint32(hdr[0:4])
	sizeOpcode := binary.LittleEndian.Uint32(hdr[4:8])
	body := make([]byte, sizeOpcode>>16-8)
	if _, err := io.ReadFull(s.conn, body); err != nil {
		s.t.Fatalf("read request body: %v", err)
	}
	return objectID, uint16(sizeOpcode & 0xffff), body
}

// expectRequest reads requests until one matches the object and opcode.
func (s *fakeServer) expectRequest(objectID uint32, opcode uint16) []byte {
	s.t.Helper()
	for i := 0; i < 64; i++ {
		obj, op, body := s.readRequest()
		if obj == objectID && op == opcode {
			return body
		}
	}
	s.t.Fatalf("request %d.%d never arrived", objectID, opcode)
	return nil
}

// findBind reads requests until the bind for iface and returns its
// negotiated version and new object ID.
func (s *fakeServer) findBind(iface string) (version, id uint32) {
	s.t.Helper()
	for i := 0; i < 64; i++ {
		obj, op, body := s.readRequest()
		if obj != s.registryID || op != 0 {
			continue
		}
		off := 4 // skip name
		strlen := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		got := string(body[off : off+strlen-1])
		off += strlen
		off += (4 - off%4) % 4
		if got != iface {
			continue
		}
		version = binary.LittleEndian.Uint32(body[off:])
		id = binary.LittleEndian.Uint32(body[off+4:])
		return version, id
	}
	s.t.Fatalf("bind for %s never arrived", iface)
	return 0, 0
}

// dispatch runs one blocking dispatch pass on the client.
func dispatch(t *testing.T, d *Display) {
	t.Helper()
	if _, err := d.Conn().Dispatch(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

// flush pushes buffered client requests to the server.
func flush(t *testing.T, d *Display) {
	t.Helper()
	if err := d.Conn().Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

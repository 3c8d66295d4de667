package wl

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

// byteOrder is the wire byte order. The protocol uses the host's order;
// every platform this package targets is little-endian.
var byteOrder = binary.LittleEndian

// Core protocol opcodes used by this package.
const (
	opDisplaySync        uint16 = 0
	opDisplayGetRegistry uint16 = 1

	evDisplayError    uint16 = 0
	evDisplayDeleteID uint16 = 1

	opRegistryBind uint16 = 0

	evRegistryGlobal       uint16 = 0
	evRegistryGlobalRemove uint16 = 1

	evCallbackDone uint16 = 0
)

// Fixed represents a signed 24.8 fixed-point number.
type Fixed int32

// Float64 converts Fixed to float64.
func (f Fixed) Float64() float64 {
	return float64(f) / 256.0
}

// NewFixed creates a Fixed from float64.
func NewFixed(v float64) Fixed {
	return Fixed(v * 256.0)
}

var msgBufferPool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// marshalMessage builds a complete wire message: an 8-byte header
// (objectID, then size<<16|opcode) followed by the marshalled arguments
// padded to 32-bit boundaries.
func marshalMessage(objectID uint32, opcode uint16, args ...interface{}) ([]byte, error) {
	buf := msgBufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		msgBufferPool.Put(buf)
	}()

	var header [8]byte
	_, _ = buf.Write(header[:])

	for _, arg := range args {
		if err := marshalArg(buf, arg); err != nil {
			return nil, err
		}
	}

	size := buf.Len()
	if size > 0xFFFF {
		return nil, fmt.Errorf("message too large: %d bytes", size)
	}
	msg := make([]byte, size)
	copy(msg, buf.Bytes())
	byteOrder.PutUint32(msg[0:4], objectID)
	byteOrder.PutUint32(msg[4:8], uint32(size)<<16|uint32(opcode))
	return msg, nil
}

// marshalArg marshals a single request argument.
func marshalArg(buf *bytes.Buffer, arg interface{}) error {
	switch v := arg.(type) {
	case uint32:
		return binary.Write(buf, byteOrder, v)
	case int32:
		return binary.Write(buf, byteOrder, v)
	case Fixed:
		return binary.Write(buf, byteOrder, int32(v))
	case string:
		// length including NUL, the bytes, NUL, pad to 32 bits
		strlen := len(v) + 1
		if err := binary.Write(buf, byteOrder, uint32(strlen)); err != nil {
			return err
		}
		_, _ = buf.WriteString(v)
		_ = buf.WriteByte(0)
		for i := 0; i < pad4(strlen); i++ {
			_ = buf.WriteByte(0)
		}
	case []byte:
		if err := binary.Write(buf, byteOrder, uint32(len(v))); err != nil {
			return err
		}
		_, _ = buf.Write(v)
		for i := 0; i < pad4(len(v)); i++ {
			_ = buf.WriteByte(0)
		}
	case Object:
		if v != nil {
			return binary.Write(buf, byteOrder, v.ID())
		}
		return binary.Write(buf, byteOrder, uint32(0))
	case nil:
		// null object
		return binary.Write(buf, byteOrder, uint32(0))
	default:
		return fmt.Errorf("unsupported argument type: %T", arg)
	}
	return nil
}

func pad4(n int) int {
	return (4 - (n % 4)) % 4
}

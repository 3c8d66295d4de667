package wlshell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCursorImages(t *testing.T) {
	for kind := CursorKind(0); kind < cursorKindCount; kind++ {
		data := make([]byte, cursorSize*cursorSize*4)
		hotspot := renderCursor(kind, data)

		nonZero := 0
		for _, b := range data {
			if b != 0 {
				nonZero++
			}
		}
		assert.Positive(t, nonZero, "cursor %d has no visible pixels", kind)
		assert.GreaterOrEqual(t, hotspot[0], int32(0))
		assert.Less(t, hotspot[0], int32(cursorSize))
		assert.GreaterOrEqual(t, hotspot[1], int32(0))
		assert.Less(t, hotspot[1], int32(cursorSize))
	}
}

func TestRenderCursorClearsOldContent(t *testing.T) {
	data := make([]byte, cursorSize*cursorSize*4)
	for i := range data {
		data[i] = 0xFF
	}
	renderCursor(CursorText, data)

	// corners are outside the I-beam and must have been cleared
	assert.Equal(t, byte(0), data[3])
	last := (cursorSize*cursorSize - 1) * 4
	assert.Equal(t, byte(0), data[last+3])
}

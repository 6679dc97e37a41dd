package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameHeaderRoundTrip(t *testing.T) {
	f := newFrame(64, 32)
	require.True(t, f.Valid())
	assert.Equal(t, uint16(64), f.Width())
	assert.Equal(t, uint16(32), f.Height())
	assert.Len(t, f.Pixels(), 64*32*4)
}

func TestFrameValidRejectsTruncated(t *testing.T) {
	f := newFrame(10, 10)
	truncated := f[:len(f)-1]
	assert.False(t, truncated.Valid())
}

func TestFrameValidRejectsShortHeader(t *testing.T) {
	f := Frame([]byte{0x01, 0x02})
	assert.False(t, f.Valid())
}

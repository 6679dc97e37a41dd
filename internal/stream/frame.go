package stream

import "encoding/binary"

// Frame is the wire format delivered to WebSocket subscribers: two
// leading little-endian uint16s (width, height) reflecting post-downscale
// dimensions, followed by tightly packed row-major RGBA pixels with no
// row padding. This lets the front end blit directly to a canvas without
// decoding.
type Frame []byte

const frameHeaderSize = 4

// newFrame allocates a Frame sized for width x height RGBA pixels and
// writes the header.
func newFrame(width, height int) Frame {
	f := make(Frame, frameHeaderSize+width*height*4)
	binary.LittleEndian.PutUint16(f[0:2], uint16(width))
	binary.LittleEndian.PutUint16(f[2:4], uint16(height))
	return f
}

// Width reads the frame's post-downscale width.
func (f Frame) Width() uint16 {
	return binary.LittleEndian.Uint16(f[0:2])
}

// Height reads the frame's post-downscale height.
func (f Frame) Height() uint16 {
	return binary.LittleEndian.Uint16(f[2:4])
}

// Pixels returns the packed RGBA pixel data following the header.
func (f Frame) Pixels() []byte {
	return f[frameHeaderSize:]
}

// Valid reports whether the frame's declared length matches its header,
// the invariant every emitted frame must satisfy.
func (f Frame) Valid() bool {
	if len(f) < frameHeaderSize {
		return false
	}
	want := frameHeaderSize + int(f.Width())*int(f.Height())*4
	return len(f) == want
}

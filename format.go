package rvideo

import "github.com/alxayo/go-rvideo/internal/wire"

// Frame is an opaque video frame: optional metadata plus opaque encoded
// pixel data. The package does not interpret either buffer; callers agree
// on their meaning out of band via Format.
type Frame = wire.Frame

// Format identifies the pixel/encoding layout of a stream's frame
// payloads. Values are fixed by the wire protocol.
type Format = wire.Format

// Format values, fixed by the wire protocol.
const (
	Luma8   = wire.Luma8
	Luma16  = wire.Luma16
	LumaA8  = wire.LumaA8
	LumaA16 = wire.LumaA16
	Rgb8    = wire.Rgb8
	Rgb16   = wire.Rgb16
	Rgba8   = wire.Rgba8
	Rgba16  = wire.Rgba16
	MJpeg   = wire.MJpeg
)

// APIVersion is the protocol version this implementation speaks.
const APIVersion = wire.APIVersion

// StreamInfo describes a stream as advertised to a client after selection.
type StreamInfo = wire.StreamInfo

// Package wire implements the four message shapes of the rvideo broadcast
// protocol: Greeting, StreamSelect, StreamInfo and Frame. All multi-byte
// integers are little-endian, matching the wire layout fixed by the
// specification. Encoding/decoding follows the same idiom as the teacher's
// RTMP chunk codec: encoding/binary.LittleEndian for fixed fields,
// io.ReadFull for every read, and errors wrapped into the shared taxonomy.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/alxayo/go-rvideo/internal/rvideoerr"
)

// APIVersion is the only protocol version this implementation speaks.
const APIVersion uint8 = 1

// greetingMagic is the single leading byte that identifies a Greeting.
const greetingMagic = 'R'

// Format identifies the pixel/encoding layout of a stream's frame payloads.
type Format uint8

// Format values, fixed by the wire protocol.
const (
	Luma8   Format = 0
	Luma16  Format = 1
	LumaA8  Format = 2
	LumaA16 Format = 3
	Rgb8    Format = 4
	Rgb16   Format = 5
	Rgba8   Format = 6
	Rgba16  Format = 7
	MJpeg   Format = 64
)

// Valid reports whether f is one of the defined wire format values.
func (f Format) Valid() bool {
	switch f {
	case Luma8, Luma16, LumaA8, LumaA16, Rgb8, Rgb16, Rgba8, Rgba16, MJpeg:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	switch f {
	case Luma8:
		return "Luma8"
	case Luma16:
		return "Luma16"
	case LumaA8:
		return "LumaA8"
	case LumaA16:
		return "LumaA16"
	case Rgb8:
		return "Rgb8"
	case Rgb16:
		return "Rgb16"
	case Rgba8:
		return "Rgba8"
	case Rgba16:
		return "Rgba16"
	case MJpeg:
		return "MJpeg"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// maxBufLen is the largest length a 32-bit wire length field can represent.
const maxBufLen = math.MaxUint32

// Frame is an opaque video frame: optional metadata plus opaque encoded
// pixel data. Neither buffer's interpretation is known to this package.
type Frame struct {
	Metadata []byte
	Data     []byte
}

// Greeting is sent by the server immediately after accept.
type Greeting struct {
	APIVersion       uint8
	StreamsAvailable uint16
}

// GreetingSize is the fixed wire size of a Greeting message.
const GreetingSize = 4

// EncodeGreeting serializes g into its 4-byte wire form.
func EncodeGreeting(g Greeting) []byte {
	buf := make([]byte, GreetingSize)
	buf[0] = greetingMagic
	buf[1] = g.APIVersion
	binary.LittleEndian.PutUint16(buf[2:4], g.StreamsAvailable)
	return buf
}

// DecodeGreeting reads and validates a Greeting from r.
func DecodeGreeting(r io.Reader) (Greeting, error) {
	var buf [GreetingSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Greeting{}, rvideoerr.NewIO("wire.decode_greeting", err)
	}
	if buf[0] != greetingMagic {
		return Greeting{}, rvideoerr.NewDecode("wire.decode_greeting", fmt.Errorf("bad magic byte %#x", buf[0]))
	}
	return Greeting{
		APIVersion:       buf[1],
		StreamsAvailable: binary.LittleEndian.Uint16(buf[2:4]),
	}, nil
}

// StreamSelect is sent by the client once, right after the greeting.
type StreamSelect struct {
	StreamID uint16
	MaxFPS   uint8
}

// StreamSelectSize is the fixed wire size of a StreamSelect message.
const StreamSelectSize = 3

// EncodeStreamSelect serializes s into its 3-byte wire form.
func EncodeStreamSelect(s StreamSelect) []byte {
	buf := make([]byte, StreamSelectSize)
	binary.LittleEndian.PutUint16(buf[0:2], s.StreamID)
	buf[2] = s.MaxFPS
	return buf
}

// DecodeStreamSelect reads a StreamSelect from r.
func DecodeStreamSelect(r io.Reader) (StreamSelect, error) {
	var buf [StreamSelectSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return StreamSelect{}, rvideoerr.NewIO("wire.decode_stream_select", err)
	}
	return StreamSelect{
		StreamID: binary.LittleEndian.Uint16(buf[0:2]),
		MaxFPS:   buf[2],
	}, nil
}

// StreamInfo is sent by the server in reply to StreamSelect.
type StreamInfo struct {
	ID     uint16
	Format Format
	Width  uint16
	Height uint16
}

// StreamInfoSize is the fixed wire size of a StreamInfo message.
const StreamInfoSize = 7

// EncodeStreamInfo serializes s into its 7-byte wire form.
func EncodeStreamInfo(s StreamInfo) []byte {
	buf := make([]byte, StreamInfoSize)
	binary.LittleEndian.PutUint16(buf[0:2], s.ID)
	buf[2] = uint8(s.Format)
	binary.LittleEndian.PutUint16(buf[3:5], s.Width)
	binary.LittleEndian.PutUint16(buf[5:7], s.Height)
	return buf
}

// DecodeStreamInfo reads a StreamInfo from r, rejecting unknown format bytes.
func DecodeStreamInfo(r io.Reader) (StreamInfo, error) {
	var buf [StreamInfoSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return StreamInfo{}, rvideoerr.NewIO("wire.decode_stream_info", err)
	}
	format := Format(buf[2])
	if !format.Valid() {
		return StreamInfo{}, rvideoerr.NewDecode("wire.decode_stream_info", fmt.Errorf("unknown format %d", buf[2]))
	}
	return StreamInfo{
		ID:     binary.LittleEndian.Uint16(buf[0:2]),
		Format: format,
		Width:  binary.LittleEndian.Uint16(buf[3:5]),
		Height: binary.LittleEndian.Uint16(buf[5:7]),
	}, nil
}

// ValidateFrameSizes checks the §3 size invariants without touching the
// wire; callers (the registry's send_frame) use it before fan-out.
func ValidateFrameSizes(f Frame) error {
	if len(f.Metadata) > maxBufLen {
		return rvideoerr.NewFrameMetaDataTooLarge(len(f.Metadata))
	}
	if len(f.Data) > maxBufLen {
		return rvideoerr.NewFrameDataTooLarge(len(f.Data))
	}
	return nil
}

// EncodeFrame writes a Frame message (two length-prefixed blobs) to w.
func EncodeFrame(w io.Writer, f Frame) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(f.Metadata)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return rvideoerr.NewIO("wire.encode_frame.metadata_len", err)
	}
	if len(f.Metadata) > 0 {
		if _, err := w.Write(f.Metadata); err != nil {
			return rvideoerr.NewIO("wire.encode_frame.metadata", err)
		}
	}
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(f.Data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return rvideoerr.NewIO("wire.encode_frame.data_len", err)
	}
	if len(f.Data) > 0 {
		if _, err := w.Write(f.Data); err != nil {
			return rvideoerr.NewIO("wire.encode_frame.data", err)
		}
	}
	return nil
}

// DecodeFrame reads a Frame message from r.
func DecodeFrame(r io.Reader) (Frame, error) {
	metadata, err := readLengthPrefixed(r, "metadata")
	if err != nil {
		return Frame{}, err
	}
	data, err := readLengthPrefixed(r, "data")
	if err != nil {
		return Frame{}, err
	}
	return Frame{Metadata: metadata, Data: data}, nil
}

func readLengthPrefixed(r io.Reader, field string) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, rvideoerr.NewIO(fmt.Sprintf("wire.decode_frame.%s_len", field), err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, rvideoerr.NewIO(fmt.Sprintf("wire.decode_frame.%s", field), err)
	}
	return buf, nil
}

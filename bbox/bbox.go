// Package bbox implements the frame metadata convention producers and
// viewers use on top of the opaque Frame.Metadata buffer: a MessagePack
// map carrying free-form fields plus a conventional ".bboxes" key holding
// overlay rectangles. The core protocol never parses this; it is purely a
// convention recognized by cooperating producers/viewers.
//
// Grounded on the original crate's example producer (server-custom.rs),
// which serializes a FrameInfo{source, frame_number, #[serde(rename =
// ".bboxes")] bounding_boxes} struct with rmp_serde::to_vec_named. This
// package plays the same role with github.com/vmihailenco/msgpack/v5,
// the MessagePack library carried into this module's domain stack.
package bbox

import "github.com/vmihailenco/msgpack/v5"

// BoundingBox is one overlay rectangle: an RGB color plus a position and
// extent in pixel coordinates relative to the frame's declared width and
// height.
type BoundingBox struct {
	Color  [3]uint8 `msgpack:"color"`
	X      uint16   `msgpack:"x"`
	Y      uint16   `msgpack:"y"`
	Width  uint16   `msgpack:"width"`
	Height uint16   `msgpack:"height"`
}

// Metadata is the conventional frame metadata envelope: a source name and
// a frame number alongside the ".bboxes" overlay list. Producers that don't
// need bounding boxes can leave Boxes nil; the ".bboxes" key is still
// encoded in that case, with a nil value.
type Metadata struct {
	Source      string        `msgpack:"source,omitempty"`
	FrameNumber uint64        `msgpack:"frame_number,omitempty"`
	Boxes       []BoundingBox `msgpack:".bboxes"`
}

// Encode serializes m as a Frame.Metadata payload.
func Encode(m Metadata) ([]byte, error) {
	return msgpack.Marshal(m)
}

// Decode parses raw frame metadata bytes produced by Encode (or any
// producer following the same convention) into a Metadata value.
func Decode(raw []byte) (Metadata, error) {
	var m Metadata
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Package registry tracks the set of streams a server exposes and the
// subscriber slots attached to each one. Grounded on the original crate's
// StreamServerInner (Mutex<Vec<StreamInternal>>, BTreeMap<usize, FrameCell>)
// and the teacher's registry.go snapshot-then-release broadcast pattern:
// BroadcastMessage copies the subscriber set out from under the lock, then
// delivers outside it so a slow or blocked client never holds up the
// registry for everyone else.
package registry

import (
	"math"
	"sync"

	"github.com/alxayo/go-rvideo/internal/frameslot"
	"github.com/alxayo/go-rvideo/internal/rvideoerr"
	"github.com/alxayo/go-rvideo/internal/wire"
)

// maxStreams caps the registry at 65535 streams: ids are assigned as
// uint16(len(streams)-1), and stream_id must itself stay representable, so
// the 65536th add_stream (when len(streams) already equals math.MaxUint16)
// is rejected rather than wrapping.
const maxStreams = math.MaxUint16

type stream struct {
	format  wire.Format
	width   uint16
	height  uint16
	clients map[uint64]*frameslot.Slot[wire.Frame]
}

// Registry is the thread-safe stream table a running server consults on
// every accepted connection and every SendFrame call.
type Registry struct {
	mu      sync.Mutex
	streams []*stream
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// AddStream registers a new stream descriptor and returns its id. Ids are
// assigned sequentially starting at 0, matching the order streams were
// added, and are never reused.
func (r *Registry) AddStream(format wire.Format, width, height uint16) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) >= maxStreams {
		return 0, rvideoerr.NewTooManyStreams("registry.add_stream")
	}
	r.streams = append(r.streams, &stream{
		format:  format,
		width:   width,
		height:  height,
		clients: make(map[uint64]*frameslot.Slot[wire.Frame]),
	})
	return uint16(len(r.streams) - 1), nil
}

// StreamCount reports how many streams are registered.
func (r *Registry) StreamCount() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint16(len(r.streams))
}

// StreamInfo returns the descriptor for streamID, or InvalidStreamError if
// it does not exist.
func (r *Registry) StreamInfo(streamID uint16) (wire.StreamInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(streamID)
	if err != nil {
		return wire.StreamInfo{}, err
	}
	return wire.StreamInfo{ID: streamID, Format: s.format, Width: s.width, Height: s.height}, nil
}

// AddClient attaches a new subscriber slot to streamID under clientID and
// returns it. Callers deliver frames by reading from the returned slot
// until it is closed.
func (r *Registry) AddClient(streamID uint16, clientID uint64) (*frameslot.Slot[wire.Frame], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(streamID)
	if err != nil {
		return nil, err
	}
	slot := frameslot.New[wire.Frame]()
	s.clients[clientID] = slot
	return slot, nil
}

// RemoveClient detaches clientID's slot from streamID, if present. It does
// not close the slot; callers that own it decide when to close.
func (r *Registry) RemoveClient(streamID uint16, clientID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(streamID)
	if err != nil {
		return
	}
	delete(s.clients, clientID)
}

// SendFrame validates frame against the size invariants, then delivers it
// to every subscriber of streamID. The subscriber snapshot is taken under
// the lock and delivery happens after it is released, so a blocked or slow
// FrameSlot.Set can never stall registry access for other streams or
// callers.
func (r *Registry) SendFrame(streamID uint16, frame wire.Frame) error {
	if err := wire.ValidateFrameSizes(frame); err != nil {
		return err
	}
	slots := r.subscriberSnapshot(streamID)
	if slots == nil {
		return rvideoerr.NewInvalidStream("registry.send_frame", nil)
	}
	for _, slot := range slots {
		slot.Set(frame)
	}
	return nil
}

func (r *Registry) subscriberSnapshot(streamID uint16) []*frameslot.Slot[wire.Frame] {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.lookup(streamID)
	if err != nil {
		return nil
	}
	slots := make([]*frameslot.Slot[wire.Frame], 0, len(s.clients))
	for _, slot := range s.clients {
		slots = append(slots, slot)
	}
	return slots
}

// Close closes every subscriber slot across every stream, waking any
// blocked client reader for good. Call once when the server shuts down.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.streams {
		for _, slot := range s.clients {
			slot.Close()
		}
	}
}

// lookup must be called with r.mu held.
func (r *Registry) lookup(streamID uint16) (*stream, error) {
	if int(streamID) >= len(r.streams) {
		return nil, rvideoerr.NewInvalidStream("registry.lookup", nil)
	}
	return r.streams[streamID], nil
}

package rvideo

import (
	"net"
	"time"

	"github.com/alxayo/go-rvideo/internal/broadcast"
	"github.com/alxayo/go-rvideo/internal/registry"
)

// Server publishes zero or more streams and fans frames out to whichever
// clients have selected them. The zero value is not usable; construct with
// NewServer.
type Server struct {
	reg    *registry.Registry
	engine *broadcast.Engine
}

// NewServer creates a server with the given per-connection I/O timeout.
// The default max-clients capacity is 16; adjust with SetMaxClients before
// Serve.
func NewServer(timeout time.Duration) *Server {
	reg := registry.New()
	return &Server{
		reg:    reg,
		engine: broadcast.New(broadcast.Config{Timeout: timeout}, reg),
	}
}

// SetMaxClients sets the maximum number of concurrently streaming clients.
// Call before Serve.
func (s *Server) SetMaxClients(n int) {
	s.engine.SetMaxClients(n)
}

// AddStream registers a new stream and returns a handle to it.
func (s *Server) AddStream(format Format, width, height uint16) (*Stream, error) {
	id, err := s.reg.AddStream(format, width, height)
	if err != nil {
		return nil, err
	}
	return &Stream{id: id, reg: s.reg}, nil
}

// SendFrame delivers frame to every client currently subscribed to
// streamID. It never blocks on a slow or stalled client.
func (s *Server) SendFrame(streamID uint16, frame Frame) error {
	return s.reg.SendFrame(streamID, frame)
}

// Serve starts listening on addr and begins accepting clients in the
// background. It returns once the listener is bound; call Stop to shut
// down.
func (s *Server) Serve(addr string) error {
	s.engine.SetListenAddr(addr)
	return s.engine.Start()
}

// Stop stops accepting new clients, closes every client's frame slot, and
// waits for all in-flight handlers to exit.
func (s *Server) Stop() error {
	return s.engine.Stop()
}

// Addr returns the bound listener address, or nil if Serve has not been
// called yet.
func (s *Server) Addr() net.Addr {
	return s.engine.Addr()
}

// StreamCount reports how many streams are registered.
func (s *Server) StreamCount() uint16 {
	return s.reg.StreamCount()
}

// Stream is an opaque handle to a registered stream. It carries its id and
// a reference back to the owning server's registry so SendFrame reads
// naturally as a method on the stream itself; the registry outlives every
// handle for the server's lifetime, so no weak reference is needed.
type Stream struct {
	id  uint16
	reg *registry.Registry
}

// ID returns the stream's assigned id.
func (s *Stream) ID() uint16 { return s.id }

// SendFrame is shorthand for calling the owning registry's SendFrame with
// this stream's id.
func (s *Stream) SendFrame(frame Frame) error {
	return s.reg.SendFrame(s.id, frame)
}

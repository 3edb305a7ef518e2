package rvideo

import (
	"net"
	"time"

	"github.com/alxayo/go-rvideo/internal/rvideoerr"
	"github.com/alxayo/go-rvideo/internal/wire"
)

// Client is the blocking variant: every method call blocks the calling
// goroutine until it completes or the configured timeout elapses.
// Grounded on the original crate's Client (connect/select_stream/Iterator)
// and the teacher's dial-then-handshake client shape, adapted to this
// protocol's four fixed message types.
type Client struct {
	conn             net.Conn
	timeout          time.Duration
	streamsAvailable uint16
	ready            bool
	selectedStreamID uint16
}

// Connect dials addr with a connect timeout, sets read/write timeouts to
// timeout, disables Nagle, reads the greeting and verifies the API
// version.
func Connect(addr string, timeout time.Duration) (*Client, error) {
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, rvideoerr.NewInvalidAddress(addr)
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", resolved.String())
	if err != nil {
		return nil, rvideoerr.NewIO("client.connect", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c := &Client{conn: conn, timeout: timeout}
	if err := c.setDeadline(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	greeting, err := wire.DecodeGreeting(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if greeting.APIVersion != wire.APIVersion {
		_ = conn.Close()
		return nil, rvideoerr.NewAPIVersion(greeting.APIVersion)
	}
	c.streamsAvailable = greeting.StreamsAvailable
	return c, nil
}

func (c *Client) setDeadline() error {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return rvideoerr.NewIO("client.set_deadline", err)
	}
	return nil
}

// StreamsAvailable reports how many streams the server advertised in its
// greeting.
func (c *Client) StreamsAvailable() uint16 { return c.streamsAvailable }

// SelectStream sends a StreamSelect for streamID with the given max_fps
// rate cap, reads back the server's StreamInfo, and verifies the echoed
// id matches. Subsequent calls are undefined.
func (c *Client) SelectStream(streamID uint16, maxFPS uint8) (StreamInfo, error) {
	if err := c.setDeadline(); err != nil {
		return StreamInfo{}, err
	}
	if _, err := c.conn.Write(wire.EncodeStreamSelect(wire.StreamSelect{StreamID: streamID, MaxFPS: maxFPS})); err != nil {
		return StreamInfo{}, rvideoerr.NewIO("client.select_stream.write", err)
	}
	if err := c.setDeadline(); err != nil {
		return StreamInfo{}, err
	}
	info, err := wire.DecodeStreamInfo(c.conn)
	if err != nil {
		return StreamInfo{}, err
	}
	if info.ID != streamID {
		return StreamInfo{}, rvideoerr.NewInvalidStream("client.select_stream", nil)
	}
	c.ready = true
	c.selectedStreamID = streamID
	return info, nil
}

// NextFrame blocks until the next frame arrives, or returns an error. The
// stream of frames is conceptually infinite and only ends via an I/O
// error; callers loop calling NextFrame until it errors.
func (c *Client) NextFrame() (Frame, error) {
	if !c.ready {
		return Frame{}, rvideoerr.NewNotReady()
	}
	if err := c.setDeadline(); err != nil {
		return Frame{}, err
	}
	return wire.DecodeFrame(c.conn)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

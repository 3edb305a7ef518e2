package rvideo

import (
	"context"
	"net"
	"time"

	"github.com/alxayo/go-rvideo/internal/rvideoerr"
	"github.com/alxayo/go-rvideo/internal/wire"
)

// ClientAsync is the cooperative-suspension variant: identical wire state
// machine and errors as Client, but every socket operation suspends at a
// read/write boundary and observes context cancellation there instead of
// blocking the caller for the call's duration. Go has no native
// async/await, so suspension is modeled the way the teacher's
// Connection.SendMessage does it: the blocking call runs on its own
// goroutine while the caller selects on ctx.Done() against the call's
// completion channel, with the connection's deadline bounding how long
// the goroutine can stay blocked either way.
type ClientAsync struct {
	conn             net.Conn
	timeout          time.Duration
	streamsAvailable uint16
	ready            bool
}

// ConnectAsync dials addr and performs the same handshake as Connect, but
// every I/O step is cancellable via ctx and bounded by timeout.
func ConnectAsync(ctx context.Context, addr string, timeout time.Duration) (*ClientAsync, error) {
	resolved, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, rvideoerr.NewInvalidAddress(addr)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", resolved.String())
	if err != nil {
		return nil, toAsyncErr("client_async.connect", timeout, rvideoerr.NewIO("client_async.connect", err))
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	c := &ClientAsync{conn: conn, timeout: timeout}
	var greeting wire.Greeting
	if err := suspend(ctx, conn, timeout, "client_async.greeting", func() error {
		g, err := wire.DecodeGreeting(conn)
		if err != nil {
			return err
		}
		greeting = g
		return nil
	}); err != nil {
		_ = conn.Close()
		return nil, toAsyncErr("client_async.greeting", timeout, err)
	}
	if greeting.APIVersion != wire.APIVersion {
		_ = conn.Close()
		return nil, rvideoerr.NewAPIVersion(greeting.APIVersion)
	}
	c.streamsAvailable = greeting.StreamsAvailable
	return c, nil
}

// StreamsAvailable reports how many streams the server advertised in its
// greeting.
func (c *ClientAsync) StreamsAvailable() uint16 { return c.streamsAvailable }

// SelectStream is the cooperative-suspension equivalent of
// Client.SelectStream.
func (c *ClientAsync) SelectStream(ctx context.Context, streamID uint16, maxFPS uint8) (StreamInfo, error) {
	const op = "client_async.select_stream"
	if err := suspend(ctx, c.conn, c.timeout, op+".write", func() error {
		if _, err := c.conn.Write(wire.EncodeStreamSelect(wire.StreamSelect{StreamID: streamID, MaxFPS: maxFPS})); err != nil {
			return rvideoerr.NewIO(op+".write", err)
		}
		return nil
	}); err != nil {
		return StreamInfo{}, toAsyncErr(op+".write", c.timeout, err)
	}

	var info wire.StreamInfo
	if err := suspend(ctx, c.conn, c.timeout, op+".read", func() error {
		i, err := wire.DecodeStreamInfo(c.conn)
		if err != nil {
			return err
		}
		info = i
		return nil
	}); err != nil {
		return StreamInfo{}, toAsyncErr(op+".read", c.timeout, err)
	}
	if info.ID != streamID {
		return StreamInfo{}, rvideoerr.NewInvalidStream(op, nil)
	}
	c.ready = true
	return info, nil
}

// NextFrame is the cooperative-suspension equivalent of Client.NextFrame.
func (c *ClientAsync) NextFrame(ctx context.Context) (Frame, error) {
	if !c.ready {
		return Frame{}, rvideoerr.NewNotReady()
	}
	const op = "client_async.next_frame"
	var frame wire.Frame
	err := suspend(ctx, c.conn, c.timeout, op, func() error {
		f, err := wire.DecodeFrame(c.conn)
		if err != nil {
			return err
		}
		frame = f
		return nil
	})
	if err != nil {
		return Frame{}, toAsyncErr(op, c.timeout, err)
	}
	return frame, nil
}

// Close closes the underlying connection, aborting any in-flight
// suspended operation.
func (c *ClientAsync) Close() error {
	return c.conn.Close()
}

// suspend bounds fn's blocking socket call by setting conn's deadline to
// timeout, then runs fn on its own goroutine. The caller suspends on a
// select between fn's completion and ctx cancellation; canceling ctx
// forces the deadline into the past so the blocked syscall unblocks
// immediately instead of waiting out the full timeout.
func suspend(ctx context.Context, conn net.Conn, timeout time.Duration, op string, fn func() error) error {
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return rvideoerr.NewIO(op, err)
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = conn.SetDeadline(time.Now())
		<-done // wait for fn to observe the forced deadline and return
		return ctx.Err()
	}
}

func toAsyncErr(op string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if err == context.DeadlineExceeded || err == context.Canceled || rvideoerr.IsTimeout(err) {
		return rvideoerr.NewAsyncTimeout(op, timeout, err)
	}
	return err
}

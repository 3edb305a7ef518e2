// Package integration exercises the broadcast server and client end to end,
// covering the literal wire scenarios laid out in the protocol
// specification: exact handshake/frame bytes, metadata framing, rate
// limiting, invalid stream selection, stream exhaustion and API version
// rejection.
package integration

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/alxayo/go-rvideo"
	"github.com/alxayo/go-rvideo/internal/rvideoerr"
)

func mustStream(t *testing.T, s *rvideo.Server, format rvideo.Format, width, height uint16) *rvideo.Stream {
	t.Helper()
	stream, err := s.AddStream(format, width, height)
	if err != nil {
		t.Fatalf("AddStream: %v", err)
	}
	return stream
}

func startServer(t *testing.T) *rvideo.Server {
	t.Helper()
	s := rvideo.NewServer(2 * time.Second)
	if err := s.Serve("127.0.0.1:0"); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

// Scenario 1: single client, single Rgb8 4x2 stream, one 24-byte frame,
// exact greeting/StreamInfo/frame bytes.
func TestScenarioSingleClientSingleStream(t *testing.T) {
	s := startServer(t)
	stream := mustStream(t, s, rvideo.Rgb8, 4, 2)

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	greeting := make([]byte, 4)
	if _, err := io.ReadFull(conn, greeting); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if want := []byte{0x52, 0x01, 0x01, 0x00}; !bytes.Equal(greeting, want) {
		t.Fatalf("greeting = % x, want % x", greeting, want)
	}

	if _, err := conn.Write([]byte{0x00, 0x00, 0x05}); err != nil { // StreamSelect{id:0, max_fps:5}
		t.Fatalf("write stream select: %v", err)
	}
	info := make([]byte, 7)
	if _, err := io.ReadFull(conn, info); err != nil {
		t.Fatalf("read stream info: %v", err)
	}
	if want := []byte{0x00, 0x00, 0x04, 0x04, 0x00, 0x02, 0x00}; !bytes.Equal(info, want) {
		t.Fatalf("stream info = % x, want % x", info, want)
	}

	data := make([]byte, 24)
	for i := range data {
		data[i] = byte(i + 1)
	}
	if err := stream.SendFrame(rvideo.Frame{Data: data}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	frame := make([]byte, 8+24)
	if _, err := io.ReadFull(conn, frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	wantPrefix := []byte{0x00, 0x00, 0x00, 0x00, 0x18, 0x00, 0x00, 0x00}
	if !bytes.Equal(frame[:8], wantPrefix) {
		t.Fatalf("frame prefix = % x, want % x", frame[:8], wantPrefix)
	}
	if !bytes.Equal(frame[8:], data) {
		t.Fatalf("frame data = % x, want % x", frame[8:], data)
	}
}

// Scenario 2: frame with 3-byte metadata and 1-byte data.
func TestScenarioMetadataPresent(t *testing.T) {
	s := startServer(t)
	stream := mustStream(t, s, rvideo.Luma8, 1, 1)

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := io.ReadFull(conn, make([]byte, 4)); err != nil { // greeting
		t.Fatalf("read greeting: %v", err)
	}
	if _, err := conn.Write([]byte{0x00, 0x00, 0x00}); err != nil {
		t.Fatalf("write stream select: %v", err)
	}
	if _, err := io.ReadFull(conn, make([]byte, 7)); err != nil { // stream info
		t.Fatalf("read stream info: %v", err)
	}

	if err := stream.SendFrame(rvideo.Frame{Metadata: []byte{0xaa, 0xbb, 0xcc}, Data: []byte{0xff}}); err != nil {
		t.Fatalf("SendFrame: %v", err)
	}

	frame := make([]byte, 12)
	if _, err := io.ReadFull(conn, frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	want := []byte{0x03, 0x00, 0x00, 0x00, 0xaa, 0xbb, 0xcc, 0x01, 0x00, 0x00, 0x00, 0xff}
	if !bytes.Equal(frame, want) {
		t.Fatalf("frame = % x, want % x", frame, want)
	}
}

// Scenario 3: max_fps=1, five frames sent 100ms apart. Exactly one frame
// should be observed within the first second, and at most two within
// [0, 1.1s).
func TestScenarioRateLimitDrop(t *testing.T) {
	s := startServer(t)
	stream := mustStream(t, s, rvideo.Luma8, 1, 1)

	client, err := rvideo.Connect(s.Addr().String(), 1300*time.Millisecond)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer client.Close()
	if _, err := client.SelectStream(0, 1); err != nil {
		t.Fatalf("SelectStream: %v", err)
	}

	start := time.Now()
	go func() {
		for i := 0; i < 5; i++ {
			_ = stream.SendFrame(rvideo.Frame{Data: []byte{byte(i)}})
			time.Sleep(100 * time.Millisecond)
		}
	}()

	var timestamps []time.Duration
	deadline := time.Now().Add(1100 * time.Millisecond)
	for time.Now().Before(deadline) {
		frame, err := client.NextFrame()
		if err != nil {
			break
		}
		_ = frame
		timestamps = append(timestamps, time.Since(start))
	}

	within1s := 0
	for _, ts := range timestamps {
		if ts < time.Second {
			within1s++
		}
	}
	if within1s != 1 {
		t.Fatalf("frames observed within 1s = %d, want exactly 1 (all: %v)", within1s, timestamps)
	}
	if len(timestamps) > 2 {
		t.Fatalf("frames observed within 1.1s = %d, want at most 2 (all: %v)", len(timestamps), timestamps)
	}
}

// Scenario 4: selecting an unknown stream id closes the connection without
// a StreamInfo reply.
func TestScenarioInvalidStream(t *testing.T) {
	s := startServer(t)
	mustStream(t, s, rvideo.Luma8, 1, 1)

	conn, err := net.DialTimeout("tcp", s.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := io.ReadFull(conn, make([]byte, 4)); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if _, err := conn.Write([]byte{0x07, 0x00, 0x0a}); err != nil { // StreamSelect{id:7, max_fps:10}
		t.Fatalf("write stream select: %v", err)
	}
	buf := make([]byte, 7)
	if _, err := io.ReadFull(conn, buf); err == nil {
		t.Fatalf("expected read to fail after invalid stream select, got bytes % x", buf)
	}
}

// Scenario 5: the 65,536th add_stream call fails with TooManyStreams.
func TestScenarioTooManyStreams(t *testing.T) {
	s := rvideo.NewServer(time.Second)
	for i := 0; i < 65535; i++ {
		if _, err := s.AddStream(rvideo.Luma8, 1, 1); err != nil {
			t.Fatalf("AddStream #%d: %v", i, err)
		}
	}
	if s.StreamCount() != 65535 {
		t.Fatalf("StreamCount = %d, want 65535", s.StreamCount())
	}
	_, err := s.AddStream(rvideo.Luma8, 1, 1)
	if err == nil {
		t.Fatalf("expected the 65536th AddStream to fail")
	}
	if !rvideoerr.IsRvideoError(err) {
		t.Fatalf("expected an rvideo error, got %v", err)
	}
	var tooMany *rvideo.TooManyStreamsError
	if !errors.As(err, &tooMany) {
		t.Fatalf("expected TooManyStreamsError, got %v (%T)", err, err)
	}
}

// Scenario 6: a greeting advertising api_version=2 is rejected by Connect.
func TestScenarioBadAPIVersion(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Write([]byte{0x52, 0x02, 0x00, 0x00})
	}()

	_, err = rvideo.Connect(ln.Addr().String(), time.Second)
	if err == nil {
		t.Fatalf("expected Connect to fail on bad api version")
	}
	var apiErr *rvideo.APIVersionError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIVersionError, got %v (%T)", err, err)
	}
	if apiErr.Version != 2 {
		t.Fatalf("APIVersionError.Version = %d, want 2", apiErr.Version)
	}
}

package main

import (
	"log/slog"
	"time"

	"github.com/alxayo/go-rvideo"
)

// runDemoProducer drives stream with a synthetic solid-color test pattern:
// one frame every 200 ms, each in the next color of a four-color palette. It exists only
// so -demo gives operators a runnable binary to point a client at; example
// producers are explicitly out of scope for the core, so this stays
// deliberately trivial and lives entirely in the command, not the library.
func runDemoProducer(stream *rvideo.Stream, format rvideo.Format, width, height uint16, log *slog.Logger) {
	bpp := bytesPerPixel(format)
	frameSize := int(width) * int(height) * bpp
	palette := [][3]byte{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}, {255, 255, 0}}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	var frameNumber uint64
	for range ticker.C {
		color := palette[int(frameNumber)%len(palette)]
		data := make([]byte, frameSize)
		fillSolid(data, bpp, color)
		if err := stream.SendFrame(rvideo.Frame{Data: data}); err != nil {
			log.Warn("demo producer send_frame failed", "stream_id", stream.ID(), "error", err)
		}
		frameNumber++
	}
}

func fillSolid(data []byte, bpp int, color [3]byte) {
	for i := 0; i+bpp <= len(data); i += bpp {
		switch bpp {
		case 1:
			data[i] = color[0]
		case 2:
			data[i] = color[0]
			data[i+1] = color[1]
		case 3:
			data[i] = color[0]
			data[i+1] = color[1]
			data[i+2] = color[2]
		case 4:
			data[i] = color[0]
			data[i+1] = color[1]
			data[i+2] = color[2]
			data[i+3] = 0xff
		default:
			data[i] = color[0]
		}
	}
}

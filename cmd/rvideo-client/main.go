package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/leaanthony/clir"
	"github.com/rotisserie/eris"

	"github.com/alxayo/go-rvideo"
	"github.com/alxayo/go-rvideo/bbox"
	"github.com/alxayo/go-rvideo/internal/logger"
)

var version = "dev"

func main() {
	var addr string
	var timeoutSeconds int
	var streamID int
	var maxFPS int
	var outDir string

	cli := clir.NewCli("rvideo-client", "Connect to an rvideo broadcast server", version)

	infoCmd := cli.NewSubCommand("info", "Print the number of streams a server has available")
	infoCmd.StringFlag("addr", "Server address, host:port", &addr)
	infoCmd.IntFlag("timeout", "Connect/read timeout in seconds", &timeoutSeconds)
	infoCmd.Action(func() error {
		return runInfo(addr, timeoutOrDefault(timeoutSeconds))
	})

	watchCmd := cli.NewSubCommand("watch", "Select a stream and save incoming frames to disk")
	watchCmd.StringFlag("addr", "Server address, host:port", &addr)
	watchCmd.IntFlag("timeout", "Connect/read timeout in seconds", &timeoutSeconds)
	watchCmd.IntFlag("stream", "Stream ID to select", &streamID)
	watchCmd.IntFlag("max-fps", "Maximum frames per second to receive, 0 for unlimited", &maxFPS)
	watchCmd.StringFlag("out", "Directory to write sequentially numbered frame files into", &outDir)
	watchCmd.Action(func() error {
		return runWatch(addr, timeoutOrDefault(timeoutSeconds), uint16(streamID), uint8(maxFPS), outDirOrDefault(outDir))
	})

	if err := cli.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func timeoutOrDefault(seconds int) time.Duration {
	if seconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(seconds) * time.Second
}

func outDirOrDefault(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func runInfo(addr string, timeout time.Duration) error {
	if addr == "" {
		return eris.New("-addr is required")
	}
	client, err := rvideo.Connect(addr, timeout)
	if err != nil {
		return eris.Wrapf(err, "failed to connect to %s", addr)
	}
	defer client.Close()

	fmt.Printf("streams available: %d\n", client.StreamsAvailable())
	return nil
}

// runWatch connects, selects streamID, and writes every frame's data to a
// sequentially numbered file under outDir (frame-000000.bin, frame-000001.bin,
// ...). When a frame carries metadata, it is decoded as the .bboxes
// convention and any bounding boxes found are logged.
func runWatch(addr string, timeout time.Duration, streamID uint16, maxFPS uint8, outDir string) error {
	if addr == "" {
		return eris.New("-addr is required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return eris.Wrapf(err, "failed to create output directory %s", outDir)
	}

	client, err := rvideo.Connect(addr, timeout)
	if err != nil {
		return eris.Wrapf(err, "failed to connect to %s", addr)
	}
	defer client.Close()

	info, err := client.SelectStream(streamID, maxFPS)
	if err != nil {
		return eris.Wrapf(err, "failed to select stream %d", streamID)
	}
	log := logger.Logger().With("component", "rvideo-client", "stream_id", info.ID)
	log.Info("watching stream", "format", info.Format.String(), "width", info.Width, "height", info.Height, "out_dir", outDir)

	for frameNumber := 0; ; frameNumber++ {
		frame, err := client.NextFrame()
		if err != nil {
			return eris.Wrap(err, "reading next frame")
		}

		path := filepath.Join(outDir, fmt.Sprintf("frame-%06d.bin", frameNumber))
		if err := os.WriteFile(path, frame.Data, 0o644); err != nil {
			return eris.Wrapf(err, "failed to write %s", path)
		}
		log.Info("frame written", "frame_number", frameNumber, "path", path, "bytes", len(frame.Data))

		if len(frame.Metadata) > 0 {
			logBoxes(log, frameNumber, frame.Metadata)
		}
	}
}

func logBoxes(log *slog.Logger, frameNumber int, metadata []byte) {
	meta, err := bbox.Decode(metadata)
	if err != nil {
		log.Warn("frame metadata is not .bboxes msgpack", "frame_number", frameNumber, "error", err)
		return
	}
	for _, box := range meta.Boxes {
		log.Info("bounding box", "frame_number", frameNumber, "color", box.Color, "x", box.X, "y", box.Y, "width", box.Width, "height", box.Height)
	}
}

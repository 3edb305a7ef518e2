package main

import (
	"fmt"

	"github.com/alxayo/go-rvideo"
)

var formatsByName = map[string]rvideo.Format{
	"luma8":   rvideo.Luma8,
	"luma16":  rvideo.Luma16,
	"lumaa8":  rvideo.LumaA8,
	"lumaa16": rvideo.LumaA16,
	"rgb8":    rvideo.Rgb8,
	"rgb16":   rvideo.Rgb16,
	"rgba8":   rvideo.Rgba8,
	"rgba16":  rvideo.Rgba16,
	"mjpeg":   rvideo.MJpeg,
}

func resolveFormat(name string) (rvideo.Format, error) {
	f, ok := formatsByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown stream format %q", name)
	}
	return f, nil
}

func bytesPerPixel(f rvideo.Format) int {
	switch f {
	case rvideo.Luma8:
		return 1
	case rvideo.Luma16, rvideo.LumaA8:
		return 2
	case rvideo.LumaA16:
		return 4
	case rvideo.Rgb8:
		return 3
	case rvideo.Rgb16:
		return 6
	case rvideo.Rgba8:
		return 4
	case rvideo.Rgba16:
		return 8
	default:
		return 1
	}
}

package rvideo

import "github.com/alxayo/go-rvideo/internal/rvideoerr"

// Error types re-exported from the internal taxonomy so callers can use
// errors.As against a concrete *rvideo.XxxError without importing an
// internal package.
type (
	InvalidStreamError         = rvideoerr.InvalidStreamError
	TooManyStreamsError        = rvideoerr.TooManyStreamsError
	IOError                    = rvideoerr.IOError
	APIVersionError            = rvideoerr.APIVersionError
	DecodeError                = rvideoerr.DecodeError
	FrameMetaDataTooLargeError = rvideoerr.FrameMetaDataTooLargeError
	FrameDataTooLargeError     = rvideoerr.FrameDataTooLargeError
	InvalidAddressError        = rvideoerr.InvalidAddressError
	NotReadyError              = rvideoerr.NotReadyError
	AsyncTimeoutError          = rvideoerr.AsyncTimeoutError
)

// IsTimeout reports whether err is, or wraps, a timeout: an
// AsyncTimeoutError, a context deadline, or any error exposing
// Timeout() bool == true.
func IsTimeout(err error) bool { return rvideoerr.IsTimeout(err) }

// IsInvalidStream reports whether err is, or wraps, an InvalidStreamError.
func IsInvalidStream(err error) bool { return rvideoerr.IsInvalidStream(err) }

// IsNotReady reports whether err is, or wraps, a NotReadyError.
func IsNotReady(err error) bool { return rvideoerr.IsNotReady(err) }

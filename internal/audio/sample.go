package audio

import (
	"errors"
	"time"
)

// ErrInvalidAudio marks payloads that cannot be evaluated: undecodable
// bytes, unsupported formats, or recordings shorter than the minimum
// duration. It is the only pipeline error surfaced to the caller as a
// request error.
var ErrInvalidAudio = errors.New("invalid audio payload")

// Sample is the uniform in-memory representation of an uploaded answer:
// mono float64 PCM at the target sample rate, plus the original encoded
// bytes for the transcription service. It is owned by a single request
// and discarded when the request completes.
type Sample struct {
	PCM        []float64
	SampleRate int
	Duration   time.Duration
	Encoded    []byte
	MIMEType   string
}

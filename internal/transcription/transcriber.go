// Package transcription adapts external speech-to-text services into a
// uniform Transcript. Adapters normalize vendor responses through a strict
// validate-then-construct step; callers never see vendor payload shapes.
package transcription

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable covers transport failures, timeouts and 5xx responses.
	// The adapter retries these verbatim before giving up.
	ErrUnavailable = errors.New("transcription service unavailable")

	// ErrEmpty is a well-formed response containing no recognized speech.
	// Not retryable.
	ErrEmpty = errors.New("transcription returned no speech")
)

// Word carries per-word timing and confidence from the recognizer.
type Word struct {
	Word       string  `json:"word"`
	StartSec   float64 `json:"start"`
	EndSec     float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Transcript is the normalized speech-to-text result. Fillers lists
// hesitation markers ("uh", "um") the recognizer flagged, for the judge
// prompt to reference.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
	Fillers    []string `json:"fillers,omitempty"`
}

// Transcriber submits encoded audio for transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (*Transcript, error)
}

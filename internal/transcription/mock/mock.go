// Package mock provides a scriptable Transcriber for tests.
package mock

import (
	"context"

	"github.com/lujip/citu-speech-evaluation/internal/transcription"
)

type Transcriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, mimeType string) (*transcription.Transcript, error)
	Calls          int
}

func (m *Transcriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (*transcription.Transcript, error) {
	m.Calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, mimeType)
	}
	return &transcription.Transcript{Text: "mock transcript", Confidence: 0.99}, nil
}

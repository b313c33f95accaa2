package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/pkg/logger"
)

// Decoder validates and decodes uploaded audio into a Sample. Supported
// formats: WAV (any PCM bit depth go-audio handles) and raw little-endian
// 16-bit mono PCM already at the target rate.
type Decoder struct {
	TargetSampleRate int
	MinDuration      time.Duration
	MaxBytes         int
}

func NewDecoder(targetSampleRate, minDurationMS, maxBytes int) *Decoder {
	return &Decoder{
		TargetSampleRate: targetSampleRate,
		MinDuration:      time.Duration(minDurationMS) * time.Millisecond,
		MaxBytes:         maxBytes,
	}
}

// Decode turns an encoded payload into a mono Sample at the target sample
// rate, resampling and downmixing as needed. format is the caller's hint
// ("wav" or "pcm16"); an empty hint falls back to RIFF header sniffing.
func (d *Decoder) Decode(payload []byte, format string) (*Sample, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidAudio)
	}
	if d.MaxBytes > 0 && len(payload) > d.MaxBytes {
		return nil, fmt.Errorf("%w: payload exceeds %d bytes", ErrInvalidAudio, d.MaxBytes)
	}

	if format == "" {
		if isRIFF(payload) {
			format = "wav"
		} else {
			return nil, fmt.Errorf("%w: unknown format, no hint provided", ErrInvalidAudio)
		}
	}

	var (
		pcm      []float64
		srcRate  int
		channels int
		mimeType string
		err      error
	)

	switch format {
	case "wav", "audio/wav", "audio/x-wav":
		pcm, srcRate, channels, err = decodeWAV(payload)
		mimeType = "audio/wav"
	case "pcm16", "audio/pcm":
		pcm, srcRate, channels = decodePCM16(payload), d.TargetSampleRate, 1
		mimeType = "audio/pcm"
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidAudio, format)
	}
	if err != nil {
		return nil, err
	}

	if channels > 1 {
		pcm = DownmixMono(pcm, channels)
	}
	if srcRate != d.TargetSampleRate {
		pcm = Resample(pcm, srcRate, d.TargetSampleRate)
	}

	duration := time.Duration(float64(len(pcm)) / float64(d.TargetSampleRate) * float64(time.Second))
	if duration < d.MinDuration {
		return nil, fmt.Errorf("%w: duration %v below minimum %v", ErrInvalidAudio, duration, d.MinDuration)
	}

	logger.Debug("audio decoded",
		zap.String("format", format),
		zap.Int("source_rate", srcRate),
		zap.Int("source_channels", channels),
		zap.Duration("duration", duration),
	)

	return &Sample{
		PCM:        pcm,
		SampleRate: d.TargetSampleRate,
		Duration:   duration,
		Encoded:    payload,
		MIMEType:   mimeType,
	}, nil
}

func decodeWAV(payload []byte) ([]float64, int, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(payload))
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: not a valid WAV file", ErrInvalidAudio)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%w: wav decode: %v", ErrInvalidAudio, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, 0, fmt.Errorf("%w: wav file contains no samples", ErrInvalidAudio)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := math.Pow(2, float64(bitDepth-1))

	pcm := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = float64(v) / scale
	}

	return pcm, buf.Format.SampleRate, buf.Format.NumChannels, nil
}

// decodePCM16 interprets raw little-endian int16 mono samples, assumed to
// already be at the target rate. A trailing odd byte is dropped.
func decodePCM16(payload []byte) []float64 {
	n := len(payload) / 2
	pcm := make([]float64, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(payload[i*2:]))
		pcm[i] = float64(s) / 32768.0
	}
	return pcm
}

func isRIFF(payload []byte) bool {
	return len(payload) >= 12 &&
		bytes.Equal(payload[0:4], []byte("RIFF")) &&
		bytes.Equal(payload[8:12], []byte("WAVE"))
}

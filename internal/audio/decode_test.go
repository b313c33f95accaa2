package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

// buildWAV assembles a minimal PCM16 WAV file from int16 samples.
func buildWAV(samples []int16, sampleRate, channels int) []byte {
	var data bytes.Buffer
	for _, s := range samples {
		binary.Write(&data, binary.LittleEndian, s)
	}

	blockAlign := channels * 2
	byteRate := sampleRate * blockAlign

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func sineInt16(freq float64, rate int, dur time.Duration, amp float64) []int16 {
	n := int(float64(rate) * dur.Seconds())
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestDecodeWAV(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)
	payload := buildWAV(sineInt16(220, 16000, time.Second, 0.5), 16000, 1)

	sample, err := dec.Decode(payload, "wav")
	if err != nil {
		t.Fatal(err)
	}
	if sample.SampleRate != 16000 {
		t.Errorf("sample rate: got %d, want 16000", sample.SampleRate)
	}
	if got := sample.Duration; got < 990*time.Millisecond || got > 1010*time.Millisecond {
		t.Errorf("duration: got %v, want ~1s", got)
	}
	if !bytes.Equal(sample.Encoded, payload) {
		t.Error("encoded payload should be preserved on the sample")
	}
}

func TestDecodeWAVResamplesAndDownmixes(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)

	// Stereo 48 kHz source: must come out mono at 16 kHz.
	mono := sineInt16(220, 48000, time.Second, 0.5)
	stereo := make([]int16, len(mono)*2)
	for i, s := range mono {
		stereo[i*2] = s
		stereo[i*2+1] = s
	}
	payload := buildWAV(stereo, 48000, 2)

	sample, err := dec.Decode(payload, "wav")
	if err != nil {
		t.Fatal(err)
	}
	wantLen := 16000
	if got := len(sample.PCM); got < wantLen-10 || got > wantLen+10 {
		t.Errorf("resampled length: got %d, want ~%d", got, wantLen)
	}
}

func TestDecodeSniffsRIFF(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)
	payload := buildWAV(sineInt16(220, 16000, time.Second, 0.5), 16000, 1)

	if _, err := dec.Decode(payload, ""); err != nil {
		t.Fatalf("RIFF payload without format hint should decode: %v", err)
	}
}

func TestDecodeRawPCM16(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)
	samples := sineInt16(220, 16000, time.Second, 0.5)
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}

	sample, err := dec.Decode(raw, "pcm16")
	if err != nil {
		t.Fatal(err)
	}
	if len(sample.PCM) != len(samples) {
		t.Errorf("pcm length: got %d, want %d", len(sample.PCM), len(samples))
	}
}

func TestDecodeRejectsTooShort(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)
	payload := buildWAV(sineInt16(220, 16000, 100*time.Millisecond, 0.5), 16000, 1)

	_, err := dec.Decode(payload, "wav")
	if !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("got %v, want ErrInvalidAudio", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	dec := NewDecoder(16000, 300, 0)
	for _, tc := range []struct {
		name    string
		payload []byte
		format  string
	}{
		{"empty", nil, "wav"},
		{"not wav", []byte("definitely not audio"), "wav"},
		{"unknown format", []byte{1, 2, 3, 4}, "ogg"},
		{"no hint no riff", []byte{1, 2, 3, 4}, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := dec.Decode(tc.payload, tc.format); !errors.Is(err, ErrInvalidAudio) {
				t.Fatalf("got %v, want ErrInvalidAudio", err)
			}
		})
	}
}

func TestDecodeRejectsOversized(t *testing.T) {
	dec := NewDecoder(16000, 300, 10)
	payload := buildWAV(sineInt16(220, 16000, time.Second, 0.5), 16000, 1)
	if _, err := dec.Decode(payload, "wav"); !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("got %v, want ErrInvalidAudio", err)
	}
}

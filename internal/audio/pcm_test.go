package audio

import (
	"math"
	"testing"
)

func TestDownmixMono(t *testing.T) {
	stereo := []float64{0.2, 0.4, -0.2, -0.4}
	mono := DownmixMono(stereo, 2)
	want := []float64{0.3, -0.3}
	if len(mono) != len(want) {
		t.Fatalf("length: got %d, want %d", len(mono), len(want))
	}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d: got %f, want %f", i, mono[i], want[i])
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	mono := []float64{0.1, 0.2}
	if got := DownmixMono(mono, 1); &got[0] != &mono[0] {
		t.Error("single channel input should be returned unchanged")
	}
}

func TestResampleSameRate(t *testing.T) {
	pcm := []float64{0.1, 0.2, 0.3}
	if got := Resample(pcm, 16000, 16000); len(got) != 3 {
		t.Fatalf("length: got %d, want 3", len(got))
	}
}

func TestResampleUpsample(t *testing.T) {
	pcm := []float64{0.0, 1.0}
	got := Resample(pcm, 8000, 16000)
	if len(got) != 4 {
		t.Fatalf("length: got %d, want 4", len(got))
	}
	if got[0] != 0.0 {
		t.Errorf("first sample: got %f, want 0", got[0])
	}
	// Interpolated midpoint between source samples.
	if math.Abs(got[1]-0.5) > 1e-12 {
		t.Errorf("interpolated sample: got %f, want 0.5", got[1])
	}
}

func TestResampleDownsample(t *testing.T) {
	pcm := make([]float64, 480)
	got := Resample(pcm, 48000, 16000)
	if len(got) != 160 {
		t.Fatalf("length: got %d, want 160", len(got))
	}
}

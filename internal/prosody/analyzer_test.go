package prosody

import (
	"math"
	"reflect"
	"testing"
)

const testRate = 16000

func sine(freq float64, seconds, amp float64) []float64 {
	n := int(testRate * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testRate)
	}
	return out
}

func silence(seconds float64) []float64 {
	return make([]float64, int(testRate*seconds))
}

func TestAnalyzePitchOnVoicedSignal(t *testing.T) {
	m := Analyze(sine(220, 2, 0.5), testRate)

	if m.InsufficientVoicing {
		t.Fatal("2s tone should have sufficient voiced frames")
	}
	if m.PitchMeanHz < 50 || m.PitchMeanHz > 500 {
		t.Fatalf("pitch mean %f outside plausible vocal range", m.PitchMeanHz)
	}
	if m.PitchMeanHz < 200 || m.PitchMeanHz > 240 {
		t.Errorf("pitch mean %f, want ~220", m.PitchMeanHz)
	}
	if m.PitchStddevHz > 20 {
		t.Errorf("pitch stddev %f too large for a steady tone", m.PitchStddevHz)
	}
	if m.PitchMeanHz <= 0 {
		t.Error("voiced signal must never report zero or negative pitch")
	}
}

func TestAnalyzeSilence(t *testing.T) {
	m := Analyze(silence(2), testRate)

	if !m.InsufficientVoicing {
		t.Error("silence should mark insufficient voicing")
	}
	if m.PitchMeanHz != 0 || m.PitchStddevHz != 0 {
		t.Errorf("silence should report zero pitch, got mean=%f stddev=%f", m.PitchMeanHz, m.PitchStddevHz)
	}
	if m.LoudnessDB != -100 {
		t.Errorf("silence loudness: got %f, want -100", m.LoudnessDB)
	}
	if m.PauseTotalMS <= 0 {
		t.Error("an all-silent recording should count as pause time")
	}
}

func TestAnalyzeDetectsPause(t *testing.T) {
	pcm := append(sine(220, 0.6, 0.5), silence(0.4)...)
	pcm = append(pcm, sine(220, 0.6, 0.5)...)

	m := Analyze(pcm, testRate)

	if m.PauseCount < 1 {
		t.Fatalf("pause count: got %d, want >= 1", m.PauseCount)
	}
	if m.PauseTotalMS < 250 {
		t.Errorf("pause total: got %fms, want >= 250ms", m.PauseTotalMS)
	}
}

func TestAnalyzeIgnoresShortGaps(t *testing.T) {
	// 100ms gap is below the 200ms pause threshold.
	pcm := append(sine(220, 0.6, 0.5), silence(0.1)...)
	pcm = append(pcm, sine(220, 0.6, 0.5)...)

	m := Analyze(pcm, testRate)
	if m.PauseCount != 0 {
		t.Errorf("pause count: got %d, want 0 for a 100ms gap", m.PauseCount)
	}
}

func TestAnalyzeSpeakingRateOnModulatedSignal(t *testing.T) {
	// Amplitude modulation at ~3 Hz mimics syllable nuclei.
	n := testRate * 2
	pcm := make([]float64, n)
	for i := range pcm {
		tSec := float64(i) / testRate
		env := math.Abs(math.Sin(2 * math.Pi * 1.5 * tSec))
		pcm[i] = 0.5 * env * math.Sin(2*math.Pi*220*tSec)
	}

	m := Analyze(pcm, testRate)
	if m.SpeakingRate <= 0 {
		t.Errorf("speaking rate: got %f, want > 0 for modulated speech-like signal", m.SpeakingRate)
	}
	if math.IsNaN(m.SpeakingRate) || math.IsInf(m.SpeakingRate, 0) {
		t.Errorf("speaking rate must be finite, got %f", m.SpeakingRate)
	}
}

func TestAnalyzeLoudness(t *testing.T) {
	loud := Analyze(sine(220, 1, 0.5), testRate)
	quiet := Analyze(sine(220, 1, 0.05), testRate)

	if loud.LoudnessDB <= quiet.LoudnessDB {
		t.Errorf("louder signal should have higher dB: %f vs %f", loud.LoudnessDB, quiet.LoudnessDB)
	}
	if loud.LoudnessDB > 0 {
		t.Errorf("dBFS of a half-scale tone must be negative, got %f", loud.LoudnessDB)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	pcm := append(sine(180, 1.2, 0.4), silence(0.3)...)
	pcm = append(pcm, sine(240, 0.8, 0.6)...)

	a := Analyze(pcm, testRate)
	b := Analyze(pcm, testRate)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("identical input produced different metrics:\n%+v\n%+v", a, b)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	m := Analyze(nil, testRate)
	if !m.InsufficientVoicing {
		t.Error("empty input should mark insufficient voicing")
	}
	m = Analyze([]float64{0.1}, 0)
	if !m.InsufficientVoicing {
		t.Error("zero sample rate should mark insufficient voicing")
	}
}

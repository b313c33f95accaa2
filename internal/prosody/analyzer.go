// Package prosody derives delivery metrics (pitch, speaking rate, pauses,
// loudness) from decoded PCM. The analysis is pure float math over the
// sample buffer, so identical input always produces identical metrics.
package prosody

import (
	"math"
	"time"
)

// Analyzer frame parameters. 40 ms frames with a 10 ms hop cover the
// 50 Hz lower bound of the pitch search range at 16 kHz.
const (
	frameDuration = 40 * time.Millisecond
	hopDuration   = 10 * time.Millisecond

	pitchMinHz = 50.0
	pitchMaxHz = 500.0

	// voicingThreshold is the minimum normalized autocorrelation peak for
	// a frame to count as voiced.
	voicingThreshold = 0.45

	// minVoicedFrames below which pitch statistics are not reported.
	minVoicedFrames = 3

	// minPauseDuration is the shortest low-energy run reported as a pause.
	minPauseDuration = 200 * time.Millisecond

	// minPeakGap separates counted syllable-proxy energy peaks.
	minPeakGap = 100 * time.Millisecond

	silenceFloorDB = -100.0
)

// Metrics are the derived delivery statistics for one recording.
// InsufficientVoicing is set when too few voiced frames exist to estimate
// pitch (near-silent input); the pitch fields are zero in that case.
type Metrics struct {
	PitchMeanHz         float64 `json:"pitch_mean"`
	PitchStddevHz       float64 `json:"pitch_stddev"`
	SpeakingRate        float64 `json:"speaking_rate"`
	PauseCount          int     `json:"pause_count"`
	PauseTotalMS        float64 `json:"pause_total_ms"`
	LoudnessDB          float64 `json:"loudness_db"`
	DurationMS          float64 `json:"duration_ms"`
	InsufficientVoicing bool    `json:"insufficient_voicing"`
}

// Analyze computes Metrics for mono PCM at the given sample rate. It never
// fails on decoded audio: degenerate input yields best-effort metrics with
// InsufficientVoicing set.
//
// Speaking rate uses an energy-peak syllable proxy (counting peaks of the
// smoothed frame-energy envelope over the speech portion) rather than the
// transcript word count, which keeps the analyzer free of any dependency
// on the transcription service.
func Analyze(pcm []float64, sampleRate int) Metrics {
	m := Metrics{LoudnessDB: silenceFloorDB, InsufficientVoicing: true}
	if sampleRate <= 0 || len(pcm) == 0 {
		return m
	}

	durationSec := float64(len(pcm)) / float64(sampleRate)
	m.DurationMS = durationSec * 1000

	m.LoudnessDB = loudnessDB(pcm)

	frameLen := int(frameDuration.Seconds() * float64(sampleRate))
	hop := int(hopDuration.Seconds() * float64(sampleRate))
	if frameLen > len(pcm) {
		frameLen = len(pcm)
	}
	if hop <= 0 {
		hop = 1
	}

	energies := frameEnergies(pcm, frameLen, hop)
	if len(energies) == 0 {
		return m
	}

	peak := 0.0
	for _, e := range energies {
		if e > peak {
			peak = e
		}
	}

	silenceThr := math.Max(1e-4, 0.05*peak)
	silent := make([]bool, len(energies))
	for i, e := range energies {
		silent[i] = e < silenceThr
	}

	hopSec := float64(hop) / float64(sampleRate)
	m.PauseCount, m.PauseTotalMS = detectPauses(silent, hopSec)

	voicedEnergyThr := math.Max(2*silenceThr, 0.1*peak)
	var pitches []float64
	for i := range energies {
		if energies[i] < voicedEnergyThr {
			continue
		}
		start := i * hop
		end := start + frameLen
		if end > len(pcm) {
			break
		}
		if f0, ok := estimateF0(pcm[start:end], sampleRate); ok {
			pitches = append(pitches, f0)
		}
	}

	if len(pitches) >= minVoicedFrames {
		m.InsufficientVoicing = false
		m.PitchMeanHz, m.PitchStddevHz = meanStddev(pitches)
	}

	speechSec := durationSec - m.PauseTotalMS/1000
	if speechSec > 0 {
		peaks := countEnergyPeaks(energies, silent, hop, sampleRate)
		m.SpeakingRate = float64(peaks) / speechSec * 60
	}

	return m
}

func frameEnergies(pcm []float64, frameLen, hop int) []float64 {
	var energies []float64
	for start := 0; start+frameLen <= len(pcm); start += hop {
		energies = append(energies, rms(pcm[start:start+frameLen]))
	}
	if len(energies) == 0 && len(pcm) > 0 {
		energies = []float64{rms(pcm)}
	}
	return energies
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func loudnessDB(pcm []float64) float64 {
	r := rms(pcm)
	if r <= 0 {
		return silenceFloorDB
	}
	db := 20 * math.Log10(r)
	if db < silenceFloorDB {
		db = silenceFloorDB
	}
	return db
}

// detectPauses counts contiguous silent-frame runs of at least
// minPauseDuration, including leading and trailing silence.
func detectPauses(silent []bool, hopSec float64) (count int, totalMS float64) {
	minFrames := int(minPauseDuration.Seconds()/hopSec + 0.5)
	if minFrames < 1 {
		minFrames = 1
	}

	run := 0
	flush := func() {
		if run >= minFrames {
			count++
			totalMS += float64(run) * hopSec * 1000
		}
		run = 0
	}
	for _, s := range silent {
		if s {
			run++
		} else {
			flush()
		}
	}
	flush()
	return count, totalMS
}

// estimateF0 returns the fundamental frequency of a frame via normalized
// autocorrelation, or ok=false when the frame is unvoiced. Among lags whose
// correlation sits within a small margin of the maximum, the smallest lag
// wins, which suppresses octave errors on strongly periodic frames.
func estimateF0(frame []float64, sampleRate int) (float64, bool) {
	minLag := int(float64(sampleRate)/pitchMaxHz + 0.5)
	maxLag := int(float64(sampleRate)/pitchMinHz + 0.5)
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 || minLag >= maxLag {
		return 0, false
	}

	mean := 0.0
	for _, v := range frame {
		mean += v
	}
	mean /= float64(len(frame))

	x := make([]float64, len(frame))
	for i, v := range frame {
		x[i] = v - mean
	}

	corr := make([]float64, maxLag+1)
	maxCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var dot, e0, e1 float64
		n := len(x) - lag
		for i := 0; i < n; i++ {
			dot += x[i] * x[i+lag]
			e0 += x[i] * x[i]
			e1 += x[i+lag] * x[i+lag]
		}
		if e0 <= 0 || e1 <= 0 {
			continue
		}
		c := dot / math.Sqrt(e0*e1)
		corr[lag] = c
		if c > maxCorr {
			maxCorr = c
		}
	}

	if maxCorr < voicingThreshold {
		return 0, false
	}

	for lag := minLag; lag <= maxLag; lag++ {
		if corr[lag] >= maxCorr-0.02 {
			return float64(sampleRate) / float64(lag), true
		}
	}
	return 0, false
}

// countEnergyPeaks counts local maxima of the smoothed energy envelope over
// non-silent frames, as a syllable-nucleus proxy.
func countEnergyPeaks(energies []float64, silent []bool, hop, sampleRate int) int {
	env := smooth(energies, 5)

	var sum float64
	speech := 0
	for i, e := range env {
		if !silent[i] {
			sum += e
			speech++
		}
	}
	if speech == 0 {
		return 0
	}
	threshold := 0.5 * (sum / float64(speech))

	hopSec := float64(hop) / float64(sampleRate)
	gapFrames := int(minPeakGap.Seconds()/hopSec + 0.5)
	if gapFrames < 1 {
		gapFrames = 1
	}

	peaks := 0
	lastPeak := -gapFrames
	for i := 1; i < len(env)-1; i++ {
		if silent[i] || env[i] < threshold {
			continue
		}
		if env[i] > env[i-1] && env[i] >= env[i+1] && i-lastPeak >= gapFrames {
			peaks++
			lastPeak = i
		}
	}
	return peaks
}

func smooth(x []float64, window int) []float64 {
	if window <= 1 || len(x) == 0 {
		return x
	}
	half := window / 2
	out := make([]float64, len(x))
	for i := range x {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(x) {
			hi = len(x) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += x[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

func meanStddev(x []float64) (mean, stddev float64) {
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))

	var variance float64
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	return mean, math.Sqrt(variance)
}

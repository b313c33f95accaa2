package pipeline

import (
	"github.com/lujip/citu-speech-evaluation/internal/prosody"
	"github.com/lujip/citu-speech-evaluation/internal/transcription"
)

// Section names reported in Result.Failures when an upstream stage
// degraded the corresponding part of the response.
const (
	SectionTranscript   = "transcript"
	SectionAudioMetrics = "audio_metrics"
	SectionEvaluation   = "evaluation"
)

// Request is one evaluation job: the question asked, the keyword rubric,
// and the caller's encoded audio answer.
type Request struct {
	ID       string
	Question string
	Keywords []string
	Audio    []byte
	Format   string
}

// Evaluation is the judged portion of the result.
type Evaluation struct {
	Score  float64            `json:"score"`
	Scores map[string]float64 `json:"category_scores"`
}

// Result is the single composed response for one evaluation request.
// Sections degraded by upstream failures are nil and listed in Failures;
// they are never silently omitted.
type Result struct {
	ID           string                    `json:"id"`
	Transcript   *transcription.Transcript `json:"transcript"`
	AudioMetrics *prosody.Metrics          `json:"audio_metrics"`
	Evaluation   *Evaluation               `json:"evaluation"`
	Comment      string                    `json:"comment"`
	Failures     []string                  `json:"failures"`
}

// Degraded reports whether any section is unavailable.
func (r *Result) Degraded() bool {
	return len(r.Failures) > 0
}

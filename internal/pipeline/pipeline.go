// Package pipeline orchestrates one evaluation: decode the audio, run
// prosody analysis and transcription concurrently, judge the transcript,
// and compose exactly one result with explicit partial-failure markers.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lujip/citu-speech-evaluation/internal/audio"
	"github.com/lujip/citu-speech-evaluation/internal/judge"
	"github.com/lujip/citu-speech-evaluation/internal/metrics"
	"github.com/lujip/citu-speech-evaluation/internal/prosody"
	"github.com/lujip/citu-speech-evaluation/internal/transcription"
	"github.com/lujip/citu-speech-evaluation/pkg/logger"
	"github.com/lujip/citu-speech-evaluation/pkg/utils"
)

// Scorer is the judge surface the pipeline depends on.
type Scorer interface {
	Evaluate(ctx context.Context, question, transcript string, keywords []string) (*judge.Score, error)
}

// ResultCache is the optional dedup store for composed results;
// *redis.Client satisfies it.
type ResultCache interface {
	GetResult(ctx context.Context, key string, dest interface{}) (bool, error)
	SetResult(ctx context.Context, key string, result interface{}) error
}

// Runner wires the pipeline stages. Cache may be nil (dedup disabled).
type Runner struct {
	decoder     *audio.Decoder
	transcriber transcription.Transcriber
	scorer      Scorer
	cache       ResultCache
	timeout     time.Duration
}

func NewRunner(decoder *audio.Decoder, transcriber transcription.Transcriber, scorer Scorer, cache ResultCache) *Runner {
	return &Runner{
		decoder:     decoder,
		transcriber: transcriber,
		scorer:      scorer,
		cache:       cache,
		timeout:     90 * time.Second,
	}
}

// Evaluate runs the full pipeline for one request. Only audio.ErrInvalidAudio
// surfaces as an error; every other upstream failure degrades its section of
// the composed result. The external calls run on a context detached from the
// caller's cancellation: a client disconnect lets in-flight service calls
// finish, and the result is simply discarded by the transport layer.
func (r *Runner) Evaluate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	sample, err := r.decoder.Decode(req.Audio, req.Format)
	if err != nil {
		metrics.EvaluationTotal.WithLabelValues("invalid_audio").Inc()
		return nil, err
	}
	metrics.AudioDurationSeconds.Observe(sample.Duration.Seconds())

	cacheKey := r.cacheKey(req)
	if cached := r.cachedResult(ctx, cacheKey); cached != nil {
		// The stored result belongs to this request now, not to the one
		// that first produced it.
		cached.ID = req.ID
		metrics.EvaluationTotal.WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	var (
		audioMetrics prosody.Metrics
		transcript   *transcription.Transcript
		trErr        error
	)

	// Prosody analysis and transcription are independent; fork them and
	// join before judging. Neither stage's failure cancels the other.
	g := new(errgroup.Group)
	g.Go(func() error {
		stageStart := time.Now()
		audioMetrics = prosody.Analyze(sample.PCM, sample.SampleRate)
		metrics.StageDuration.WithLabelValues("prosody").Observe(time.Since(stageStart).Seconds())
		return nil
	})
	g.Go(func() error {
		stageStart := time.Now()
		transcript, trErr = r.transcriber.Transcribe(runCtx, sample.Encoded, sample.MIMEType)
		metrics.StageDuration.WithLabelValues("transcription").Observe(time.Since(stageStart).Seconds())
		return nil
	})
	_ = g.Wait()

	result := &Result{
		ID:           req.ID,
		AudioMetrics: &audioMetrics,
	}

	if trErr != nil {
		logger.Warn("transcription failed, degrading result",
			zap.String("request_id", req.ID),
			zap.Error(trErr),
		)
		metrics.StageFailures.WithLabelValues("transcription").Inc()
		// No transcript means the judge has nothing to score.
		result.Failures = append(result.Failures, SectionTranscript, SectionEvaluation)
	} else {
		result.Transcript = transcript
		r.judgeInto(runCtx, req, transcript.Text, result)
	}

	r.storeResult(runCtx, cacheKey, result)

	metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
	if result.Degraded() {
		metrics.EvaluationTotal.WithLabelValues("degraded").Inc()
	} else {
		metrics.EvaluationTotal.WithLabelValues("ok").Inc()
	}

	logger.Info("evaluation composed",
		zap.String("request_id", req.ID),
		zap.Duration("total", time.Since(start)),
		zap.Strings("failures", result.Failures),
	)
	return result, nil
}

func (r *Runner) judgeInto(ctx context.Context, req Request, transcriptText string, result *Result) {
	stageStart := time.Now()
	score, err := r.scorer.Evaluate(ctx, req.Question, transcriptText, req.Keywords)
	metrics.StageDuration.WithLabelValues("judge").Observe(time.Since(stageStart).Seconds())

	if err != nil {
		logger.Warn("judging failed, degrading result",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		metrics.StageFailures.WithLabelValues("judge").Inc()
		result.Failures = append(result.Failures, SectionEvaluation)
		return
	}

	result.Evaluation = &Evaluation{
		Score:  score.Overall,
		Scores: score.Criteria,
	}
	result.Comment = score.Comment
}

func (r *Runner) cacheKey(req Request) string {
	return utils.HashBytes(
		req.Audio,
		[]byte(req.Question),
		[]byte(strings.Join(req.Keywords, "\x00")),
	)
}

func (r *Runner) cachedResult(ctx context.Context, key string) *Result {
	if r.cache == nil {
		return nil
	}
	var cached Result
	found, err := r.cache.GetResult(ctx, key, &cached)
	if err != nil {
		logger.Warn("result cache read failed", zap.Error(err))
		return nil
	}
	if !found {
		metrics.CacheMisses.Inc()
		return nil
	}
	metrics.CacheHits.Inc()
	return &cached
}

func (r *Runner) storeResult(ctx context.Context, key string, result *Result) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetResult(ctx, key, result); err != nil {
		logger.Warn("result cache write failed", zap.Error(err))
	}
}

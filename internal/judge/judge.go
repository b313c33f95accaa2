// Package judge scores a transcribed answer against a question and keyword
// rubric using an external language model, validating the model's structured
// output before anything reaches the caller.
package judge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/internal/metrics"
	"github.com/lujip/citu-speech-evaluation/pkg/circuitbreaker"
	"github.com/lujip/citu-speech-evaluation/pkg/logger"
	"github.com/lujip/citu-speech-evaluation/pkg/retry"
)

// ErrJudgmentInvalid means the model's output failed validation even after
// the single repair retry. The caller degrades the evaluation section.
var ErrJudgmentInvalid = errors.New("judgment response invalid")

const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

// Criteria are the fixed scoring dimensions, following international
// speaking rubrics (IELTS, TOEFL, CEFR) plus rubric keyword coverage.
var Criteria = []string{
	"task_relevance",
	"grammar_lexis",
	"discourse_management",
	"pronunciation_fluency",
	"coherence_appropriateness",
	"keyword_coverage",
}

// Score is a validated judgment: per-criterion scores in [ScoreMin,
// ScoreMax], an overall score, and a free-text comment.
type Score struct {
	Overall  float64            `json:"score"`
	Criteria map[string]float64 `json:"category_scores"`
	Comment  string             `json:"comment"`
}

// ChatCompleter is the slice of the OpenAI client the judge needs;
// *openai.Client satisfies it.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Judge struct {
	client      ChatCompleter
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
	retryCfg    retry.Config
}

func New(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Judge {
	return NewWithCompleter(openai.NewClient(apiKey), model, temperature, maxTokens, timeoutSec)
}

// NewWithCompleter wires an explicit completion backend; tests inject a
// scripted one here.
func NewWithCompleter(client ChatCompleter, model string, temperature float32, maxTokens, timeoutSec int) *Judge {
	cb := circuitbreaker.New("judge", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryCfg := retry.DefaultConfig()
	retryCfg.InitialDelay = 500 * time.Millisecond
	retryCfg.Logger = logger.GetLogger()

	if timeoutSec <= 0 {
		timeoutSec = 30
	}

	return &Judge{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
		retryCfg:    retryCfg,
	}
}

// Evaluate scores the transcript against the question and rubric. A blank
// transcript short-circuits to a zeroed verdict without calling the model.
// Malformed model output gets exactly one repair retry (a re-request with a
// corrective instruction); if that also fails validation, ErrJudgmentInvalid
// is returned and no Score is produced.
func (j *Judge) Evaluate(ctx context.Context, question, transcript string, keywords []string) (*Score, error) {
	if strings.TrimSpace(transcript) == "" {
		return emptyTranscriptScore(), nil
	}

	coverage := KeywordCoverage(transcript, keywords)

	userPrompt := buildPrompt(question, transcript, keywords, coverage)

	content, err := j.complete(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	score, parseErr := parseVerdict(content)
	if parseErr == nil {
		return score, nil
	}

	logger.Warn("judgment failed validation, issuing repair retry",
		zap.Error(parseErr),
	)
	metrics.JudgeRepairRetries.Inc()

	// The repair retry is the only request allowed to differ from the
	// original: it appends the validation error and restates the schema.
	repairPrompt := userPrompt + fmt.Sprintf(
		"\n\nYour previous reply was rejected: %v.\nReply again with ONLY the JSON object in the exact schema above. No prose, no code fences.",
		parseErr,
	)

	content, err = j.complete(ctx, repairPrompt)
	if err != nil {
		return nil, err
	}

	score, parseErr = parseVerdict(content)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrJudgmentInvalid, parseErr)
	}
	return score, nil
}

// complete performs one judged completion behind the circuit breaker, with
// verbatim transport retries and a bounded timeout.
func (j *Judge) complete(ctx context.Context, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}

	var content string
	err := j.cb.Execute(ctx, func() error {
		return retry.Do(ctx, j.retryCfg, func() error {
			resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       j.model,
				Messages:    messages,
				Temperature: j.temperature,
				MaxTokens:   j.maxTokens,
			})
			if err != nil {
				return fmt.Errorf("judge completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("judge completion: response has no choices")
			}
			content = resp.Choices[0].Message.Content

			logger.Debug("judge completion received",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

func emptyTranscriptScore() *Score {
	criteria := make(map[string]float64, len(Criteria))
	for _, c := range Criteria {
		criteria[c] = ScoreMin
	}
	return &Score{
		Overall:  ScoreMin,
		Criteria: criteria,
		Comment:  "The transcript was empty or unintelligible. Please ensure the response is clearly audible.",
	}
}

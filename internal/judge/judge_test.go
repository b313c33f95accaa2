package judge

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

// scriptedCompleter returns canned responses in order, recording requests.
type scriptedCompleter struct {
	responses []string
	err       error
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.responses[idx]}},
		},
	}, nil
}

func newTestJudge(c ChatCompleter) *Judge {
	return NewWithCompleter(c, "gpt-3.5-turbo", 0.4, 800, 10)
}

func TestEvaluateValidResponse(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validVerdict}}
	j := newTestJudge(completer)

	score, err := j.Evaluate(context.Background(), "Describe teamwork.", "I worked in a team and led the planning.", []string{"group", "teamwork"})
	if err != nil {
		t.Fatal(err)
	}
	if score.Overall != 7 {
		t.Errorf("overall: got %f, want 7", score.Overall)
	}
	if len(completer.requests) != 1 {
		t.Errorf("requests: got %d, want 1", len(completer.requests))
	}
}

func TestEvaluateRepairRetryRecovers(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{"clarity": 11}`, validVerdict}}
	j := newTestJudge(completer)

	score, err := j.Evaluate(context.Background(), "q", "a decent answer", []string{"stress", "calm"})
	if err != nil {
		t.Fatal(err)
	}
	if score == nil {
		t.Fatal("expected a score after successful repair retry")
	}
	if len(completer.requests) != 2 {
		t.Fatalf("requests: got %d, want 2 (original + repair)", len(completer.requests))
	}

	// The repair request must carry a corrective instruction.
	repair := completer.requests[1].Messages[1].Content
	if !strings.Contains(repair, "rejected") {
		t.Error("repair prompt should explain the rejection")
	}
}

func TestEvaluateRepairRetryExhausted(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{`{"clarity": 11}`, `still not json`}}
	j := newTestJudge(completer)

	score, err := j.Evaluate(context.Background(), "q", "a decent answer", []string{"stress", "calm"})
	if !errors.Is(err, ErrJudgmentInvalid) {
		t.Fatalf("got %v, want ErrJudgmentInvalid", err)
	}
	if score != nil {
		t.Error("no score should be returned when judgment is invalid")
	}
	if len(completer.requests) != 2 {
		t.Fatalf("requests: got %d, want exactly 2 (one repair retry, no more)", len(completer.requests))
	}
}

func TestEvaluateEmptyTranscriptShortCircuits(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validVerdict}}
	j := newTestJudge(completer)

	score, err := j.Evaluate(context.Background(), "q", "   ", []string{"calm"})
	if err != nil {
		t.Fatal(err)
	}
	if len(completer.requests) != 0 {
		t.Error("empty transcript must not reach the model")
	}
	if score.Overall != ScoreMin {
		t.Errorf("overall: got %f, want %f", score.Overall, ScoreMin)
	}
	for _, c := range Criteria {
		if score.Criteria[c] != ScoreMin {
			t.Errorf("criterion %s: got %f, want %f", c, score.Criteria[c], ScoreMin)
		}
	}
	if score.Comment == "" {
		t.Error("zeroed verdict should still explain itself")
	}
}

func TestEvaluatePromptEmbedsInputs(t *testing.T) {
	completer := &scriptedCompleter{responses: []string{validVerdict}}
	j := newTestJudge(completer)

	_, err := j.Evaluate(context.Background(), "Describe a stressful situation.", "I stayed calm under stress.", []string{"stress", "calm"})
	if err != nil {
		t.Fatal(err)
	}

	prompt := completer.requests[0].Messages[1].Content
	for _, want := range []string{"Describe a stressful situation.", "I stayed calm under stress.", "stress", "calm"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

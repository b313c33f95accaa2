package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// clampTolerance bounds how far a score may sit outside [ScoreMin, ScoreMax]
// and still be clamped instead of rejected. Anything further off is treated
// as a parse failure, since it indicates the model ignored the scale.
const clampTolerance = 0.5

type verdictPayload struct {
	Score          *float64            `json:"score"`
	CategoryScores map[string]*float64 `json:"category_scores"`
	Comment        string              `json:"comment"`
}

// parseVerdict validates a model reply and constructs a Score. It rejects
// missing criterion keys, non-numeric values, and scores outside the
// declared range (beyond clamp tolerance) rather than passing anything
// loosely typed through.
func parseVerdict(content string) (*Score, error) {
	raw := stripCodeFences(content)
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("malformed JSON: %v", err)
	}

	if payload.Score == nil {
		return nil, fmt.Errorf("missing required key %q", "score")
	}
	overall, err := boundScore("score", *payload.Score)
	if err != nil {
		return nil, err
	}

	criteria := make(map[string]float64, len(Criteria))
	for _, name := range Criteria {
		v, ok := payload.CategoryScores[name]
		if !ok || v == nil {
			return nil, fmt.Errorf("missing required criterion %q", name)
		}
		s, err := boundScore(name, *v)
		if err != nil {
			return nil, err
		}
		criteria[name] = s
	}

	return &Score{
		Overall:  overall,
		Criteria: criteria,
		Comment:  strings.TrimSpace(payload.Comment),
	}, nil
}

func boundScore(name string, v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("criterion %q is not a finite number", name)
	}
	if v < ScoreMin-clampTolerance || v > ScoreMax+clampTolerance {
		return 0, fmt.Errorf("criterion %q score %.2f outside range [%g, %g]", name, v, ScoreMin, ScoreMax)
	}
	return math.Min(ScoreMax, math.Max(ScoreMin, v)), nil
}

// stripCodeFences unwraps a ```json ... ``` block if the model added one
// and trims surrounding noise down to the outermost JSON object.
func stripCodeFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

package judge

import (
	"math"
	"testing"
)

func TestKeywordCoverage(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		keywords   []string
		wantHits   int
		wantTotal  int
	}{
		{
			name:       "all keywords present",
			transcript: "I stayed calm under stress and asked my manager for help.",
			keywords:   []string{"calm", "stress", "manager"},
			wantHits:   3,
			wantTotal:  3,
		},
		{
			name:       "partial coverage",
			transcript: "I just panicked, honestly.",
			keywords:   []string{"calm", "panicked"},
			wantHits:   1,
			wantTotal:  2,
		},
		{
			name:       "case insensitive",
			transcript: "TEAMWORK matters most.",
			keywords:   []string{"Teamwork"},
			wantHits:   1,
			wantTotal:  1,
		},
		{
			name:       "whole words only for single keywords",
			transcript: "I was stressless about it.",
			keywords:   []string{"stress"},
			wantHits:   0,
			wantTotal:  1,
		},
		{
			name:       "multiword keyword matches as phrase",
			transcript: "Good time management kept the project on track.",
			keywords:   []string{"time management", "deadline"},
			wantHits:   1,
			wantTotal:  2,
		},
		{
			name:       "duplicate keywords collapse",
			transcript: "I value calm.",
			keywords:   []string{"calm", "Calm", " calm "},
			wantHits:   1,
			wantTotal:  1,
		},
		{
			name:       "empty transcript",
			transcript: "   ",
			keywords:   []string{"calm"},
			wantHits:   0,
			wantTotal:  1,
		},
		{
			name:       "no keywords",
			transcript: "anything at all",
			keywords:   nil,
			wantHits:   0,
			wantTotal:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov := KeywordCoverage(tt.transcript, tt.keywords)
			if cov.Hits != tt.wantHits {
				t.Errorf("hits: got %d, want %d (matched %v)", cov.Hits, tt.wantHits, cov.Matched)
			}
			if cov.Total != tt.wantTotal {
				t.Errorf("total: got %d, want %d", cov.Total, tt.wantTotal)
			}
			if len(cov.Matched) != cov.Hits {
				t.Errorf("matched list length %d disagrees with hits %d", len(cov.Matched), cov.Hits)
			}
			if cov.Total > 0 {
				want := float64(cov.Hits) / float64(cov.Total)
				if math.Abs(cov.Ratio-want) > 1e-9 {
					t.Errorf("ratio: got %f, want %f", cov.Ratio, want)
				}
			} else if cov.Ratio != 0 {
				t.Errorf("ratio with no keywords: got %f, want 0", cov.Ratio)
			}
		})
	}
}

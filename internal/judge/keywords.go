package judge

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// Coverage summarizes which rubric keywords the answer touched.
type Coverage struct {
	Hits    int
	Total   int
	Ratio   float64
	Matched []string
}

// KeywordCoverage tokenizes the transcript and reports the unique,
// case-insensitive rubric keywords it mentions. Multi-word keywords are
// matched as substrings of the lowercased transcript.
func KeywordCoverage(transcript string, keywords []string) Coverage {
	unique := dedupeKeywords(keywords)
	cov := Coverage{Total: len(unique)}
	if len(unique) == 0 || strings.TrimSpace(transcript) == "" {
		return cov
	}

	lowered := strings.ToLower(transcript)
	tokens := tokenize(transcript)

	for _, kw := range unique {
		if strings.Contains(kw, " ") {
			if strings.Contains(lowered, kw) {
				cov.Matched = append(cov.Matched, kw)
			}
			continue
		}
		if _, ok := tokens[kw]; ok {
			cov.Matched = append(cov.Matched, kw)
		}
	}

	cov.Hits = len(cov.Matched)
	cov.Ratio = float64(cov.Hits) / float64(cov.Total)
	return cov
}

// tokenize returns the set of lowercased word tokens. Falls back to a
// whitespace split if the NLP tokenizer cannot process the text.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		for _, f := range strings.Fields(strings.ToLower(text)) {
			tokens[strings.Trim(f, ".,!?;:'\"")] = struct{}{}
		}
		return tokens
	}

	for _, tok := range doc.Tokens() {
		tokens[strings.ToLower(tok.Text)] = struct{}{}
	}
	return tokens
}

func dedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	var out []string
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

package judge

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an English language speaking examiner following international speaking rubrics (e.g., IELTS, TOEFL, CEFR).

Evaluate the student's spoken answer using these categories, each scored 0-10:

    task_relevance - Does the response appropriately and fully address the prompt? [IELTS, TOEFL]
    grammar_lexis - Is the grammar accurate and vocabulary appropriate? Evaluate range and correctness. [CEFR, IELTS]
    discourse_management - Is the response well-structured, connected, and cohesive? Are ideas extended and logically organized? [CEFR, TOEFL]
    pronunciation_fluency - Is the speech fluent, with minimal unnatural pauses or hesitation? Deduct for filler words like 'uh', 'um', 'like'. [IELTS, CEFR]
    coherence_appropriateness - Does the tone fit an academic or formal setting? Is the response socially and culturally appropriate? [CEFR]
    keyword_coverage - How well does the answer touch on the expected topic keywords?

Give constructive feedback in the comment. If present, mention filler words, grammar errors, or disorganization.`

const responseSchema = `Return ONLY a JSON object in exactly this shape:
{
  "score": <overall 0-10>,
  "category_scores": {
    "task_relevance": <0-10>,
    "grammar_lexis": <0-10>,
    "discourse_management": <0-10>,
    "pronunciation_fluency": <0-10>,
    "coherence_appropriateness": <0-10>,
    "keyword_coverage": <0-10>
  },
  "comment": "<constructive feedback>"
}`

func buildPrompt(question, transcript string, keywords []string, coverage Coverage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n", question)
	fmt.Fprintf(&b, "Student's Answer: %s\n\n", transcript)
	fmt.Fprintf(&b, "Expected keywords: %s\n", strings.Join(keywords, ", "))
	fmt.Fprintf(&b, "Keyword coverage (computed): %d of %d keywords mentioned", coverage.Hits, coverage.Total)
	if len(coverage.Matched) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(coverage.Matched, ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(responseSchema)

	return b.String()
}

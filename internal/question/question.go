// Package question holds the fixed speaking-prompt bank and the sequencer
// that walks through it.
package question

// Question is one speaking prompt with the keyword rubric its answer is
// judged against. Immutable once loaded.
type Question struct {
	ID       string   `json:"id" yaml:"id"`
	Text     string   `json:"text" yaml:"text"`
	Keywords []string `json:"keywords" yaml:"keywords"`
	Position int      `json:"-" yaml:"-"`
}

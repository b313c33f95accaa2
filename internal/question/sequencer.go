package question

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoMoreQuestions is the expected terminal condition of the sequence,
// not a fault. Repeated advances past the end keep returning it.
var ErrNoMoreQuestions = errors.New("no more questions")

// Sequencer tracks the current position in the fixed question list. The
// index is guarded by a mutex so concurrent advance and read calls never
// observe a torn or out-of-bounds state.
type Sequencer struct {
	mu        sync.Mutex
	questions []Question
	index     int
}

func NewSequencer(questions []Question) (*Sequencer, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("sequencer requires at least one question")
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &Sequencer{questions: qs}, nil
}

// Current returns the question at the current position without mutation.
func (s *Sequencer) Current() Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions[s.index]
}

// Advance moves to the next question and returns it. At the end of the
// list the position stays put and ErrNoMoreQuestions is returned.
func (s *Sequencer) Advance() (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index+1 >= len(s.questions) {
		return Question{}, ErrNoMoreQuestions
	}
	s.index++
	return s.questions[s.index], nil
}

// Len reports the size of the question bank.
func (s *Sequencer) Len() int {
	return len(s.questions)
}

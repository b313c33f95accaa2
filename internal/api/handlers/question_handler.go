package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/lujip/citu-speech-evaluation/internal/question"
)

type QuestionHandler struct {
	sequencer *question.Sequencer
}

func NewQuestionHandler(sequencer *question.Sequencer) *QuestionHandler {
	return &QuestionHandler{sequencer: sequencer}
}

// GetCurrent returns the question at the current position. Repeated calls
// without an advance return the same question.
func (h *QuestionHandler) GetCurrent(c *fiber.Ctx) error {
	q := h.sequencer.Current()
	return c.JSON(fiber.Map{
		"id":       q.ID,
		"text":     q.Text,
		"keywords": q.Keywords,
	})
}

// Advance moves to the next question. Reaching the end of the bank is an
// expected terminal condition and still a 200, so the frontend can tell
// "no question available" apart from a server fault.
func (h *QuestionHandler) Advance(c *fiber.Ctx) error {
	q, err := h.sequencer.Advance()
	if err != nil {
		if errors.Is(err, question.ErrNoMoreQuestions) {
			return c.JSON(fiber.Map{
				"success": false,
				"message": "No more questions.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to advance question",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"question": fiber.Map{
			"id":       q.ID,
			"text":     q.Text,
			"keywords": q.Keywords,
		},
	})
}

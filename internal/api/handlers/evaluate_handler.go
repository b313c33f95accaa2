package handlers

import (
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/internal/audio"
	"github.com/lujip/citu-speech-evaluation/internal/pipeline"
	"github.com/lujip/citu-speech-evaluation/pkg/logger"
)

type EvaluateHandler struct {
	runner *pipeline.Runner
}

func NewEvaluateHandler(runner *pipeline.Runner) *EvaluateHandler {
	return &EvaluateHandler{runner: runner}
}

// Evaluate accepts a multipart form with the question, its keywords and
// the recorded audio answer, runs the evaluation pipeline, and returns
// the composed result. Partial upstream failures still produce a 200 with
// the degraded sections flagged; only an invalid upload is a client error.
func (h *EvaluateHandler) Evaluate(c *fiber.Ctx) error {
	questionText := strings.TrimSpace(c.FormValue("question"))
	if questionText == "" {
		return badRequest(c, "question is required")
	}

	keywords := formKeywords(c)
	if len(keywords) == 0 {
		return badRequest(c, "keywords are required")
	}

	audioBytes, err := formAudio(c)
	if err != nil {
		return badRequest(c, "audio file is required")
	}

	req := pipeline.Request{
		ID:       uuid.NewString(),
		Question: questionText,
		Keywords: keywords,
		Audio:    audioBytes,
		Format:   c.FormValue("format"),
	}

	logger.Info("evaluation request received",
		zap.String("request_id", req.ID),
		zap.Int("audio_bytes", len(req.Audio)),
		zap.Int("keywords", len(req.Keywords)),
	)

	result, err := h.runner.Evaluate(c.Context(), req)
	if err != nil {
		if errors.Is(err, audio.ErrInvalidAudio) {
			return badRequest(c, err.Error())
		}
		logger.Error("evaluation failed",
			zap.String("request_id", req.ID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "An error occurred during evaluation. Please try again.",
		})
	}

	return c.JSON(result)
}

// formKeywords accepts either repeated "keywords" fields or a single
// comma-separated value.
func formKeywords(c *fiber.Ctx) []string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}

	values := form.Value["keywords"]
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}

	var keywords []string
	for _, v := range values {
		if kw := strings.TrimSpace(v); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}

func formAudio(c *fiber.Ctx) ([]byte, error) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return nil, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/lujip/citu-speech-evaluation/internal/api/handlers"
	"github.com/lujip/citu-speech-evaluation/internal/audio"
	"github.com/lujip/citu-speech-evaluation/internal/cache/redis"
	"github.com/lujip/citu-speech-evaluation/internal/judge"
	"github.com/lujip/citu-speech-evaluation/internal/metrics"
	"github.com/lujip/citu-speech-evaluation/internal/middleware/ratelimit"
	"github.com/lujip/citu-speech-evaluation/internal/middleware/security"
	"github.com/lujip/citu-speech-evaluation/internal/middleware/validation"
	"github.com/lujip/citu-speech-evaluation/internal/pipeline"
	"github.com/lujip/citu-speech-evaluation/internal/question"
	"github.com/lujip/citu-speech-evaluation/internal/transcription"
	"github.com/lujip/citu-speech-evaluation/pkg/config"
	appLogger "github.com/lujip/citu-speech-evaluation/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting speech evaluation API server")

	metrics.Register()

	questions, err := question.LoadFile(cfg.Questions.Path)
	if err != nil {
		appLogger.Fatal("Failed to load question bank", zap.Error(err))
	}
	sequencer, err := question.NewSequencer(questions)
	if err != nil {
		appLogger.Fatal("Failed to create question sequencer", zap.Error(err))
	}
	appLogger.Info("Question bank loaded", zap.Int("questions", sequencer.Len()))

	transcriber, err := transcription.NewDeepgramClient(
		cfg.Transcription.APIKey,
		transcription.WithBaseURL(cfg.Transcription.BaseURL),
		transcription.WithModel(cfg.Transcription.Model),
		transcription.WithLanguage(cfg.Transcription.Language),
		transcription.WithTimeout(time.Duration(cfg.Transcription.TimeoutSec)*time.Second),
		transcription.WithMaxAttempts(cfg.Transcription.MaxAttempts),
	)
	if err != nil {
		appLogger.Fatal("Failed to create transcription client", zap.Error(err))
	}

	answerJudge := judge.New(
		cfg.Judge.APIKey,
		cfg.Judge.Model,
		cfg.Judge.Temperature,
		cfg.Judge.MaxTokens,
		cfg.Judge.TimeoutSec,
	)

	var resultCache pipeline.ResultCache
	if cfg.Cache.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Cache.Host,
			cfg.Cache.Port,
			cfg.Cache.Password,
			cfg.Cache.DB,
			time.Duration(cfg.Cache.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Result cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer redisClient.Close()
			resultCache = redisClient
		}
	}

	decoder := audio.NewDecoder(cfg.Audio.TargetSampleRate, cfg.Audio.MinDurationMS, cfg.Audio.MaxBytes)
	runner := pipeline.NewRunner(decoder, transcriber, answerJudge, resultCache)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{IsDevelopment: true}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	questionHandler := handlers.NewQuestionHandler(sequencer)
	evaluateHandler := handlers.NewEvaluateHandler(runner)

	api := app.Group("/api/v1")

	api.Get("/question", questionHandler.GetCurrent)
	api.Post("/question/advance", questionHandler.Advance)

	api.Post("/evaluate",
		limiter.Middleware(),
		validation.EvaluateGuard(validation.Config{
			MaxBodyBytes: cfg.Server.BodyLimit,
			Logger:       appLogger.GetLogger(),
		}),
		evaluateHandler.Evaluate,
	)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"draftmail/draft-service/internal/generator"
	"draftmail/pkg/logger"
	"draftmail/pkg/metrics"
)

var (
	// ErrEmptyPrompt is returned when the description is blank after trimming.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
	// ErrGeneration wraps every model-side failure.
	ErrGeneration = errors.New("generation failed")
)

// Service drafts email bodies from free-text descriptions.
type Service struct {
	gen      generator.Generator
	tmpl     *generator.Template
	decoding generator.Decoding
	slots    *semaphore.Weighted
	logger   *zap.Logger
}

// NewService creates a Service that runs at most maxConcurrent generations at once.
func NewService(gen generator.Generator, tmpl *generator.Template, decoding generator.Decoding, maxConcurrent int64, logger *zap.Logger) *Service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Service{
		gen:      gen,
		tmpl:     tmpl,
		decoding: decoding,
		slots:    semaphore.NewWeighted(maxConcurrent),
		logger:   logger,
	}
}

// Draft returns an email body for description.
func (s *Service) Draft(ctx context.Context, description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyPrompt
	}

	prompt, err := s.tmpl.Render(description)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	log := logger.WithTrace(ctx, s.logger)

	// waiting for a slot honours ctx; the error is the context's own
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	metrics.GenerationInFlight.Inc()
	start := time.Now()
	output, err := s.gen.Generate(ctx, prompt, s.decoding)
	metrics.GenerationInFlight.Dec()
	s.slots.Release(1)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		log.Error("Generation failed", zap.String("model", s.gen.Model()), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	email := generator.StripEcho(output, prompt)
	if email == "" {
		log.Warn("Generation returned empty text", zap.String("model", s.gen.Model()))
		return "", fmt.Errorf("%w: %w", ErrGeneration, generator.ErrEmptyOutput)
	}

	log.Info("Draft generated",
		zap.String("model", s.gen.Model()),
		zap.Int("description_len", len(description)),
		zap.Int("email_len", len(email)),
		zap.Duration("took", time.Since(start)),
	)
	return email, nil
}

// Ping checks the generator backend when it supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.gen.(generator.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/core/ports"
)

// FallbackCaption is returned whenever the generator fails or returns nothing.
const FallbackCaption = "Campus life! ✨ #MIET"

// CaptionService suggests post captions through an external generator.
type CaptionService struct {
	gen    ports.CaptionGenerator
	logger zerolog.Logger
}

// NewCaptionService accepts a nil generator, in which case every suggestion is
// the fallback caption.
func NewCaptionService(gen ports.CaptionGenerator, logger zerolog.Logger) *CaptionService {
	return &CaptionService{gen: gen, logger: logger}
}

func (s *CaptionService) Suggest(ctx context.Context, prompt string) string {
	if s.gen == nil {
		return FallbackCaption
	}
	text, err := s.gen.Generate(ctx, captionPrompt(prompt))
	if err != nil {
		s.logger.Warn().Err(err).Msg("caption generation failed, using fallback")
		return FallbackCaption
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackCaption
	}
	return text
}

func captionPrompt(subject string) string {
	return "Generate a trendy, youthful Instagram caption for an MIET Jammu student.\n" +
		"Subject: " + strings.TrimSpace(subject) + ".\n" +
		"Include 2-3 MIET specific hashtags."
}

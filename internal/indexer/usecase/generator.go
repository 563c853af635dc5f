package usecase

import (
	"context"
	"fmt"
	"strings"

	"catsvg-indexer/internal/shared/errors"
	"catsvg-indexer/internal/shared/logger"
)

// promptTemplate is the fixed prompt embedding a caller-supplied theme. The
// model's reply is expected to contain SVG markup; it is not validated.
const promptTemplate = "Create a pixel art image of a cat with the theme %q. " +
	"Draw it as an SVG using a 32x32 grid of rect elements on a viewBox of \"0 0 32 32\". " +
	"Respond with only the SVG markup, no explanation and no code fences."

// ChatCompleter produces a single completion for a prompt. Implemented by
// the OpenAI adapter.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SVGGenerator turns a theme into pixel-art SVG markup via the generative
// model.
type SVGGenerator struct {
	completer ChatCompleter
	log       logger.Logger
}

// NewSVGGenerator creates an SVGGenerator.
func NewSVGGenerator(completer ChatCompleter, log logger.Logger) *SVGGenerator {
	return &SVGGenerator{
		completer: completer,
		log:       log.WithComponent("svg_generator"),
	}
}

// Generate invokes the model with the fixed prompt template. Model failures
// surface as upstream errors.
func (g *SVGGenerator) Generate(ctx context.Context, theme string) (string, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return "", errors.NewValidationError("theme is required")
	}

	prompt := fmt.Sprintf(promptTemplate, theme)
	g.log.Debugf("Generating SVG for theme %q", theme)

	svg, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return "", errors.NewUpstreamError("generative model invocation failed").
			WithCause(err).
			WithComponent("svg_generator")
	}
	return svg, nil
}

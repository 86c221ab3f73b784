// Package router decides which model tier answers a question.
//
// A question is first matched against fixed phrasings of direct file and
// terminal requests. Anything else is sent to the provider's light model for
// a SIMPLE/COMPLEX classification. Direct commands and confident SIMPLE
// answers go to the light tier; everything else goes to the powerful tier.
package router

import (
	"context"

	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/llm"
	"go.uber.org/zap"
)

// Tier is a model size class of a provider.
type Tier string

const (
	TierLight    Tier = "light"
	TierPowerful Tier = "powerful"
)

// Classification is the per-question routing verdict.
type Classification struct {
	IsComplex       bool
	Confidence      float64
	IsDirectCommand bool
	Category        Category
}

// Decision is the outcome of Route.
type Decision struct {
	Tier           Tier
	Model          string
	Classification Classification
	// Classified is false when routing was skipped (disabled or forced).
	Classified bool
	// Refine asks for the reasoning refinement loop.
	Refine bool
}

// Router reads its settings from cfg on every call, so updates made through
// config.Config.Update apply to the next question.
type Router struct {
	cfg    *config.Config
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{cfg: cfg, logger: logger}
}

// Route picks the tier and model for question. force selects the powerful
// tier without classifying.
func (r *Router) Route(ctx context.Context, client llm.LLMClient, question string, force bool) Decision {
	models := r.cfg.Models()
	d := Decision{Tier: TierPowerful, Classification: defaultClassification()}

	if !force && r.cfg.Routing.Enabled {
		if c, ok := DetectDirectCommand(question); ok {
			d.Classification = c
		} else {
			d.Classification = Classify(ctx, client, models.Light, question, r.logger)
		}
		d.Classified = true
		d.Tier = Decide(d.Classification, r.cfg.Routing.Threshold)
	}

	d.Model = models.Powerful
	if d.Tier == TierLight {
		d.Model = models.Light
	}
	d.Refine = r.cfg.Reasoning.Enabled && d.Tier == TierPowerful && !d.Classification.IsDirectCommand

	r.logger.Debug("routed question",
		zap.String("tier", string(d.Tier)),
		zap.String("model", d.Model),
		zap.Bool("direct", d.Classification.IsDirectCommand),
		zap.String("category", string(d.Classification.Category)),
		zap.Bool("complex", d.Classification.IsComplex),
		zap.Float64("confidence", d.Classification.Confidence),
		zap.Bool("forced", force),
		zap.Bool("refine", d.Refine),
	)
	return d
}

// Decide maps a classification to a tier. Direct commands always use the
// light tier; otherwise only a SIMPLE verdict at or above threshold does.
func Decide(c Classification, threshold float64) Tier {
	if c.IsDirectCommand {
		return TierLight
	}
	if !c.IsComplex && c.Confidence >= threshold {
		return TierLight
	}
	return TierPowerful
}

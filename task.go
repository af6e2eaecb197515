package meetyai

import (
	"github.com/randalmurphal/llmkit/model"
)

// Stage identifies a model-calling step of the pipeline, used to pick an
// appropriate model tier.
type Stage string

const (
	// StageClassify labels the transcript from a short prefix.
	StageClassify Stage = "classify"

	// StageExtract runs one extraction pass over the full transcript.
	StageExtract Stage = "extract"

	// StageRefine rewrites raw insights into polished titles and
	// descriptions.
	StageRefine Stage = "refine"

	// StageJudge decides whether an outbound export duplicates an
	// existing destination record.
	StageJudge Stage = "judge"
)

// DefaultModelMap maps stages to default models.
var DefaultModelMap = map[Stage]model.ModelName{
	StageClassify: model.ModelSonnet,
	StageExtract:  model.ModelSonnet,
	StageRefine:   model.ModelSonnet,
	StageJudge:    model.ModelSonnet,
}

// TierForStage returns the model tier for a stage. Classification reads a
// short prefix and can use a fast model; extraction carries the full
// transcript and needs the default tier.
func TierForStage(s Stage) model.Tier {
	switch s {
	case StageClassify:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewStageSelector creates a model selector keyed by pipeline stage.
func NewStageSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if s, ok := task.(Stage); ok {
				return TierForStage(s)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

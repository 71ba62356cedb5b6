// Package score combines detector signals into a composite risk score and a
// discrete risk level.
package score

import (
	"sort"

	"github.com/spendguard-dev/spendguard/internal/config"
	"github.com/spendguard-dev/spendguard/internal/detect"
	"github.com/spendguard-dev/spendguard/internal/model"
)

// Scorer maps detector signals to a risk score and level.
type Scorer struct {
	weights      map[string]float64
	totalWeight  float64
	mediumCutoff float64
	highCutoff   float64
}

// New creates a Scorer from scoring configuration. Weights are normalized to
// sum to 1, so only their ratios matter.
func New(cfg config.ScoringConfig) *Scorer {
	weights := map[string]float64{
		detect.NameDuplicate:   cfg.Weights.Duplicate,
		detect.NameLargeAmount: cfg.Weights.LargeAmount,
		detect.NameRareVendor:  cfg.Weights.RareVendor,
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	return &Scorer{
		weights:      weights,
		totalWeight:  total,
		mediumCutoff: cfg.MediumCutoff,
		highCutoff:   cfg.HighCutoff,
	}
}

// Result is the scorer's verdict on one transaction.
type Result struct {
	Score float64
	Level model.RiskLevel
	Flags []string // fired detector names, sorted
}

// Evaluate combines per-detector signals. The composite is a normalized
// weighted sum, so raising any single signal while holding the others fixed
// never lowers the score. Flags record every detector that individually
// fired, independent of the composite level: a normal-classified transaction
// can still carry an informational flag.
//
// The level comes from the cut points, then a saturated fired signal
// (score at the 1.0 cap) escalates it one step: a categorical duplicate or
// an extreme outlier is riskier than its diluted share of the composite
// suggests. Escalation only ever raises the level, preserving monotonicity.
func (s *Scorer) Evaluate(signals map[string]detect.Signal) Result {
	var weighted float64
	var flags []string
	saturated := false

	for name, sig := range signals {
		weighted += s.weights[name] * sig.Score
		if sig.Fired {
			flags = append(flags, name)
			if sig.Score >= 1.0 {
				saturated = true
			}
		}
	}
	sort.Strings(flags)

	composite := 0.0
	if s.totalWeight > 0 {
		composite = weighted / s.totalWeight
	}

	level := s.levelFor(composite)
	if saturated {
		level = escalate(level)
	}

	return Result{Score: composite, Level: level, Flags: flags}
}

func (s *Scorer) levelFor(score float64) model.RiskLevel {
	switch {
	case score < s.mediumCutoff:
		return model.RiskNormal
	case score < s.highCutoff:
		return model.RiskMedium
	default:
		return model.RiskHigh
	}
}

func escalate(level model.RiskLevel) model.RiskLevel {
	switch level {
	case model.RiskNormal:
		return model.RiskMedium
	case model.RiskMedium:
		return model.RiskHigh
	default:
		return model.RiskHigh
	}
}

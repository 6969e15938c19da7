package config

import (
	"cvready/evaluator"
	"cvready/matching"
	"cvready/similarity"
)

// ToMatchingConfig translates the flat, env-loaded MatchingConfig into
// the typed matching.Config the JD Matching Engine (and, transitively,
// the CV Quality Engine) actually consumes.
func (m MatchingConfig) ToMatchingConfig() matching.Config {
	return matching.Config{
		Evaluator: evaluator.Config{
			TopK: m.TopK,
			Thresholds: similarity.Thresholds{
				Floor: m.SimFloor,
				Low:   m.SimLowThreshold,
				High:  m.SimHighThreshold,
			},
			Upgrade: similarity.UpgradeConfig{
				Margin:          m.UpgradeMargin,
				AllowedSections: m.AllowedUpgradeSections,
			},
		},
		MultiMentionThreshold:      m.MultiMentionThreshold,
		MultiMentionHighSimilarity: m.MultiMentionHighSimilarity,
		Multipliers: matching.RuleTypeMultipliers{
			MustHave:     m.MustHaveMultiplier,
			NiceToHave:   m.NiceToHaveMultiplier,
			BestPractice: m.BestPracticeMultiplier,
		},
		Weights: matching.ScoreWeights{
			MustHave:     m.MustHaveWeight,
			NiceToHave:   m.NiceToHaveWeight,
			BestPractice: m.BestPracticeWeight,
		},
	}
}

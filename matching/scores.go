package matching

import "cvready/models"

// aggregateScores implements §4.7 step 8 (per-rule-type coverage and the
// weighted total) and step 9 (the two score rates match level reads).
func aggregateScores(trace []models.MatchTraceEntry, cfg Config) models.MatchScores {
	var mustSum, mustTotal float64
	var niceSum, niceTotal float64
	var bestSum, bestTotal float64
	var weightedSum, weightedMax float64

	for _, entry := range trace {
		weightedSum += entry.WeightedScore
		weightedMax += cfg.Multipliers.For(entry.RuleType)

		switch entry.RuleType {
		case models.RuleMustHave:
			mustSum += entry.Score
			mustTotal++
		case models.RuleNiceToHave:
			niceSum += entry.Score
			niceTotal++
		default:
			bestSum += entry.Score
			bestTotal++
		}
	}

	mustCoverage := coverage100(mustSum, mustTotal)
	niceCoverage := coverage100(niceSum, niceTotal)
	bestCoverage := coverage100(bestSum, bestTotal)

	total := round2(cfg.Weights.MustHave*mustCoverage + cfg.Weights.NiceToHave*niceCoverage + cfg.Weights.BestPractice*bestCoverage)

	weightedScoreRate := 1.0
	if weightedMax > 0 {
		weightedScoreRate = weightedSum / weightedMax
	}
	mustHaveScoreRate := 1.0
	if mustTotal > 0 {
		mustHaveScoreRate = mustSum / mustTotal
	}

	return models.MatchScores{
		MustCoverage:      mustCoverage,
		NiceCoverage:      niceCoverage,
		BestCoverage:      bestCoverage,
		Total:             total,
		WeightedScoreRate: weightedScoreRate,
		MustHaveScoreRate: mustHaveScoreRate,
	}
}

// coverage100 is the 0-100 scale §4.7 step 8 uses for the per-type
// coverage figures and Scores.Total, distinct from the 0-1 rates step 9
// uses for the match level thresholds.
func coverage100(sum, total float64) float64 {
	if total == 0 {
		return 100
	}
	return 100 * sum / total
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// matchLevel implements §4.7 step 9's descending threshold ladder. An
// empty trace (weightedMax=0, both rates default to 1.0 above) still
// needs to resolve to LOW_MATCH per spec, so it is handled explicitly.
func matchLevel(scores models.MatchScores, ruleCount int) models.MatchLevel {
	if ruleCount == 0 {
		return models.LevelLowMatch
	}
	switch {
	case scores.WeightedScoreRate >= 0.85 && scores.MustHaveScoreRate >= 0.90:
		return models.LevelStrongMatch
	case scores.WeightedScoreRate >= 0.65 && scores.MustHaveScoreRate >= 0.75:
		return models.LevelGoodMatch
	case scores.WeightedScoreRate >= 0.40:
		return models.LevelPartialMatch
	default:
		return models.LevelLowMatch
	}
}

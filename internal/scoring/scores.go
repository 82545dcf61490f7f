package scoring

import (
	"math"

	"github.com/jonathan/resume-scorer/internal/types"
)

// Sub-score ceilings
const (
	MaxKeywords   = 45.0
	MaxFormatting = 25.0
	MaxContent    = 30.0
)

// Keyword blend weights
const (
	exactWeight    = 0.7
	semanticWeight = 0.3
)

// Formatting deductions
const (
	noEmailPenalty         = 5.0
	noPhonePenalty         = 3.0
	missingSectionPenalty  = 2.0
	maxMissingSectionTotal = 6.0
	multiColumnPenalty     = 6.0
)

// Content deductions
const (
	fewBulletsThreshold  = 6
	someBulletsThreshold = 12
	fewBulletsPenalty    = 8.0
	someBulletsPenalty   = 4.0
	noNumbersPenalty     = 10.0
	fewVerbsThreshold    = 3
	noVerbsPenalty       = 8.0
	fewVerbsPenalty      = 4.0
)

// ComputeScores combines exact and semantic keyword coverage (both 0-100),
// formatting flags and content signals into a 0-100 total. It is a pure function.
//
// Missing core sections lower the formatting score here and also produce a
// structure suggestion; they are counted once in the score.
func ComputeScores(keywordCoverage, semanticCoverage float64, flags types.FormattingFlags, signals types.ContentSignals) types.Scores {
	kw := keywordsScore(keywordCoverage, semanticCoverage)
	fm := round2(formattingScore(flags))
	ct := round2(contentScore(signals))

	return types.Scores{
		Total: round2(clamp(kw+fm+ct, 0, 100)),
		Breakdown: types.ScoreBreakdown{
			Keywords:   kw,
			Formatting: fm,
			Content:    ct,
		},
	}
}

func keywordsScore(keywordCoverage, semanticCoverage float64) float64 {
	kc := clamp(keywordCoverage, 0, 100)
	sc := clamp(semanticCoverage, 0, 100)

	combined := clamp(exactWeight*kc+semanticWeight*sc, 0, 100)
	return round2(combined / 100 * MaxKeywords)
}

func formattingScore(flags types.FormattingFlags) float64 {
	score := MaxFormatting

	if !flags.ContactInfo.EmailDetected {
		score -= noEmailPenalty
	}
	if !flags.ContactInfo.PhoneDetected {
		score -= noPhonePenalty
	}
	if n := len(flags.SectionPresence.MissingCoreSections); n > 0 {
		score -= math.Min(maxMissingSectionTotal, missingSectionPenalty*float64(n))
	}
	if flags.PossibleMultiColumnLayout {
		score -= multiColumnPenalty
	}

	return clamp(score, 0, MaxFormatting)
}

func contentScore(signals types.ContentSignals) float64 {
	score := MaxContent

	switch {
	case signals.BulletLines < fewBulletsThreshold:
		score -= fewBulletsPenalty
	case signals.BulletLines < someBulletsThreshold:
		score -= someBulletsPenalty
	}

	if !signals.HasNumbers {
		score -= noNumbersPenalty
	}

	switch {
	case signals.ActionVerbHits <= 0:
		score -= noVerbsPenalty
	case signals.ActionVerbHits < fewVerbsThreshold:
		score -= fewVerbsPenalty
	}

	return clamp(score, 0, MaxContent)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

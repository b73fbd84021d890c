package service

import (
	"sort"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

// Decide compares current against previous and returns one AlertDecision per
// category present in both ScoreSets. The threshold is inclusive: a delta
// whose absolute value equals it triggers.
//
// previous == nil means this is the first observation for the URL; there is
// nothing to compare against and no decisions are produced (the measurement
// is still recorded by the caller).
//
// A category present in only one of the two sets is skipped; that is
// reconfiguration between runs, not an error. Decisions follow the
// configured category order, with any leftover categories from an older
// configuration after them, sorted by name.
func Decide(previous *history.Measurement, current history.Measurement, threshold int, categories []string) []AlertDecision {
	if previous == nil {
		return nil
	}

	ordered := orderedCategories(current.Scores, categories)
	decisions := make([]AlertDecision, 0, len(ordered))

	for _, category := range ordered {
		prevScore, ok := previous.Scores[category]
		if !ok {
			continue
		}
		curScore, ok := current.Scores[category]
		if !ok {
			continue
		}

		delta := curScore - prevScore
		decisions = append(decisions, AlertDecision{
			URL:       current.URL,
			Category:  category,
			Previous:  prevScore,
			Current:   curScore,
			Delta:     delta,
			Triggered: abs(delta) >= threshold,
		})
	}

	return decisions
}

// orderedCategories returns the deterministic walk order for a ScoreSet:
// configured categories first, in their original order, then any extra
// categories present in scores, sorted by name.
func orderedCategories(scores history.ScoreSet, configured []string) []string {
	out := make([]string, 0, len(configured)+len(scores))
	seen := make(map[string]bool, len(configured))

	for _, category := range configured {
		if seen[category] {
			continue
		}
		seen[category] = true
		out = append(out, category)
	}

	extras := make([]string, 0, len(scores))
	for category := range scores {
		if !seen[category] {
			extras = append(extras, category)
		}
	}
	sort.Strings(extras)

	return append(out, extras...)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/qsrfocus/audits_backend/models"
)

type ScoreResult struct {
	Score              int
	WeightedScore      int
	HasCriticalFailure bool
}

// Score aggregates template maximums and recorded marks into unweighted and
// weighted percentages and detects critical-item failure.
//
// NA marks are excluded from both numerator and denominator: an NA is not a
// zero. Unparsable marks are treated as absent. Items with no numeric
// options contribute nothing to the denominator.
func Score(items []*models.ChecklistItem, responses []*models.AuditItem) ScoreResult {

	totalPossible := decimal.Zero
	weightedTotalPossible := decimal.Zero
	itemById := make(map[int]*models.ChecklistItem, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}
		itemById[item.ID] = item
		maxScore := item.MaxScore()
		weight := decimal.NewFromInt(int64(item.GetWeight()))
		totalPossible = totalPossible.Add(maxScore)
		weightedTotalPossible = weightedTotalPossible.Add(maxScore.Mul(weight))
	}

	actual := decimal.Zero
	weightedActual := decimal.Zero
	hasCriticalFailure := false

	for _, resp := range responses {
		if resp == nil {
			continue
		}
		item, ok := itemById[resp.ItemId]
		if !ok {
			// response to an item no longer on the template; never scores
			continue
		}
		mark := resp.ParsedMark()
		if !mark.IsNumeric() {
			continue
		}
		weight := decimal.NewFromInt(int64(item.GetWeight()))
		actual = actual.Add(mark.Value)
		weightedActual = weightedActual.Add(mark.Value.Mul(weight))

		if item.IsCriticalItem() && mark.IsZero() {
			hasCriticalFailure = true
		}
	}

	return ScoreResult{
		Score:              percentage(actual, totalPossible),
		WeightedScore:      percentage(weightedActual, weightedTotalPossible),
		HasCriticalFailure: hasCriticalFailure,
	}
}

// percentage rounds 100*actual/possible to an integer clamped to [0,100];
// an empty denominator scores zero.
func percentage(actual, possible decimal.Decimal) int {
	if possible.IsZero() {
		return 0
	}
	pct := actual.Mul(decimal.NewFromInt(100)).Div(possible).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

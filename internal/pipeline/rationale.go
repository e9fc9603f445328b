package pipeline

import (
	"fmt"
	"strings"

	"github.com/yourusername/safe-legs/internal/models"
)

// buildRationale generates the natural-language justification for a leg.
// It reads only the leg's own numeric fields; there is no external narrative
// source to fabricate from.
func buildRationale(c models.ScoredCandidate) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("MODEL ANALYSIS: %s (%s) @ $%.2f.",
		c.Selection, strings.ToUpper(string(c.Sport)), c.DecimalOdds))

	parts = append(parts, fmt.Sprintf("Edge: model %.1f%% vs market implied %.1f%% = %.1fpp edge. EV: %+.1f%%.",
		c.ModelProbability*100, c.ImpliedProbability*100, c.Edge*100, c.ExpectedValue*100))

	parts = append(parts, fmt.Sprintf("Consistency rating %.0f%% over the recent sample window.",
		c.ConsistencyScore*100))

	if c.RivalryFlag {
		note := "RISK NOTE: rivalry matchup - these games run historically closer; factored into the score as a penalty."
		if c.RivalryName != "" {
			note = fmt.Sprintf("RISK NOTE: %s - rivalry games run historically closer; factored into the score as a penalty.", c.RivalryName)
		}
		parts = append(parts, note)
	}

	parts = append(parts, marketView(c.DecimalOdds))
	parts = append(parts, "Note: this is model-based analysis, not a guarantee. Always bet responsibly.")

	return strings.Join(parts, " ")
}

func marketView(odds float64) string {
	switch {
	case odds <= 1.10:
		return "Market view: heavy favorite (implied >90% win probability)."
	case odds <= 1.15:
		return "Market view: strong favorite (implied 87-90% win probability)."
	case odds <= 1.20:
		return "Market view: clear favorite (implied 83-87% win probability)."
	default:
		return "Market view: moderate favorite (implied 80-83% win probability)."
	}
}

package priority

import (
	"sort"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Scored pairs a signal with its score breakdown.
type Scored struct {
	Signal signal.Signal `json:"signal"`
	Score  Breakdown     `json:"score"`
}

// Synthesize deduplicates signals and orders them by descending score.
// Equal scores keep their post-dedup order.
func Synthesize(signals []signal.Signal, snap *snapshot.Context) []signal.Signal {
	scored := SynthesizeScored(signals, snap)
	out := make([]signal.Signal, len(scored))
	for i, s := range scored {
		out[i] = s.Signal
	}
	return out
}

// SynthesizeScored is Synthesize that keeps the score breakdowns.
func SynthesizeScored(signals []signal.Signal, snap *snapshot.Context) []Scored {
	deduped := Deduplicate(signals)
	scored := make([]Scored, len(deduped))
	for i, s := range deduped {
		scored[i] = Scored{Signal: s, Score: Score(s, snap)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Total > scored[j].Score.Total
	})
	return scored
}

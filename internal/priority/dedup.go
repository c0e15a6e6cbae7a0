// Package priority collapses duplicate signals and orders the survivors by
// how much they deserve the user's attention.
package priority

import (
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// Key identifies signals that describe the same situation: same type about
// the same primary entity. Signals without related entities share the
// signal.NoEntity key and therefore collapse per type.
type Key struct {
	Type     signal.Type
	EntityID string
}

// KeyOf returns the grouping key of a signal.
func KeyOf(s signal.Signal) Key {
	return Key{Type: s.Type, EntityID: s.PrimaryEntityID()}
}

// Group is the set of signals sharing one key, in input order.
type Group struct {
	Key     Key
	Members []signal.Signal
}

// GroupSignals partitions signals by key. Groups appear in order of their
// first member.
func GroupSignals(signals []signal.Signal) []Group {
	index := make(map[Key]int)
	var groups []Group
	for _, s := range signals {
		k := KeyOf(s)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Members = append(groups[i].Members, s)
	}
	return groups
}

// PickRepresentative returns the most severe member; on a tie the earliest
// member wins. The group must not be empty.
func PickRepresentative(g Group) signal.Signal {
	best := g.Members[0]
	for _, s := range g.Members[1:] {
		if signal.MoreSevere(s.Severity, best.Severity) {
			best = s
		}
	}
	return best
}

// Deduplicate keeps one representative per group, in group order.
func Deduplicate(signals []signal.Signal) []signal.Signal {
	groups := GroupSignals(signals)
	out := make([]signal.Signal, 0, len(groups))
	for _, g := range groups {
		out = append(out, PickRepresentative(g))
	}
	return out
}

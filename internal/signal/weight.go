package signal

import "time"

// SignalWeight tracks how the user responds to one (type, domain) pair.
type SignalWeight struct {
	SignalType         Type      `json:"signal_type"`
	Domain             Domain    `json:"domain"`
	TotalGenerated     int       `json:"total_generated"`
	TotalDismissed     int       `json:"total_dismissed"`
	TotalActedOn       int       `json:"total_acted_on"`
	EffectivenessScore float64   `json:"effectiveness_score"`
	WeightModifier     float64   `json:"weight_modifier"`
	LastUpdated        time.Time `json:"last_updated"`
}

// DefaultWeightModifier is the neutral scoring multiplier.
const DefaultWeightModifier = 1.0

// WeightKey builds the storage key for a (type, domain) pair.
func WeightKey(t Type, d Domain) string {
	return string(t) + "|" + string(d)
}

// NewWeight returns a fresh, neutral weight row.
func NewWeight(t Type, d Domain, now time.Time) SignalWeight {
	return SignalWeight{
		SignalType:     t,
		Domain:         d,
		WeightModifier: DefaultWeightModifier,
		LastUpdated:    now,
	}
}

// Key returns the storage key of the row.
func (w SignalWeight) Key() string {
	return WeightKey(w.SignalType, w.Domain)
}

// Recompute refreshes EffectivenessScore from the counters.
func (w *SignalWeight) Recompute() {
	generated := w.TotalGenerated
	if generated < 1 {
		generated = 1
	}
	w.EffectivenessScore = float64(w.TotalActedOn) / float64(generated)
}

// DismissRate is the share of generated signals that were dismissed.
func (w SignalWeight) DismissRate() float64 {
	generated := w.TotalGenerated
	if generated < 1 {
		generated = 1
	}
	return float64(w.TotalDismissed) / float64(generated)
}

// Modifier returns the weight modifier, treating an unset value as neutral.
func (w SignalWeight) Modifier() float64 {
	if w.WeightModifier <= 0 {
		return DefaultWeightModifier
	}
	return w.WeightModifier
}

package impl

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Correlation thresholds.
const (
	DomainPressureCount = 3
	MultiFrontDomains   = 2
)

func detectCorrelations(snap *snapshot.Context) []signal.Signal {
	var out []signal.Signal
	out = append(out, correlateDealEmails(snap)...)
	out = append(out, correlateOpenSignals(snap)...)
	return out
}

// correlateDealEmails links unanswered email from a deal contact to the deal.
func correlateDealEmails(snap *snapshot.Context) []signal.Signal {
	now := snap.Now()
	var out []signal.Signal
	for _, d := range snap.Deals {
		if !d.IsOpen() || d.ContactEmail == "" {
			continue
		}
		for _, e := range snap.Emails {
			if e.IsReplied || !sameAddress(e.From, d.ContactEmail) {
				continue
			}
			age := now.Sub(e.ReceivedAt)
			if age <= 24*time.Hour {
				continue
			}
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypeDealUpdate,
				Severity:         signal.SeverityUrgent,
				Domain:           domainOr(d.Domain, defaultDealDomain),
				Source:           "correlation",
				Title:            fmt.Sprintf("%s contact waiting %s for a reply", d.Name, humanDuration(age)),
				Context:          fmt.Sprintf("%q from %s is unanswered while the deal is in %s.", e.Subject, e.From, d.Stage),
				SuggestedAction:  "Reply today to keep the deal moving",
				RelatedEntityIDs: []string{d.ID, e.ID},
				ExpiresAt:        signal.ExpiresIn(now, 24*time.Hour),
			}))
		}
	}
	return out
}

// correlateOpenSignals looks across the signals still open from earlier cycles.
func correlateOpenSignals(snap *snapshot.Context) []signal.Signal {
	open := snap.OpenSignals()
	if len(open) == 0 {
		return nil
	}
	now := snap.Now()

	pressure := make(map[signal.Domain][]string)
	urgent := make(map[signal.Domain][]string)
	for _, s := range open {
		if s.IsExpired(now) {
			continue
		}
		if s.Severity.AtLeast(signal.SeverityAttention) {
			pressure[s.Domain] = append(pressure[s.Domain], s.ID)
		}
		if s.Severity.AtLeast(signal.SeverityUrgent) {
			urgent[s.Domain] = append(urgent[s.Domain], s.ID)
		}
	}

	var out []signal.Signal
	for _, d := range sortedDomains(pressure) {
		ids := pressure[d]
		if len(ids) < DomainPressureCount {
			continue
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypePatternInsight,
			Severity:         signal.SeverityAttention,
			Domain:           d,
			Source:           "correlation",
			Title:            fmt.Sprintf("%s is piling up (%s open)", d.Label(), plural(len(ids), "item")),
			Context:          "Several open signals in the same area usually share a root cause.",
			SuggestedAction:  fmt.Sprintf("Batch the %s items in one focused block", d.Label()),
			RelatedEntityIDs: append([]string{"domain:" + string(d)}, ids...),
			ExpiresAt:        endOfDay(snap.Date()),
		}))
	}

	fronts := sortedDomains(urgent)
	if len(fronts) >= MultiFrontDomains {
		labels := make([]string, len(fronts))
		ids := []string{"fronts:" + snap.Today}
		for i, d := range fronts {
			labels[i] = d.Label()
			ids = append(ids, urgent[d]...)
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypePatternInsight,
			Severity:         signal.SeverityUrgent,
			Domain:           fronts[0],
			Source:           "correlation",
			Title:            fmt.Sprintf("Pressure on %d fronts at once", len(fronts)),
			Context:          "Urgent items open in: " + strings.Join(labels, ", ") + ".",
			SuggestedAction:  "Pick the one that unblocks the most and defer the rest explicitly",
			RelatedEntityIDs: ids,
			ExpiresAt:        endOfDay(snap.Date()),
		}))
	}
	return out
}

func sortedDomains(m map[signal.Domain][]string) []signal.Domain {
	out := make([]signal.Domain, 0, len(m))
	for d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sameAddress(a, b string) bool {
	return normalizeAddress(a) == normalizeAddress(b)
}

// normalizeAddress strips a display name: "Dana <dana@x.com>" -> "dana@x.com".
func normalizeAddress(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "<"); i >= 0 {
		if j := strings.LastIndex(s, ">"); j > i {
			s = s[i+1 : j]
		}
	}
	return strings.ToLower(s)
}

package signal

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Type is the closed set of signal kinds.
type Type string

const (
	TypeAgingEmail          Type = "aging_email"
	TypeDeadlineApproaching Type = "deadline_approaching"
	TypeStreakAtRisk        Type = "streak_at_risk"
	TypeCalendarConflict    Type = "calendar_conflict"
	TypeDealUpdate          Type = "deal_update"
	TypePortfolioAlert      Type = "portfolio_alert"
	TypePatternInsight      Type = "pattern_insight"
	TypeFamilyAwareness     Type = "family_awareness"
	TypeHealthReminder      Type = "health_reminder"
	TypeFinancialUpdate     Type = "financial_update"
	TypeFollowUpDue         Type = "follow_up_due"
	TypeContextSwitchPrep   Type = "context_switch_prep"
	TypeStaleTask           Type = "stale_task"
)

var allTypes = []Type{
	TypeAgingEmail,
	TypeDeadlineApproaching,
	TypeStreakAtRisk,
	TypeCalendarConflict,
	TypeDealUpdate,
	TypePortfolioAlert,
	TypePatternInsight,
	TypeFamilyAwareness,
	TypeHealthReminder,
	TypeFinancialUpdate,
	TypeFollowUpDue,
	TypeContextSwitchPrep,
	TypeStaleTask,
}

// AllTypes returns every known signal type.
func AllTypes() []Type {
	out := make([]Type, len(allTypes))
	copy(out, allTypes)
	return out
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, known := range allTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseType converts user input to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid signal type %q", s)
	}
	return t, nil
}

// Domain is the life area a signal belongs to.
type Domain string

const (
	DomainBusinessRE      Domain = "business_re"
	DomainBusinessTrading Domain = "business_trading"
	DomainBusinessTech    Domain = "business_tech"
	DomainFinance         Domain = "finance"
	DomainFamily          Domain = "family"
	DomainHealthFitness   Domain = "health_fitness"
	DomainPersonalGrowth  Domain = "personal_growth"
	DomainSocial          Domain = "social"
	DomainCreative        Domain = "creative"
	DomainSpiritual       Domain = "spiritual"
)

var allDomains = []Domain{
	DomainBusinessRE,
	DomainBusinessTrading,
	DomainBusinessTech,
	DomainFinance,
	DomainFamily,
	DomainHealthFitness,
	DomainPersonalGrowth,
	DomainSocial,
	DomainCreative,
	DomainSpiritual,
}

// AllDomains returns every known domain.
func AllDomains() []Domain {
	out := make([]Domain, len(allDomains))
	copy(out, allDomains)
	return out
}

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	for _, known := range allDomains {
		if d == known {
			return true
		}
	}
	return false
}

// Label renders the domain for humans, e.g. "Health Fitness".
func (d Domain) Label() string {
	words := strings.ReplaceAll(string(d), "_", " ")
	switch d {
	case DomainBusinessRE:
		return "Business Real Estate"
	}
	return cases.Title(language.English).String(words)
}

// ParseDomain converts user input to a Domain.
func ParseDomain(s string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid domain %q", s)
	}
	return d, nil
}

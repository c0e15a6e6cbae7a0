package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityOrdering(t *testing.T) {
	assert.True(t, MoreSevere(SeverityCritical, SeverityUrgent))
	assert.True(t, MoreSevere(SeverityUrgent, SeverityAttention))
	assert.True(t, MoreSevere(SeverityAttention, SeverityInfo))
	assert.False(t, MoreSevere(SeverityInfo, SeverityInfo))
	assert.True(t, SeverityUrgent.AtLeast(SeverityAttention))
	assert.False(t, SeverityInfo.AtLeast(SeverityAttention))

	assert.Equal(t, 100.0, SeverityCritical.BaseScore())
	assert.Equal(t, 75.0, SeverityUrgent.BaseScore())
	assert.Equal(t, 50.0, SeverityAttention.BaseScore())
	assert.Equal(t, 25.0, SeverityInfo.BaseScore())
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity(" Urgent ")
	require.NoError(t, err)
	assert.Equal(t, SeverityUrgent, sev)

	_, err = ParseSeverity("meh")
	assert.Error(t, err)
}

func TestNewSignal(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sig := New(Draft{
		Type:     TypeAgingEmail,
		Severity: SeverityAttention,
		Domain:   DomainBusinessTech,
		Source:   "aging",
		Title:    "Reply to Dana",
	}, now)

	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, now, sig.CreatedAt)
	assert.NotNil(t, sig.RelatedEntityIDs)
	assert.Equal(t, NoEntity, sig.PrimaryEntityID())
	assert.True(t, sig.IsActive())
	require.NoError(t, sig.Validate())

	sig.RelatedEntityIDs = []string{"email-1", "deal-2"}
	assert.Equal(t, "email-1", sig.PrimaryEntityID())
}

func TestSignalValidate(t *testing.T) {
	sig := Signal{ID: "s1", Type: "bogus", Severity: SeverityInfo, Domain: DomainFinance, Source: "x", Title: "t"}
	assert.Error(t, sig.Validate())

	sig.Type = TypeFinancialUpdate
	sig.Domain = "mars"
	assert.Error(t, sig.Validate())

	sig.Domain = DomainFinance
	assert.NoError(t, sig.Validate())
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sig := Signal{ID: "s1"}
	assert.False(t, sig.IsExpired(now))

	sig.ExpiresAt = ExpiresIn(now, -time.Minute)
	assert.True(t, sig.IsExpired(now))

	sig.ExpiresAt = ExpiresIn(now, time.Minute)
	assert.False(t, sig.IsExpired(now))
}

func TestWeightRecompute(t *testing.T) {
	w := NewWeight(TypeAgingEmail, DomainBusinessTech, time.Now())
	assert.Equal(t, 1.0, w.Modifier())

	w.Recompute()
	assert.Equal(t, 0.0, w.EffectivenessScore)

	w.TotalGenerated = 4
	w.TotalActedOn = 1
	w.TotalDismissed = 2
	w.Recompute()
	assert.InDelta(t, 0.25, w.EffectivenessScore, 1e-9)
	assert.InDelta(t, 0.5, w.DismissRate(), 1e-9)
	assert.Equal(t, "aging_email|business_tech", w.Key())
}

func TestDomainLabel(t *testing.T) {
	assert.Equal(t, "Health Fitness", DomainHealthFitness.Label())
	assert.Equal(t, "Business Real Estate", DomainBusinessRE.Label())
	assert.True(t, DomainSpiritual.Valid())
	assert.False(t, Domain("work").Valid())
}

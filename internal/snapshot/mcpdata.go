package snapshot

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Well-known integration keys inside MCPData.
const (
	MCPKeyBrokerage      = "brokerage"
	MCPKeyFamilyCalendar = "family_calendar"
)

// Position is one holding reported by the brokerage integration.
type Position struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	CostBasis    decimal.Decimal `json:"cost_basis"`
	Price        decimal.Decimal `json:"price"`
	DayChangePct decimal.Decimal `json:"day_change_pct"`
}

// MarketValue is quantity times price.
func (p Position) MarketValue() decimal.Decimal {
	return p.Quantity.Mul(p.Price)
}

// CostValue is quantity times cost basis.
func (p Position) CostValue() decimal.Decimal {
	return p.Quantity.Mul(p.CostBasis)
}

// ReturnPct is the unrealised return in percent; zero without a cost basis.
func (p Position) ReturnPct() decimal.Decimal {
	if p.CostBasis.IsZero() {
		return decimal.Zero
	}
	return p.Price.Sub(p.CostBasis).Div(p.CostBasis).Mul(decimal.NewFromInt(100))
}

// Brokerage is the portfolio snapshot pushed by the brokerage integration.
type Brokerage struct {
	AccountID string          `json:"account_id,omitempty"`
	Cash      decimal.Decimal `json:"cash"`
	Positions []Position      `json:"positions"`
}

// TotalValue is cash plus the market value of all positions.
func (b Brokerage) TotalValue() decimal.Decimal {
	total := b.Cash
	for _, p := range b.Positions {
		total = total.Add(p.MarketValue())
	}
	return total
}

// DayChange is the value change implied by each position's day move.
func (b Brokerage) DayChange() decimal.Decimal {
	change := decimal.Zero
	hundred := decimal.NewFromInt(100)
	for _, p := range b.Positions {
		mv := p.MarketValue()
		// previous = mv / (1 + pct/100); change = mv - previous
		denom := decimal.NewFromInt(1).Add(p.DayChangePct.Div(hundred))
		if denom.IsZero() {
			continue
		}
		change = change.Add(mv.Sub(mv.Div(denom)))
	}
	return change
}

// FamilyEvent is an entry on a family member's calendar.
type FamilyEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Member    string    `json:"member"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Important bool      `json:"important"`
}

// Brokerage decodes the brokerage integration payload. ok is false when the
// key is absent or the payload does not have the expected shape.
func (c *Context) Brokerage() (Brokerage, bool) {
	var b Brokerage
	if !c.decodeMCP(MCPKeyBrokerage, &b) {
		return Brokerage{}, false
	}
	return b, true
}

// FamilyCalendar decodes the family calendar payload, either a bare list of
// events or an object with an "events" list.
func (c *Context) FamilyCalendar() ([]FamilyEvent, bool) {
	var events []FamilyEvent
	if c.decodeMCP(MCPKeyFamilyCalendar, &events) {
		return events, true
	}
	var wrapped struct {
		Events []FamilyEvent `json:"events"`
	}
	if c.decodeMCP(MCPKeyFamilyCalendar, &wrapped) {
		return wrapped.Events, true
	}
	return nil, false
}

func (c *Context) decodeMCP(key string, out any) bool {
	raw, ok := c.MCPData[key]
	if !ok || raw == nil {
		return false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

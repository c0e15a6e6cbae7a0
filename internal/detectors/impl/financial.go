package impl

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Portfolio thresholds, in percent.
var (
	LossUrgentPct     = decimal.NewFromInt(10)
	LossAttentionPct  = decimal.NewFromInt(5)
	DayMovePct        = decimal.NewFromInt(5)
	ConcentrationPct  = decimal.NewFromInt(40)
	hundred           = decimal.NewFromInt(100)
	portfolioValidFor = 8 * time.Hour
)

func positionID(p snapshot.Position) string {
	return "position:" + p.Symbol
}

func detectFinancial(snap *snapshot.Context) []signal.Signal {
	book, ok := snap.Brokerage()
	if !ok || len(book.Positions) == 0 {
		return nil
	}
	now := snap.Now()
	total := book.TotalValue()
	var out []signal.Signal

	for _, p := range book.Positions {
		if p.Symbol == "" {
			continue
		}
		ret := p.ReturnPct()
		loss := ret.Neg()

		var lossSev signal.Severity
		switch {
		case loss.GreaterThanOrEqual(LossUrgentPct):
			lossSev = signal.SeverityUrgent
		case loss.GreaterThanOrEqual(LossAttentionPct):
			lossSev = signal.SeverityAttention
		}
		if lossSev != "" {
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypePortfolioAlert,
				Severity:         lossSev,
				Domain:           signal.DomainBusinessTrading,
				Source:           "financial",
				Title:            fmt.Sprintf("%s down %s%% from cost", p.Symbol, loss.StringFixed(1)),
				Context:          fmt.Sprintf("Cost %s, now %s, %s shares.", p.CostBasis.StringFixed(2), p.Price.StringFixed(2), p.Quantity.String()),
				SuggestedAction:  "Review the thesis and your stop level",
				RelatedEntityIDs: []string{positionID(p)},
				ExpiresAt:        signal.ExpiresIn(now, portfolioValidFor),
			}))
		}

		if p.DayChangePct.Abs().GreaterThanOrEqual(DayMovePct) {
			direction := "up"
			if p.DayChangePct.IsNegative() {
				direction = "down"
			}
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypePortfolioAlert,
				Severity:         signal.SeverityAttention,
				Domain:           signal.DomainBusinessTrading,
				Source:           "financial",
				Title:            fmt.Sprintf("%s %s %s%% today", p.Symbol, direction, p.DayChangePct.Abs().StringFixed(1)),
				Context:          fmt.Sprintf("Position value %s.", p.MarketValue().StringFixed(2)),
				SuggestedAction:  "Check the news before the close",
				RelatedEntityIDs: []string{positionID(p)},
				ExpiresAt:        signal.ExpiresIn(now, portfolioValidFor),
			}))
		}

		if total.IsPositive() {
			share := p.MarketValue().Div(total).Mul(hundred)
			if share.GreaterThan(ConcentrationPct) {
				out = append(out, emit(snap, signal.Draft{
					Type:             signal.TypeFinancialUpdate,
					Severity:         signal.SeverityInfo,
					Domain:           signal.DomainFinance,
					Source:           "financial",
					Title:            fmt.Sprintf("%s is %s%% of the portfolio", p.Symbol, share.StringFixed(0)),
					Context:          fmt.Sprintf("Portfolio value %s.", total.StringFixed(2)),
					SuggestedAction:  "Consider rebalancing",
					RelatedEntityIDs: []string{positionID(p)},
					ExpiresAt:        signal.ExpiresIn(now, 24*time.Hour),
				}))
			}
		}
	}
	return out
}

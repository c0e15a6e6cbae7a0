package impl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/utils"
)

// MaxInsights caps how many observations one cycle accepts from the model.
const MaxInsights = 3

const insightSystemPrompt = `You review a person's day across work, money, family and health.
Return a JSON array (no prose) of at most 3 short observations that are not obvious from any single item.
Each element: {"title": string, "context": string, "domain": one of business_re, business_trading, business_tech, finance, family, health_fitness, personal_growth, social, creative, spiritual}.
Return [] when nothing stands out.`

// InsightDetector asks an external chat model for cross-cutting observations.
type InsightDetector struct {
	model model.BaseChatModel
}

// NewInsightDetector wraps a chat model.
func NewInsightDetector(m model.BaseChatModel) *InsightDetector {
	return &InsightDetector{model: m}
}

func (d *InsightDetector) Name() string { return "insight" }

func (d *InsightDetector) Description() string {
	return "Model-generated observations across all domains"
}

type insightDigest struct {
	Today          string   `json:"today"`
	OpenTasks      int      `json:"open_tasks"`
	DueSoon        []string `json:"due_soon,omitempty"`
	UnrepliedEmail int      `json:"unreplied_email"`
	EventsToday    []string `json:"events_today,omitempty"`
	OpenDeals      []string `json:"open_deals,omitempty"`
	OpenSignals    []string `json:"open_signals,omitempty"`
}

type insightItem struct {
	Title   string `json:"title"`
	Context string `json:"context"`
	Domain  string `json:"domain"`
}

func (d *InsightDetector) Detect(ctx context.Context, snap *snapshot.Context) ([]signal.Signal, error) {
	digest := buildDigest(snap)
	if digest.OpenTasks == 0 && digest.UnrepliedEmail == 0 && len(digest.EventsToday) == 0 &&
		len(digest.OpenDeals) == 0 && len(digest.OpenSignals) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(digest)
	if err != nil {
		return nil, fmt.Errorf("encode digest: %w", err)
	}

	resp, err := d.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(insightSystemPrompt),
		schema.UserMessage(string(payload)),
	})
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}
	if resp == nil {
		return nil, nil
	}

	items, err := parseInsights(resp.Content)
	if err != nil {
		return nil, err
	}

	now := snap.Now()
	out := make([]signal.Signal, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			continue
		}
		out = append(out, emit(snap, signal.Draft{
			Type:      signal.TypePatternInsight,
			Severity:  signal.SeverityInfo,
			Domain:    domainOr(signal.Domain(it.Domain), signal.DomainPersonalGrowth),
			Source:    d.Name(),
			Title:     it.Title,
			Context:   it.Context,
			ExpiresAt: signal.ExpiresIn(now, 12*time.Hour),
		}))
		if len(out) == MaxInsights {
			break
		}
	}
	return out, nil
}

func buildDigest(snap *snapshot.Context) insightDigest {
	dg := insightDigest{Today: snap.Today}
	today := snap.Date()
	for _, t := range snap.Tasks {
		if !t.IsActive() {
			continue
		}
		dg.OpenTasks++
		if t.DueDate != nil && t.DueDate.DaysFrom(today) <= 3 {
			dg.DueSoon = append(dg.DueSoon, t.Title)
		}
	}
	for _, e := range snap.Emails {
		if !e.IsReplied && !e.Promotional() {
			dg.UnrepliedEmail++
		}
	}
	for _, e := range snap.CalendarEvents {
		if snapshot.CalendarDays(today, e.Start) == 0 {
			dg.EventsToday = append(dg.EventsToday, e.Title)
		}
	}
	for _, deal := range snap.Deals {
		if deal.IsOpen() {
			dg.OpenDeals = append(dg.OpenDeals, fmt.Sprintf("%s (%s)", deal.Name, deal.Stage))
		}
	}
	for _, s := range snap.OpenSignals() {
		dg.OpenSignals = append(dg.OpenSignals, fmt.Sprintf("[%s] %s", s.Severity, s.Title))
	}
	return dg
}

// parseInsights reads the model's JSON array, tolerating fences, prose and
// the usual syntax slips.
func parseInsights(content string) ([]insightItem, error) {
	items, err := utils.ExtractAndParseJSON[[]insightItem](content)
	if err != nil {
		return nil, fmt.Errorf("parse insights: %w", err)
	}
	return items, nil
}

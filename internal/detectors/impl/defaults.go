package impl

import (
	"github.com/cloudwego/eino/components/model"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
)

// Options configures the built-in detector set.
type Options struct {
	StaleTaskDays int
	// ChatModel enables the insight detector when set.
	ChatModel model.BaseChatModel
}

// Defaults returns the built-in detectors in launch order.
func Defaults(opts Options) []core.Detector {
	detectors := []core.Detector{
		NewAgingDetector(opts.StaleTaskDays),
		core.Pure("deadline", "Task due dates and deal close dates", detectDeadlines),
		core.Pure("streak", "Habit streaks with no activity today", detectStreaks),
		core.Pure("context_switch", "Calendar events starting within 30 minutes", detectContextSwitches),
		core.Pure("pattern", "Pace shortfalls, overbooked days, and overlapping events", detectPatterns),
		core.Pure("financial", "Brokerage positions with large losses, moves, or concentration", detectFinancial),
		core.Pure("family", "Family calendar events that clash with yours or start soon", detectFamily),
		core.Pure("correlation", "Deal contacts awaiting replies and domains under pressure", detectCorrelations),
	}
	if opts.ChatModel != nil {
		detectors = append(detectors, NewInsightDetector(opts.ChatModel))
	}
	return detectors
}

// RegisterDefaults registers the built-in detectors.
func RegisterDefaults(reg *core.Registry, opts Options) error {
	for _, d := range Defaults(opts) {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

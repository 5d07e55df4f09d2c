package daily

import (
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/monthcache"
)

// ViewModel is what the dashboard shows for a single day. Nil fields mean
// there is no entry for that day.
type ViewModel struct {
	Date      string   `json:"date"`
	Summary   *string  `json:"summary"`
	Sleep     *float64 `json:"sleep"`
	Study     *float64 `json:"study"`
	IsLoading bool     `json:"isLoading"`
}

// Project derives the view of date from the cache without triggering any load.
// IsLoading only reflects whether the month was loaded, not whether the day
// has data. An empty summary counts as no summary.
func Project(date datepath.Date, cache monthcache.Reader) ViewModel {
	entry, loaded := cache.Day(date)
	view := ViewModel{
		Date:      date.String(),
		Sleep:     entry.Sleep,
		Study:     entry.Study,
		IsLoading: !loaded,
	}
	if entry.Summary != nil && *entry.Summary != "" {
		view.Summary = entry.Summary
	}
	return view
}

package dashboard

import (
	"sort"
	"sync"

	"github.com/klokku/daybook/internal/event_bus"
)

type MonthStatus struct {
	Key     string `json:"key"`
	Study   int    `json:"study"`
	Sleep   int    `json:"sleep"`
	Summary int    `json:"summary"`
}

type UnavailableResource struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	NotFound bool   `json:"notFound"`
	Reason   string `json:"reason"`
}

// StatusTracker records loader and cache events for the status endpoint.
type StatusTracker struct {
	mu          sync.RWMutex
	months      map[string]MonthStatus
	unavailable map[string]UnavailableResource
}

func NewStatusTracker(bus *event_bus.EventBus) *StatusTracker {
	t := &StatusTracker{
		months:      make(map[string]MonthStatus),
		unavailable: make(map[string]UnavailableResource),
	}
	event_bus.SubscribeTyped(bus, event_bus.MonthLoadedEvent, func(e event_bus.EventT[event_bus.MonthLoaded]) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.months[e.Data.Key] = MonthStatus{
			Key:     e.Data.Key,
			Study:   e.Data.Study,
			Sleep:   e.Data.Sleep,
			Summary: e.Data.Summary,
		}
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.PartitionUnavailableEvent, func(e event_bus.EventT[event_bus.PartitionUnavailable]) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.unavailable[e.Data.Path] = UnavailableResource{
			Path:     e.Data.Path,
			Kind:     e.Data.Kind,
			NotFound: e.Data.NotFound,
			Reason:   e.Data.Reason,
		}
		return nil
	})
	return t
}

func (t *StatusTracker) Months() []MonthStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	months := make([]MonthStatus, 0, len(t.months))
	for _, m := range t.months {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Key < months[j].Key })
	return months
}

func (t *StatusTracker) Unavailable() []UnavailableResource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	resources := make([]UnavailableResource, 0, len(t.unavailable))
	for _, r := range t.unavailable {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].Path < resources[j].Path })
	return resources
}

package monthcache

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/klokku/daybook/internal/event_bus"
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/partition"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// MonthLoader is the part of partition.Loader the cache needs.
type MonthLoader interface {
	LoadMonth(ctx context.Context, date datepath.Date) partition.MonthData
}

// DayEntry holds the values of one day. Nil fields have no entry.
type DayEntry struct {
	Study   *float64
	Sleep   *float64
	Summary *string
}

// Reader is the read-only view of the cache. Values returned are copies.
type Reader interface {
	IsMonthLoaded(date datepath.Date) bool
	Day(date datepath.Date) (DayEntry, bool)
	StudyHours(date datepath.Date) (float64, bool)
	SleepHours(date datepath.Date) (float64, bool)
	Summary(date datepath.Date) (string, bool)
	Series(kind partition.Kind) partition.HoursMap
	LoadedMonths() []string
	Entries() int
}

// Cache owns the cumulative maps and the set of loaded months. Each month is
// loaded at most once per Cache; months are never evicted or reloaded, even
// when they turned out to be empty.
type Cache struct {
	loader MonthLoader
	bus    *event_bus.EventBus

	mu      sync.RWMutex
	study   partition.HoursMap
	sleep   partition.HoursMap
	summary partition.SummaryMap
	loaded  map[string]struct{}

	inflight singleflight.Group
}

func New(loader MonthLoader, bus *event_bus.EventBus) *Cache {
	return &Cache{
		loader:  loader,
		bus:     bus,
		study:   partition.HoursMap{},
		sleep:   partition.HoursMap{},
		summary: partition.SummaryMap{},
		loaded:  make(map[string]struct{}),
	}
}

// EnsureLoaded loads the month containing date unless it is already loaded.
// Concurrent callers for the same month share a single load. The load runs
// detached from ctx, so a caller giving up does not abort it; the returned
// error is only ever ctx's error.
func (c *Cache) EnsureLoaded(ctx context.Context, date datepath.Date) error {
	key := datepath.MonthKeyOf(date)
	if c.isLoaded(key) {
		log.Tracef("Month %s already loaded", key)
		return nil
	}

	loadCtx := context.WithoutCancel(ctx)
	result := c.inflight.DoChan(key, func() (any, error) {
		// A load for key may have finished between isLoaded and DoChan.
		if c.isLoaded(key) {
			return nil, nil
		}
		c.merge(loadCtx, key, c.loader.LoadMonth(loadCtx, date))
		return nil, nil
	})

	select {
	case <-result:
		return nil
	case <-ctx.Done():
		log.Debugf("Stopped waiting for month %s: %v", key, ctx.Err())
		return ctx.Err()
	}
}

func (c *Cache) merge(ctx context.Context, key string, data partition.MonthData) {
	c.mu.Lock()
	maps.Copy(c.study, data.Study)
	maps.Copy(c.sleep, data.Sleep)
	maps.Copy(c.summary, data.Summary)
	c.loaded[key] = struct{}{}
	c.mu.Unlock()

	if data.Entries() == 0 {
		log.Infof("Month %s has no data, it will not be fetched again", key)
	} else {
		log.Debugf("Merged month %s: %d study, %d sleep, %d summary entries", key, len(data.Study), len(data.Sleep), len(data.Summary))
	}

	event := event_bus.NewEvent(ctx, event_bus.MonthLoadedEvent, event_bus.MonthLoaded{
		Key:     key,
		Study:   len(data.Study),
		Sleep:   len(data.Sleep),
		Summary: len(data.Summary),
	})
	if err := c.bus.Publish(event); err != nil {
		log.Errorf("Failed to publish month %s loaded: %v", key, err)
	}
}

func (c *Cache) isLoaded(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.loaded[key]
	return ok
}

func (c *Cache) IsMonthLoaded(date datepath.Date) bool {
	return c.isLoaded(datepath.MonthKeyOf(date))
}

// Day reads every value of date together with whether its month is loaded,
// as one snapshot. A concurrent merge is seen either completely or not at all.
func (c *Cache) Day(date datepath.Date) (DayEntry, bool) {
	key := date.String()
	c.mu.RLock()
	defer c.mu.RUnlock()
	var entry DayEntry
	if v, ok := c.study[key]; ok {
		entry.Study = &v
	}
	if v, ok := c.sleep[key]; ok {
		entry.Sleep = &v
	}
	if v, ok := c.summary[key]; ok {
		entry.Summary = &v
	}
	_, loaded := c.loaded[datepath.MonthKeyOf(date)]
	return entry, loaded
}

func (c *Cache) StudyHours(date datepath.Date) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.study[date.String()]
	return v, ok
}

func (c *Cache) SleepHours(date datepath.Date) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.sleep[date.String()]
	return v, ok
}

func (c *Cache) Summary(date datepath.Date) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.summary[date.String()]
	return v, ok
}

// Series returns a copy of the cumulative hours of kind. Summary is not an
// hours series and yields an empty map.
func (c *Cache) Series(kind partition.Kind) partition.HoursMap {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch kind {
	case partition.Study:
		return maps.Clone(c.study)
	case partition.Sleep:
		return maps.Clone(c.sleep)
	default:
		return partition.HoursMap{}
	}
}

// LoadedMonths returns the loaded month keys, sorted.
func (c *Cache) LoadedMonths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.loaded))
}

// Entries counts every merged entry across kinds.
func (c *Cache) Entries() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.study) + len(c.sleep) + len(c.summary)
}

package partition

import (
	"context"
	"errors"
	"path"

	"github.com/klokku/daybook/internal/event_bus"
	"github.com/klokku/daybook/pkg/datepath"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Loader fetches partitions. It never fails: unavailable resources come back
// empty.
type Loader interface {
	LoadMonth(ctx context.Context, date datepath.Date) MonthData
	// LoadBucketList also reports whether the checklist resource was obtained.
	LoadBucketList(ctx context.Context) ([]BucketItem, bool)
}

type LoaderImpl struct {
	fetcher Fetcher
	root    string
	bus     *event_bus.EventBus
}

// NewLoader builds a loader reading below root, e.g. "data" for
// data/twenty-five/january/study.json. bus may be nil.
func NewLoader(fetcher Fetcher, root string, bus *event_bus.EventBus) *LoaderImpl {
	return &LoaderImpl{
		fetcher: fetcher,
		root:    root,
		bus:     bus,
	}
}

// MonthPath is the resource path of one kind of month partition.
func (l *LoaderImpl) MonthPath(p datepath.Path, kind Kind) string {
	return path.Join(l.root, p.MonthDir(), string(kind)+".json")
}

func (l *LoaderImpl) BucketListPath() string {
	return path.Join(l.root, BucketListFile)
}

func (l *LoaderImpl) LoadMonth(ctx context.Context, date datepath.Date) MonthData {
	p := datepath.Resolve(date)
	log.Debugf("Loading month %s", p.MonthKey())

	var study, sleep HoursMap
	var summary SummaryMap
	var studyOk, sleepOk, summaryOk bool

	// Every fetch degrades to empty on its own, so the group never fails.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		study, studyOk = fetchMap[HoursMap](gctx, l, l.MonthPath(p, Study), Study)
		dropNegative(l.MonthPath(p, Study), study)
		return nil
	})
	g.Go(func() error {
		sleep, sleepOk = fetchMap[HoursMap](gctx, l, l.MonthPath(p, Sleep), Sleep)
		dropNegative(l.MonthPath(p, Sleep), sleep)
		return nil
	})
	g.Go(func() error {
		summary, summaryOk = fetchMap[SummaryMap](gctx, l, l.MonthPath(p, Summary), Summary)
		return nil
	})
	_ = g.Wait()

	data := MonthData{Study: study, Sleep: sleep, Summary: summary}
	if !studyOk {
		data.Unavailable = append(data.Unavailable, Study)
	}
	if !sleepOk {
		data.Unavailable = append(data.Unavailable, Sleep)
	}
	if !summaryOk {
		data.Unavailable = append(data.Unavailable, Summary)
	}
	log.Debugf("Loaded month %s: %d entries, unavailable: %v", p.MonthKey(), data.Entries(), data.Unavailable)
	return data
}

func (l *LoaderImpl) LoadBucketList(ctx context.Context) ([]BucketItem, bool) {
	resourcePath := l.BucketListPath()
	var items []BucketItem
	if err := l.fetcher.Fetch(ctx, resourcePath, &items); err != nil {
		l.unavailable(ctx, resourcePath, "bucketList", err)
		return []BucketItem{}, false
	}
	if items == nil {
		items = []BucketItem{}
	}
	return items, true
}

func fetchMap[M ~map[string]V, V any](ctx context.Context, l *LoaderImpl, resourcePath string, kind Kind) (M, bool) {
	var m M
	if err := l.fetcher.Fetch(ctx, resourcePath, &m); err != nil {
		l.unavailable(ctx, resourcePath, string(kind), err)
		return M{}, false
	}
	if m == nil {
		m = M{}
	}
	return m, true
}

// dropNegative removes entries with negative hours, which no partition may hold.
func dropNegative(resourcePath string, hours HoursMap) {
	for date, v := range hours {
		if v < 0 {
			log.Warnf("Ignoring negative hours %v for %s in %s", v, date, resourcePath)
			delete(hours, date)
		}
	}
}

func (l *LoaderImpl) unavailable(ctx context.Context, resourcePath string, kind string, err error) {
	notFound := errors.Is(err, ErrNotFound)
	if notFound {
		log.Debugf("Resource %s not found, using empty %s", resourcePath, kind)
	} else {
		log.Warnf("Could not load %s, using empty %s: %v", resourcePath, kind, err)
	}
	event := event_bus.NewEvent(context.WithoutCancel(ctx), event_bus.PartitionUnavailableEvent, event_bus.PartitionUnavailable{
		Path:     resourcePath,
		Kind:     kind,
		NotFound: notFound,
		Reason:   err.Error(),
	})
	if err := l.bus.Publish(event); err != nil {
		log.Errorf("Failed to publish unavailable partition %s: %v", resourcePath, err)
	}
}

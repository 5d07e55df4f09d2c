package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/klokku/daybook/internal/utils"
	"github.com/klokku/daybook/pkg/bucketlist"
	"github.com/klokku/daybook/pkg/daily"
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/monthcache"
	"github.com/klokku/daybook/pkg/partition"
	log "github.com/sirupsen/logrus"
)

// ErrCriticalBootstrap means neither the bucket list nor any month data could
// be obtained, so there is nothing to show at all.
var ErrCriticalBootstrap = errors.New("no dashboard data available")

var ErrUnknownKind = errors.New("unknown series kind")

type Service interface {
	Bootstrap(ctx context.Context) error
	BootstrapError() error
	EnsureLoaded(ctx context.Context, date datepath.Date) error
	GetViewModel(date datepath.Date) daily.ViewModel
	GetSeries(kind partition.Kind) (partition.HoursMap, error)
	GetMonthSeries(kind partition.Kind, date datepath.Date) ([]daily.ChartPoint, error)
	GetBucketList() []partition.BucketItem
	BucketListProgress() int
	ToggleBucketItem(id int) (partition.BucketItem, error)
	Navigate(date datepath.Date, days int) datepath.Date
	StartDate() datepath.Date
	LoadedMonths() []string
}

type ServiceImpl struct {
	loader    partition.Loader
	cache     *monthcache.Cache
	checklist *bucketlist.Checklist
	clock     utils.Clock
	startDate datepath.Date

	mu           sync.RWMutex
	bootstrapped bool
	bucketListOk bool
}

// NewService creates the dashboard service. A zero startDate means today
// according to clock.
func NewService(loader partition.Loader, cache *monthcache.Cache, clock utils.Clock, startDate datepath.Date) *ServiceImpl {
	return &ServiceImpl{
		loader:    loader,
		cache:     cache,
		checklist: bucketlist.NewChecklist(nil),
		clock:     clock,
		startDate: startDate,
	}
}

// Bootstrap loads the bucket list and the month of the start date.
func (s *ServiceImpl) Bootstrap(ctx context.Context) error {
	items, bucketListOk := s.loader.LoadBucketList(ctx)
	s.checklist.Reset(items)

	start := s.StartDate()
	if err := s.cache.EnsureLoaded(ctx, start); err != nil {
		return fmt.Errorf("failed to load month of %s: %w", start, err)
	}

	s.mu.Lock()
	s.bootstrapped = true
	s.bucketListOk = bucketListOk
	s.mu.Unlock()

	err := s.BootstrapError()
	if err != nil {
		log.Error(err)
	} else {
		log.Infof("Dashboard ready: %d bucket list items, months loaded: %v", len(items), s.cache.LoadedMonths())
	}
	return err
}

// BootstrapError reports ErrCriticalBootstrap while the bucket list is
// unavailable and no month has contributed any entry. It clears as soon as a
// later load brings data. Before Bootstrap it is always nil.
func (s *ServiceImpl) BootstrapError() error {
	s.mu.RLock()
	critical := s.bootstrapped && !s.bucketListOk
	s.mu.RUnlock()
	if critical && s.cache.Entries() == 0 {
		return fmt.Errorf("%w: bucket list unavailable and months %v hold no entries", ErrCriticalBootstrap, s.cache.LoadedMonths())
	}
	return nil
}

func (s *ServiceImpl) EnsureLoaded(ctx context.Context, date datepath.Date) error {
	return s.cache.EnsureLoaded(ctx, date)
}

func (s *ServiceImpl) GetViewModel(date datepath.Date) daily.ViewModel {
	return daily.Project(date, s.cache)
}

func (s *ServiceImpl) GetSeries(kind partition.Kind) (partition.HoursMap, error) {
	if kind != partition.Study && kind != partition.Sleep {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s.cache.Series(kind), nil
}

func (s *ServiceImpl) GetMonthSeries(kind partition.Kind, date datepath.Date) ([]daily.ChartPoint, error) {
	series, err := s.GetSeries(kind)
	if err != nil {
		return nil, err
	}
	return daily.MonthSeries(series, date), nil
}

func (s *ServiceImpl) GetBucketList() []partition.BucketItem {
	return s.checklist.Items()
}

func (s *ServiceImpl) BucketListProgress() int {
	return s.checklist.Progress()
}

func (s *ServiceImpl) ToggleBucketItem(id int) (partition.BucketItem, error) {
	return s.checklist.Toggle(id)
}

func (s *ServiceImpl) Navigate(date datepath.Date, days int) datepath.Date {
	return date.AddDays(days)
}

func (s *ServiceImpl) StartDate() datepath.Date {
	if s.startDate == (datepath.Date{}) {
		return datepath.FromTime(s.clock.Now())
	}
	return s.startDate
}

func (s *ServiceImpl) LoadedMonths() []string {
	return s.cache.LoadedMonths()
}

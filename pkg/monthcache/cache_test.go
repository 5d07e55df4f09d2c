package monthcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/klokku/daybook/internal/event_bus"
	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/partition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	jan5  = datepath.MustParseDate("2025-01-05")
	jan20 = datepath.MustParseDate("2025-01-20")
	feb3  = datepath.MustParseDate("2025-02-03")
)

func setup(t *testing.T) (*Cache, *partition.FetcherStub, *[]event_bus.MonthLoaded) {
	fetcher := partition.NewFetcherStub()
	bus := event_bus.NewEventBus()
	var mu sync.Mutex
	var loaded []event_bus.MonthLoaded
	event_bus.SubscribeTyped(bus, event_bus.MonthLoadedEvent, func(e event_bus.EventT[event_bus.MonthLoaded]) error {
		mu.Lock()
		defer mu.Unlock()
		loaded = append(loaded, e.Data)
		return nil
	})
	t.Cleanup(fetcher.Release)
	return New(partition.NewLoader(fetcher, "data", bus), bus), fetcher, &loaded
}

func givenJanuary(fetcher *partition.FetcherStub) {
	fetcher.Set("data/twenty-five/january/study.json", map[string]float64{"2025-01-05": 3.5, "2025-01-20": 1})
	fetcher.Set("data/twenty-five/january/sleep.json", map[string]float64{"2025-01-05": 7})
	fetcher.Set("data/twenty-five/january/summary.json", map[string]string{"2025-01-05": "Finished the draft"})
}

func givenFebruary(fetcher *partition.FetcherStub) {
	fetcher.Set("data/twenty-five/february/study.json", map[string]float64{"2025-02-03": 2})
	fetcher.Set("data/twenty-five/february/sleep.json", map[string]float64{"2025-02-03": 8})
	fetcher.Set("data/twenty-five/february/summary.json", map[string]string{})
}

func TestCache_EnsureLoaded(t *testing.T) {
	cache, fetcher, loaded := setup(t)

	// given
	givenJanuary(fetcher)
	assert.False(t, cache.IsMonthLoaded(jan5))

	// when
	err := cache.EnsureLoaded(context.Background(), jan5)

	// then
	require.NoError(t, err)
	assert.True(t, cache.IsMonthLoaded(jan5))
	assert.True(t, cache.IsMonthLoaded(jan20))
	study, ok := cache.StudyHours(jan5)
	assert.True(t, ok)
	assert.Equal(t, 3.5, study)
	sleep, ok := cache.SleepHours(jan5)
	assert.True(t, ok)
	assert.Equal(t, 7.0, sleep)
	summary, ok := cache.Summary(jan5)
	assert.True(t, ok)
	assert.Equal(t, "Finished the draft", summary)
	_, ok = cache.SleepHours(jan20)
	assert.False(t, ok)
	assert.Equal(t, []string{"twenty-five-january"}, cache.LoadedMonths())
	assert.Equal(t, []event_bus.MonthLoaded{{Key: "twenty-five-january", Study: 2, Sleep: 1, Summary: 1}}, *loaded)
}

func TestCache_EnsureLoaded_IsIdempotent(t *testing.T) {
	cache, fetcher, loaded := setup(t)
	givenJanuary(fetcher)

	// when
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan20))

	// then
	assert.Equal(t, 3, fetcher.TotalCalls())
	assert.Len(t, *loaded, 1)
}

func TestCache_EnsureLoaded_PartialFailure(t *testing.T) {
	cache, fetcher, _ := setup(t)

	// given
	fetcher.Set("data/twenty-five/january/study.json", map[string]float64{"2025-01-05": 3.5})
	fetcher.Set("data/twenty-five/january/summary.json", map[string]string{"2025-01-05": "No sleep log"})

	// when
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))

	// then
	assert.True(t, cache.IsMonthLoaded(jan5))
	_, ok := cache.StudyHours(jan5)
	assert.True(t, ok)
	_, ok = cache.Summary(jan5)
	assert.True(t, ok)
	_, ok = cache.SleepHours(jan5)
	assert.False(t, ok)
	assert.Empty(t, cache.Series(partition.Sleep))
}

func TestCache_EnsureLoaded_EmptyMonthIsNotRetried(t *testing.T) {
	cache, fetcher, loaded := setup(t)

	// when
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))
	givenJanuary(fetcher)
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))

	// then
	assert.True(t, cache.IsMonthLoaded(jan5))
	assert.Equal(t, 3, fetcher.TotalCalls())
	assert.Equal(t, 0, cache.Entries())
	assert.Equal(t, []event_bus.MonthLoaded{{Key: "twenty-five-january"}}, *loaded)
}

func TestCache_EnsureLoaded_MonthsAccumulate(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)
	givenFebruary(fetcher)

	// when
	require.NoError(t, cache.EnsureLoaded(context.Background(), feb3))
	febStudy := cache.Series(partition.Study)
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))

	// then
	assert.Equal(t, partition.HoursMap{"2025-02-03": 2}, febStudy)
	assert.Equal(t, partition.HoursMap{"2025-01-05": 3.5, "2025-01-20": 1, "2025-02-03": 2}, cache.Series(partition.Study))
	assert.Equal(t, partition.HoursMap{"2025-01-05": 7, "2025-02-03": 8}, cache.Series(partition.Sleep))
	assert.Equal(t, []string{"twenty-five-february", "twenty-five-january"}, cache.LoadedMonths())
	assert.Equal(t, 6, fetcher.TotalCalls())
}

func TestCache_SeriesIsACopy(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))

	series := cache.Series(partition.Study)
	series["2025-01-05"] = 100

	v, _ := cache.StudyHours(jan5)
	assert.Equal(t, 3.5, v)
	assert.Empty(t, cache.Series(partition.Summary))
}

func TestCache_CenturiesShareAMonth(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)

	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))

	assert.True(t, cache.IsMonthLoaded(datepath.MustParseDate("1925-01-05")))
	require.NoError(t, cache.EnsureLoaded(context.Background(), datepath.MustParseDate("2125-01-05")))
	assert.Equal(t, 3, fetcher.TotalCalls())
}

func TestCache_EnsureLoaded_ConcurrentCallersShareOneLoad(t *testing.T) {
	cache, fetcher, loaded := setup(t)
	givenJanuary(fetcher)
	fetcher.Block()

	// when
	var wg sync.WaitGroup
	for _, date := range []datepath.Date{jan5, jan20, jan5, jan20} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.EnsureLoaded(context.Background(), date))
		}()
	}
	assert.Eventually(t, func() bool { return fetcher.TotalCalls() == 3 }, time.Second, time.Millisecond)
	assert.False(t, cache.IsMonthLoaded(jan5))
	fetcher.Release()
	wg.Wait()

	// then
	assert.Equal(t, 3, fetcher.TotalCalls())
	assert.True(t, cache.IsMonthLoaded(jan5))
	assert.Len(t, *loaded, 1)
}

func TestCache_EnsureLoaded_AbandonedWaitStillCompletes(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)
	fetcher.Block()
	ctx, cancel := context.WithCancel(context.Background())

	// when
	done := make(chan error, 1)
	go func() { done <- cache.EnsureLoaded(ctx, jan5) }()
	assert.Eventually(t, func() bool { return fetcher.TotalCalls() == 3 }, time.Second, time.Millisecond)
	cancel()
	err := <-done

	// then
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, cache.IsMonthLoaded(jan5))

	fetcher.Release()
	assert.Eventually(t, func() bool { return cache.IsMonthLoaded(jan5) }, time.Second, time.Millisecond)
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan20))
	assert.Equal(t, 3, fetcher.TotalCalls())
}

func TestCache_Day(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)

	// before the month is loaded
	entry, loaded := cache.Day(jan5)
	assert.False(t, loaded)
	assert.Equal(t, DayEntry{}, entry)

	// after
	require.NoError(t, cache.EnsureLoaded(context.Background(), jan5))
	entry, loaded = cache.Day(jan5)
	assert.True(t, loaded)
	require.NotNil(t, entry.Study)
	require.NotNil(t, entry.Sleep)
	require.NotNil(t, entry.Summary)
	assert.Equal(t, 3.5, *entry.Study)
	assert.Equal(t, 7.0, *entry.Sleep)
	assert.Equal(t, "Finished the draft", *entry.Summary)

	entry, loaded = cache.Day(jan20)
	assert.True(t, loaded)
	assert.Nil(t, entry.Sleep)
	assert.Nil(t, entry.Summary)
}

func TestCache_ObserversNeverSeePartialMonth(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)
	fetcher.Block()

	go func() { _ = cache.EnsureLoaded(context.Background(), jan5) }()
	assert.Eventually(t, func() bool { return fetcher.TotalCalls() == 3 }, time.Second, time.Millisecond)

	// Fetches are in flight: nothing of january is visible yet.
	assert.Equal(t, 0, cache.Entries())
	assert.False(t, cache.IsMonthLoaded(jan5))

	fetcher.Release()
	assert.Eventually(t, func() bool { return cache.IsMonthLoaded(jan5) }, time.Second, time.Millisecond)
	assert.Equal(t, 4, cache.Entries())
}

func TestCache_DayIsASnapshotDuringMerge(t *testing.T) {
	cache, fetcher, _ := setup(t)
	givenJanuary(fetcher)
	fetcher.Block()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = cache.EnsureLoaded(context.Background(), jan5)
	}()
	assert.Eventually(t, func() bool { return fetcher.TotalCalls() == 3 }, time.Second, time.Millisecond)
	fetcher.Release()

	for {
		entry, loaded := cache.Day(jan5)
		if !loaded {
			assert.Equal(t, DayEntry{}, entry)
		} else {
			assert.NotNil(t, entry.Study)
			assert.NotNil(t, entry.Sleep)
			assert.NotNil(t, entry.Summary)
		}
		select {
		case <-done:
			_, loaded = cache.Day(jan5)
			assert.True(t, loaded)
			return
		default:
		}
	}
}

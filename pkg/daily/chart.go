package daily

import (
	"sort"

	"github.com/klokku/daybook/pkg/datepath"
	"github.com/klokku/daybook/pkg/partition"
	log "github.com/sirupsen/logrus"
)

type ChartPoint struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// MonthSeries picks the entries of series that fall into the month of date,
// ordered by day. Keys that are not valid dates are skipped.
func MonthSeries(series partition.HoursMap, date datepath.Date) []ChartPoint {
	points := make([]ChartPoint, 0, 31)
	for key, value := range series {
		d, err := datepath.ParseDate(key)
		if err != nil {
			log.Debugf("Skipping series entry %q: %v", key, err)
			continue
		}
		if !d.SameMonth(date) {
			continue
		}
		points = append(points, ChartPoint{Day: d.Day, Value: value, Date: key})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Day < points[j].Day
	})
	return points
}

// SortedSeries lists every valid entry of series ordered by date.
func SortedSeries(series partition.HoursMap) []ChartPoint {
	points := make([]ChartPoint, 0, len(series))
	for key, value := range series {
		d, err := datepath.ParseDate(key)
		if err != nil {
			continue
		}
		points = append(points, ChartPoint{Day: d.Day, Value: value, Date: d.String()})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

package dashboard

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/klokku/daybook/pkg/daily"
	log "github.com/sirupsen/logrus"
)

type SeriesRenderer interface {
	RenderSeries(points []daily.ChartPoint) (string, error)
}

type CsvSeriesRendererImpl struct{}

func NewCsvSeriesRenderer() *CsvSeriesRendererImpl {
	return &CsvSeriesRendererImpl{}
}

func (r *CsvSeriesRendererImpl) RenderSeries(points []daily.ChartPoint) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	if err := writer.Write([]string{"date", "day", "hours"}); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	for _, p := range points {
		row := []string{p.Date, strconv.Itoa(p.Day), strconv.FormatFloat(p.Value, 'f', -1, 64)}
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}
	return b.String(), nil
}

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const scrapeTimeout = 5 * time.Second

// StatusSource counts measurement points per calibration status.
type StatusSource interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
}

// calibrationCollector evaluates point statuses at scrape time.
type calibrationCollector struct {
	source StatusSource
	logger *zap.Logger
	desc   *prometheus.Desc
}

func newCalibrationCollector(source StatusSource, logger *zap.Logger) *calibrationCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &calibrationCollector{
		source: source,
		logger: logger,
		desc: prometheus.NewDesc(
			metricPrefix+"measurement_points",
			"Measurement points by calibration status",
			[]string{"status"},
			nil,
		),
	}
}

func (c *calibrationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *calibrationCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	counts, err := c.source.StatusCounts(ctx)
	if err != nil {
		c.logger.Warn("calibration status query failed", zap.Error(err))
		return
	}
	for status, count := range counts {
		if count < 0 {
			count = 0
		}
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(count), status)
	}
}

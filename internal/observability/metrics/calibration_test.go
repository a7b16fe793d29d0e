package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	counts map[string]int
	err    error
}

func (s stubSource) StatusCounts(context.Context) (map[string]int, error) {
	return s.counts, s.err
}

func TestCalibrationCollectorExportsCounts(t *testing.T) {
	collector := newCalibrationCollector(stubSource{counts: map[string]int{"overdue": 2, "current": 5}}, nil)

	expected := `
# HELP equipment_measurement_points Measurement points by calibration status
# TYPE equipment_measurement_points gauge
equipment_measurement_points{status="current"} 5
equipment_measurement_points{status="overdue"} 2
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestCalibrationCollectorSkipsOnError(t *testing.T) {
	collector := newCalibrationCollector(stubSource{err: errors.New("db down")}, nil)
	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveExport("", "", "", 0)
		IncSeedRun("")
		ObserveImport("equipment", 1, 1, 0, nil)
	})
}

// Package metrics keeps process metrics in an embedded time series store
// under the working directory, with running totals kept in memory for the
// dashboard.
package metrics

import (
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	mu      sync.RWMutex
	storage tstorage.Storage
	totals  = map[string]float64{}
)

// InitMetrics opens the time series store in <workdir>/data/metrics.
func InitMetrics(workdir string) error {
	st, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Milliseconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return errors.Wrap(err, "open metrics storage")
	}
	mu.Lock()
	storage = st
	mu.Unlock()
	return nil
}

// Close flushes and closes the store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

// SetGauge records the current value of a gauge.
func SetGauge(metric string, value int64, labels ...string) {
	mu.Lock()
	totals[seriesKey(metric, labels)] = float64(value)
	mu.Unlock()
	insert(metric, float64(value), labels)
}

// Incr adds one to a counter.
func Incr(metric string, labels ...string) {
	mu.Lock()
	totals[seriesKey(metric, labels)]++
	mu.Unlock()
	insert(metric, 1, labels)
}

// Observe records one sample (for example a latency in ms).
func Observe(metric string, value float64, labels ...string) {
	insert(metric, value, labels)
}

// Total returns the in-memory total of a counter or the last gauge value.
func Total(metric string, labels ...string) float64 {
	mu.RLock()
	defer mu.RUnlock()
	return totals[seriesKey(metric, labels)]
}

// Totals returns a copy of all in-memory totals.
func Totals() map[string]float64 {
	mu.RLock()
	defer mu.RUnlock()
	out := make(map[string]float64, len(totals))
	for k, v := range totals {
		out[k] = v
	}
	return out
}

// Select returns the samples of a series between start and end.
func Select(metric string, start, end time.Time, labels ...string) ([]*tstorage.DataPoint, error) {
	mu.RLock()
	st := storage
	mu.RUnlock()
	if st == nil {
		return nil, nil
	}
	points, err := st.Select(metric, toLabels(labels), start.UnixMilli(), end.UnixMilli())
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return nil, nil
	}
	return points, err
}

func insert(metric string, value float64, labels []string) {
	mu.RLock()
	st := storage
	mu.RUnlock()
	if st == nil {
		return
	}
	err := st.InsertRows([]tstorage.Row{{
		Metric:    metric,
		Labels:    toLabels(labels),
		DataPoint: tstorage.DataPoint{Timestamp: time.Now().UnixMilli(), Value: value},
	}})
	if err != nil {
		zap.L().Debug("metrics insert failed", zap.String("metric", metric), zap.Error(err))
	}
}

// labels are name/value pairs
func toLabels(pairs []string) []tstorage.Label {
	out := make([]tstorage.Label, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, tstorage.Label{Name: pairs[i], Value: pairs[i+1]})
	}
	return out
}

func seriesKey(metric string, pairs []string) string {
	if len(pairs) < 2 {
		return metric
	}
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, pairs[i]+"="+pairs[i+1])
	}
	sort.Strings(parts)
	return metric + "{" + strings.Join(parts, ",") + "}"
}

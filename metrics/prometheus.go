// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vechain/farm/log"
)

const namespace = "farm"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics creates a new instance of the Prometheus service and
// sets the implementation as the default metrics services
func InitializePrometheusMetrics() {
	// don't allow for reset
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	mu     sync.Mutex
	meters sync.Map // meterKey => meter
}

type meterKey struct {
	kind reflect.Type
	name string
}

func getOrCreate[T any](o *prometheusMetrics, name string, create func() T) T {
	key := meterKey{reflect.TypeFor[T](), name}
	if m, ok := o.meters.Load(key); ok {
		return m.(T)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if m, ok := o.meters.Load(key); ok {
		return m.(T)
	}
	meter := create()
	o.meters.Store(key, meter)
	return meter
}

func register(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		logger.Warn("unable to register metric", "err", err)
	}
}

func toFloatBuckets(buckets []int64) []float64 {
	var floatBuckets []float64
	for _, bucket := range buckets {
		floatBuckets = append(floatBuckets, float64(bucket))
	}
	return floatBuckets
}

func (o *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (o *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	return getOrCreate(o, name, func() CountMeter {
		meter := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name})
		register(meter)
		return &promCountMeter{counter: meter}
	})
}

func (o *prometheusMetrics) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	return getOrCreate(o, name, func() CountVecMeter {
		meter := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name}, labels)
		register(meter)
		return &promCountVecMeter{counter: meter}
	})
}

func (o *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	return getOrCreate(o, name, func() GaugeMeter {
		meter := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name})
		register(meter)
		return &promGaugeMeter{gauge: meter}
	})
}

func (o *prometheusMetrics) GetOrCreateHistogramVecMeter(name string, labels []string, buckets []int64) HistogramVecMeter {
	return getOrCreate(o, name, func() HistogramVecMeter {
		meter := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Namespace: namespace, Name: name, Buckets: toFloatBuckets(buckets)},
			labels,
		)
		register(meter)
		return &promHistogramVecMeter{histogram: meter}
	})
}

type promHistogramVecMeter struct {
	histogram *prometheus.HistogramVec
}

func (c *promHistogramVecMeter) ObserveWithLabels(i int64, labels map[string]string) {
	c.histogram.With(labels).Observe(float64(i))
}

type promCountMeter struct {
	counter prometheus.Counter
}

func (c *promCountMeter) Add(i int64) {
	c.counter.Add(float64(i))
}

type promCountVecMeter struct {
	counter *prometheus.CounterVec
}

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct {
	gauge prometheus.Gauge
}

func (c *promGaugeMeter) Add(i int64) {
	c.gauge.Add(float64(i))
}

func (c *promGaugeMeter) Set(i int64) {
	c.gauge.Set(float64(i))
}

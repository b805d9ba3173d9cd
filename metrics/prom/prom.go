// Package prom adapts cache.Metrics onto Prometheus counters and
// gauges, mirroring the teacher's metrics/prom package one metric name
// at a time (hit/miss -> lookups_total{result}, evictions_total gains
// a "reason" label matching cache.EvictReason instead of ttl/capacity).
package prom

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shardlru/blockcache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use; every Prometheus metric type is
// goroutine-safe on its own.
type Adapter struct {
	lookups  *prometheus.CounterVec
	inserts  prometheus.Counter
	releases *prometheus.CounterVec
	erases   prometheus.Counter
	evicts   *prometheus.CounterVec

	usage        *prometheus.GaugeVec
	pinnedUsage  *prometheus.GaugeVec
	highPriUsage *prometheus.GaugeVec
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels:  static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "lookups_total",
			Help:        "Cache lookups by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "inserts_total",
			Help:        "Successful cache inserts",
			ConstLabels: constLabels,
		}),
		releases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "releases_total",
			Help:        "Handle releases, split by whether the deleter ran",
			ConstLabels: constLabels,
		}, []string{"last_reference"}),
		erases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "erases_total",
			Help:        "Explicit erases that found a matching key",
			ConstLabels: constLabels,
		}),
		evicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "evictions_total",
			Help:        "Handles that stopped being resident, by reason",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		usage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "shard_usage_bytes",
			Help:        "Resident charge per shard",
			ConstLabels: constLabels,
		}, []string{"shard"}),
		pinnedUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "shard_pinned_usage_bytes",
			Help:        "Pinned (non-evictable) charge per shard",
			ConstLabels: constLabels,
		}, []string{"shard"}),
		highPriUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "shard_high_pri_usage_bytes",
			Help:        "High-priority pool charge per shard",
			ConstLabels: constLabels,
		}, []string{"shard"}),
	}
	reg.MustRegister(a.lookups, a.inserts, a.releases, a.erases, a.evicts, a.usage, a.pinnedUsage, a.highPriUsage)
	return a
}

func (a *Adapter) Lookup(hit bool) {
	if hit {
		a.lookups.WithLabelValues("hit").Inc()
	} else {
		a.lookups.WithLabelValues("miss").Inc()
	}
}

func (a *Adapter) Insert() { a.inserts.Inc() }

func (a *Adapter) Release(lastReference bool) {
	a.releases.WithLabelValues(strconv.FormatBool(lastReference)).Inc()
}

func (a *Adapter) Erase() { a.erases.Inc() }

func (a *Adapter) Evict(reason cache.EvictReason) {
	a.evicts.WithLabelValues(reasonLabel(reason)).Inc()
}

func (a *Adapter) Usage(shardIndex int, usage, pinnedUsage, highPriPoolUsage uint64) {
	label := strconv.Itoa(shardIndex)
	a.usage.WithLabelValues(label).Set(float64(usage))
	a.pinnedUsage.WithLabelValues(label).Set(float64(pinnedUsage))
	a.highPriUsage.WithLabelValues(label).Set(float64(highPriPoolUsage))
}

func reasonLabel(r cache.EvictReason) string {
	switch r {
	case cache.EvictLRU:
		return "lru"
	case cache.EvictDisplaced:
		return "displaced"
	case cache.EvictErase:
		return "erase"
	case cache.EvictRelease:
		return "release"
	case cache.EvictDrain:
		return "drain"
	default:
		return "unknown"
	}
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)

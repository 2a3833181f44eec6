package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_ticks_total",
			Help: "Currency ticks applied, by outcome",
		},
		[]string{"outcome"},
	)
	TickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "economy_tick_duration_seconds",
			Help:    "Duration of one currency tick",
			Buckets: prometheus.DefBuckets,
		},
	)
	PurchasesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "economy_purchases_total",
			Help: "Building purchase attempts, by outcome",
		},
		[]string{"outcome"},
	)
	TasksStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_started_total",
			Help: "Task start attempts, by status",
		},
		[]string{"status"},
	)
	TasksCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_completed_total",
			Help: "Tasks completed and rewarded",
		},
	)
	LevelUps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_level_ups_total",
			Help: "Level-ups applied",
		},
	)
	Prestiges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "progression_prestiges_total",
			Help: "Prestige purchases applied",
		},
	)
)

func init() {
	prometheus.MustRegister(
		TicksTotal,
		TickDuration,
		PurchasesTotal,
		TasksStarted,
		TasksCompleted,
		LevelUps,
		Prestiges,
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadmine_pages_fetched_total",
		Help: "Search result pages fetched from the upstream source.",
	})

	ItemsPaginated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "threadmine_items_paginated_total",
		Help: "Thread objects returned by pagination.",
	})

	TuplesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadmine_tuples_extracted_total",
		Help: "Deduplicated tuples produced per run, by kind.",
	}, []string{"kind"})

	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "threadmine_rows_inserted_total",
		Help: "Rows actually inserted, by table. Conflict-ignored rows are not counted.",
	}, []string{"table"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "threadmine_run_duration_seconds",
		Help:    "Wall time of a full harvest run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestCountersRegisteredOnDefaultRegistry(t *testing.T) {
	PagesFetched.Inc()
	ItemsPaginated.Add(100)
	TuplesExtracted.WithLabelValues("post").Add(10)
	RowsInserted.WithLabelValues("posts").Add(10)
	RunDuration.Observe(1.5)

	for _, name := range []string{
		"threadmine_pages_fetched_total",
		"threadmine_items_paginated_total",
		"threadmine_tuples_extracted_total",
		"threadmine_rows_inserted_total",
		"threadmine_run_duration_seconds",
	} {
		family := gatherFamily(t, name)
		require.NotNil(t, family, name)
	}
}

func TestRowsInserted_LabelledByTable(t *testing.T) {
	RowsInserted.WithLabelValues("comments").Add(3)

	family := gatherFamily(t, "threadmine_rows_inserted_total")
	require.NotNil(t, family)

	found := false
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "table" && label.GetValue() == "comments" {
				found = true
				assert.GreaterOrEqual(t, metric.GetCounter().GetValue(), 3.0)
			}
		}
	}
	assert.True(t, found)
}

// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v2

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RowsplitScannedRowsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "rowsplit",
			Name:      "scanned_rows_total",
			Help:      "Total number of rows read by the split scanner.",
		}, []string{"type"})
	RowsplitLocateScannedRowsCounter = RowsplitScannedRowsCounter.WithLabelValues("locate")
	RowsplitDomainScannedRowsCounter = RowsplitScannedRowsCounter.WithLabelValues("domain")

	rowsplitOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "rowsplit",
			Name:      "split_total",
			Help:      "Total number of split executions by outcome.",
		}, []string{"type"})
	RowsplitMatchedCounter   = rowsplitOutcomeCounter.WithLabelValues("matched")
	RowsplitNoMatchCounter   = rowsplitOutcomeCounter.WithLabelValues("no_match")
	RowsplitCancelledCounter = rowsplitOutcomeCounter.WithLabelValues("cancelled")
	RowsplitFailedCounter    = rowsplitOutcomeCounter.WithLabelValues("failed")

	rowsplitDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "rowsplit",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of split execution duration.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2.0, 20),
		}, []string{"step"})
	RowsplitLocateDurationHistogram    = rowsplitDurationHistogram.WithLabelValues("locate")
	RowsplitPartitionDurationHistogram = rowsplitDurationHistogram.WithLabelValues("partition")
	RowsplitDomainDurationHistogram    = rowsplitDurationHistogram.WithLabelValues("domain")
	RowsplitTotalDurationHistogram     = rowsplitDurationHistogram.WithLabelValues("total")
)

func init() {
	initRowsplitMetrics()
}

func initRowsplitMetrics() {
	registry.MustRegister(RowsplitScannedRowsCounter)
	registry.MustRegister(rowsplitOutcomeCounter)
	registry.MustRegister(rowsplitDurationHistogram)
}

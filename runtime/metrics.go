// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/vechain/hive/metrics"

var (
	metricCallCount      = metrics.LazyLoadCounterVec("runtime_calls_count", []string{"result"})
	metricCallDuration   = metrics.LazyLoadHistogram("runtime_call_duration_ms", metrics.Bucket10s)
	metricRecordedEvents = metrics.LazyLoadCounter("runtime_recorded_events_count")
)

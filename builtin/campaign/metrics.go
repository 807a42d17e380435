// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package campaign

import "github.com/vechain/farm/metrics"

var (
	metricOperations        = metrics.LazyLoadCounterVec("campaign_operations_count", []string{"op", "result"})
	metricOperationDuration = metrics.LazyLoadHistogramVec("campaign_operation_duration_ms", []string{"op"}, metrics.Bucket10s)
)

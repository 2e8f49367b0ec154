// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/hive/metrics"
)

var (
	metricOpsCounter          = metrics.LazyLoadCounterVec("pool_ops_count", []string{"op"})
	metricTotalStakeGauge     = metrics.LazyLoadGauge("pool_total_stake")
	metricConfigVersionGauge  = metrics.LazyLoadGauge("pool_config_version")
	metricRebalanceTransfers  = metrics.LazyLoadHistogram("pool_rebalance_transfers", []int64{0, 1, 2, 5, 10, 20, 50})
	metricWithdrawAgentBucket = metrics.LazyLoadHistogram("pool_withdraw_agents", []int64{0, 1, 2, 3, 5, 10, 21})
)

func metricOp(op string) {
	metricOpsCounter().AddWithLabel(1, map[string]string{"op": op})
}

func (p *Pool) metricTotalStake() {
	if metrics.NoOp() {
		return
	}
	total, err := p.rewardService.TotalStake()
	if err != nil {
		return
	}
	metricTotalStakeGauge().Set(clip(total))
}

// clip maps a big amount onto the int64 range of a gauge.
func clip(v *big.Int) int64 {
	if v.IsInt64() {
		return v.Int64()
	}
	return int64(^uint64(0) >> 1)
}

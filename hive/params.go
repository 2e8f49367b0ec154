// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package hive

import "math/big"

// Pool constants.
const (
	// DefaultMaxAgents is the size of the agent roster.
	DefaultMaxAgents = 21
	// DefaultTotalWeight is the sum every finalized weight set must reach under the weighted policy.
	DefaultTotalWeight uint64 = 21
	// OwnerTransferDelay is the acceptance window used by deployments that enable delayed ownership transfer.
	OwnerTransferDelay uint64 = 3 * 24 * 3600
)

// RPSScale scales the reward-per-share accumulator.
var RPSScale = big.NewInt(1e8)

// Native contract addresses used by the runtime.
var (
	PoolAddress   = BytesToAddress([]byte("hive-pool"))
	StakeAddress  = BytesToAddress([]byte("hive-stake-token"))
	YieldAddress  = BytesToAddress([]byte("hive-yield-token"))
	VotingAddress = BytesToAddress([]byte("hive-voting"))
)

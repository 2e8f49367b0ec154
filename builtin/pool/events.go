// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/vechain/hive/hive"
)

// Event names.
const (
	EventDeposit           = "Deposit"
	EventWithdraw          = "Withdraw"
	EventEmergencyWithdraw = "EmergencyWithdraw"
	EventRewardClaimed     = "RewardClaimed"
	EventRewardDistributed = "RewardDistributed"
	EventRewardPending     = "RewardPending"
	EventAgentRegistered   = "AgentRegistered"
	EventAgentUpdated      = "AgentUpdated"
	EventAgentDrained      = "AgentDrained"
	EventConfigBegun       = "ConfigBegun"
	EventConfigFinalized   = "ConfigFinalized"
	EventRebalanced        = "Rebalanced"
	EventOwnerProposed     = "OwnerProposed"
	EventOwnerChanged      = "OwnerChanged"
	EventPaused            = "Paused"
	EventUnpaused          = "Unpaused"
)

// Event records a successful state change of the pool.
type Event struct {
	Name    string
	Subject hive.Address // account, agent or owner concerned
	Index   uint64       // agent index or config version, where relevant
	Amount  *big.Int     // nil when not relevant
}

// Emitter receives pool events. Events of a failed call must be dropped by the emitter's owner.
type Emitter interface {
	Emit(ev *Event)
}

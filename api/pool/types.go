// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/hive/builtin/pool/agents"
	"github.com/vechain/hive/builtin/pool/rebalance"
	"github.com/vechain/hive/builtin/pool/session"
	"github.com/vechain/hive/hive"
)

// Summary is the pool wide state.
type Summary struct {
	Address        hive.Address          `json:"address"`
	Owner          hive.Address          `json:"owner"`
	PendingOwner   *hive.Address         `json:"pendingOwner"`
	ProposedAt     uint64                `json:"proposedAt,omitempty"`
	Paused         bool                  `json:"paused"`
	Policy         agents.Policy         `json:"policy"`
	MaxAgents      uint64                `json:"maxAgents"`
	TotalWeight    uint64                `json:"totalWeight"`
	OwnerDelay     uint64                `json:"ownerDelay"`
	TotalStake     *math.HexOrDecimal256 `json:"totalStake"`
	RewardPerShare *math.HexOrDecimal256 `json:"rewardPerShare"`
	PendingReward  *math.HexOrDecimal256 `json:"pendingReward"`
	ConfigVersion  uint64                `json:"configVersion"`
	ConfigActive   bool                  `json:"configActive"`
	Ready          bool                  `json:"ready"`
}

// Agent is one roster slot.
type Agent struct {
	Index      uint64                `json:"index"`
	Registered bool                  `json:"registered"`
	Address    *hive.Address         `json:"address"`
	Name       string                `json:"name"`
	Target     *hive.Candidate       `json:"target"`
	Weight     uint64                `json:"weight"`
	Balance    *math.HexOrDecimal256 `json:"balance"`
}

func convertAgent(a *agents.Agent, balance *big.Int) *Agent {
	out := &Agent{
		Index:      a.Index,
		Registered: a.IsRegistered(),
		Name:       a.Name,
		Weight:     a.Weight,
		Balance:    (*math.HexOrDecimal256)(balance),
	}
	if out.Registered {
		addr := a.Address
		out.Address = &addr
	}
	if !a.Target.IsZero() {
		target := a.Target
		out.Target = &target
	}
	return out
}

// Config is the configuration of one agent. Absent fields are left unchanged
// when setting it.
type Config struct {
	Index  uint64          `json:"index"`
	Target *hive.Candidate `json:"target"`
	Weight *uint64         `json:"weight"`
}

func convertConfig(c session.Config) *Config {
	out := &Config{Index: c.Index, Weight: &c.Weight}
	if !c.Target.IsZero() {
		out.Target = &c.Target
	}
	return out
}

type Transfer struct {
	From   uint64                `json:"from"`
	To     uint64                `json:"to"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

func convertTransfers(transfers []rebalance.Transfer) []*Transfer {
	out := make([]*Transfer, len(transfers))
	for i, t := range transfers {
		out[i] = &Transfer{From: t.From, To: t.To, Amount: (*math.HexOrDecimal256)(t.Amount)}
	}
	return out
}

// Call is the body of every pool call. Fields not used by a call must be omitted.
type Call struct {
	Caller  hive.Address          `json:"caller"`
	Amount  *math.HexOrDecimal256 `json:"amount,omitempty"`
	Index   *uint64               `json:"index,omitempty"`
	Address *hive.Address         `json:"address,omitempty"`
	Name    string                `json:"name,omitempty"`
	Configs []*Config             `json:"configs,omitempty"`
}

// Result is the response of a pool call.
type Result struct {
	Amount    *math.HexOrDecimal256 `json:"amount,omitempty"`
	Version   *uint64               `json:"version,omitempty"`
	Transfers []*Transfer           `json:"transfers,omitempty"`
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/hive"
)

// agent is a sub-account controlled by the pool. It spends its own stake
// token balance and votes on the voting contract.
type agent struct {
	rt   *Runtime
	addr hive.Address
}

func (a *agent) Transfer(to hive.Address, amount *big.Int) error {
	return a.rt.stake.As(a.addr).Transfer(to, amount)
}

func (a *agent) Vote(candidate hive.Candidate) error {
	return a.rt.voting.Vote(a.addr, candidate)
}

type agentDialer struct {
	rt *Runtime
}

func (d agentDialer) Dial(addr hive.Address) pool.Agent {
	return &agent{d.rt, addr}
}

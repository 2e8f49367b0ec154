// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import "math/big"

// Account is the per-depositor ledger entry.
type Account struct {
	Stake  *big.Int // currently deposited amount
	Reward *big.Int // accrued, unclaimed yield
	Paid   *big.Int // reward per share at the last sync
}

func (a *Account) normalize() *Account {
	if a.Stake == nil {
		a.Stake = new(big.Int)
	}
	if a.Reward == nil {
		a.Reward = new(big.Int)
	}
	if a.Paid == nil {
		a.Paid = new(big.Int)
	}
	return a
}

// IsEmpty returns true when the account holds neither stake nor reward.
func (a *Account) IsEmpty() bool {
	return a.Stake.Sign() == 0 && a.Reward.Sign() == 0
}

// earned returns the reward the account holds at the given reward per share.
func (a *Account) earned(rps, scale *big.Int) *big.Int {
	earned := new(big.Int).Set(a.Reward)
	if a.Stake.Sign() > 0 {
		delta := new(big.Int).Sub(rps, a.Paid)
		delta.Mul(delta, a.Stake)
		delta.Quo(delta, scale)
		earned.Add(earned, delta)
	}
	return earned
}

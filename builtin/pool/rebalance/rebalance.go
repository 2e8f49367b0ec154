// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rebalance

import (
	"math/big"

	"github.com/vechain/hive/builtin/pool/reverts"
)

// Slot is one agent's current balance and configured weight.
type Slot struct {
	Index   uint64
	Balance *big.Int
	Weight  uint64
}

// Transfer moves Amount of stake from agent From to agent To.
type Transfer struct {
	From   uint64
	To     uint64
	Amount *big.Int
}

// Targets returns the balance each slot should hold: the floor of its weighted
// share of the total, with the rounding remainder going to the highest weight
// (lowest index on ties).
func Targets(slots []Slot, totalWeight uint64) ([]*big.Int, error) {
	if totalWeight == 0 {
		return nil, reverts.New(reverts.InvalidArgument, "total weight must be positive")
	}
	total := new(big.Int)
	for _, s := range slots {
		total.Add(total, s.Balance)
	}

	var (
		targets   = make([]*big.Int, len(slots))
		allocated = new(big.Int)
		tw        = new(big.Int).SetUint64(totalWeight)
		top       = -1
	)
	for i, s := range slots {
		t := new(big.Int).Mul(total, new(big.Int).SetUint64(s.Weight))
		t.Quo(t, tw)
		targets[i] = t
		allocated.Add(allocated, t)
		if top < 0 || s.Weight > slots[top].Weight {
			top = i
		}
	}

	remainder := allocated.Sub(total, allocated)
	if remainder.Sign() < 0 {
		return nil, reverts.New(reverts.InvariantViolation, "weights exceed total weight")
	}
	if remainder.Sign() > 0 {
		if top < 0 || slots[top].Weight == 0 {
			return nil, reverts.New(reverts.InvariantViolation, "no weighted agent to hold the balance")
		}
		targets[top].Add(targets[top], remainder)
	}
	return targets, nil
}

// Plan computes the transfers that bring every slot to its target. Each
// deficit is filled from the excess slots in index order, and no slot is
// ever asked for more than its excess.
func Plan(slots []Slot, totalWeight uint64) ([]Transfer, error) {
	targets, err := Targets(slots, totalWeight)
	if err != nil {
		return nil, err
	}

	excess := make([]*big.Int, len(slots))
	for i, s := range slots {
		excess[i] = new(big.Int).Sub(s.Balance, targets[i])
	}

	var transfers []Transfer
	for i := range slots {
		if excess[i].Sign() >= 0 {
			continue
		}
		need := new(big.Int).Neg(excess[i])
		for j := range slots {
			if need.Sign() == 0 {
				break
			}
			if excess[j].Sign() <= 0 {
				continue
			}
			amount := new(big.Int).Set(need)
			if excess[j].Cmp(amount) < 0 {
				amount.Set(excess[j])
			}
			excess[j].Sub(excess[j], amount)
			need.Sub(need, amount)
			transfers = append(transfers, Transfer{
				From:   slots[j].Index,
				To:     slots[i].Index,
				Amount: amount,
			})
		}
		if need.Sign() != 0 {
			return nil, reverts.Newf(reverts.InvariantViolation, "agent %d deficit of %v not covered", slots[i].Index, need)
		}
		excess[i].SetInt64(0)
	}
	return transfers, nil
}

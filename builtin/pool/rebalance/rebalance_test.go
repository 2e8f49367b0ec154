// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rebalance

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/builtin/pool/reverts"
)

func slots(balances []int64, weights []uint64) []Slot {
	s := make([]Slot, len(balances))
	for i := range balances {
		s[i] = Slot{Index: uint64(i), Balance: big.NewInt(balances[i]), Weight: weights[i]}
	}
	return s
}

func apply(s []Slot, transfers []Transfer) []int64 {
	out := make([]int64, len(s))
	for i := range s {
		out[i] = s[i].Balance.Int64()
	}
	for _, tr := range transfers {
		out[tr.From] -= tr.Amount.Int64()
		out[tr.To] += tr.Amount.Int64()
	}
	return out
}

func amounts(values []*big.Int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestTargetsRemainderToHighestWeight(t *testing.T) {
	targets, err := Targets(slots([]int64{6, 0}, []uint64{10, 11}), 21)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "4"}, amounts(targets))

	targets, err = Targets(slots([]int64{1, 0, 0}, []uint64{7, 7, 7}), 21)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "0", "0"}, amounts(targets), "ties go to the lowest index")

	targets, err = Targets(slots([]int64{0, 0}, []uint64{10, 11}), 21)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "0"}, amounts(targets))
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		balances []int64
		weights  []uint64
		total    uint64
		want     []int64
	}{
		{"two agents", []int64{100, 80}, []uint64{5, 4}, 9, []int64{100, 80}},
		{"skewed", []int64{180, 0}, []uint64{5, 4}, 9, []int64{100, 80}},
		{"floor allocation", []int64{6, 0}, []uint64{10, 11}, 21, []int64{2, 4}},
		{"many to one", []int64{10, 10, 10, 0}, []uint64{0, 0, 0, 21}, 21, []int64{0, 0, 0, 30}},
		{"empty", []int64{0, 0}, []uint64{10, 11}, 21, []int64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := slots(tt.balances, tt.weights)
			transfers, err := Plan(s, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, apply(s, transfers))
			for _, tr := range transfers {
				assert.Positive(t, tr.Amount.Sign())
			}
		})
	}
}

func TestPlanRejectsOverweight(t *testing.T) {
	_, err := Plan(slots([]int64{10, 10}, []uint64{15, 15}), 21)
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(err))

	_, err = Plan(slots([]int64{10}, []uint64{1}), 0)
	assert.Equal(t, reverts.InvalidArgument, reverts.KindOf(err))
}

// Random balances and weights: the sum is conserved, no agent goes negative and
// every agent ends at its target.
func TestPlanProperties(t *testing.T) {
	f := fuzz.New().NilChance(0)
	for round := 0; round < 200; round++ {
		var raw [5]uint16
		var rawW [5]uint8
		f.Fuzz(&raw)
		f.Fuzz(&rawW)

		balances := make([]int64, 5)
		weights := make([]uint64, 5)
		var sumW uint64
		var sumB int64
		for i := range raw {
			balances[i] = int64(raw[i])
			weights[i] = uint64(rawW[i]%10) + 1
			sumW += weights[i]
			sumB += balances[i]
		}

		s := slots(balances, weights)
		transfers, err := Plan(s, sumW)
		require.NoError(t, err)

		targets, err := Targets(s, sumW)
		require.NoError(t, err)

		running := make([]int64, len(balances))
		copy(running, balances)
		for _, tr := range transfers {
			running[tr.From] -= tr.Amount.Int64()
			running[tr.To] += tr.Amount.Int64()
			require.GreaterOrEqual(t, running[tr.From], int64(0))
		}
		var after int64
		for i := range running {
			after += running[i]
			assert.Equal(t, targets[i].Int64(), running[i])
		}
		assert.Equal(t, sumB, after)
	}
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/lvldb"
	"github.com/vechain/hive/state"
)

var (
	alice = hive.BytesToAddress([]byte("alice"))
	bob   = hive.BytesToAddress([]byte("bob"))
)

func newService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(solidity.NewContext(hive.PoolAddress, state.New(db)))
}

func earned(t *testing.T, s *Service, addr hive.Address) int64 {
	v, err := s.Earned(addr)
	require.NoError(t, err)
	return v.Int64()
}

func TestProportionalReward(t *testing.T) {
	s := newService(t)

	require.NoError(t, s.AddStake(alice, big.NewInt(100)))
	require.NoError(t, s.AddStake(bob, big.NewInt(300)))

	distributed, err := s.AddYield(big.NewInt(40))
	require.NoError(t, err)
	assert.True(t, distributed)

	assert.Equal(t, int64(10), earned(t, s, alice))
	assert.Equal(t, int64(30), earned(t, s, bob))

	// stake added after yield earns nothing from it
	require.NoError(t, s.AddStake(alice, big.NewInt(200)))
	assert.Equal(t, int64(10), earned(t, s, alice))

	_, err = s.AddYield(big.NewInt(60))
	require.NoError(t, err)
	assert.Equal(t, int64(40), earned(t, s, alice))
	assert.Equal(t, int64(60), earned(t, s, bob))
}

func TestPendingRewardFoldedOnFirstStake(t *testing.T) {
	s := newService(t)

	distributed, err := s.AddYield(big.NewInt(50))
	require.NoError(t, err)
	assert.False(t, distributed)

	pending, err := s.PendingReward()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50), pending)

	rps, err := s.RewardPerShare()
	require.NoError(t, err)
	assert.Equal(t, 0, rps.Sign())

	require.NoError(t, s.AddStake(alice, big.NewInt(10)))

	pending, err = s.PendingReward()
	require.NoError(t, err)
	assert.Equal(t, 0, pending.Sign())
	assert.Equal(t, int64(50), earned(t, s, alice))
}

func TestDistributeRewardWithoutStake(t *testing.T) {
	s := newService(t)
	err := s.DistributeReward(big.NewInt(1))
	assert.Equal(t, reverts.PreconditionFailed, reverts.KindOf(err))
}

func TestDistributeRewardOverflow(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddStake(alice, big.NewInt(1)))

	huge := new(big.Int).Lsh(big.NewInt(1), 250)
	err := s.DistributeReward(huge)
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(err))

	rps, err := s.RewardPerShare()
	require.NoError(t, err)
	assert.Equal(t, 0, rps.Sign())
}

func TestDistributeRewardAtUint256Bound(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddStake(alice, hive.RPSScale))

	limit := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	require.NoError(t, s.DistributeReward(limit))

	rps, err := s.RewardPerShare()
	require.NoError(t, err)
	assert.Equal(t, limit.String(), rps.String())

	err = s.DistributeReward(big.NewInt(1))
	assert.Equal(t, reverts.InvariantViolation, reverts.KindOf(err))

	rps, err = s.RewardPerShare()
	require.NoError(t, err)
	assert.Equal(t, limit.String(), rps.String())
}

func TestClaimIsIdempotent(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddStake(alice, big.NewInt(10)))
	_, err := s.AddYield(big.NewInt(7))
	require.NoError(t, err)

	first, err := s.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7), first)

	second, err := s.Claim(alice)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Sign())
}

func TestSubStake(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddStake(alice, big.NewInt(10)))

	err := s.SubStake(alice, big.NewInt(11))
	assert.Equal(t, reverts.InsufficientFunds, reverts.KindOf(err))

	_, err = s.AddYield(big.NewInt(10))
	require.NoError(t, err)
	require.NoError(t, s.SubStake(alice, big.NewInt(10)))

	// reward computed against the pre-withdrawal stake
	assert.Equal(t, int64(10), earned(t, s, alice))
	total, err := s.TotalStake()
	require.NoError(t, err)
	assert.Equal(t, 0, total.Sign())
}

func TestTakeStakeRemovesEmptyAccount(t *testing.T) {
	s := newService(t)
	require.NoError(t, s.AddStake(alice, big.NewInt(10)))

	amount, err := s.TakeStake(alice)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), amount)

	ok, err := s.accounts.Has(alice)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Random deposit/withdraw/yield/claim sequences never credit more than was
// received, lose at most one unit per sync to truncation and return every
// unit of principal.
func TestConservation(t *testing.T) {
	f := fuzz.New().NilChance(0)
	accounts := []hive.Address{alice, bob, hive.BytesToAddress([]byte("carol"))}

	for round := 0; round < 20; round++ {
		s := newService(t)
		var (
			received = new(big.Int)
			claimed  = new(big.Int)
			syncs    int64
			lastRPS  = new(big.Int)
			staked   = make(map[hive.Address]*big.Int)
		)
		for _, addr := range accounts {
			staked[addr] = new(big.Int)
		}
		for step := 0; step < 50; step++ {
			var op, who uint8
			var amount uint32
			f.Fuzz(&op)
			f.Fuzz(&who)
			f.Fuzz(&amount)
			addr := accounts[int(who)%len(accounts)]
			value := big.NewInt(int64(amount%1_000_000) + 1)

			switch op % 5 {
			case 0:
				require.NoError(t, s.AddStake(addr, value))
				staked[addr].Add(staked[addr], value)
				syncs++
			case 1:
				_, err := s.AddYield(value)
				require.NoError(t, err)
				received.Add(received, value)
			case 2:
				c, err := s.Claim(addr)
				require.NoError(t, err)
				claimed.Add(claimed, c)
				syncs++
			case 3:
				if staked[addr].Sign() == 0 {
					assert.Equal(t, reverts.InsufficientFunds, reverts.KindOf(s.SubStake(addr, value)))
					continue
				}
				part := new(big.Int).Rem(value, staked[addr])
				part.Add(part, big.NewInt(1))
				require.NoError(t, s.SubStake(addr, part))
				staked[addr].Sub(staked[addr], part)
				syncs++
			case 4:
				out, err := s.TakeStake(addr)
				require.NoError(t, err)
				assert.Equal(t, staked[addr].String(), out.String())
				staked[addr].SetUint64(0)
				syncs++
			}

			rps, err := s.RewardPerShare()
			require.NoError(t, err)
			require.True(t, rps.Cmp(lastRPS) >= 0, "reward per share decreased")
			lastRPS = rps
		}

		outstanding := new(big.Int)
		totalStaked := new(big.Int)
		for _, addr := range accounts {
			e, err := s.Earned(addr)
			require.NoError(t, err)
			outstanding.Add(outstanding, e)

			acc, err := s.GetAccount(addr)
			require.NoError(t, err)
			assert.Equal(t, staked[addr].String(), acc.Stake.String())
			totalStaked.Add(totalStaked, staked[addr])
		}
		total, err := s.TotalStake()
		require.NoError(t, err)
		assert.Equal(t, totalStaked.String(), total.String())

		pending, err := s.PendingReward()
		require.NoError(t, err)

		credited := new(big.Int).Add(claimed, outstanding)
		credited.Add(credited, pending)
		assert.True(t, credited.Cmp(received) <= 0, "over-distributed")

		loss := new(big.Int).Sub(received, credited)
		// each yield can truncate once in the share and once per account at sync
		bound := big.NewInt(syncs + int64(len(accounts))*int64(50) + 1)
		assert.True(t, loss.Cmp(bound) <= 0, "truncation loss %v exceeds %v", loss, bound)
	}
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"context"
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/pool/session"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/logdb"
	"github.com/vechain/hive/lvldb"
)

var (
	owner = hive.BytesToAddress([]byte("owner"))
	alice = hive.BytesToAddress([]byte("alice"))
)

func agentAddr(i int) hive.Address {
	return hive.BytesToAddress([]byte{'a', 'g', 'e', 'n', 't', byte(i)})
}

func candidate(i int) hive.Candidate {
	return hive.CandidateFromPubKey(secp256k1.PrivKeyFromBytes([]byte{byte(i + 1)}).PubKey())
}

func newTestRuntime(t *testing.T, store *lvldb.LevelDB, db *logdb.LogDB) *Runtime {
	cfg := pool.DefaultConfig()
	cfg.MaxAgents = 2
	rt, err := New(store, Options{Pool: cfg, LogDB: db, Clock: func() uint64 { return 1_700_000_000 }})
	require.NoError(t, err)
	return rt
}

func setup(t *testing.T, rt *Runtime, weights ...uint64) {
	require.NoError(t, rt.Invoke(func(p *pool.Pool) error { return p.Initialize(owner) }))
	require.NoError(t, rt.Mint(rt.StakeToken(), alice, big.NewInt(100)))
	require.NoError(t, rt.Mint(rt.YieldToken(), owner, big.NewInt(100)))
	require.NoError(t, rt.Invoke(func(p *pool.Pool) error {
		configs := make([]session.Config, len(weights))
		for i, w := range weights {
			if err := p.RegisterAgent(owner, uint64(i), agentAddr(i), ""); err != nil {
				return err
			}
			configs[i] = session.Config{Index: uint64(i), Target: candidate(i), Weight: w}
		}
		if err := p.BeginConfig(owner); err != nil {
			return err
		}
		if err := p.SetAgentConfigs(owner, configs); err != nil {
			return err
		}
		_, err := p.FinalizeConfig(owner)
		return err
	}))
}

func TestInvokeCommitsAndRecords(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt := newTestRuntime(t, store, db)
	setup(t, rt, 10, 11)
	require.NoError(t, rt.Deposit(alice, big.NewInt(6)))

	var transfers int
	require.NoError(t, rt.Invoke(func(p *pool.Pool) error {
		tr, err := p.RebalanceVotes(owner)
		transfers = len(tr)
		return err
	}))
	assert.Equal(t, 1, transfers)

	for i, want := range []int64{2, 4} {
		bal, err := rt.BalanceOf(rt.StakeToken(), agentAddr(i))
		require.NoError(t, err)
		assert.Equal(t, want, bal.Int64())
		vote, err := rt.Voting().VoteOf(agentAddr(i))
		require.NoError(t, err)
		assert.Equal(t, candidate(i), vote)
	}

	name := pool.EventDeposit
	events, err := db.FilterEvents(context.Background(), &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{{Name: &name, Subject: &alice}},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint64(1), events[0].Value, "routed to agent 1")
	assert.Equal(t, big.NewInt(6), events[0].Amount)
	assert.Equal(t, uint64(1_700_000_000), events[0].CallTime)
}

func TestInvokeRevertsOnError(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt := newTestRuntime(t, store, db)
	setup(t, rt, 21, 0)
	before := rt.CallNumber()

	err = rt.Invoke(func(p *pool.Pool) error {
		if err := rt.StakeToken().Transfer(alice, p.Address(), big.NewInt(1), nil); err != nil {
			return err
		}
		return p.Withdraw(alice, alice, big.NewInt(2))
	})
	assert.Equal(t, reverts.InsufficientFunds, reverts.KindOf(err))
	assert.Equal(t, before, rt.CallNumber())

	require.NoError(t, rt.View(func(p *pool.Pool) error {
		total, err := p.TotalStake()
		assert.Equal(t, int64(0), total.Int64())
		return err
	}))

	newest, err := db.NewestCallNumber()
	require.NoError(t, err)
	assert.Equal(t, before, newest)
}

func TestInvokeRollsBackOnFailure(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := newTestRuntime(t, store, nil)
	setup(t, rt, 21, 0)
	before := rt.CallNumber()

	failure := errors.New("disk gone")
	err = rt.Invoke(func(p *pool.Pool) error {
		if err := rt.StakeToken().Transfer(alice, p.Address(), big.NewInt(3), nil); err != nil {
			return err
		}
		return failure
	})
	assert.Equal(t, failure, err)
	assert.False(t, reverts.IsRevertErr(err))
	assert.Equal(t, before, rt.CallNumber())

	bal, err := rt.BalanceOf(rt.StakeToken(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())
}

func TestRecordCountsEvents(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt := newTestRuntime(t, store, db)
	n, err := rt.record()
	require.NoError(t, err)
	assert.Zero(t, n)

	rt.Emit(&pool.Event{Name: "Deposit", Subject: alice, Amount: big.NewInt(1)})
	rt.Emit(&pool.Event{Name: "Withdraw", Subject: alice, Amount: big.NewInt(1)})
	n, err = rt.record()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	withoutDB := newTestRuntime(t, store, nil)
	withoutDB.Emit(&pool.Event{Name: "Deposit", Subject: alice})
	n, err = withoutDB.record()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestViewDiscardsWrites(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := newTestRuntime(t, store, nil)
	setup(t, rt, 21, 0)

	require.NoError(t, rt.View(func(p *pool.Pool) error {
		return rt.StakeToken().Transfer(alice, p.Address(), big.NewInt(5), nil)
	}))
	bal, err := rt.BalanceOf(rt.StakeToken(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())
}

func TestRuntimeReopen(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()

	rt := newTestRuntime(t, store, db)
	setup(t, rt, 21, 0)
	require.NoError(t, rt.Deposit(alice, big.NewInt(40)))
	require.NoError(t, rt.AddYield(owner, big.NewInt(10)))

	reopened := newTestRuntime(t, store, db)
	assert.Equal(t, rt.CallNumber(), reopened.CallNumber())

	var claimed *big.Int
	require.NoError(t, reopened.Invoke(func(p *pool.Pool) (err error) {
		claimed, err = p.ClaimReward(alice, alice)
		return
	}))
	assert.Equal(t, int64(10), claimed.Int64())

	require.NoError(t, reopened.Invoke(func(p *pool.Pool) (err error) {
		claimed, err = p.ClaimReward(alice, alice)
		return
	}))
	assert.Equal(t, int64(0), claimed.Int64())

	yield, err := reopened.BalanceOf(reopened.YieldToken(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(10), yield.Int64())
}

func TestCallNumberWithoutLogDB(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)

	rt := newTestRuntime(t, store, nil)
	setup(t, rt, 21, 0)
	require.NoError(t, rt.Deposit(alice, big.NewInt(1)))
	assert.Error(t, rt.Deposit(alice, big.NewInt(0)))

	reopened := newTestRuntime(t, store, nil)
	assert.Equal(t, rt.CallNumber(), reopened.CallNumber())
	assert.NotZero(t, reopened.CallNumber())
}

func TestCommittedSignal(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := newTestRuntime(t, store, nil)

	ch := rt.Committed()
	require.Error(t, rt.Invoke(func(p *pool.Pool) error { return p.Initialize(hive.Address{}) }))
	select {
	case <-ch:
		t.Fatal("signalled on a reverted call")
	default:
	}

	require.NoError(t, rt.Invoke(func(p *pool.Pool) error { return p.Initialize(owner) }))
	select {
	case <-ch:
	default:
		t.Fatal("not signalled on a committed call")
	}
	assert.NotEqual(t, ch, rt.Committed())
}

func TestTokenBySymbol(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	rt := newTestRuntime(t, store, nil)

	assert.Equal(t, rt.StakeToken(), rt.TokenBySymbol("STK"))
	assert.Equal(t, rt.YieldToken(), rt.TokenBySymbol("YLD"))
	assert.Nil(t, rt.TokenBySymbol("XXX"))
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime hosts the pool together with the stake token, the yield
// token and the voting contract on one state, and executes calls to them one
// at a time.
//
// A call either succeeds as a whole, in which case its writes are committed
// and its events recorded, or fails and leaves no trace.
package runtime

import (
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/token"
	"github.com/vechain/hive/builtin/voting"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/kv"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/logdb"
	"github.com/vechain/hive/state"
)

var logger = log.WithContext("pkg", "runtime")

const (
	stateBucket = kv.Bucket("s")
	metaBucket  = kv.Bucket("m")
)

var callNumberKey = []byte("call-number")

// Options configures a runtime.
type Options struct {
	Pool  pool.Config
	LogDB *logdb.LogDB  // optional, events are dropped when nil
	Clock func() uint64 // unix seconds, defaults to the wall clock
}

// Runtime is to support pool call execution.
type Runtime struct {
	mu sync.Mutex

	state  *state.State
	meta   kv.Store
	logDB  *logdb.LogDB
	clock  func() uint64
	stake  *token.Token
	yield  *token.Token
	voting *voting.Voting
	pool   *pool.Pool

	callNumber uint64
	callTime   uint64
	events     []*pool.Event
	committed  chan struct{}
}

// New creates a runtime over store. The pool is created at hive.PoolAddress.
func New(store kv.Store, opts Options) (*Runtime, error) {
	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	st := state.New(stateBucket.NewStore(store))
	rt := &Runtime{
		state:  st,
		meta:   metaBucket.NewStore(store),
		logDB:  opts.LogDB,
		clock:  clock,
		stake:  token.New(hive.StakeAddress, "STK", st),
		yield:  token.New(hive.YieldAddress, "YLD", st),
		voting: voting.New(hive.VotingAddress, st),

		committed: make(chan struct{}),
	}
	data, err := rt.meta.Get(callNumberKey)
	if err != nil {
		if !rt.meta.IsNotFound(err) {
			return nil, errors.Wrap(err, "failed to get call number")
		}
	} else {
		rt.callNumber = binary.BigEndian.Uint64(data)
	}
	if rt.logDB != nil {
		newest, err := rt.logDB.NewestCallNumber()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get newest call number")
		}
		rt.callNumber = max(rt.callNumber, newest)
	}

	rt.pool = pool.New(hive.PoolAddress, st, opts.Pool, pool.Env{
		StakeToken: rt.stake.As(hive.PoolAddress),
		YieldToken: rt.yield.As(hive.PoolAddress),
		Agents:     agentDialer{rt},
		Emitter:    rt,
		Clock:      func() uint64 { return rt.callTime },
	})
	rt.stake.SetReceiver(hive.PoolAddress, rt.pool)
	rt.yield.SetReceiver(hive.PoolAddress, rt.pool)
	return rt, nil
}

func (rt *Runtime) Pool() *pool.Pool         { return rt.pool }
func (rt *Runtime) StakeToken() *token.Token { return rt.stake }
func (rt *Runtime) YieldToken() *token.Token { return rt.yield }
func (rt *Runtime) Voting() *voting.Voting   { return rt.voting }
func (rt *Runtime) LogDB() *logdb.LogDB      { return rt.logDB }

// CallNumber returns the number of committed calls.
func (rt *Runtime) CallNumber() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.callNumber
}

// Committed returns a channel which is closed once the next call commits.
func (rt *Runtime) Committed() <-chan struct{} {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.committed
}

func (rt *Runtime) TokenBySymbol(s string) *token.Token {
	switch s {
	case rt.stake.Symbol():
		return rt.stake
	case rt.yield.Symbol():
		return rt.yield
	}
	return nil
}

// Emit implements pool.Emitter, buffering events until the call completes.
func (rt *Runtime) Emit(ev *pool.Event) {
	rt.events = append(rt.events, ev)
}

// Invoke executes fn as one call. Any error reverts every write fn made.
func (rt *Runtime) Invoke(fn func(p *pool.Pool) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	start := time.Now()
	rt.callTime = rt.clock()
	rt.events = rt.events[:0]

	checkpoint := rt.state.NewCheckpoint()
	if err := fn(rt.pool); err != nil {
		rt.state.RevertTo(checkpoint)
		rt.events = rt.events[:0]
		if reverts.IsRevertErr(err) {
			metricCallCount().AddWithLabel(1, map[string]string{"result": "reverted"})
			logger.Debug("call reverted", "error", err)
		} else {
			metricCallCount().AddWithLabel(1, map[string]string{"result": "failed"})
			logger.Warn("call failed", "error", err)
		}
		return err
	}

	if err := rt.state.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit state")
	}
	rt.callNumber++
	if err := rt.meta.Put(callNumberKey, binary.BigEndian.AppendUint64(nil, rt.callNumber)); err != nil {
		logger.Warn("failed to save call number", "call", rt.callNumber, "error", err)
	}
	recorded, err := rt.record()
	if err != nil {
		// state is already committed
		logger.Warn("failed to record events", "call", rt.callNumber, "error", err)
	}

	close(rt.committed)
	rt.committed = make(chan struct{})

	metricCallCount().AddWithLabel(1, map[string]string{"result": "committed"})
	metricCallDuration().Observe(time.Since(start).Milliseconds())
	metricRecordedEvents().Add(int64(recorded))
	logger.Debug("call committed", "call", rt.callNumber, "events", len(rt.events), "recorded", recorded)
	return nil
}

// View executes fn against the current state and discards its writes.
func (rt *Runtime) View(fn func(p *pool.Pool) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.callTime = rt.clock()
	rt.events = rt.events[:0]

	checkpoint := rt.state.NewCheckpoint()
	defer func() {
		rt.state.RevertTo(checkpoint)
		rt.events = rt.events[:0]
	}()
	return fn(rt.pool)
}

// record writes the buffered events and returns how many were written.
func (rt *Runtime) record() (int, error) {
	if rt.logDB == nil || len(rt.events) == 0 {
		return 0, nil
	}
	batch := rt.logDB.Prepare(rt.callNumber, rt.callTime)
	for _, ev := range rt.events {
		batch.Insert(ev.Name, ev.Subject, ev.Index, ev.Amount)
	}
	if err := batch.Commit(); err != nil {
		return 0, err
	}
	return batch.Len(), nil
}

//
// Helpers - each one is a call of its own
//

// Deposit transfers amount of stake token from `from` to the pool.
func (rt *Runtime) Deposit(from hive.Address, amount *big.Int) error {
	return rt.Invoke(func(p *pool.Pool) error {
		return rt.stake.Transfer(from, p.Address(), amount, nil)
	})
}

// AddYield transfers amount of yield token from `from` to the pool.
func (rt *Runtime) AddYield(from hive.Address, amount *big.Int) error {
	return rt.Invoke(func(p *pool.Pool) error {
		return rt.yield.Transfer(from, p.Address(), amount, nil)
	})
}

// Transfer moves amount of tk between two accounts, notifying the pool
// when it is the receiver.
func (rt *Runtime) Transfer(tk *token.Token, from, to hive.Address, amount *big.Int) error {
	return rt.Invoke(func(*pool.Pool) error {
		return tk.Transfer(from, to, amount, nil)
	})
}

// Mint creates amount of tk for `to`.
func (rt *Runtime) Mint(tk *token.Token, to hive.Address, amount *big.Int) error {
	return rt.Invoke(func(*pool.Pool) error {
		return tk.Mint(to, amount)
	})
}

// BalanceOf reads a token balance outside of any call.
func (rt *Runtime) BalanceOf(tk *token.Token, addr hive.Address) (*big.Int, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return tk.BalanceOf(addr)
}

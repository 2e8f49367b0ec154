// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package pool implements the pooled staking and delegated voting ledger.
//
// Depositors stake a governance asset which the pool spreads across a fixed
// roster of agents, each voting for a configured candidate. Yield received by
// the pool is shared between depositors by stake-time through a reward per
// share accumulator. A single owner registers agents, runs configuration
// sessions, rebalances agent balances and pauses the pool.
//
// The pool assumes its host serializes calls and discards every write of a
// call that returns an error.
package pool

import (
	"math/big"

	"github.com/vechain/hive/builtin/pool/agents"
	"github.com/vechain/hive/builtin/pool/ownership"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/pool/reward"
	"github.com/vechain/hive/builtin/pool/session"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/state"
)

var logger = log.WithContext("pkg", "pool")

// Token is a fungible asset as seen by the pool. Transfer moves funds out
// of the pool's own balance.
type Token interface {
	Address() hive.Address
	BalanceOf(addr hive.Address) (*big.Int, error)
	Transfer(to hive.Address, amount *big.Int) error
}

// Agent is the remote sub-account holding pooled stake.
type Agent interface {
	Transfer(to hive.Address, amount *big.Int) error
	Vote(candidate hive.Candidate) error
}

// AgentDialer resolves an agent address to something that can be called.
type AgentDialer interface {
	Dial(addr hive.Address) Agent
}

// Config holds the deployment constants. The policy cannot change once the pool is deployed.
type Config struct {
	MaxAgents   uint64        `yaml:"maxAgents"`
	TotalWeight uint64        `yaml:"totalWeight"`
	Policy      agents.Policy `yaml:"policy"`
	OwnerDelay  uint64        `yaml:"ownerDelay"`
}

// DefaultConfig returns the reference deployment constants.
func DefaultConfig() Config {
	return Config{
		MaxAgents:   hive.DefaultMaxAgents,
		TotalWeight: hive.DefaultTotalWeight,
		Policy:      agents.PolicyWeighted,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAgents == 0 {
		c.MaxAgents = hive.DefaultMaxAgents
	}
	if c.TotalWeight == 0 {
		c.TotalWeight = hive.DefaultTotalWeight
	}
	return c
}

// Env binds the pool to its collaborators.
type Env struct {
	StakeToken Token
	YieldToken Token
	Agents     AgentDialer
	Emitter    Emitter       // optional
	Clock      func() uint64 // unix seconds, optional
}

// Pool implements the native methods of the pool contract.
type Pool struct {
	address hive.Address
	config  Config
	env     Env

	rewardService    *reward.Service
	registry         *agents.Registry
	session          *session.Session
	ownershipService *ownership.Service
}

// New creates a pool stored under addr.
func New(addr hive.Address, state *state.State, config Config, env Env) *Pool {
	config = config.withDefaults()
	sctx := solidity.NewContext(addr, state)
	registry := agents.NewRegistry(sctx, config.MaxAgents)

	return &Pool{
		address: addr,
		config:  config,
		env:     env,

		rewardService:    reward.New(sctx),
		registry:         registry,
		session:          session.New(sctx, registry, config.Policy, config.TotalWeight),
		ownershipService: ownership.New(sctx, config.OwnerDelay),
	}
}

func (p *Pool) now() uint64 {
	if p.env.Clock == nil {
		return 0
	}
	return p.env.Clock()
}

func (p *Pool) emit(ev *Event) {
	if p.env.Emitter != nil {
		p.env.Emitter.Emit(ev)
	}
}

//
// Getters - no state change
//

// Address returns the pool's own address.
func (p *Pool) Address() hive.Address {
	return p.address
}

func (p *Pool) Config() Config {
	return p.config
}

func (p *Pool) Owner() (hive.Address, error) {
	return p.ownershipService.Owner()
}

// PendingOwner returns the proposed owner and when it was proposed.
func (p *Pool) PendingOwner() (hive.Address, uint64, error) {
	return p.ownershipService.Pending()
}

func (p *Pool) Paused() (bool, error) {
	return p.ownershipService.Paused()
}

// Agents returns every roster slot in index order, registered or not.
func (p *Pool) Agents() ([]*agents.Agent, error) {
	return p.registry.All()
}

func (p *Pool) Agent(index uint64) (*agents.Agent, error) {
	return p.registry.Get(index)
}

// AgentBalance returns the stake token balance held by the agent at index.
func (p *Pool) AgentBalance(index uint64) (*big.Int, error) {
	agent, err := p.registry.Get(index)
	if err != nil {
		return nil, err
	}
	if !agent.IsRegistered() {
		return new(big.Int), nil
	}
	return p.env.StakeToken.BalanceOf(agent.Address)
}

func (p *Pool) TotalStake() (*big.Int, error) {
	return p.rewardService.TotalStake()
}

func (p *Pool) RewardPerShare() (*big.Int, error) {
	return p.rewardService.RewardPerShare()
}

func (p *Pool) PendingReward() (*big.Int, error) {
	return p.rewardService.PendingReward()
}

func (p *Pool) StakeOf(account hive.Address) (*big.Int, error) {
	acc, err := p.rewardService.GetAccount(account)
	if err != nil {
		return nil, err
	}
	return acc.Stake, nil
}

// RewardOf returns the reward the account could claim now, without syncing it.
func (p *Pool) RewardOf(account hive.Address) (*big.Int, error) {
	return p.rewardService.Earned(account)
}

func (p *Pool) ConfigVersion() (uint64, error) {
	return p.session.Version()
}

// ConfigActive reports whether a configuration session is open.
func (p *Pool) ConfigActive() (bool, error) {
	return p.session.Active()
}

// Ready reports whether a configuration has been finalized at least once.
func (p *Pool) Ready() (bool, error) {
	return p.session.Ready()
}

// PendingConfig returns the configuration finalize would apply right now.
func (p *Pool) PendingConfig() ([]session.Config, error) {
	return p.session.Merged()
}

//
// Setters - state change
//

// Initialize sets the first owner of a freshly deployed pool.
func (p *Pool) Initialize(owner hive.Address) error {
	if err := p.ownershipService.Initialize(owner); err != nil {
		return err
	}
	logger.Info("pool initialized", "owner", owner, "policy", p.config.Policy, "agents", p.config.MaxAgents)
	p.emit(&Event{Name: EventOwnerChanged, Subject: owner})
	return nil
}

// Reward syncs the account and returns its claimable reward.
func (p *Pool) Reward(account hive.Address) (*big.Int, error) {
	acc, err := p.rewardService.Sync(account)
	if err != nil {
		return nil, err
	}
	return acc.Reward, nil
}

// SyncAccount credits the account with the reward accrued since its last sync.
func (p *Pool) SyncAccount(account hive.Address) error {
	_, err := p.rewardService.Sync(account)
	return err
}

func requireCaller(caller, account hive.Address) error {
	if caller != account {
		return reverts.New(reverts.Unauthorized, "caller is not the account")
	}
	return nil
}

func requirePositive(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "amount must be positive")
	}
	return nil
}

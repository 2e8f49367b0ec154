// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/agents"
	"github.com/vechain/hive/builtin/pool/rebalance"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/pool/session"
	"github.com/vechain/hive/hive"
)

//
// Agent registry
//

func (p *Pool) RegisterAgent(caller hive.Address, index uint64, addr hive.Address, name string) error {
	logger.Debug("registering agent", "index", index, "address", addr, "name", name)

	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	if addr == p.address {
		return reverts.New(reverts.InvalidArgument, "pool cannot be its own agent")
	}
	if _, err := p.registry.Register(index, addr, name); err != nil {
		logger.Info("register agent failed", "index", index, "error", err)
		return err
	}

	p.emit(&Event{Name: EventAgentRegistered, Subject: addr, Index: index})
	logger.Info("registered agent", "index", index, "address", addr)
	return nil
}

// SetAgent points a registered slot to a new sub-account. The old
// sub-account must not hold any stake.
func (p *Pool) SetAgent(caller hive.Address, index uint64, addr hive.Address) error {
	logger.Debug("updating agent", "index", index, "address", addr)

	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	if addr == p.address {
		return reverts.New(reverts.InvalidArgument, "pool cannot be its own agent")
	}
	current, err := p.registry.Get(index)
	if err != nil {
		return err
	}
	if current.IsRegistered() && current.Address != addr {
		balance, err := p.env.StakeToken.BalanceOf(current.Address)
		if err != nil {
			return errors.Wrapf(err, "failed to get balance of agent %d", index)
		}
		if balance.Sign() != 0 {
			return reverts.Newf(reverts.PreconditionFailed, "agent %d still holds %v", index, balance)
		}
	}
	if _, err := p.registry.SetAddress(index, addr); err != nil {
		logger.Info("update agent failed", "index", index, "error", err)
		return err
	}

	p.emit(&Event{Name: EventAgentUpdated, Subject: addr, Index: index})
	logger.Info("updated agent", "index", index, "address", addr)
	return nil
}

//
// Configuration session
//

func (p *Pool) BeginConfig(caller hive.Address) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	if err := p.session.Begin(); err != nil {
		return err
	}
	p.emit(&Event{Name: EventConfigBegun})
	logger.Debug("config session begun")
	return nil
}

func (p *Pool) SetAgentConfig(caller hive.Address, index uint64, target hive.Candidate, weight uint64) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	return p.session.Set(index, &target, &weight)
}

func (p *Pool) SetAgentConfigs(caller hive.Address, configs []session.Config) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	return p.session.SetConfigs(configs)
}

func (p *Pool) SetAgentTarget(caller hive.Address, index uint64, target hive.Candidate) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	return p.session.Set(index, &target, nil)
}

func (p *Pool) SetAgentWeight(caller hive.Address, index uint64, weight uint64) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	return p.session.Set(index, nil, &weight)
}

// SetAgentWeights sets weights[i] as the pending weight of agent i.
func (p *Pool) SetAgentWeights(caller hive.Address, weights []uint64) error {
	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return err
	}
	return p.session.SetWeights(weights)
}

// FinalizeConfig validates and applies the pending configuration, returning
// the new config version.
func (p *Pool) FinalizeConfig(caller hive.Address) (uint64, error) {
	logger.Debug("finalizing config")

	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return 0, err
	}
	version, err := p.session.Finalize()
	if err != nil {
		logger.Info("finalize config failed", "error", err)
		return 0, err
	}

	p.emit(&Event{Name: EventConfigFinalized, Index: version})
	metricConfigVersionGauge().Set(int64(version))
	logger.Info("finalized config", "version", version)
	return version, nil
}

//
// Rebalance
//

// RebalanceVotes moves stake between agents to match the active weights and
// then has every configured agent vote for its target. Under the priority
// policy weights are not shares, so only the votes are issued.
func (p *Pool) RebalanceVotes(caller hive.Address) ([]rebalance.Transfer, error) {
	logger.Debug("rebalancing")

	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return nil, err
	}
	ready, err := p.session.Ready()
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, reverts.New(reverts.PreconditionFailed, "no finalized config")
	}
	registered, err := p.registry.Registered()
	if err != nil {
		return nil, err
	}

	var transfers []rebalance.Transfer
	if p.config.Policy == agents.PolicyWeighted {
		if transfers, err = p.rebalance(registered); err != nil {
			logger.Info("rebalance failed", "error", err)
			return nil, err
		}
	}

	for _, a := range registered {
		if a.Target.IsZero() {
			continue
		}
		if err := p.env.Agents.Dial(a.Address).Vote(a.Target); err != nil {
			return nil, errors.Wrapf(err, "agent %d failed to vote", a.Index)
		}
	}

	p.emit(&Event{Name: EventRebalanced, Index: uint64(len(transfers))})
	metricOp("rebalance")
	metricRebalanceTransfers().Observe(int64(len(transfers)))
	logger.Info("rebalanced", "transfers", len(transfers))
	return transfers, nil
}

func (p *Pool) rebalance(registered []*agents.Agent) ([]rebalance.Transfer, error) {
	slots := make([]rebalance.Slot, 0, len(registered))
	byIndex := make(map[uint64]*agents.Agent, len(registered))
	for _, a := range registered {
		balance, err := p.env.StakeToken.BalanceOf(a.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get balance of agent %d", a.Index)
		}
		slots = append(slots, rebalance.Slot{Index: a.Index, Balance: balance, Weight: a.Weight})
		byIndex[a.Index] = a
	}

	transfers, err := rebalance.Plan(slots, p.config.TotalWeight)
	if err != nil {
		return nil, err
	}
	for _, tr := range transfers {
		from, to := byIndex[tr.From], byIndex[tr.To]
		if err := p.env.Agents.Dial(from.Address).Transfer(to.Address, tr.Amount); err != nil {
			return nil, errors.Wrapf(err, "failed to move stake from agent %d to %d", tr.From, tr.To)
		}
	}
	return transfers, nil
}

//
// Ownership and pause
//

func (p *Pool) ProposeOwner(caller, newOwner hive.Address) error {
	if err := p.ownershipService.Propose(caller, newOwner, p.now()); err != nil {
		return err
	}
	p.emit(&Event{Name: EventOwnerProposed, Subject: newOwner})
	logger.Info("owner proposed", "owner", newOwner)
	return nil
}

func (p *Pool) AcceptOwner(caller hive.Address) error {
	previous, err := p.ownershipService.Accept(caller, p.now())
	if err != nil {
		return err
	}
	p.emit(&Event{Name: EventOwnerChanged, Subject: caller})
	logger.Info("owner changed", "from", previous, "to", caller)
	return nil
}

func (p *Pool) CancelOwnerProposal(caller hive.Address) error {
	if err := p.ownershipService.Cancel(caller); err != nil {
		return err
	}
	logger.Info("owner proposal cancelled")
	return nil
}

func (p *Pool) Pause(caller hive.Address) error {
	changed, err := p.ownershipService.SetPaused(caller, true)
	if err != nil {
		return err
	}
	if changed {
		p.emit(&Event{Name: EventPaused})
		logger.Info("pool paused")
	}
	return nil
}

func (p *Pool) Unpause(caller hive.Address) error {
	changed, err := p.ownershipService.SetPaused(caller, false)
	if err != nil {
		return err
	}
	if changed {
		p.emit(&Event{Name: EventUnpaused})
		logger.Info("pool unpaused")
	}
	return nil
}

// DrainAgent has the agent at index return its whole stake balance to the
// pool. Only allowed while paused, it prepares the pool for emergency withdrawals.
func (p *Pool) DrainAgent(caller hive.Address, index uint64) (*big.Int, error) {
	logger.Debug("draining agent", "index", index)

	if err := p.ownershipService.RequireOwner(caller); err != nil {
		return nil, err
	}
	if err := p.ownershipService.RequirePaused(); err != nil {
		return nil, err
	}
	agent, err := p.registry.Get(index)
	if err != nil {
		return nil, err
	}
	if !agent.IsRegistered() {
		return nil, reverts.Newf(reverts.PreconditionFailed, "agent %d not registered", index)
	}
	balance, err := p.env.StakeToken.BalanceOf(agent.Address)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get balance of agent %d", index)
	}
	if balance.Sign() == 0 {
		return balance, nil
	}
	if err := p.env.Agents.Dial(agent.Address).Transfer(p.address, balance); err != nil {
		return nil, errors.Wrapf(err, "failed to drain agent %d", index)
	}

	p.emit(&Event{Name: EventAgentDrained, Subject: agent.Address, Index: index, Amount: balance})
	logger.Info("drained agent", "index", index, "amount", balance)
	return balance, nil
}

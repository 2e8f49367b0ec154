// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/agents"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/hive"
)

// OnDeposit is the notification the token calls after moving amount from
// `from` to the pool. Stake token deposits are credited to `from`, except
// while paused when registered agents return their stake. Yield token
// deposits are shared between stakers.
func (p *Pool) OnDeposit(token, from hive.Address, amount *big.Int, data []byte) error {
	switch token {
	case p.env.StakeToken.Address():
		_, isAgent, err := p.registry.IndexOf(from)
		if err != nil {
			return err
		}
		if isAgent {
			if err := p.ownershipService.RequirePaused(); err != nil {
				return reverts.New(reverts.PreconditionFailed, "agent returns are only accepted while paused")
			}
			logger.Debug("agent stake returned", "agent", from, "amount", amount)
			return nil
		}
		return p.Deposit(from, amount)
	case p.env.YieldToken.Address():
		return p.DistributeYield(amount)
	default:
		return reverts.Newf(reverts.InvalidArgument, "unsupported token %v", token)
	}
}

// Deposit credits amount of stake to depositor and routes exactly that amount
// to the highest priority agent. The pool must already hold the amount.
func (p *Pool) Deposit(depositor hive.Address, amount *big.Int) error {
	logger.Debug("depositing", "depositor", depositor, "amount", amount)

	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := p.ownershipService.RequireNotPaused(); err != nil {
		return err
	}
	registered, err := p.registry.Registered()
	if err != nil {
		return err
	}
	if len(registered) == 0 {
		return reverts.New(reverts.PreconditionFailed, "no agent registered")
	}
	agent, err := agents.SelectHighest(registered)
	if err != nil {
		return err
	}

	if err := p.rewardService.AddStake(depositor, amount); err != nil {
		logger.Info("deposit failed", "depositor", depositor, "error", err)
		return err
	}
	if err := p.env.StakeToken.Transfer(agent.Address, amount); err != nil {
		return errors.Wrapf(err, "failed to route deposit to agent %d", agent.Index)
	}

	p.emit(&Event{Name: EventDeposit, Subject: depositor, Index: agent.Index, Amount: amount})
	metricOp("deposit")
	p.metricTotalStake()
	logger.Info("deposited", "depositor", depositor, "agent", agent.Index)
	return nil
}

// DistributeYield shares amount of received yield between stakers, or parks
// it until the next deposit when nothing is staked.
func (p *Pool) DistributeYield(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "amount must not be negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	distributed, err := p.rewardService.AddYield(amount)
	if err != nil {
		logger.Info("yield distribution failed", "amount", amount, "error", err)
		return err
	}
	if distributed {
		p.emit(&Event{Name: EventRewardDistributed, Amount: amount})
	} else {
		p.emit(&Event{Name: EventRewardPending, Amount: amount})
	}
	metricOp("yield")
	logger.Debug("yield received", "amount", amount, "distributed", distributed)
	return nil
}

type withdrawal struct {
	agent  *agents.Agent
	amount *big.Int
}

// planWithdrawal picks agents in ascending priority order until amount is
// covered by their balances.
func (p *Pool) planWithdrawal(amount *big.Int) ([]withdrawal, error) {
	registered, err := p.registry.Registered()
	if err != nil {
		return nil, err
	}

	var (
		plan      []withdrawal
		remaining = new(big.Int).Set(amount)
		visited   = make(map[uint64]bool, len(registered))
	)
	for remaining.Sign() > 0 {
		agent, err := agents.SelectLowest(registered, visited)
		if err != nil {
			if errors.Is(err, agents.ErrNoAgentAvailable) {
				break
			}
			return nil, err
		}
		visited[agent.Index] = true

		balance, err := p.env.StakeToken.BalanceOf(agent.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get balance of agent %d", agent.Index)
		}
		if balance.Sign() == 0 {
			continue
		}
		take := new(big.Int).Set(remaining)
		if balance.Cmp(take) < 0 {
			take.Set(balance)
		}
		remaining.Sub(remaining, take)
		plan = append(plan, withdrawal{agent: agent, amount: take})
	}

	if remaining.Sign() > 0 {
		return nil, reverts.Newf(reverts.InsufficientFunds, "insufficient agent liquidity, short by %v", remaining)
	}
	return plan, nil
}

// Withdraw returns amount of the account's stake, pulled from the agents.
// Nothing is transferred unless the agents can cover the full amount.
func (p *Pool) Withdraw(caller, account hive.Address, amount *big.Int) error {
	logger.Debug("withdrawing", "account", account, "amount", amount)

	if err := requireCaller(caller, account); err != nil {
		return err
	}
	if err := requirePositive(amount); err != nil {
		return err
	}
	if err := p.rewardService.SubStake(account, amount); err != nil {
		logger.Info("withdraw failed", "account", account, "error", err)
		return err
	}
	plan, err := p.planWithdrawal(amount)
	if err != nil {
		logger.Info("withdraw failed", "account", account, "error", err)
		return err
	}
	for _, w := range plan {
		if err := p.env.Agents.Dial(w.agent.Address).Transfer(account, w.amount); err != nil {
			return errors.Wrapf(err, "failed to withdraw from agent %d", w.agent.Index)
		}
	}

	p.emit(&Event{Name: EventWithdraw, Subject: account, Amount: amount})
	metricOp("withdraw")
	metricWithdrawAgentBucket().Observe(int64(len(plan)))
	p.metricTotalStake()
	logger.Info("withdrew", "account", account, "agents", len(plan))
	return nil
}

// EmergencyWithdraw returns the account's full stake from the pool's own
// balance. Only allowed while paused and after every agent has been drained.
func (p *Pool) EmergencyWithdraw(caller, account hive.Address) (*big.Int, error) {
	logger.Debug("emergency withdrawing", "account", account)

	if err := requireCaller(caller, account); err != nil {
		return nil, err
	}
	if err := p.ownershipService.RequirePaused(); err != nil {
		return nil, err
	}
	registered, err := p.registry.Registered()
	if err != nil {
		return nil, err
	}
	for _, a := range registered {
		balance, err := p.env.StakeToken.BalanceOf(a.Address)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get balance of agent %d", a.Index)
		}
		if balance.Sign() != 0 {
			return nil, reverts.Newf(reverts.PreconditionFailed, "agent %d still holds %v", a.Index, balance)
		}
	}

	amount, err := p.rewardService.TakeStake(account)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, reverts.New(reverts.InsufficientFunds, "nothing staked")
	}
	if err := p.env.StakeToken.Transfer(account, amount); err != nil {
		return nil, errors.Wrap(err, "failed to transfer stake")
	}

	p.emit(&Event{Name: EventEmergencyWithdraw, Subject: account, Amount: amount})
	metricOp("emergency_withdraw")
	p.metricTotalStake()
	logger.Info("emergency withdrew", "account", account, "amount", amount)
	return amount, nil
}

// ClaimReward pays out the account's accrued yield. A second call without
// new yield pays nothing.
func (p *Pool) ClaimReward(caller, account hive.Address) (*big.Int, error) {
	if err := requireCaller(caller, account); err != nil {
		return nil, err
	}
	amount, err := p.rewardService.Claim(account)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return amount, nil
	}
	if err := p.env.YieldToken.Transfer(account, amount); err != nil {
		return nil, errors.Wrap(err, "failed to transfer reward")
	}

	p.emit(&Event{Name: EventRewardClaimed, Subject: account, Amount: amount})
	metricOp("claim")
	logger.Info("reward claimed", "account", account, "amount", amount)
	return amount, nil
}

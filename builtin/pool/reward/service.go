// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
)

var (
	slotTotalStake     = hive.BytesToBytes32([]byte("pool-total-stake"))
	slotRewardPerShare = hive.BytesToBytes32([]byte("pool-reward-per-share"))
	slotPendingReward  = hive.BytesToBytes32([]byte("pool-pending-reward"))
	slotAccounts       = hive.BytesToBytes32([]byte("pool-accounts"))
)

// Service keeps the stake ledger and the reward per share accumulator.
//
// Every account is synced against the accumulator before its stake changes,
// so yield is always split by the stake held while it arrived.
type Service struct {
	totalStake     *solidity.Uint256
	rewardPerShare *solidity.Uint256
	pendingReward  *solidity.Uint256
	accounts       *solidity.Mapping[hive.Address, *Account]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		totalStake:     solidity.NewUint256(sctx, slotTotalStake),
		rewardPerShare: solidity.NewUint256(sctx, slotRewardPerShare),
		pendingReward:  solidity.NewUint256(sctx, slotPendingReward),
		accounts:       solidity.NewMapping[hive.Address, *Account](sctx, slotAccounts),
	}
}

func (s *Service) TotalStake() (*big.Int, error) {
	return s.totalStake.Get()
}

func (s *Service) RewardPerShare() (*big.Int, error) {
	return s.rewardPerShare.Get()
}

// PendingReward returns yield received while nothing was staked.
func (s *Service) PendingReward() (*big.Int, error) {
	return s.pendingReward.Get()
}

// GetAccount returns the stored account, all fields zero if absent.
func (s *Service) GetAccount(addr hive.Address) (*Account, error) {
	acc, err := s.accounts.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return acc.normalize(), nil
}

func (s *Service) setAccount(addr hive.Address, acc *Account) error {
	if acc.IsEmpty() {
		s.accounts.Delete(addr)
		return nil
	}
	if err := s.accounts.Set(addr, acc); err != nil {
		return errors.Wrap(err, "failed to set account")
	}
	return nil
}

// DistributeReward raises the reward per share by amount spread over the current total stake.
func (s *Service) DistributeReward(amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "reward amount must not be negative")
	}
	total, err := s.totalStake.Get()
	if err != nil {
		return err
	}
	if total.Sign() <= 0 {
		return reverts.New(reverts.PreconditionFailed, "no stake to distribute reward to")
	}
	rps, err := s.rewardPerShare.Get()
	if err != nil {
		return err
	}

	share := new(big.Int).Mul(amount, hive.RPSScale)
	share.Quo(share, total)

	next := new(big.Int).Add(rps, share)
	if _, overflow := uint256.FromBig(next); overflow {
		return reverts.New(reverts.InvariantViolation, "reward per share overflow")
	}
	return s.rewardPerShare.Set(next)
}

// AddYield accounts for received yield. It returns false when the yield
// was parked in the pending reward because nothing is staked.
func (s *Service) AddYield(amount *big.Int) (bool, error) {
	total, err := s.totalStake.Get()
	if err != nil {
		return false, err
	}
	if total.Sign() == 0 {
		return false, s.pendingReward.Add(amount)
	}
	return true, s.DistributeReward(amount)
}

// Sync credits the account with what it earned since its last sync.
func (s *Service) Sync(addr hive.Address) (*Account, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	rps, err := s.rewardPerShare.Get()
	if err != nil {
		return nil, err
	}
	acc.Reward = acc.earned(rps, hive.RPSScale)
	acc.Paid = rps
	if err := s.setAccount(addr, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Earned is the read only counterpart of Sync.
func (s *Service) Earned(addr hive.Address) (*big.Int, error) {
	acc, err := s.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	rps, err := s.rewardPerShare.Get()
	if err != nil {
		return nil, err
	}
	return acc.earned(rps, hive.RPSScale), nil
}

// AddStake credits amount to the account. When the total stake leaves zero
// the pending reward is folded into the accumulator.
func (s *Service) AddStake(addr hive.Address, amount *big.Int) error {
	acc, err := s.Sync(addr)
	if err != nil {
		return err
	}
	total, err := s.totalStake.Get()
	if err != nil {
		return err
	}
	wasEmpty := total.Sign() == 0

	acc.Stake.Add(acc.Stake, amount)
	if err := s.setAccount(addr, acc); err != nil {
		return err
	}
	if err := s.totalStake.Add(amount); err != nil {
		return err
	}

	if !wasEmpty {
		return nil
	}
	pending, err := s.pendingReward.Get()
	if err != nil {
		return err
	}
	if pending.Sign() == 0 {
		return nil
	}
	if err := s.DistributeReward(pending); err != nil {
		return err
	}
	return s.pendingReward.Set(new(big.Int))
}

// SubStake debits amount from the account stake.
func (s *Service) SubStake(addr hive.Address, amount *big.Int) error {
	acc, err := s.Sync(addr)
	if err != nil {
		return err
	}
	if acc.Stake.Cmp(amount) < 0 {
		return reverts.Newf(reverts.InsufficientFunds, "stake %v is less than %v", acc.Stake, amount)
	}
	acc.Stake.Sub(acc.Stake, amount)
	if err := s.setAccount(addr, acc); err != nil {
		return err
	}
	return s.totalStake.Sub(amount)
}

// TakeStake zeroes the account stake and returns what it held.
func (s *Service) TakeStake(addr hive.Address) (*big.Int, error) {
	acc, err := s.Sync(addr)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(acc.Stake)
	acc.Stake = new(big.Int)
	if err := s.setAccount(addr, acc); err != nil {
		return nil, err
	}
	if err := s.totalStake.Sub(amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// Claim zeroes the account reward and returns what it held.
func (s *Service) Claim(addr hive.Address) (*big.Int, error) {
	acc, err := s.Sync(addr)
	if err != nil {
		return nil, err
	}
	amount := acc.Reward
	acc.Reward = new(big.Int)
	if err := s.setAccount(addr, acc); err != nil {
		return nil, err
	}
	return amount, nil
}

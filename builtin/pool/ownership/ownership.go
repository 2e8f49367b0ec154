// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ownership

import (
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
)

var (
	slotOwner        = hive.BytesToBytes32([]byte("owner"))
	slotPendingOwner = hive.BytesToBytes32([]byte("owner-pending"))
	slotProposedAt   = hive.BytesToBytes32([]byte("owner-proposed-at"))
	slotPaused       = hive.BytesToBytes32([]byte("paused"))
)

// Service holds the owner, the staged owner transfer and the pause switch.
// A proposed owner can accept once delay seconds have passed since the
// proposal; a zero delay makes the transfer a plain two step handover.
type Service struct {
	owner        *solidity.Address
	pendingOwner *solidity.Address
	proposedAt   *solidity.Raw[uint64]
	paused       *solidity.Raw[bool]
	delay        uint64
}

func New(sctx *solidity.Context, delay uint64) *Service {
	return &Service{
		owner:        solidity.NewAddress(sctx, slotOwner),
		pendingOwner: solidity.NewAddress(sctx, slotPendingOwner),
		proposedAt:   solidity.NewRaw[uint64](sctx, slotProposedAt),
		paused:       solidity.NewRaw[bool](sctx, slotPaused),
		delay:        delay,
	}
}

func (s *Service) Owner() (hive.Address, error) {
	return s.owner.Get()
}

// Pending returns the proposed owner and the proposal time, zero when none.
func (s *Service) Pending() (hive.Address, uint64, error) {
	pending, err := s.pendingOwner.Get()
	if err != nil {
		return hive.Address{}, 0, err
	}
	at, err := s.proposedAt.Get()
	if err != nil {
		return hive.Address{}, 0, err
	}
	return pending, at, nil
}

// Initialize sets the first owner.
func (s *Service) Initialize(owner hive.Address) error {
	if owner.IsZero() {
		return reverts.New(reverts.InvalidArgument, "owner must not be zero")
	}
	current, err := s.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return reverts.New(reverts.PreconditionFailed, "already initialized")
	}
	s.owner.Set(&owner)
	return nil
}

func (s *Service) RequireOwner(caller hive.Address) error {
	owner, err := s.owner.Get()
	if err != nil {
		return err
	}
	if owner.IsZero() || owner != caller {
		return reverts.New(reverts.Unauthorized, "caller is not the owner")
	}
	return nil
}

func (s *Service) Propose(caller, newOwner hive.Address, now uint64) error {
	if err := s.RequireOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.New(reverts.InvalidArgument, "new owner must not be zero")
	}
	s.pendingOwner.Set(&newOwner)
	return s.proposedAt.Set(now)
}

func (s *Service) clearPending() {
	s.pendingOwner.Set(nil)
	s.proposedAt.Delete()
}

// Accept completes the transfer. It returns the previous owner.
func (s *Service) Accept(caller hive.Address, now uint64) (hive.Address, error) {
	pending, at, err := s.Pending()
	if err != nil {
		return hive.Address{}, err
	}
	if pending.IsZero() {
		return hive.Address{}, reverts.New(reverts.PreconditionFailed, "no owner proposal")
	}
	if caller != pending {
		return hive.Address{}, reverts.New(reverts.Unauthorized, "caller is not the proposed owner")
	}
	if now < at+s.delay {
		return hive.Address{}, reverts.Newf(reverts.PreconditionFailed, "owner transfer not acceptable before %d", at+s.delay)
	}
	previous, err := s.owner.Get()
	if err != nil {
		return hive.Address{}, err
	}
	s.owner.Set(&pending)
	s.clearPending()
	return previous, nil
}

func (s *Service) Cancel(caller hive.Address) error {
	if err := s.RequireOwner(caller); err != nil {
		return err
	}
	pending, err := s.pendingOwner.Get()
	if err != nil {
		return err
	}
	if pending.IsZero() {
		return reverts.New(reverts.PreconditionFailed, "no owner proposal")
	}
	s.clearPending()
	return nil
}

func (s *Service) Paused() (bool, error) {
	return s.paused.Get()
}

// SetPaused switches the pause flag, returning whether it changed.
// Setting the current value again is a no-op.
func (s *Service) SetPaused(caller hive.Address, paused bool) (bool, error) {
	if err := s.RequireOwner(caller); err != nil {
		return false, err
	}
	current, err := s.paused.Get()
	if err != nil {
		return false, err
	}
	if current == paused {
		return false, nil
	}
	if !paused {
		s.paused.Delete()
		return true, nil
	}
	return true, s.paused.Set(true)
}

func (s *Service) RequirePaused() error {
	paused, err := s.paused.Get()
	if err != nil {
		return err
	}
	if !paused {
		return reverts.New(reverts.PreconditionFailed, "pool is not paused")
	}
	return nil
}

func (s *Service) RequireNotPaused() error {
	paused, err := s.paused.Get()
	if err != nil {
		return err
	}
	if paused {
		return reverts.New(reverts.PreconditionFailed, "pool is paused")
	}
	return nil
}

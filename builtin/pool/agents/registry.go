// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package agents

import (
	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
)

var (
	slotAgents    = hive.BytesToBytes32([]byte("agents"))
	slotByAddress = hive.BytesToBytes32([]byte("agents-by-address"))
	slotByName    = hive.BytesToBytes32([]byte("agents-by-name"))
)

// Registry is the fixed size agent roster, keyed by index.
// The lookup mappings store index+1 so that zero means absent.
type Registry struct {
	size      uint64
	agents    *solidity.Mapping[solidity.Uint64Key, *Agent]
	byAddress *solidity.Mapping[hive.Address, uint64]
	byName    *solidity.Mapping[hive.Bytes32, uint64]
}

func NewRegistry(sctx *solidity.Context, size uint64) *Registry {
	return &Registry{
		size:      size,
		agents:    solidity.NewMapping[solidity.Uint64Key, *Agent](sctx, slotAgents),
		byAddress: solidity.NewMapping[hive.Address, uint64](sctx, slotByAddress),
		byName:    solidity.NewMapping[hive.Bytes32, uint64](sctx, slotByName),
	}
}

// Size returns the roster size N.
func (r *Registry) Size() uint64 {
	return r.size
}

func (r *Registry) checkIndex(index uint64) error {
	if index >= r.size {
		return reverts.Newf(reverts.InvalidArgument, "agent index %d out of range", index)
	}
	return nil
}

// Get returns the agent at index. Unregistered slots come back with a zero address.
func (r *Registry) Get(index uint64) (*Agent, error) {
	if err := r.checkIndex(index); err != nil {
		return nil, err
	}
	agent, err := r.agents.Get(solidity.Uint64Key(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get agent")
	}
	agent.Index = index
	return agent, nil
}

func (r *Registry) set(agent *Agent) error {
	if err := r.agents.Set(solidity.Uint64Key(agent.Index), agent); err != nil {
		return errors.Wrap(err, "failed to set agent")
	}
	return nil
}

// All returns every slot of the roster in index order.
func (r *Registry) All() ([]*Agent, error) {
	all := make([]*Agent, 0, r.size)
	for i := range r.size {
		agent, err := r.Get(i)
		if err != nil {
			return nil, err
		}
		all = append(all, agent)
	}
	return all, nil
}

// Registered returns the registered agents in index order.
func (r *Registry) Registered() ([]*Agent, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	registered := all[:0]
	for _, a := range all {
		if a.IsRegistered() {
			registered = append(registered, a)
		}
	}
	return registered, nil
}

// IndexOf looks an agent up by address.
func (r *Registry) IndexOf(addr hive.Address) (uint64, bool, error) {
	v, err := r.byAddress.Get(addr)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get agent index")
	}
	if v == 0 {
		return 0, false, nil
	}
	return v - 1, true, nil
}

func (r *Registry) checkAddress(addr hive.Address) error {
	if addr.IsZero() {
		return reverts.New(reverts.InvalidArgument, "agent address must not be zero")
	}
	_, exists, err := r.IndexOf(addr)
	if err != nil {
		return err
	}
	if exists {
		return reverts.Newf(reverts.InvalidArgument, "agent address %v already registered", addr)
	}
	return nil
}

// Register assigns addr and an optional unique name to the free slot index.
func (r *Registry) Register(index uint64, addr hive.Address, name string) (*Agent, error) {
	agent, err := r.Get(index)
	if err != nil {
		return nil, err
	}
	if agent.IsRegistered() {
		return nil, reverts.Newf(reverts.PreconditionFailed, "agent %d already registered", index)
	}
	if err := r.checkAddress(addr); err != nil {
		return nil, err
	}
	if len(name) > MaxNameLength {
		return nil, reverts.Newf(reverts.InvalidArgument, "agent name longer than %d bytes", MaxNameLength)
	}
	if name != "" {
		taken, err := r.byName.Get(hive.Blake2b([]byte(name)))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get agent name")
		}
		if taken != 0 {
			return nil, reverts.Newf(reverts.InvalidArgument, "agent name %q already taken", name)
		}
		if err := r.byName.Set(hive.Blake2b([]byte(name)), index+1); err != nil {
			return nil, errors.Wrap(err, "failed to set agent name")
		}
	}

	agent.Address = addr
	agent.Name = name
	if err := r.byAddress.Set(addr, index+1); err != nil {
		return nil, errors.Wrap(err, "failed to set agent index")
	}
	if err := r.set(agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// SetAddress moves a registered slot to a new sub-account address.
func (r *Registry) SetAddress(index uint64, addr hive.Address) (*Agent, error) {
	agent, err := r.Get(index)
	if err != nil {
		return nil, err
	}
	if !agent.IsRegistered() {
		return nil, reverts.Newf(reverts.PreconditionFailed, "agent %d not registered", index)
	}
	if agent.Address == addr {
		return agent, nil
	}
	if err := r.checkAddress(addr); err != nil {
		return nil, err
	}

	r.byAddress.Delete(agent.Address)
	agent.Address = addr
	if err := r.byAddress.Set(addr, index+1); err != nil {
		return nil, errors.Wrap(err, "failed to set agent index")
	}
	if err := r.set(agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// SetConfig writes the active target and weight of the slot index.
func (r *Registry) SetConfig(index uint64, target hive.Candidate, weight uint64) error {
	agent, err := r.Get(index)
	if err != nil {
		return err
	}
	agent.Target = target
	agent.Weight = weight
	return r.set(agent)
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package session implements the two phase agent configuration protocol.
//
// BeginConfig opens a pending overlay of per-agent targets and weights, the
// setters only ever write into that overlay, and FinalizeConfig validates
// the merged overlay as a whole before copying it into the active roster.
// A session that is never finalized leaves the active roster untouched.
package session

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/agents"
	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
)

var (
	slotActive  = hive.BytesToBytes32([]byte("config-pending-active"))
	slotVersion = hive.BytesToBytes32([]byte("config-version"))
	slotReady   = hive.BytesToBytes32([]byte("config-ready"))
	slotPending = hive.BytesToBytes32([]byte("config-pending"))
)

// Entry is the overlay value of one agent slot. Unset fields fall back to
// the active configuration at finalize.
type Entry struct {
	HasTarget bool
	Target    hive.Candidate
	HasWeight bool
	Weight    uint64
}

// Config is one agent's target and weight.
type Config struct {
	Index  uint64
	Target hive.Candidate
	Weight uint64
}

type Session struct {
	registry    *agents.Registry
	policy      agents.Policy
	totalWeight uint64

	active  *solidity.Raw[bool]
	version *solidity.Raw[uint64]
	ready   *solidity.Raw[bool]
	pending *solidity.Mapping[solidity.Uint64Key, *Entry]
}

func New(sctx *solidity.Context, registry *agents.Registry, policy agents.Policy, totalWeight uint64) *Session {
	return &Session{
		registry:    registry,
		policy:      policy,
		totalWeight: totalWeight,
		active:      solidity.NewRaw[bool](sctx, slotActive),
		version:     solidity.NewRaw[uint64](sctx, slotVersion),
		ready:       solidity.NewRaw[bool](sctx, slotReady),
		pending:     solidity.NewMapping[solidity.Uint64Key, *Entry](sctx, slotPending),
	}
}

// Active reports whether a session is open.
func (s *Session) Active() (bool, error) {
	return s.active.Get()
}

// Version is incremented once per successful finalize.
func (s *Session) Version() (uint64, error) {
	return s.version.Get()
}

// Ready reports whether at least one finalize has succeeded.
func (s *Session) Ready() (bool, error) {
	return s.ready.Get()
}

// Pending returns the overlay entry of index.
func (s *Session) Pending(index uint64) (*Entry, error) {
	entry, err := s.pending.Get(solidity.Uint64Key(index))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get pending config")
	}
	return entry, nil
}

func (s *Session) requireActive() error {
	active, err := s.active.Get()
	if err != nil {
		return err
	}
	if !active {
		return reverts.New(reverts.PreconditionFailed, "config session not active")
	}
	return nil
}

// Begin opens a session. The overlay is seeded from the active roster once a
// config has been finalized, otherwise it starts empty.
func (s *Session) Begin() error {
	ready, err := s.ready.Get()
	if err != nil {
		return err
	}
	all, err := s.registry.All()
	if err != nil {
		return err
	}
	for _, a := range all {
		key := solidity.Uint64Key(a.Index)
		if !ready {
			s.pending.Delete(key)
			continue
		}
		entry := &Entry{HasTarget: true, Target: a.Target, HasWeight: true, Weight: a.Weight}
		if err := s.pending.Set(key, entry); err != nil {
			return errors.Wrap(err, "failed to set pending config")
		}
	}
	return s.active.Set(true)
}

func (s *Session) checkWeight(weight uint64) error {
	if s.policy == agents.PolicyWeighted && weight > s.totalWeight {
		return reverts.Newf(reverts.InvalidArgument, "weight %d exceeds total weight %d", weight, s.totalWeight)
	}
	return nil
}

// Set writes target and/or weight of index into the overlay. A nil argument
// leaves that field as it is.
func (s *Session) Set(index uint64, target *hive.Candidate, weight *uint64) error {
	if err := s.requireActive(); err != nil {
		return err
	}
	if index >= s.registry.Size() {
		return reverts.Newf(reverts.InvalidArgument, "agent index %d out of range", index)
	}
	entry, err := s.Pending(index)
	if err != nil {
		return err
	}
	if target != nil {
		if err := target.Validate(); err != nil {
			return reverts.Newf(reverts.InvalidArgument, "invalid target: %v", err)
		}
		entry.HasTarget, entry.Target = true, *target
	}
	if weight != nil {
		if err := s.checkWeight(*weight); err != nil {
			return err
		}
		entry.HasWeight, entry.Weight = true, *weight
	}
	if err := s.pending.Set(solidity.Uint64Key(index), entry); err != nil {
		return errors.Wrap(err, "failed to set pending config")
	}
	return nil
}

// SetConfigs applies Set to every config, stopping at the first failure.
func (s *Session) SetConfigs(configs []Config) error {
	for _, c := range configs {
		if err := s.Set(c.Index, &c.Target, &c.Weight); err != nil {
			return err
		}
	}
	return nil
}

// SetWeights writes weights[i] for index i.
func (s *Session) SetWeights(weights []uint64) error {
	if uint64(len(weights)) > s.registry.Size() {
		return reverts.Newf(reverts.InvalidArgument, "%d weights for %d agents", len(weights), s.registry.Size())
	}
	for i := range weights {
		if err := s.Set(uint64(i), nil, &weights[i]); err != nil {
			return err
		}
	}
	return nil
}

// Merged returns the configuration finalize would apply, with pending values
// falling back to the active ones.
func (s *Session) Merged() ([]Config, error) {
	all, err := s.registry.All()
	if err != nil {
		return nil, err
	}
	merged := make([]Config, 0, len(all))
	for _, a := range all {
		entry, err := s.Pending(a.Index)
		if err != nil {
			return nil, err
		}
		c := Config{Index: a.Index, Target: a.Target, Weight: a.Weight}
		if entry.HasTarget {
			c.Target = entry.Target
		}
		if entry.HasWeight {
			c.Weight = entry.Weight
		}
		merged = append(merged, c)
	}
	return merged, nil
}

// Validate checks a full roster configuration. Slots without a target are
// unconfigured and must carry no weight.
func Validate(configs []Config, registered []bool, policy agents.Policy, totalWeight uint64) error {
	var sum uint64
	for i, c := range configs {
		if c.Weight > 0 {
			if c.Target.IsZero() {
				return reverts.Newf(reverts.InvalidArgument, "agent %d has weight but no target", c.Index)
			}
			if !registered[i] {
				return reverts.Newf(reverts.InvalidArgument, "agent %d has weight but is not registered", c.Index)
			}
		}
		if !c.Target.IsZero() {
			if err := c.Target.Validate(); err != nil {
				return reverts.Newf(reverts.InvalidArgument, "agent %d: invalid target: %v", c.Index, err)
			}
		}
		if sum > math.MaxUint64-c.Weight {
			return reverts.New(reverts.InvariantViolation, "weight sum overflow")
		}
		sum += c.Weight
	}

	// N is small, a pairwise scan is fine
	for i := range configs {
		if configs[i].Target.IsZero() {
			continue
		}
		for j := i + 1; j < len(configs); j++ {
			if configs[i].Target == configs[j].Target {
				return reverts.Newf(reverts.InvariantViolation, "agents %d and %d share target %v",
					configs[i].Index, configs[j].Index, configs[i].Target)
			}
		}
	}

	if policy == agents.PolicyWeighted && sum != totalWeight {
		return reverts.Newf(reverts.InvariantViolation, "weight sum %d does not equal total weight %d", sum, totalWeight)
	}
	return nil
}

// Finalize validates the merged configuration and applies it. Nothing is
// written unless every slot passes.
func (s *Session) Finalize() (uint64, error) {
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	all, err := s.registry.All()
	if err != nil {
		return 0, err
	}
	merged, err := s.Merged()
	if err != nil {
		return 0, err
	}
	registered := make([]bool, len(all))
	for i, a := range all {
		registered[i] = a.IsRegistered()
	}
	if err := Validate(merged, registered, s.policy, s.totalWeight); err != nil {
		return 0, err
	}

	for _, c := range merged {
		if err := s.registry.SetConfig(c.Index, c.Target, c.Weight); err != nil {
			return 0, err
		}
		s.pending.Delete(solidity.Uint64Key(c.Index))
	}

	version, err := s.version.Get()
	if err != nil {
		return 0, err
	}
	version++
	if err := s.version.Set(version); err != nil {
		return 0, err
	}
	if err := s.active.Set(false); err != nil {
		return 0, err
	}
	if err := s.ready.Set(true); err != nil {
		return 0, err
	}
	return version, nil
}

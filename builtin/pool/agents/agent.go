// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package agents

import (
	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/hive"
)

// MaxNameLength bounds agent display names in bytes.
const MaxNameLength = 64

// ErrNoAgentAvailable is returned when no registered agent has a positive weight.
var ErrNoAgentAvailable = reverts.New(reverts.PreconditionFailed, "no agent available")

// Agent is a sub-account holding part of the pooled stake and voting for Target.
type Agent struct {
	Index   uint64 `rlp:"-"`
	Address hive.Address
	Name    string
	Target  hive.Candidate
	Weight  uint64
}

func (a *Agent) IsRegistered() bool {
	return !a.Address.IsZero()
}

// Policy selects how agent weights are interpreted.
type Policy uint8

const (
	// PolicyWeighted treats weights as shares of the total weight. Weights must sum
	// to the total weight and the pool can be rebalanced to match them.
	PolicyWeighted Policy = iota
	// PolicyPriority treats weights as an ordering only. There is no sum constraint
	// and no rebalancing.
	PolicyPriority
)

func (p Policy) String() string {
	switch p {
	case PolicyWeighted:
		return "weighted"
	case PolicyPriority:
		return "priority"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "weighted":
		return PolicyWeighted, nil
	case "priority":
		return PolicyPriority, nil
	default:
		return 0, errors.Errorf("unknown agent policy %q", s)
	}
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SelectHighest returns the registered agent with the largest positive weight,
// the lowest index wins ties. Deposits are routed to it.
func SelectHighest(all []*Agent) (*Agent, error) {
	var best *Agent
	for _, a := range all {
		if !a.IsRegistered() || a.Weight == 0 {
			continue
		}
		if best == nil || a.Weight > best.Weight {
			best = a
		}
	}
	if best == nil {
		return nil, ErrNoAgentAvailable
	}
	return best, nil
}

// SelectLowest returns the registered agent with the smallest positive weight
// not in exclude, the lowest index wins ties. Withdrawals drain agents in this order.
func SelectLowest(all []*Agent, exclude map[uint64]bool) (*Agent, error) {
	var best *Agent
	for _, a := range all {
		if !a.IsRegistered() || a.Weight == 0 || exclude[a.Index] {
			continue
		}
		if best == nil || a.Weight < best.Weight {
			best = a
		}
	}
	if best == nil {
		return nil, ErrNoAgentAvailable
	}
	return best, nil
}

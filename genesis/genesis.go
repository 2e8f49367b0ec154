// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial state of a ledger: pool constants,
// owner, funded accounts and agent roster.
package genesis

import (
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/builtin/pool/session"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/runtime"
)

// Account is a funded account.
type Account struct {
	Address hive.Address          `yaml:"address"`
	Stake   *math.HexOrDecimal256 `yaml:"stake,omitempty"`
	Yield   *math.HexOrDecimal256 `yaml:"yield,omitempty"`
}

// Agent is a roster slot registered at genesis. A zero target leaves it unconfigured.
type Agent struct {
	Index   uint64         `yaml:"index"`
	Address hive.Address   `yaml:"address"`
	Name    string         `yaml:"name,omitempty"`
	Target  hive.Candidate `yaml:"target,omitempty"`
	Weight  uint64         `yaml:"weight,omitempty"`
}

// Genesis is the initial state of a ledger.
type Genesis struct {
	Name     string       `yaml:"name"`
	Pool     pool.Config  `yaml:"pool"`
	Owner    hive.Address `yaml:"owner"`
	Accounts []Account    `yaml:"accounts,omitempty"`
	Agents   []Agent      `yaml:"agents,omitempty"`
}

// Load reads a genesis file in yaml format.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

func Parse(data []byte) (*Genesis, error) {
	var gene Genesis
	if err := yaml.Unmarshal(data, &gene); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if gene.Owner.IsZero() {
		return nil, errors.New("genesis: owner required")
	}
	return &gene, nil
}

// ID identifies the genesis by the hash of its canonical encoding.
func (g *Genesis) ID() (hive.Bytes32, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return hive.Bytes32{}, errors.Wrap(err, "encode genesis")
	}
	return hive.Blake2b(data), nil
}

// configured reports whether any agent carries a configuration to finalize.
func (g *Genesis) configured() bool {
	for _, a := range g.Agents {
		if !a.Target.IsZero() || a.Weight > 0 {
			return true
		}
	}
	return false
}

// Apply builds the genesis state in a single call. It does nothing and
// returns false when the pool already has an owner.
func (g *Genesis) Apply(rt *runtime.Runtime) (bool, error) {
	var owner hive.Address
	if err := rt.View(func(p *pool.Pool) (err error) {
		owner, err = p.Owner()
		return
	}); err != nil {
		return false, err
	}
	if !owner.IsZero() {
		return false, nil
	}

	err := rt.Invoke(func(p *pool.Pool) error {
		if err := p.Initialize(g.Owner); err != nil {
			return err
		}
		for _, acc := range g.Accounts {
			if acc.Stake != nil {
				if err := rt.StakeToken().Mint(acc.Address, (*big.Int)(acc.Stake)); err != nil {
					return errors.WithMessagef(err, "fund %v", acc.Address)
				}
			}
			if acc.Yield != nil {
				if err := rt.YieldToken().Mint(acc.Address, (*big.Int)(acc.Yield)); err != nil {
					return errors.WithMessagef(err, "fund %v", acc.Address)
				}
			}
		}
		for _, a := range g.Agents {
			if err := p.RegisterAgent(g.Owner, a.Index, a.Address, a.Name); err != nil {
				return errors.WithMessagef(err, "agent %d", a.Index)
			}
		}
		if !g.configured() {
			return nil
		}

		if err := p.BeginConfig(g.Owner); err != nil {
			return err
		}
		configs := make([]session.Config, 0, len(g.Agents))
		for _, a := range g.Agents {
			configs = append(configs, session.Config{Index: a.Index, Target: a.Target, Weight: a.Weight})
		}
		if err := p.SetAgentConfigs(g.Owner, configs); err != nil {
			return err
		}
		_, err := p.FinalizeConfig(g.Owner)
		return err
	})
	if err != nil {
		return false, errors.WithMessage(err, "apply genesis")
	}
	return true, nil
}

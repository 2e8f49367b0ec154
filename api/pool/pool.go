// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/hive/api/utils"
	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/runtime"
)

type Pool struct {
	rt   *runtime.Runtime
	solo bool
}

// New creates the pool api. Calls changing the pool are only served in solo
// mode, where the caller is taken from the request body.
func New(rt *runtime.Runtime, solo bool) *Pool {
	return &Pool{rt, solo}
}

func (p *Pool) summary(pl *pool.Pool) (*Summary, error) {
	cfg := pl.Config()
	s := &Summary{
		Address:     pl.Address(),
		Policy:      cfg.Policy,
		MaxAgents:   cfg.MaxAgents,
		TotalWeight: cfg.TotalWeight,
		OwnerDelay:  cfg.OwnerDelay,
	}
	var err error
	if s.Owner, err = pl.Owner(); err != nil {
		return nil, err
	}
	pending, at, err := pl.PendingOwner()
	if err != nil {
		return nil, err
	}
	if !pending.IsZero() {
		s.PendingOwner, s.ProposedAt = &pending, at
	}
	if s.Paused, err = pl.Paused(); err != nil {
		return nil, err
	}
	for _, v := range []struct {
		get func() (*big.Int, error)
		out **math.HexOrDecimal256
	}{
		{pl.TotalStake, &s.TotalStake},
		{pl.RewardPerShare, &s.RewardPerShare},
		{pl.PendingReward, &s.PendingReward},
	} {
		n, err := v.get()
		if err != nil {
			return nil, err
		}
		*v.out = (*math.HexOrDecimal256)(n)
	}
	if s.ConfigVersion, err = pl.ConfigVersion(); err != nil {
		return nil, err
	}
	if s.ConfigActive, err = pl.ConfigActive(); err != nil {
		return nil, err
	}
	if s.Ready, err = pl.Ready(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Pool) handleGetPool(w http.ResponseWriter, _ *http.Request) error {
	var s *Summary
	if err := p.rt.View(func(pl *pool.Pool) (err error) {
		s, err = p.summary(pl)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, s)
}

func (p *Pool) handleGetAgents(w http.ResponseWriter, _ *http.Request) error {
	var out []*Agent
	if err := p.rt.View(func(pl *pool.Pool) error {
		all, err := pl.Agents()
		if err != nil {
			return err
		}
		for _, a := range all {
			balance, err := pl.AgentBalance(a.Index)
			if err != nil {
				return err
			}
			out = append(out, convertAgent(a, balance))
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func parseIndex(req *http.Request) (uint64, error) {
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "index"))
	}
	return index, nil
}

func (p *Pool) handleGetAgent(w http.ResponseWriter, req *http.Request) error {
	index, err := parseIndex(req)
	if err != nil {
		return err
	}
	var out *Agent
	if err := p.rt.View(func(pl *pool.Pool) error {
		a, err := pl.Agent(index)
		if err != nil {
			return err
		}
		balance, err := pl.AgentBalance(index)
		if err != nil {
			return err
		}
		out = convertAgent(a, balance)
		return nil
	}); err != nil {
		return utils.Revert(err)
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) handleGetConfig(w http.ResponseWriter, _ *http.Request) error {
	var out []*Config
	if err := p.rt.View(func(pl *pool.Pool) error {
		configs, err := pl.PendingConfig()
		if err != nil {
			return err
		}
		for _, c := range configs {
			out = append(out, convertConfig(c))
		}
		return nil
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, out)
}

func (p *Pool) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /pool").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/agents").
		Methods(http.MethodGet).
		Name("GET /pool/agents").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetAgents))
	sub.Path("/agents/{index}").
		Methods(http.MethodGet).
		Name("GET /pool/agents/{index}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetAgent))
	sub.Path("/config").
		Methods(http.MethodGet).
		Name("GET /pool/config").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetConfig))

	if !p.solo {
		return
	}
	for path, h := range p.calls() {
		sub.Path(path).
			Methods(http.MethodPost).
			Name("POST /pool" + path).
			HandlerFunc(utils.WrapHandlerFunc(h))
	}
}

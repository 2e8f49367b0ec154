// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/hive/api/utils"
	"github.com/vechain/hive/builtin/pool"
)

// callFunc executes a parsed call against the pool and fills in the result.
type callFunc func(pl *pool.Pool, call *Call, res *Result) error

func (p *Pool) calls() map[string]utils.HandlerFunc {
	return map[string]utils.HandlerFunc{
		"/deposit":            p.direct(p.deposit),
		"/yield":              p.direct(p.addYield),
		"/withdraw":           p.invoke(withdraw),
		"/claim":              p.invoke(claim),
		"/emergency-withdraw": p.invoke(emergencyWithdraw),
		"/agents":             p.invoke(registerAgent),
		"/agents/{index}":     p.invoke(setAgent),
		"/agents/{index}/drain": p.invoke(func(pl *pool.Pool, call *Call, res *Result) error {
			amount, err := pl.DrainAgent(call.Caller, *call.Index)
			res.Amount = (*math.HexOrDecimal256)(amount)
			return err
		}),
		"/config/begin": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			return pl.BeginConfig(call.Caller)
		}),
		"/config": p.invoke(setConfigs),
		"/config/finalize": p.invoke(func(pl *pool.Pool, call *Call, res *Result) error {
			version, err := pl.FinalizeConfig(call.Caller)
			res.Version = &version
			return err
		}),
		"/rebalance": p.invoke(func(pl *pool.Pool, call *Call, res *Result) error {
			transfers, err := pl.RebalanceVotes(call.Caller)
			res.Transfers = convertTransfers(transfers)
			return err
		}),
		"/pause": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			return pl.Pause(call.Caller)
		}),
		"/unpause": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			return pl.Unpause(call.Caller)
		}),
		"/owner/propose": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			if call.Address == nil {
				return utils.BadRequest(errors.New("address: required"))
			}
			return pl.ProposeOwner(call.Caller, *call.Address)
		}),
		"/owner/accept": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			return pl.AcceptOwner(call.Caller)
		}),
		"/owner/cancel": p.invoke(func(pl *pool.Pool, call *Call, _ *Result) error {
			return pl.CancelOwnerProposal(call.Caller)
		}),
	}
}

func parseCall(req *http.Request) (*Call, error) {
	var call Call
	if err := utils.ParseJSON(req.Body, &call); err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if call.Caller.IsZero() {
		return nil, utils.BadRequest(errors.New("caller: required"))
	}
	if _, ok := mux.Vars(req)["index"]; ok {
		index, err := parseIndex(req)
		if err != nil {
			return nil, err
		}
		call.Index = &index
	}
	return &call, nil
}

func requireAmount(call *Call) (*big.Int, error) {
	if call.Amount == nil {
		return nil, utils.BadRequest(errors.New("amount: required"))
	}
	return (*big.Int)(call.Amount), nil
}

func respond(w http.ResponseWriter, res *Result, err error) error {
	if err != nil {
		return utils.Revert(err)
	}
	return utils.WriteJSON(w, res)
}

// invoke serves fn as a single pool call.
func (p *Pool) invoke(fn callFunc) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		call, err := parseCall(req)
		if err != nil {
			return err
		}
		var res Result
		err = p.rt.Invoke(func(pl *pool.Pool) error {
			return fn(pl, call, &res)
		})
		return respond(w, &res, err)
	}
}

// direct serves a call made through a runtime helper.
func (p *Pool) direct(fn func(call *Call) error) utils.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) error {
		call, err := parseCall(req)
		if err != nil {
			return err
		}
		return respond(w, &Result{}, fn(call))
	}
}

func (p *Pool) deposit(call *Call) error {
	amount, err := requireAmount(call)
	if err != nil {
		return err
	}
	return p.rt.Deposit(call.Caller, amount)
}

func (p *Pool) addYield(call *Call) error {
	amount, err := requireAmount(call)
	if err != nil {
		return err
	}
	return p.rt.AddYield(call.Caller, amount)
}

func withdraw(pl *pool.Pool, call *Call, _ *Result) error {
	amount, err := requireAmount(call)
	if err != nil {
		return err
	}
	return pl.Withdraw(call.Caller, call.Caller, amount)
}

func claim(pl *pool.Pool, call *Call, res *Result) error {
	amount, err := pl.ClaimReward(call.Caller, call.Caller)
	res.Amount = (*math.HexOrDecimal256)(amount)
	return err
}

func emergencyWithdraw(pl *pool.Pool, call *Call, res *Result) error {
	amount, err := pl.EmergencyWithdraw(call.Caller, call.Caller)
	res.Amount = (*math.HexOrDecimal256)(amount)
	return err
}

func registerAgent(pl *pool.Pool, call *Call, _ *Result) error {
	if call.Index == nil || call.Address == nil {
		return utils.BadRequest(errors.New("index and address: required"))
	}
	return pl.RegisterAgent(call.Caller, *call.Index, *call.Address, call.Name)
}

func setAgent(pl *pool.Pool, call *Call, _ *Result) error {
	if call.Address == nil {
		return utils.BadRequest(errors.New("address: required"))
	}
	return pl.SetAgent(call.Caller, *call.Index, *call.Address)
}

func setConfigs(pl *pool.Pool, call *Call, _ *Result) error {
	if len(call.Configs) == 0 {
		return utils.BadRequest(errors.New("configs: required"))
	}
	for i, c := range call.Configs {
		var err error
		switch {
		case c == nil || (c.Target == nil && c.Weight == nil):
			return utils.BadRequest(errors.Errorf("configs[%d]: target or weight required", i))
		case c.Target != nil && c.Weight != nil:
			err = pl.SetAgentConfig(call.Caller, c.Index, *c.Target, *c.Weight)
		case c.Target != nil:
			err = pl.SetAgentTarget(call.Caller, c.Index, *c.Target)
		default:
			err = pl.SetAgentWeight(call.Caller, c.Index, *c.Weight)
		}
		if err != nil {
			return errors.WithMessagef(err, "configs[%d]", i)
		}
	}
	return nil
}

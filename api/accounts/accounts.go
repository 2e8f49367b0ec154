// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/hive/api/utils"
	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/runtime"
)

type Accounts struct {
	rt   *runtime.Runtime
	solo bool
}

func New(rt *runtime.Runtime, solo bool) *Accounts {
	return &Accounts{
		rt,
		solo,
	}
}

func (a *Accounts) getAccount(pl *pool.Pool, addr hive.Address) (*Account, error) {
	stake, err := pl.StakeOf(addr)
	if err != nil {
		return nil, err
	}
	reward, err := pl.RewardOf(addr)
	if err != nil {
		return nil, err
	}
	stakeBalance, err := a.rt.StakeToken().BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	yieldBalance, err := a.rt.YieldToken().BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		Stake:        (*math.HexOrDecimal256)(stake),
		Reward:       (*math.HexOrDecimal256)(reward),
		StakeBalance: (*math.HexOrDecimal256)(stakeBalance),
		YieldBalance: (*math.HexOrDecimal256)(yieldBalance),
	}
	vote, err := a.rt.Voting().VoteOf(addr)
	if err != nil {
		return nil, err
	}
	if !vote.IsZero() {
		acc.Vote = &vote
	}
	return acc, nil
}

func parseAddress(req *http.Request) (hive.Address, error) {
	addr, err := hive.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return hive.Address{}, utils.BadRequest(errors.WithMessage(err, "address"))
	}
	return addr, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var acc *Account
	if err := a.rt.View(func(pl *pool.Pool) (err error) {
		acc, err = a.getAccount(pl, addr)
		return
	}); err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) handleMint(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var mint Mint
	if err := utils.ParseJSON(req.Body, &mint); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	tk := a.rt.TokenBySymbol(mint.Token)
	if tk == nil {
		return utils.BadRequest(errors.Errorf("token: unknown symbol %q", mint.Token))
	}
	if mint.Amount == nil {
		return utils.BadRequest(errors.New("amount: required"))
	}
	if err := a.rt.Mint(tk, addr, (*big.Int)(mint.Amount)); err != nil {
		return utils.Revert(err)
	}
	balance, err := a.rt.BalanceOf(tk, addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{"balance": (*math.HexOrDecimal256)(balance)})
}

// handleSync credits the account with its accrued reward.
func (a *Accounts) handleSync(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req)
	if err != nil {
		return err
	}
	var reward *big.Int
	if err := a.rt.Invoke(func(pl *pool.Pool) (err error) {
		reward, err = pl.Reward(addr)
		return
	}); err != nil {
		return utils.Revert(err)
	}
	return utils.WriteJSON(w, utils.M{"reward": (*math.HexOrDecimal256)(reward)})
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))

	if !a.solo {
		return
	}
	sub.Path("/{address}/mint").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/mint").
		HandlerFunc(utils.WrapHandlerFunc(a.handleMint))
	sub.Path("/{address}/sync").
		Methods(http.MethodPost).
		Name("POST /accounts/{address}/sync").
		HandlerFunc(utils.WrapHandlerFunc(a.handleSync))
}

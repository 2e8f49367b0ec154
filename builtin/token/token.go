// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/builtin/solidity"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/state"
)

var (
	slotTotalSupply = hive.BytesToBytes32([]byte("token-total-supply"))
	slotBalances    = hive.BytesToBytes32([]byte("token-balances"))
)

// Receiver is notified after tokens are transferred to its address.
// Returning an error fails the transfer.
type Receiver interface {
	OnDeposit(token, from hive.Address, amount *big.Int, data []byte) error
}

// Token is a fungible asset whose transfers notify registered receivers.
type Token struct {
	addr        hive.Address
	symbol      string
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[hive.Address, *big.Int]
	receivers   map[hive.Address]Receiver
}

func New(addr hive.Address, symbol string, state *state.State) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		addr:        addr,
		symbol:      symbol,
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		balances:    solidity.NewMapping[hive.Address, *big.Int](sctx, slotBalances),
		receivers:   make(map[hive.Address]Receiver),
	}
}

func (t *Token) Address() hive.Address {
	return t.addr
}

func (t *Token) Symbol() string {
	return t.symbol
}

// SetReceiver registers r to be notified of transfers to addr.
func (t *Token) SetReceiver(addr hive.Address, r Receiver) {
	t.receivers[addr] = r
}

func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

func (t *Token) BalanceOf(addr hive.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return bal, nil
}

func (t *Token) setBalance(addr hive.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	if err := t.balances.Set(addr, bal); err != nil {
		return errors.Wrap(err, "failed to set balance")
	}
	return nil
}

// Mint creates amount of new tokens for to. Receivers are not notified.
func (t *Token) Mint(to hive.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.New(reverts.InvalidArgument, "mint amount must be positive")
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return err
	}
	return t.setBalance(to, bal.Add(bal, amount))
}

// Transfer moves amount from `from` to `to`, then notifies the receiver of `to`, if any.
func (t *Token) Transfer(from, to hive.Address, amount *big.Int, data []byte) error {
	if amount.Sign() < 0 {
		return reverts.New(reverts.InvalidArgument, "transfer amount must not be negative")
	}
	if to.IsZero() {
		return reverts.New(reverts.InvalidArgument, "transfer to zero address")
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Newf(reverts.InsufficientFunds, "%s balance %v of %v is less than %v", t.symbol, fromBal, from, amount)
	}
	if from != to {
		if err := t.setBalance(from, fromBal.Sub(fromBal, amount)); err != nil {
			return err
		}
		toBal, err := t.BalanceOf(to)
		if err != nil {
			return err
		}
		if err := t.setBalance(to, toBal.Add(toBal, amount)); err != nil {
			return err
		}
	}
	if r, ok := t.receivers[to]; ok {
		return r.OnDeposit(t.addr, from, amount, data)
	}
	return nil
}

// Holder is the token as seen by one account: transfers spend its balance.
type Holder struct {
	*Token
	addr hive.Address
}

// As returns the view of the token held by addr.
func (t *Token) As(addr hive.Address) *Holder {
	return &Holder{t, addr}
}

func (h *Holder) Transfer(to hive.Address, amount *big.Int) error {
	return h.Token.Transfer(h.addr, to, amount, nil)
}

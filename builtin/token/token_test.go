// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/builtin/pool/reverts"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/lvldb"
	"github.com/vechain/hive/state"
)

var (
	alice = hive.BytesToAddress([]byte("alice"))
	bob   = hive.BytesToAddress([]byte("bob"))
)

type recorder struct {
	calls []*big.Int
	err   error
}

func (r *recorder) OnDeposit(token, from hive.Address, amount *big.Int, data []byte) error {
	r.calls = append(r.calls, amount)
	return r.err
}

func newToken(t *testing.T) *Token {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	return New(hive.StakeAddress, "STK", state.New(db))
}

func balance(t *testing.T, tk *Token, addr hive.Address) int64 {
	b, err := tk.BalanceOf(addr)
	require.NoError(t, err)
	return b.Int64()
}

func TestMintAndTransfer(t *testing.T) {
	tk := newToken(t)
	require.NoError(t, tk.Mint(alice, big.NewInt(100)))

	require.NoError(t, tk.As(alice).Transfer(bob, big.NewInt(30)))
	assert.Equal(t, int64(70), balance(t, tk, alice))
	assert.Equal(t, int64(30), balance(t, tk, bob))

	supply, err := tk.TotalSupply()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), supply)

	err = tk.Transfer(bob, alice, big.NewInt(31), nil)
	assert.Equal(t, reverts.InsufficientFunds, reverts.KindOf(err))

	err = tk.Transfer(bob, hive.Address{}, big.NewInt(1), nil)
	assert.Equal(t, reverts.InvalidArgument, reverts.KindOf(err))

	assert.Equal(t, reverts.InvalidArgument, reverts.KindOf(tk.Mint(alice, big.NewInt(0))))
}

func TestReceiverNotified(t *testing.T) {
	tk := newToken(t)
	r := &recorder{}
	tk.SetReceiver(bob, r)
	require.NoError(t, tk.Mint(alice, big.NewInt(10)))

	require.NoError(t, tk.Transfer(alice, bob, big.NewInt(4), []byte("tag")))
	require.Len(t, r.calls, 1)
	assert.Equal(t, big.NewInt(4), r.calls[0])

	r.err = errors.New("rejected")
	assert.Error(t, tk.Transfer(alice, bob, big.NewInt(1), nil))
}

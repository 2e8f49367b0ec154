// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/hive/hive"
)

// Account for marshal account
type Account struct {
	Stake        *math.HexOrDecimal256 `json:"stake"`
	Reward       *math.HexOrDecimal256 `json:"reward"`
	StakeBalance *math.HexOrDecimal256 `json:"stakeBalance"`
	YieldBalance *math.HexOrDecimal256 `json:"yieldBalance"`
	Vote         *hive.Candidate       `json:"vote"`
}

// Mint represents mint-call body
type Mint struct {
	Token  string                `json:"token"`
	Amount *math.HexOrDecimal256 `json:"amount"`
}

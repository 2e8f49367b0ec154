// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/hive"
)

// DevAccount account for development.
type DevAccount struct {
	Address    hive.Address
	PrivateKey *ecdsa.PrivateKey
}

// Candidate returns the account's public key as a voting candidate.
func (a DevAccount) Candidate() hive.Candidate {
	return hive.CandidateFromPubKey(secp256k1.PrivKeyFromBytes(crypto.FromECDSA(a.PrivateKey)).PubKey())
}

// DevAccounts returns pre-alloced accounts for solo mode.
var DevAccounts = sync.OnceValue(func() []DevAccount {
	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
		"c8c53657e41a8d669349fc287f57457bd746cb1fcfc38cf94d235deb2cfca81b",
		"87e0eba9c86c494d98353800571089f316740b0cb84c9a7cdf2fe5c9997c7966",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{hive.Address(addr), pk})
	}
	return accs
})

// devAgents is the number of dev accounts, counted from the last, acting as agents.
const devAgents = 3

// NewDevnet create genesis for solo mode. The first dev account owns the
// pool, the last ones are registered as agents voting for the first ones.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	bal, _ := new(big.Int).SetString("1000000000000000000000000", 10)

	gene := &Genesis{
		Name:  "devnet",
		Pool:  pool.DefaultConfig(),
		Owner: accs[0].Address,
	}
	for _, a := range accs[:len(accs)-devAgents] {
		gene.Accounts = append(gene.Accounts, Account{
			Address: a.Address,
			Stake:   (*math.HexOrDecimal256)(bal),
			Yield:   (*math.HexOrDecimal256)(bal),
		})
	}

	weight := gene.Pool.TotalWeight / devAgents
	for i, a := range accs[len(accs)-devAgents:] {
		agent := Agent{
			Index:   uint64(i),
			Address: a.Address,
			Name:    fmt.Sprintf("dev-%d", i),
			Target:  accs[i+1].Candidate(),
			Weight:  weight,
		}
		if i == 0 {
			agent.Weight += gene.Pool.TotalWeight % devAgents
		}
		gene.Agents = append(gene.Agents, agent)
	}
	return gene
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool_test

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	poolapi "github.com/vechain/hive/api/pool"
	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/lvldb"
	"github.com/vechain/hive/runtime"
)

var (
	owner = hive.BytesToAddress([]byte("owner"))
	alice = hive.BytesToAddress([]byte("alice"))
)

func agentAddr(i int) hive.Address {
	return hive.BytesToAddress([]byte{'a', 'g', 'e', 'n', 't', byte(i)})
}

func candidate(i int) hive.Candidate {
	return hive.CandidateFromPubKey(secp256k1.PrivKeyFromBytes([]byte{byte(i + 1)}).PubKey())
}

func initServer(t *testing.T, solo bool) (*httptest.Server, *runtime.Runtime) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	cfg := pool.DefaultConfig()
	cfg.MaxAgents = 2
	rt, err := runtime.New(store, runtime.Options{Pool: cfg})
	require.NoError(t, err)
	require.NoError(t, rt.Invoke(func(p *pool.Pool) error { return p.Initialize(owner) }))
	require.NoError(t, rt.Mint(rt.StakeToken(), alice, big.NewInt(100)))

	router := mux.NewRouter()
	poolapi.New(rt, solo).Mount(router, "/pool")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, rt
}

func httpPost(t *testing.T, url string, body any) (int, []byte) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer res.Body.Close()
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, r
}

func httpGet(t *testing.T, url string, out any) int {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if res.StatusCode == http.StatusOK && out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func amount(v int64) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(big.NewInt(v))
}

func index(i uint64) *uint64 { return &i }

func configure(t *testing.T, ts *httptest.Server, weights ...uint64) {
	for i := range weights {
		addr := agentAddr(i)
		code, body := httpPost(t, ts.URL+"/pool/agents", &poolapi.Call{Caller: owner, Index: index(uint64(i)), Address: &addr})
		require.Equal(t, http.StatusOK, code, string(body))
	}
	code, body := httpPost(t, ts.URL+"/pool/config/begin", &poolapi.Call{Caller: owner})
	require.Equal(t, http.StatusOK, code, string(body))

	configs := make([]*poolapi.Config, len(weights))
	for i, w := range weights {
		target, weight := candidate(i), w
		configs[i] = &poolapi.Config{Index: uint64(i), Target: &target, Weight: &weight}
	}
	code, body = httpPost(t, ts.URL+"/pool/config", &poolapi.Call{Caller: owner, Configs: configs})
	require.Equal(t, http.StatusOK, code, string(body))

	code, body = httpPost(t, ts.URL+"/pool/config/finalize", &poolapi.Call{Caller: owner})
	require.Equal(t, http.StatusOK, code, string(body))
	var res poolapi.Result
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, uint64(1), *res.Version)
}

func TestPoolCalls(t *testing.T) {
	ts, _ := initServer(t, true)
	configure(t, ts, 10, 11)

	code, body := httpPost(t, ts.URL+"/pool/deposit", &poolapi.Call{Caller: alice, Amount: amount(6)})
	require.Equal(t, http.StatusOK, code, string(body))

	var agents []*poolapi.Agent
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pool/agents", &agents))
	require.Len(t, agents, 2)
	assert.Equal(t, int64(0), (*big.Int)(agents[0].Balance).Int64())
	assert.Equal(t, int64(6), (*big.Int)(agents[1].Balance).Int64())
	assert.Equal(t, candidate(1), *agents[1].Target)

	code, body = httpPost(t, ts.URL+"/pool/rebalance", &poolapi.Call{Caller: owner})
	require.Equal(t, http.StatusOK, code, string(body))
	var res poolapi.Result
	require.NoError(t, json.Unmarshal(body, &res))
	require.Len(t, res.Transfers, 1)
	assert.Equal(t, uint64(1), res.Transfers[0].From)
	assert.Equal(t, int64(2), (*big.Int)(res.Transfers[0].Amount).Int64())

	var agent poolapi.Agent
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pool/agents/0", &agent))
	assert.Equal(t, int64(2), (*big.Int)(agent.Balance).Int64())

	code, _ = httpPost(t, ts.URL+"/pool/withdraw", &poolapi.Call{Caller: alice, Amount: amount(4)})
	assert.Equal(t, http.StatusOK, code)

	var summary poolapi.Summary
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pool", &summary))
	assert.Equal(t, owner, summary.Owner)
	assert.Equal(t, int64(2), (*big.Int)(summary.TotalStake).Int64())
	assert.True(t, summary.Ready)
	assert.Equal(t, uint64(1), summary.ConfigVersion)
	assert.Nil(t, summary.PendingOwner)
}

func TestPoolCallErrors(t *testing.T) {
	ts, _ := initServer(t, true)
	configure(t, ts, 21, 0)

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"not owner", "/pool/pause", &poolapi.Call{Caller: alice}, http.StatusForbidden},
		{"insufficient stake", "/pool/withdraw", &poolapi.Call{Caller: alice, Amount: amount(1)}, http.StatusConflict},
		{"missing amount", "/pool/deposit", &poolapi.Call{Caller: alice}, http.StatusBadRequest},
		{"missing caller", "/pool/claim", &poolapi.Call{}, http.StatusBadRequest},
		{"unknown field", "/pool/claim", map[string]string{"caller": alice.String(), "foo": "bar"}, http.StatusBadRequest},
		{"empty configs", "/pool/config", &poolapi.Call{Caller: owner}, http.StatusBadRequest},
		{"no session", "/pool/config/finalize", &poolapi.Call{Caller: owner}, http.StatusConflict},
		{"not paused", "/pool/agents/0/drain", &poolapi.Call{Caller: owner}, http.StatusConflict},
		{"bad index", "/pool/agents/x", &poolapi.Call{Caller: owner, Address: &alice}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := httpPost(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, code, string(body))
		})
	}
}

func TestPoolGetErrors(t *testing.T) {
	ts, _ := initServer(t, false)

	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/pool/agents/x", nil))
	assert.Equal(t, http.StatusBadRequest, httpGet(t, ts.URL+"/pool/agents/9", nil))

	var configs []*poolapi.Config
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pool/config", &configs))
	assert.Len(t, configs, 2)

	// calls are only served in solo mode
	code, _ := httpPost(t, ts.URL+"/pool/deposit", &poolapi.Call{Caller: alice, Amount: amount(1)})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOwnerTransferCalls(t *testing.T) {
	ts, rt := initServer(t, true)
	bob := hive.BytesToAddress([]byte("bob"))

	code, body := httpPost(t, ts.URL+"/pool/owner/propose", &poolapi.Call{Caller: owner, Address: &bob})
	require.Equal(t, http.StatusOK, code, string(body))

	var summary poolapi.Summary
	require.Equal(t, http.StatusOK, httpGet(t, ts.URL+"/pool", &summary))
	require.NotNil(t, summary.PendingOwner)
	assert.Equal(t, bob, *summary.PendingOwner)

	code, _ = httpPost(t, ts.URL+"/pool/owner/accept", &poolapi.Call{Caller: bob})
	assert.Equal(t, http.StatusOK, code)

	require.NoError(t, rt.View(func(p *pool.Pool) error {
		got, err := p.Owner()
		assert.Equal(t, bob, got)
		return err
	}))
}

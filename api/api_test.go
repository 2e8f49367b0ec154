// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/logdb"
	"github.com/vechain/hive/lvldb"
	"github.com/vechain/hive/runtime"
)

func newTestHandler(t *testing.T, opts Options) http.HandlerFunc {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rt, err := runtime.New(store, runtime.Options{Pool: pool.DefaultConfig(), LogDB: db})
	require.NoError(t, err)
	require.NoError(t, rt.Invoke(func(p *pool.Pool) error {
		return p.Initialize(hive.BytesToAddress([]byte("owner")))
	}))
	handler, closeFunc := New(rt, db, opts)
	t.Cleanup(closeFunc)
	return handler
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Origin", "http://localhost")
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t, Options{
		AllowedOrigins:  "*",
		EnableMetrics:   true,
		EnableReqLogger: &atomic.Bool{},
		LogsLimit:       100,
		SoloMode:        true,
	})

	rr := serve(h, http.MethodGet, "/pool", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ready":false`)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(h, http.MethodPost, "/events", `{}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"OwnerChanged"`)

	rr = serve(h, http.MethodPost, "/pool/pause", `{"caller":"`+hive.BytesToAddress([]byte("owner")).String()+`"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h, http.MethodGet, "/subscriptions/event?pos=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(h, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSkipLogs(t *testing.T) {
	h := newTestHandler(t, Options{SkipLogs: true})

	rr := serve(h, http.MethodPost, "/events", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, http.MethodGet, "/subscriptions/event", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(h, http.MethodPost, "/pool/pause", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code, "calls are only served in solo mode")
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"context"
	"net/http"
	"time"
)

// maxBodySize caps request bodies accepted by the API server.
const maxBodySize = 200 * 1024

// StartAPIServer serves handler on addr. A zero timeout disables the
// per request deadline.
func StartAPIServer(addr string, handler http.Handler, timeout time.Duration) (string, func() error, error) {
	listener, err := listen("API", addr)
	if err != nil {
		return "", nil, err
	}
	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}
	handler = requestBodyLimit(handler)

	closeFunc := serve(newServer(handler), listener)
	return "http://" + listener.Addr().String() + "/", closeFunc, nil
}

// handleAPITimeout bounds the request context. Websocket upgrades are long
// lived and left alone.
func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			h.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		h.ServeHTTP(w, r)
	})
}

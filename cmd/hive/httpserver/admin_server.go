// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package httpserver

import (
	"log/slog"
	"sync/atomic"

	"github.com/vechain/hive/api/admin"
)

func StartAdminServer(addr string, logLevel *slog.LevelVar, apiLogs *atomic.Bool) (string, func() error, error) {
	listener, err := listen("admin API", addr)
	if err != nil {
		return "", nil, err
	}

	closeFunc := serve(newServer(admin.New(logLevel, apiLogs)), listener)
	return "http://" + listener.Addr().String() + "/admin", closeFunc, nil
}

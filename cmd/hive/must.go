// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/hive/builtin/pool"
	"github.com/vechain/hive/genesis"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/logdb"
	"github.com/vechain/hive/lvldb"
	hiveruntime "github.com/vechain/hive/runtime"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(ctx.Uint64(verbosityFlag.Name))
	var level slog.LevelVar
	level.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.NewJSONHandler(os.Stdout, &level)
	} else {
		handler = log.NewTerminalHandler(os.Stdout, &level)
	}
	log.SetDefault(handler)
	return &level
}

func selectGenesis(ctx *cli.Context, solo bool) (*genesis.Genesis, error) {
	file := ctx.String(genesisFlag.Name)
	if file == "" {
		if solo {
			return genesis.NewDevnet(), nil
		}
		return nil, errors.Errorf("missing --%v", genesisFlag.Name)
	}
	gene, err := genesis.Load(file)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis [%v]", file)
	}
	return gene, nil
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use --%v to specify one", dataDirFlag.Name)
	}
	id, err := gene.ID()
	if err != nil {
		return "", err
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", id.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(ctx *cli.Context, instanceDir string) (*lvldb.LevelDB, error) {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	logger.Debug("cache size(MB)", "size", cacheMB)

	// ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	logger.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	fdCache, err := suggestFDCache()
	if err != nil {
		return nil, err
	}
	logger.Debug("fd cache", "n", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() (int, error) {
	limit, err := fdlimit.Current()
	if err != nil {
		return 0, errors.Wrap(err, "get fd limit")
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120, nil
	}
	return n, nil
}

func openLogDB(_ *cli.Context, instanceDir string) (*logdb.LogDB, error) {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", dir)
	}
	return db, nil
}

func openMemMainDB() (*lvldb.LevelDB, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return nil, errors.Wrap(err, "open main database in memory")
	}
	return db, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// maxClockOffset is the clock drift tolerated before warning. Owner transfer
// delays are measured on the local clock.
const maxClockOffset = 5 * time.Second

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.vechain.hive")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.hive")
		default:
			return filepath.Join(home, ".org.vechain.hive")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func printStartupMessage(
	gene *genesis.Genesis,
	rt *hiveruntime.Runtime,
	instanceDir string,
	apiURL string,
	solo bool,
) {
	var (
		owner  hive.Address
		total  = "0"
		agents int
	)
	rt.View(func(p *pool.Pool) error {
		owner, _ = p.Owner()
		if ts, err := p.TotalStake(); err == nil {
			total = ts.String()
		}
		if all, err := p.Agents(); err == nil {
			agents = len(all)
		}
		return nil
	})

	name := "Hive"
	if solo {
		name = "Hive solo"
	}
	info := fmt.Sprintf(`Starting %v
    Genesis     [ %v ]
    Pool        [ %v owner %v ]
    Ledger      [ call #%v, %v agents, total stake %v ]
    Data dir    [ %v ]
    API portal  [ %v ]`,
		name+" "+fullVersion(),
		gene.Name,
		rt.Pool().Address(), owner,
		rt.CallNumber(), agents, total,
		instanceDir,
		apiURL)

	if solo && gene.Name == genesis.NewDevnet().Name {
		tableHead := `
┌────────────────────────────────────────────┬────────────────────────────────────────────────────────────────────┐
│                   Address                  │                             Private Key                            │`
		tableContent := `
├────────────────────────────────────────────┼────────────────────────────────────────────────────────────────────┤
│ %v │ %v │`
		tableEnd := `
└────────────────────────────────────────────┴────────────────────────────────────────────────────────────────────┘`

		info += tableHead
		for _, a := range genesis.DevAccounts() {
			info += fmt.Sprintf(tableContent, a.Address, hive.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)))
		}
		info += tableEnd
	}
	fmt.Println(info)
}

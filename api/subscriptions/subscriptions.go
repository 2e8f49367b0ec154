// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/hive/api/utils"
	"github.com/vechain/hive/hive"
	"github.com/vechain/hive/log"
	"github.com/vechain/hive/logdb"
	"github.com/vechain/hive/runtime"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10

	// calls scanned per read
	readBatch = 100
)

type Subscriptions struct {
	rt       *runtime.Runtime
	logDB    *logdb.LogDB
	upgrader *websocket.Upgrader
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

func New(rt *runtime.Runtime, logDB *logdb.LogDB, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		rt:    rt,
		logDB: logDB,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == origin || allowed == "*" {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func (s *Subscriptions) handleEventReader(req *http.Request) (*eventReader, error) {
	var (
		pos    = s.rt.CallNumber()
		filter eventFilter
	)
	if v := req.URL.Query().Get("pos"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		if n > pos {
			return nil, utils.BadRequest(errors.New("pos: out of range"))
		}
		pos = min(n, math.MaxInt64)
	}
	if v := req.URL.Query().Get("name"); v != "" {
		filter.Name = &v
	}
	if v := req.URL.Query().Get("subject"); v != "" {
		addr, err := hive.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "subject"))
		}
		filter.Subject = &addr
	}
	return newEventReader(s.logDB, s.rt.CallNumber, pos, &filter), nil
}

func (s *Subscriptions) handleSubscribeEvent(w http.ResponseWriter, req *http.Request) error {
	s.wg.Add(1)
	defer s.wg.Done()

	reader, err := s.handleEventReader(req)
	if err != nil {
		return err
	}

	conn, closed, err := s.setupConn(w, req)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("failed to upgrade", "err", err)
		return nil
	}

	if err := s.pipe(conn, reader, closed); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		logger.Debug("subscription closed", "err", err)
	} else {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	}
	conn.Close()
	return nil
}

func (s *Subscriptions) setupConn(w http.ResponseWriter, req *http.Request) (*websocket.Conn, chan struct{}, error) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return nil, nil, err
	}

	closed := make(chan struct{})
	// start read loop to handle close event
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read error", "err", err)
				close(closed)
				return
			}
		}
	}()
	return conn, closed, nil
}

func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader, closed chan struct{}) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		committed := s.rt.Committed()
		msgs, hasMore, err := reader.Read()
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}
		if hasMore {
			select {
			case <-s.done:
				return nil
			case <-closed:
				return nil
			default:
			}
			continue
		}

		select {
		case <-s.done:
			return nil
		case <-closed:
			return nil
		case <-committed:
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// Close stops every subscription and waits for them to finish.
func (s *Subscriptions) Close() {
	s.doneOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvent))
}

// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams committed events to websocket clients.
package subscriptions

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/farm/api/utils"
	"github.com/vechain/farm/farm"
	"github.com/vechain/farm/log"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 7) / 10
)

type Subscriptions struct {
	hub      *Hub
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
}

// New creates the subscription endpoints. Cross origin upgrades are accepted
// from allowedOrigins only, "*" allows any.
func New(hub *Hub, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		hub: hub,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
		done: make(chan struct{}),
	}
}

func parseAddressParam(q url.Values, key string) (*farm.Address, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	addr, err := farm.ParseAddress(s)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, key))
	}
	return &addr, nil
}

func parseFilter(q url.Values) (filter Filter, err error) {
	if filter.Address, err = parseAddressParam(q, "address"); err != nil {
		return
	}
	if filter.Account, err = parseAddressParam(q, "account"); err != nil {
		return
	}
	if filter.Token, err = parseAddressParam(q, "token"); err != nil {
		return
	}
	filter.Name = q.Get("name")
	return
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req.URL.Query())
	if err != nil {
		return err
	}

	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has already replied
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()

	sub := s.hub.Subscribe(filter)
	defer s.hub.Unsubscribe(sub)

	err = s.pipe(conn, sub)
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err != nil {
		logger.Debug("subscription closed", "err", err)
		closeMsg = websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error())
	}
	conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(writeWait))
	conn.Close()
	return nil
}

// pipe writes the messages of sub to conn until the peer goes away or the
// subscriptions close.
func (s *Subscriptions) pipe(conn *websocket.Conn, sub *Subscription) error {
	closed := make(chan struct{})
	// the read loop only serves control frames
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug("websocket read", "err", err)
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-sub.C():
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return errors.Wrap(err, "write message")
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return errors.Wrap(err, "write ping")
			}
		case <-closed:
			return nil
		case <-s.done:
			return nil
		}
	}
}

// Close ends every open subscription and waits for their handlers to return.
func (s *Subscriptions) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/events").
		Methods(http.MethodGet).
		Name("WS /subscriptions/events").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}

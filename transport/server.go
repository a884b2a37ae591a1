// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package transport

import (
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/event"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/wallet"
)

// JWTSecretLength is the required length of the approval API secret.
const JWTSecretLength = 32

var errSecretLength = errors.New("jwt secret must be 32 bytes")

// Config configures a Server.
type Config struct {
	// ProviderOrigins may open /provider. "*" allows any origin.
	ProviderOrigins []string

	// UIOrigins may call the approval API from a browser.
	UIOrigins []string

	// JWTSecret authenticates the approval API.
	JWTSecret []byte
}

// Server serves the provider relay and the approval API.
type Server struct {
	wallet *wallet.Wallet
	hub    *Hub
	config Config
	router chi.Router
	log    log.Logger

	providerUpgrader websocket.Upgrader
	eventsUpgrader   websocket.Upgrader

	mu        sync.Mutex
	providers map[*wsConn]struct{}

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewServer creates the server and starts forwarding wallet events to the
// approval surfaces in hub. hub must be the broker.UI the wallet was built
// with.
func NewServer(w *wallet.Wallet, hub *Hub, config Config) (*Server, error) {
	if len(config.JWTSecret) != JWTSecretLength {
		return nil, errSecretLength
	}
	s := &Server{
		wallet: w,
		hub:    hub,
		config: config,
		log:    log.New("module", "transport"),
		providerUpgrader: websocket.Upgrader{
			ReadBufferSize:  wsReadBuffer,
			WriteBufferSize: wsWriteBuffer,
			WriteBufferPool: wsBufferPool,
			CheckOrigin:     originValidator(config.ProviderOrigins, true),
		},
		eventsUpgrader: websocket.Upgrader{
			ReadBufferSize:  wsReadBuffer,
			WriteBufferSize: wsWriteBuffer,
			WriteBufferPool: wsBufferPool,
			CheckOrigin:     originValidator(config.UIOrigins, false),
		},
		providers: make(map[*wsConn]struct{}),
		quit:      make(chan struct{}),
	}
	s.router = s.routes()

	s.wg.Add(1)
	go s.forwardLoop()
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops event forwarding and drops every websocket.
func (s *Server) Close() {
	close(s.quit)
	s.wg.Wait()

	s.hub.closeAll()
	s.mu.Lock()
	providers := s.providers
	s.providers = make(map[*wsConn]struct{})
	s.mu.Unlock()
	for c := range providers {
		c.close()
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/provider", s.serveProvider)

	c := cors.New(cors.Options{
		AllowedOrigins: s.config.UIOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})
	r.Group(func(r chi.Router) {
		r.Use(c.Handler)
		r.Use(func(next http.Handler) http.Handler {
			return newJWTHandler(s.config.JWTSecret, next)
		})
		r.Get("/status", s.handleStatus)
		r.Post("/create", s.handleCreate)
		r.Post("/unlock", s.handleUnlock)
		r.Post("/lock", s.handleLock)
		r.Post("/password", s.handleChangePassword)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/reset", s.handleReset)
		r.Get("/autolock", s.handleAutoLock)
		r.Post("/autolock", s.handleSetAutoLock)
		r.Get("/accounts", s.handleAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Post("/accounts/import", s.handleImportAccount)
		r.Delete("/accounts/{address}", s.handleRemoveAccount)
		r.Post("/accounts/{address}/name", s.handleRenameAccount)
		r.Post("/accounts/{address}/select", s.handleSelectAccount)
		r.Get("/networks", s.handleNetworks)
		r.Get("/sites", s.handleSites)
		r.Delete("/sites", s.handleDisconnect)
		r.Get("/pending", s.handlePending)
		r.Get("/pending/oldest", s.handleOldest)
		r.Get("/pending/{id}", s.handleGetPending)
		r.Post("/pending/{id}/approve", s.handleApprove)
		r.Post("/pending/{id}/reject", s.handleReject)
		r.Get("/events", s.serveEvents)
	})
	return r
}

// forwardLoop relays pending table and lock state changes to the approval
// surfaces.
func (s *Server) forwardLoop() {
	defer s.wg.Done()

	var (
		pendingCh = make(chan broker.PendingEvent, 16)
		lockCh    = make(chan bool, 4)
	)
	var subs event.SubscriptionScope
	defer subs.Close()
	subs.Track(s.wallet.Broker().SubscribePending(pendingCh))
	subs.Track(s.wallet.SubscribeLockState(lockCh))

	for {
		select {
		case ev := <-pendingCh:
			typ := UIEventAdded
			if ev.Type == broker.PendingResolved {
				typ = UIEventResolved
			}
			s.hub.broadcast(UIEvent{Type: typ, Request: ev.Request, Approved: ev.Approved})
		case unlocked := <-lockCh:
			typ := UIEventLocked
			if unlocked {
				typ = UIEventUnlocked
			}
			s.hub.broadcast(UIEvent{Type: typ})
		case <-s.quit:
			return
		}
	}
}

// serveEvents streams UIEvents to an approval surface. The stream opens with
// a snapshot of the pending requests.
func (s *Server) serveEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", "err", err)
		return
	}
	c := newWSConn(conn)
	if err := c.writeJSON(UIEvent{Type: UIEventSnapshot, Pending: s.wallet.Broker().Pending()}); err != nil {
		c.close()
		return
	}
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		c.close()
	}()

	// The surface only listens; reading detects the disconnect.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

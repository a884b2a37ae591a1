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

package node

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/transport"
	"github.com/sunyihoo/walletcore/wallet"
	"golang.org/x/sync/errgroup"
)

// Node hosts a wallet: it owns the data directory, the database and the HTTP
// server carrying the provider relay and the approval API.
type Node struct {
	config    *Config
	log       log.Logger
	dirLock   *flock.Flock // prevents concurrent use of instance directory
	db        storage.Storage
	wallet    *wallet.Wallet
	hub       *transport.Hub
	server    *transport.Server
	jwtSecret []byte

	startStopLock sync.Mutex // Start/Close are protected by an additional lock
	state         int        // Tracks state of node lifecycle
	httpServer    *http.Server
	listener      net.Listener
	eg            *errgroup.Group
}

const (
	initializingState = iota
	runningState
	closedState
)

// New creates a wallet node. The data directory is locked until Close.
func New(conf *Config) (*Node, error) {
	// Copy config and resolve the datadir so future changes to the current
	// working directory don't affect the node.
	confCopy := *conf
	conf = &confCopy
	if conf.DataDir != "" {
		absdatadir, err := filepath.Abs(conf.DataDir)
		if err != nil {
			return nil, err
		}
		conf.DataDir = absdatadir
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	n := &Node{
		config: conf,
		log:    log.New("module", "node"),
		hub:    transport.NewHub(),
	}
	if err := n.openDataDir(); err != nil {
		return nil, err
	}
	if err := n.setup(); err != nil {
		n.release()
		return nil, err
	}
	return n, nil
}

func (n *Node) setup() error {
	var err error
	if n.db, err = openStorage(n.config.DBEngine, n.config.ResolvePath(datadirWallet)); err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	n.wallet, err = wallet.New(n.db, n.hub, wallet.Config{
		Iterations:        n.config.KDFIterations,
		AutoLockMinutes:   n.config.AutoLockMinutes,
		ApprovalTimeout:   n.config.ApprovalTimeout,
		RequestsPerSecond: n.config.RequestsPerSecond,
	})
	if err != nil {
		return err
	}
	if id := n.config.ChainID; id != 0 {
		if err := n.wallet.Networks().Switch(id); err != nil {
			return fmt.Errorf("selecting chain %d: %w", id, err)
		}
	}
	if n.jwtSecret, err = n.obtainJWTSecret(); err != nil {
		return err
	}
	n.server, err = transport.NewServer(n.wallet, n.hub, transport.Config{
		ProviderOrigins: n.config.ProviderOrigins,
		UIOrigins:       n.config.UIOrigins,
		JWTSecret:       n.jwtSecret,
	})
	return err
}

// obtainJWTSecret uses a throwaway secret for nodes without a data directory.
func (n *Node) obtainJWTSecret() ([]byte, error) {
	if path := n.config.JWTSecretPath(); path != "" {
		return obtainJWTSecret(path)
	}
	secret := make([]byte, transport.JWTSecretLength)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	n.log.Warn("Using ephemeral JWT secret")
	return secret, nil
}

func (n *Node) openDataDir() error {
	if n.config.DataDir == "" {
		return nil // ephemeral
	}
	if err := os.MkdirAll(n.config.DataDir, 0700); err != nil {
		return err
	}
	// Lock the instance directory to prevent concurrent use by another instance as well as
	// accidental use of the instance directory as a database.
	n.dirLock = flock.New(filepath.Join(n.config.DataDir, datadirLockKey))

	if locked, err := n.dirLock.TryLock(); err != nil {
		return convertFileLockError(err)
	} else if !locked {
		return ErrDatadirUsed
	}
	return nil
}

// Start opens the HTTP endpoint.
func (n *Node) Start() error {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()

	switch n.state {
	case runningState:
		return ErrNodeRunning
	case closedState:
		return ErrNodeStopped
	}
	listener, err := net.Listen("tcp", n.config.HTTPEndpoint())
	if err != nil {
		return err
	}
	n.listener = listener
	n.httpServer = &http.Server{
		Handler:           n.server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	n.eg = new(errgroup.Group)
	n.eg.Go(func() error {
		if err := n.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	n.state = runningState
	n.log.Info("Wallet server started", "endpoint", n.HTTPEndpoint(), "provider", "ws://"+n.HTTPEndpoint()+"/provider")
	return nil
}

// Close stops the server, locks the wallet and releases the data directory.
func (n *Node) Close() error {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()

	if n.state == closedState {
		return ErrNodeStopped
	}
	var errs []error
	if n.state == runningState {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := n.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		cancel()
		if err := n.eg.Wait(); err != nil {
			errs = append(errs, err)
		}
	}
	n.state = closedState
	if err := n.release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// release tears down what New set up, in reverse order.
func (n *Node) release() error {
	var errs []error
	if n.server != nil {
		n.server.Close()
	}
	if n.wallet != nil && n.wallet.IsUnlocked() {
		if err := n.wallet.Lock(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.db != nil {
		if err := n.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if n.dirLock != nil {
		if err := n.dirLock.Unlock(); err != nil {
			errs = append(errs, err)
		}
		n.dirLock = nil
	}
	return errors.Join(errs...)
}

// Wallet returns the hosted wallet.
func (n *Node) Wallet() *wallet.Wallet { return n.wallet }

// Config returns the configuration of the node.
func (n *Node) Config() *Config { return n.config }

// JWTSecret returns the approval API secret.
func (n *Node) JWTSecret() []byte { return n.jwtSecret }

// HTTPEndpoint returns the address the server listens on, or the configured
// one before Start.
func (n *Node) HTTPEndpoint() string {
	if n.listener != nil {
		return n.listener.Addr().String()
	}
	return n.config.HTTPEndpoint()
}

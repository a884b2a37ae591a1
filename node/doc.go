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

/*
Package node runs a wallet as a local daemon and owns everything around it:
the data directory, the database, the approval API secret and the HTTP
listener.

# Lifecycle

	New() ──▶ created ──Start()──▶ serving
	             │                    │
	           Close()              Close()
	             ▼                    │
	          closed ◀────────────────┘

New takes the data directory lock, opens the database, builds the wallet and
loads (or creates) the JWT secret the approval API is guarded with. Nothing
listens yet. Start binds the endpoint that serves /provider for page
connections and the approval routes for the UI. Close stops the listener,
locks the wallet so decrypted keys are dropped, closes the database and
releases the lock. Close must be called even if Start never was.

# Data Directory

	<datadir>/
		LOCK        instance lock, held for the lifetime of the node
		jwtsecret   hex encoded approval API secret
		wallet/     leveldb or pebble database

The memory engine needs no data directory. Its secret and its vault vanish
with the process, which suits tests and throwaway sessions.
*/
package node

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
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sunyihoo/walletcore/accounts"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/keyring"
	"github.com/sunyihoo/walletcore/vault"
	"github.com/sunyihoo/walletcore/wallet"
)

// maxRequestBodySize bounds approval API request bodies.
const maxRequestBodySize = 64 * 1024

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), apiError{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, vault.ErrInvalidPassword):
		return http.StatusForbidden
	case errors.Is(err, vault.ErrVaultExists), errors.Is(err, accounts.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, vault.ErrVaultNotFound), errors.Is(err, accounts.ErrUnknownAccount):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrLocked), errors.Is(err, accounts.ErrNotInitialized):
		return http.StatusLocked
	default:
		return http.StatusBadRequest
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.wallet.Status()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type createArgs struct {
	Password string `json:"password"`
	Mnemonic string `json:"mnemonic,omitempty"`
}

// handleCreate stores a new vault. Without a mnemonic a fresh 12 word phrase
// is generated and returned once.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var args createArgs
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	generated := args.Mnemonic == ""
	if generated {
		phrase, err := keyring.NewMnemonic(128)
		if err != nil {
			writeError(w, err)
			return
		}
		args.Mnemonic = phrase
	}
	if err := s.wallet.Create(args.Password, args.Mnemonic); err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]string{}
	if generated {
		resp["mnemonic"] = args.Mnemonic
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	if err := s.wallet.Unlock(args.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Lock(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.Accounts())
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.wallet.CreateAccount(args.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleImportAccount(w http.ResponseWriter, r *http.Request) {
	var args struct {
		PrivateKey string `json:"privateKey"`
		Name       string `json:"name"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.wallet.ImportAccount(args.PrivateKey, args.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// addressParam reads the {address} path parameter, answering 400 when it is
// malformed.
func addressParam(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	hex := chi.URLParam(r, "address")
	if !common.IsHexAddress(hex) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid address"})
		return common.Address{}, false
	}
	return common.HexToAddress(hex), true
}

func (s *Server) handleSelectAccount(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}
	if err := s.wallet.SelectAccount(address); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRemoveAccount deletes an imported account.
func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}
	if err := s.wallet.RemoveAccount(address); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	address, ok := addressParam(w, r)
	if !ok {
		return
	}
	var args struct {
		Name string `json:"name"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	account, err := s.wallet.RenameAccount(address, args.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var args struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	if err := s.wallet.ChangePassword(args.OldPassword, args.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport returns the sealed vault record as stored.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	record, err := s.wallet.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(record)
}

// handleImport restores an exported record. The wallet is locked afterwards.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Record   json.RawMessage `json:"record"`
		Password string          `json:"password"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	if err := s.wallet.Import(args.Record, args.Password); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.wallet.Reset(); err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type autoLockArgs struct {
	Minutes int `json:"minutes"`
}

func (s *Server) handleAutoLock(w http.ResponseWriter, r *http.Request) {
	minutes, err := s.wallet.Session().AutoLockTimeout()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, autoLockArgs{Minutes: minutes})
}

func (s *Server) handleSetAutoLock(w http.ResponseWriter, r *http.Request) {
	var args autoLockArgs
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	if err := s.wallet.SetAutoLockTimeout(args.Minutes); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current":  s.wallet.Networks().ChainIDHex(),
		"networks": s.wallet.Networks().Networks(),
	})
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.Broker().ConnectedSites())
}

// handleDisconnect forgets ?origin=, or every site when no origin is given.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var err error
	if origin := r.URL.Query().Get("origin"); origin != "" {
		err = s.wallet.Broker().Disconnect(origin)
	} else {
		err = s.wallet.Broker().DisconnectAll()
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.Broker().Pending())
}

func (s *Server) handleOldest(w http.ResponseWriter, r *http.Request) {
	req, ok := s.wallet.Broker().Oldest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleGetPending(w http.ResponseWriter, r *http.Request) {
	req, ok := s.wallet.Broker().Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, apiError{Error: "unknown request"})
		return
	}
	writeJSON(w, http.StatusOK, req)
}

type resolveResult struct {
	Resolved bool `json:"resolved"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	resolved := s.wallet.Approve(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, resolveResult{Resolved: resolved})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var args struct {
		Reason string `json:"reason"`
	}
	if err := readJSON(w, r, &args); err != nil {
		writeError(w, err)
		return
	}
	resolved := s.wallet.Reject(chi.URLParam(r, "id"), args.Reason)
	writeJSON(w, http.StatusOK, resolveResult{Resolved: resolved})
}

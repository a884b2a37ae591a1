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

// Package transport carries provider requests from web pages to the broker
// and exposes the approval surface over HTTP.
//
// Pages talk to /provider over a websocket using Envelope messages. The
// approval UI uses a JWT protected HTTP API and follows pending requests on
// the /events websocket.
package transport

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sunyihoo/walletcore/broker"
)

// MessageType discriminates envelopes.
type MessageType string

const (
	TypeRequest  MessageType = "request"
	TypeResponse MessageType = "response"
	TypeEvent    MessageType = "event"
)

// Envelope targets.
const (
	TargetWallet = "walletcore-wallet"
	TargetPage   = "walletcore-page"
)

// Provider events pushed to pages.
const (
	EventChainChanged    = "chainChanged"
	EventAccountsChanged = "accountsChanged"
)

var (
	errMissingID   = errors.New("envelope without id")
	errWrongTarget = errors.New("envelope for another target")
)

// Envelope is the unit exchanged with pages. Payload holds a RequestPayload,
// ResponsePayload or EventPayload according to Type.
type Envelope struct {
	ID      string          `json:"id,omitempty"`
	Target  string          `json:"target"`
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RequestPayload is a provider call.
type RequestPayload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ResponsePayload answers a request. Exactly one of Result and Error is set.
type ResponsePayload struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload is a provider error as seen by the page.
type ErrorPayload struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ErrorPayload) Error() string { return e.Message }
func (e *ErrorPayload) ErrorCode() int { return e.Code }
func (e *ErrorPayload) ErrorData() interface{} { return e.Data }

// EventPayload is an unsolicited notification.
type EventPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// decodeRequest checks env is a request for the wallet and returns its
// payload.
func decodeRequest(env *Envelope) (*RequestPayload, error) {
	switch {
	case env.Type != TypeRequest:
		return nil, fmt.Errorf("unexpected %q envelope", env.Type)
	case env.Target != TargetWallet:
		return nil, errWrongTarget
	case env.ID == "":
		return nil, errMissingID
	}
	var req RequestPayload
	if err := json.Unmarshal(env.Payload, &req); err != nil {
		return nil, fmt.Errorf("invalid request payload: %w", err)
	}
	if req.Method == "" {
		return nil, errors.New("request without method")
	}
	return &req, nil
}

func newRequestEnvelope(id, method string, params json.RawMessage) (*Envelope, error) {
	payload, err := json.Marshal(RequestPayload{Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	return &Envelope{ID: id, Target: TargetWallet, Type: TypeRequest, Payload: payload}, nil
}

// newResponseEnvelope encodes the outcome of a broker request. Errors that
// are not provider errors become internal errors.
func newResponseEnvelope(id string, result interface{}, err error) *Envelope {
	var resp ResponsePayload
	if err != nil {
		resp.Error = errorPayload(err)
	} else if resp.Result, err = json.Marshal(result); err != nil {
		resp.Error = &ErrorPayload{Code: broker.CodeInternal, Message: err.Error()}
	}
	payload, _ := json.Marshal(resp)
	return &Envelope{ID: id, Target: TargetPage, Type: TypeResponse, Payload: payload}
}

func newEventEnvelope(event string, data interface{}) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(EventPayload{Event: event, Data: raw})
	if err != nil {
		return nil, err
	}
	return &Envelope{Target: TargetPage, Type: TypeEvent, Payload: payload}, nil
}

func errorPayload(err error) *ErrorPayload {
	var perr broker.Error
	if !errors.As(err, &perr) {
		return &ErrorPayload{Code: broker.CodeInternal, Message: err.Error()}
	}
	ep := &ErrorPayload{Code: perr.ErrorCode(), Message: perr.Error()}
	var derr broker.DataError
	if errors.As(err, &derr) {
		ep.Data = derr.ErrorData()
	}
	return ep
}

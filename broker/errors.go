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

package broker

import "fmt"

// Provider error codes returned to sites.
// 返回给站点的 provider 错误码。
const (
	CodeUserRejected      = 4001   // 用户拒绝
	CodeUnauthorized      = 4100   // 未授权或钱包已锁定
	CodeUnsupportedMethod = 4200   // 不支持的方法
	CodeUnrecognizedChain = 4902   // 未知链
	CodeLimitExceeded     = -32005 // 请求过于频繁
	CodeInvalidParams     = -32602 // 参数无效
	CodeInternal          = -32603 // 内部错误
)

const (
	errMsgUserRejected = "user rejected the request"
	errMsgTimeout      = "request timed out"
	errMsgNoApprover   = "no approval surface is available"
	errMsgBlocked      = "this wallet only signs messages and does not handle transactions"
	errMsgRateLimited  = "request rate limit exceeded"
)

// Error is the interface of errors carrying a provider error code. It matches
// the JSON-RPC error shape so transports can encode it directly.
type Error interface {
	Error() string  // returns the message
	ErrorCode() int // returns the code
}

// DataError is an Error with additional data.
type DataError interface {
	Error() string          // returns the message
	ErrorData() interface{} // returns the error data
}

var (
	_ Error     = new(ProviderError)
	_ DataError = new(ProviderError)
)

// ProviderError is the error returned by Broker.Request.
type ProviderError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) ErrorCode() int { return e.Code }

func (e *ProviderError) ErrorData() interface{} { return e.Data }

// Is matches provider errors by code, so errors.Is(err, ErrUserRejected)
// holds for every rejection regardless of message.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrUserRejected      = &ProviderError{Code: CodeUserRejected, Message: errMsgUserRejected}
	ErrUnauthorized      = &ProviderError{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrUnsupportedMethod = &ProviderError{Code: CodeUnsupportedMethod, Message: "unsupported method"}
	ErrUnrecognizedChain = &ProviderError{Code: CodeUnrecognizedChain, Message: "unrecognized chain"}
	ErrLimitExceeded     = &ProviderError{Code: CodeLimitExceeded, Message: errMsgRateLimited}
	ErrInvalidParams     = &ProviderError{Code: CodeInvalidParams, Message: "invalid params"}
	ErrInternal          = &ProviderError{Code: CodeInternal, Message: "internal error"}
)

func rejectedError(reason string) *ProviderError {
	if reason == "" {
		reason = errMsgUserRejected
	}
	return &ProviderError{Code: CodeUserRejected, Message: reason}
}

func unauthorizedError(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func unsupportedError(method string) *ProviderError {
	return &ProviderError{Code: CodeUnsupportedMethod, Message: fmt.Sprintf("the method %s does not exist/is not available", method)}
}

func blockedError(method string) *ProviderError {
	return &ProviderError{Code: CodeUnsupportedMethod, Message: errMsgBlocked, Data: map[string]string{"method": method}}
}

func invalidParamsError(format string, args ...interface{}) *ProviderError {
	return &ProviderError{Code: CodeInvalidParams, Message: fmt.Sprintf(format, args...)}
}

func unrecognizedChainError(chainID string) *ProviderError {
	return &ProviderError{Code: CodeUnrecognizedChain, Message: fmt.Sprintf("unrecognized chain id %s", chainID)}
}

func internalError(err error) *ProviderError {
	return &ProviderError{Code: CodeInternal, Message: err.Error()}
}

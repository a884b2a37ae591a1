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
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/transport"
)

// obtainJWTSecret loads the jwt secret from fileName, or generates a new one
// and stores it there. The file holds the secret hex-encoded.
// obtainJWTSecret 从文件加载 JWT 秘密，不存在时生成并写入。
func obtainJWTSecret(fileName string) ([]byte, error) {
	if fileName == "" {
		return nil, errors.New("no jwt secret location")
	}
	// try reading from file
	if data, err := os.ReadFile(fileName); err == nil {
		jwtSecret, err := hexutil.Decode(strings.TrimSpace(string(data)))
		if err == nil && len(jwtSecret) == transport.JWTSecretLength {
			log.Info("Loaded JWT secret file", "path", fileName)
			return jwtSecret, nil
		}
		log.Error("Invalid JWT secret", "path", fileName, "length", len(jwtSecret))
		return nil, errors.New("invalid JWT secret")
	}
	// Need to generate one
	jwtSecret := make([]byte, transport.JWTSecretLength)
	if _, err := rand.Read(jwtSecret); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fileName), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(fileName, []byte(hexutil.Encode(jwtSecret)), 0600); err != nil {
		return nil, fmt.Errorf("writing jwt secret: %w", err)
	}
	log.Info("Generated JWT secret", "path", fileName)
	return jwtSecret, nil
}

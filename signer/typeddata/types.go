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

// Package typeddata implements EIP-712 structured data hashing.
//
// hash = keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(message))
package typeddata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/holiman/uint256"
)

// DomainType is the reserved name of the domain struct.
const DomainType = "EIP712Domain"

var referenceTypeRegexp = regexp.MustCompile(`^[A-Za-z](\w*)(\[\d*\])*$`)

// TypedData is a type to encapsulate EIP-712 typed messages.
// TypedData 封装 EIP-712 的所有组成部分，用于签名和验证。
type TypedData struct {
	Types       Types   `json:"types"`
	PrimaryType string  `json:"primaryType"`
	Domain      Domain  `json:"domain"`
	Message     Message `json:"message"`
}

// Type is a single member of a struct definition.
type Type struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// isArray returns true if the type is a fixed or variable sized array.
func (t *Type) isArray() bool {
	return strings.IndexByte(t.Type, '[') > 0
}

// typeName strips every array suffix: 'Person[][2]' yields 'Person'.
func (t *Type) typeName() string {
	return strings.Split(t.Type, "[")[0]
}

// Types maps a struct name to its ordered members.
type Types map[string][]Type

// Message is the decoded message body. Numbers are kept as json.Number.
type Message = map[string]interface{}

// Domain represents the domain part of an EIP-712 message.
// Domain 是 EIP-712 的域分隔符，确保签名特定于应用和链，防止跨应用或链重放。
type Domain struct {
	Name              string        `json:"name,omitempty"`
	Version           string        `json:"version,omitempty"`
	ChainID           *HexOrDecimal `json:"chainId,omitempty"`
	VerifyingContract string        `json:"verifyingContract,omitempty"`
	Salt              string        `json:"salt,omitempty"`
}

// HexOrDecimal is a 256 bit integer that unmarshals from a JSON number or from
// a decimal or 0x-prefixed hex string.
type HexOrDecimal uint256.Int

// UnmarshalJSON implements json.Unmarshaler.
func (i *HexOrDecimal) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] == '"' {
		var s string
		if err := json.Unmarshal(input, &s); err != nil {
			return err
		}
		input = []byte(s)
	}
	return i.UnmarshalText(input)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *HexOrDecimal) UnmarshalText(input []byte) error {
	v, err := parseInteger("uint256", string(input))
	if err != nil {
		return err
	}
	*i = HexOrDecimal(*v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (i *HexOrDecimal) MarshalText() ([]byte, error) {
	return []byte(i.Int().Dec()), nil
}

// Int returns the value as a uint256.
func (i *HexOrDecimal) Int() *uint256.Int {
	return (*uint256.Int)(i)
}

// Parse decodes typed data from JSON. Both an object and a JSON string holding
// the object are accepted, matching what dapps send to eth_signTypedData_v4.
func Parse(input []byte) (*TypedData, error) {
	input = bytes.TrimSpace(input)
	if len(input) > 0 && input[0] == '"' {
		var inner string
		if err := json.Unmarshal(input, &inner); err != nil {
			return nil, err
		}
		input = []byte(inner)
	}
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	var td TypedData
	if err := dec.Decode(&td); err != nil {
		return nil, fmt.Errorf("invalid typed data: %w", err)
	}
	if td.PrimaryType == "" {
		return nil, errors.New("invalid typed data: primaryType missing")
	}
	if td.Types == nil {
		return nil, errors.New("invalid typed data: types missing")
	}
	if td.Message == nil {
		td.Message = Message{}
	}
	return &td, nil
}

// Map is a helper function to generate a map version of the domain.
func (domain *Domain) Map() map[string]interface{} {
	dataMap := map[string]interface{}{}
	if domain.ChainID != nil {
		dataMap["chainId"] = domain.ChainID.Int()
	}
	if len(domain.Name) > 0 {
		dataMap["name"] = domain.Name
	}
	if len(domain.Version) > 0 {
		dataMap["version"] = domain.Version
	}
	if len(domain.VerifyingContract) > 0 {
		dataMap["verifyingContract"] = domain.VerifyingContract
	}
	if len(domain.Salt) > 0 {
		dataMap["salt"] = domain.Salt
	}
	return dataMap
}

// inferType lists the members present in domain in canonical EIP-712 order.
func (domain *Domain) inferType() []Type {
	var fields []Type
	if len(domain.Name) > 0 {
		fields = append(fields, Type{Name: "name", Type: "string"})
	}
	if len(domain.Version) > 0 {
		fields = append(fields, Type{Name: "version", Type: "string"})
	}
	if domain.ChainID != nil {
		fields = append(fields, Type{Name: "chainId", Type: "uint256"})
	}
	if len(domain.VerifyingContract) > 0 {
		fields = append(fields, Type{Name: "verifyingContract", Type: "address"})
	}
	if len(domain.Salt) > 0 {
		fields = append(fields, Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}

// validate checks that the domain carries at least one member.
func (domain *Domain) validate() error {
	if domain.ChainID == nil && len(domain.Name) == 0 && len(domain.Version) == 0 && len(domain.VerifyingContract) == 0 && len(domain.Salt) == 0 {
		return errors.New("domain is undefined")
	}
	return nil
}

// validate checks if the types object is conformant to EIP-712.
func (t Types) validate() error {
	for typeKey, typeArr := range t {
		if len(typeKey) == 0 {
			return errors.New("empty type key")
		}
		for i, typeObj := range typeArr {
			if len(typeObj.Type) == 0 {
				return fmt.Errorf("type %q:%d: empty Type", typeKey, i)
			}
			if len(typeObj.Name) == 0 {
				return fmt.Errorf("type %q:%d: empty Name", typeKey, i)
			}
			if typeKey == typeObj.typeName() {
				return fmt.Errorf("type %q cannot reference itself", typeObj.Type)
			}
			if isPrimitiveTypeValid(typeObj.Type) {
				continue
			}
			// Must be reference type
			if _, exist := t[typeObj.typeName()]; !exist {
				return fmt.Errorf("reference type %q is undefined", typeObj.Type)
			}
			if !referenceTypeRegexp.MatchString(typeObj.Type) {
				return fmt.Errorf("unknown reference type %q", typeObj.Type)
			}
		}
	}
	return nil
}

var validPrimitiveTypes = map[string]struct{}{}

// build the set of valid primitive types
func init() {
	for _, t := range []string{"address", "bool", "string", "bytes", "int", "uint"} {
		validPrimitiveTypes[t] = struct{}{}
	}
	// bytes1 .. bytes32
	for n := 1; n <= 32; n++ {
		validPrimitiveTypes[fmt.Sprintf("bytes%d", n)] = struct{}{}
	}
	// intN and uintN in steps of 8
	for n := 8; n <= 256; n += 8 {
		validPrimitiveTypes[fmt.Sprintf("int%d", n)] = struct{}{}
		validPrimitiveTypes[fmt.Sprintf("uint%d", n)] = struct{}{}
	}
}

// isPrimitiveTypeValid reports whether the element type of primitiveType is
// an atomic or dynamic EIP-712 type.
func isPrimitiveTypeValid(primitiveType string) bool {
	input := strings.Split(primitiveType, "[")[0]
	_, ok := validPrimitiveTypes[input]
	return ok
}

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

package typeddata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/crypto"
)

// TypedDataAndHash calculates the EIP-712 digest of typedData and returns it
// together with the raw preimage. If types omits EIP712Domain it is inferred
// from the members present in the domain.
//
// hash = keccak256("\x19\x01" ‖ domainSeparator ‖ structHash)
func TypedDataAndHash(typedData *TypedData) ([]byte, string, error) {
	td := typedData.withDomainType()
	if err := td.validate(); err != nil {
		return nil, "", err
	}
	domainSeparator, err := td.HashStruct(DomainType, td.Domain.Map())
	if err != nil {
		return nil, "", fmt.Errorf("domain: %w", err)
	}
	typedDataHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, "", err
	}
	rawData := fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash))
	return crypto.Keccak256([]byte(rawData)), rawData, nil
}

// DomainSeparator returns hashStruct(EIP712Domain, domain).
func (typedData *TypedData) DomainSeparator() (hexutil.Bytes, error) {
	td := typedData.withDomainType()
	if err := td.validate(); err != nil {
		return nil, err
	}
	return td.HashStruct(DomainType, td.Domain.Map())
}

// withDomainType returns typedData with an inferred EIP712Domain definition
// when the caller did not declare one. The receiver is not modified.
func (typedData *TypedData) withDomainType() *TypedData {
	if _, ok := typedData.Types[DomainType]; ok {
		return typedData
	}
	td := *typedData
	td.Types = make(Types, len(typedData.Types)+1)
	for name, fields := range typedData.Types {
		td.Types[name] = fields
	}
	td.Types[DomainType] = typedData.Domain.inferType()
	return &td
}

// validate makes sure the types are sound
func (typedData *TypedData) validate() error {
	if err := typedData.Types.validate(); err != nil {
		return err
	}
	if err := typedData.Domain.validate(); err != nil {
		return err
	}
	if _, ok := typedData.Types[typedData.PrimaryType]; !ok {
		return fmt.Errorf("primary type %q is undefined", typedData.PrimaryType)
	}
	return nil
}

// HashStruct generates a keccak256 hash of the encoding of the provided data.
func (typedData *TypedData) HashStruct(primaryType string, data Message) (hexutil.Bytes, error) {
	encodedData, err := typedData.EncodeData(primaryType, data)
	if err != nil {
		return nil, err
	}
	return crypto.Keccak256(encodedData), nil
}

// Dependencies returns the struct types reachable from primaryType, primary
// first, in discovery order.
func (typedData *TypedData) Dependencies(primaryType string, found []string) []string {
	primaryType = strings.Split(primaryType, "[")[0]

	if slices.Contains(found, primaryType) {
		return found
	}
	if typedData.Types[primaryType] == nil {
		return found
	}
	found = append(found, primaryType)
	for _, field := range typedData.Types[primaryType] {
		for _, dep := range typedData.Dependencies(field.Type, found) {
			if !slices.Contains(found, dep) {
				found = append(found, dep)
			}
		}
	}
	return found
}

// EncodeType generates the following encoding:
// `name ‖ "(" ‖ member₁ ‖ "," ‖ member₂ ‖ "," ‖ … ‖ memberₙ ")"`
//
// each member is written as `type ‖ " " ‖ name`. The primary type comes first,
// its dependencies follow sorted by name.
func (typedData *TypedData) EncodeType(primaryType string) hexutil.Bytes {
	deps := typedData.Dependencies(primaryType, []string{})
	if len(deps) > 0 {
		slicedDeps := deps[1:]
		sort.Strings(slicedDeps)
		deps = append([]string{deps[0]}, slicedDeps...)
	}

	var buffer bytes.Buffer
	for _, dep := range deps {
		buffer.WriteString(dep)
		buffer.WriteString("(")
		for i, obj := range typedData.Types[dep] {
			if i > 0 {
				buffer.WriteString(",")
			}
			buffer.WriteString(obj.Type)
			buffer.WriteString(" ")
			buffer.WriteString(obj.Name)
		}
		buffer.WriteString(")")
	}
	return buffer.Bytes()
}

// TypeHash creates the keccak256 hash of the type encoding.
func (typedData *TypedData) TypeHash(primaryType string) hexutil.Bytes {
	return crypto.Keccak256(typedData.EncodeType(primaryType))
}

// EncodeData generates the following encoding:
// `typeHash ‖ enc(value₁) ‖ enc(value₂) ‖ … ‖ enc(valueₙ)`
//
// each encoded member is 32-byte long
func (typedData *TypedData) EncodeData(primaryType string, data map[string]interface{}) (hexutil.Bytes, error) {
	fields, ok := typedData.Types[primaryType]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", primaryType)
	}
	if exp, got := len(fields), len(data); exp < got {
		return nil, fmt.Errorf("there is extra data provided in the message (%d < %d)", exp, got)
	}

	var buffer bytes.Buffer
	buffer.Write(typedData.TypeHash(primaryType))
	for _, field := range fields {
		encoded, err := typedData.encodeValue(field.Type, data[field.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", primaryType, field.Name, err)
		}
		buffer.Write(encoded)
	}
	return buffer.Bytes(), nil
}

// encodeValue produces the 32 byte slot for a single member of any type.
func (typedData *TypedData) encodeValue(encType string, encValue interface{}) ([]byte, error) {
	switch {
	case strings.HasSuffix(encType, "]"):
		return typedData.encodeArrayValue(encType, encValue)
	case typedData.Types[encType] != nil:
		mapValue, ok := encValue.(map[string]interface{})
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return typedData.HashStruct(encType, mapValue)
	default:
		return EncodePrimitiveValue(encType, encValue)
	}
}

// encodeArrayValue hashes the concatenated encodings of every element. Only
// the outermost dimension is peeled per call, so T[2][] nests correctly.
func (typedData *TypedData) encodeArrayValue(encType string, encValue interface{}) ([]byte, error) {
	arrayValue, err := convertDataToSlice(encValue)
	if err != nil {
		return nil, dataMismatchError(encType, encValue)
	}
	open := strings.LastIndexByte(encType, '[')
	if open <= 0 {
		return nil, fmt.Errorf("invalid array type %q", encType)
	}
	elemType := encType[:open]
	if size := encType[open+1 : len(encType)-1]; size != "" {
		n, err := strconv.Atoi(size)
		if err != nil || n != len(arrayValue) {
			return nil, fmt.Errorf("array %s: got %d elements", encType, len(arrayValue))
		}
	}
	var arrayBuffer bytes.Buffer
	for _, item := range arrayValue {
		encoded, err := typedData.encodeValue(elemType, item)
		if err != nil {
			return nil, err
		}
		arrayBuffer.Write(encoded)
	}
	return crypto.Keccak256(arrayBuffer.Bytes()), nil
}

// EncodePrimitiveValue encodes an atomic or dynamic value into a 32 byte slot.
// EncodePrimitiveValue 将原始类型的值编码为 32 字节。
func EncodePrimitiveValue(encType string, encValue interface{}) ([]byte, error) {
	switch encType {
	case "address":
		retval := make([]byte, 32)
		switch val := encValue.(type) {
		case string:
			if common.IsHexAddress(val) {
				copy(retval[12:], common.HexToAddress(val).Bytes())
				return retval, nil
			}
		case []byte:
			if len(val) == common.AddressLength {
				copy(retval[12:], val)
				return retval, nil
			}
		case common.Address:
			copy(retval[12:], val[:])
			return retval, nil
		}
		return nil, dataMismatchError(encType, encValue)
	case "bool":
		boolValue, ok := encValue.(bool)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		retval := make([]byte, 32)
		if boolValue {
			retval[31] = 1
		}
		return retval, nil
	case "string":
		strVal, ok := encValue.(string)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return crypto.Keccak256([]byte(strVal)), nil
	case "bytes":
		bytesValue, ok := parseBytes(encValue)
		if !ok {
			return nil, dataMismatchError(encType, encValue)
		}
		return crypto.Keccak256(bytesValue), nil
	}
	if strings.HasPrefix(encType, "bytes") {
		lengthStr := strings.TrimPrefix(encType, "bytes")
		length, err := strconv.Atoi(lengthStr)
		if err != nil || length < 1 || length > 32 {
			return nil, fmt.Errorf("invalid size on bytes: %v", lengthStr)
		}
		byteValue, ok := parseBytes(encValue)
		if !ok || len(byteValue) > length {
			return nil, dataMismatchError(encType, encValue)
		}
		// Left-justify, pad on the right
		dst := make([]byte, 32)
		copy(dst, byteValue)
		return dst, nil
	}
	if strings.HasPrefix(encType, "int") || strings.HasPrefix(encType, "uint") {
		word, err := parseInteger(encType, encValue)
		if err != nil {
			return nil, err
		}
		slot := word.Bytes32()
		return slot[:], nil
	}
	return nil, fmt.Errorf("unrecognized type '%s'", encType)
}

// parseBytes accepts a byte slice, a byte array or a 0x-prefixed hex string.
func parseBytes(encValue interface{}) ([]byte, bool) {
	switch v := encValue.(type) {
	case []byte:
		return v, true
	case hexutil.Bytes:
		return v, true
	case string:
		b, err := hexutil.Decode(v)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	val := reflect.ValueOf(encValue)
	if val.Kind() == reflect.Array && val.Type().Elem().Kind() == reflect.Uint8 {
		v := reflect.MakeSlice(reflect.TypeOf([]byte{}), val.Len(), val.Len())
		reflect.Copy(v, val)
		return v.Bytes(), true
	}
	return nil, false
}

// integerSize extracts N from intN/uintN. Bare int and uint are 256 bits.
func integerSize(encType string) (size int, signed bool, err error) {
	signed = strings.HasPrefix(encType, "int")
	sizeStr := strings.TrimPrefix(strings.TrimPrefix(encType, "u"), "int")
	if sizeStr == "" {
		return 256, signed, nil
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil || size < 8 || size > 256 || size%8 != 0 {
		return 0, false, fmt.Errorf("invalid size on integer: %v", sizeStr)
	}
	return size, signed, nil
}

// parseBigInteger converts a decoded JSON value into an integer and checks it
// fits encType.
func parseBigInteger(encType string, encValue interface{}) (*big.Int, error) {
	size, signed, err := integerSize(encType)
	if err != nil {
		return nil, err
	}
	var b *big.Int
	switch v := encValue.(type) {
	case *big.Int:
		b = v
	case *uint256.Int:
		b = v.ToBig()
	case *HexOrDecimal:
		b = v.Int().ToBig()
	case json.Number:
		b = parseNumber(string(v))
	case string:
		b = parseNumber(v)
	case float64:
		// JSON numbers decoded without UseNumber. Fail if we cannot convert
		// losslessly.
		if v == math.Trunc(v) && math.Abs(v) <= 1<<53 {
			b = big.NewInt(int64(v))
		} else {
			return nil, fmt.Errorf("invalid float value %v for type %v", v, encType)
		}
	case int:
		b = big.NewInt(int64(v))
	case int64:
		b = big.NewInt(v)
	case uint64:
		b = new(big.Int).SetUint64(v)
	}
	if b == nil {
		return nil, fmt.Errorf("invalid integer value %v/%v for type %v", encValue, reflect.TypeOf(encValue), encType)
	}
	if !signed {
		if b.Sign() < 0 {
			return nil, fmt.Errorf("invalid negative value for unsigned type %v", encType)
		}
		if b.BitLen() > size {
			return nil, fmt.Errorf("integer larger than '%v'", encType)
		}
		return b, nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(size-1))
	if b.Sign() >= 0 && b.Cmp(limit) >= 0 {
		return nil, fmt.Errorf("integer larger than '%v'", encType)
	}
	if b.Sign() < 0 && new(big.Int).Neg(b).Cmp(limit) > 0 {
		return nil, fmt.Errorf("integer smaller than '%v'", encType)
	}
	return b, nil
}

// parseInteger returns the value as a 256 bit two's complement word.
func parseInteger(encType string, encValue interface{}) (*uint256.Int, error) {
	b, err := parseBigInteger(encType, encValue)
	if err != nil {
		return nil, err
	}
	word, overflow := uint256.FromBig(new(big.Int).Abs(b))
	if overflow {
		return nil, fmt.Errorf("integer larger than '%v'", encType)
	}
	if b.Sign() < 0 {
		word.Neg(word)
	}
	return word, nil
}

// maxIntegerBits is the widest EIP-712 integer type.
const maxIntegerBits = 256

// parseNumber accepts decimal, 0x-prefixed hex and exponent notation that
// denotes an integer. A leading minus sign is allowed.
func parseNumber(s string) *big.Int {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return nil
	}
	var (
		b  *big.Int
		ok bool
	)
	if hexutil.Has0xPrefix(s) {
		if len(s) == 2 {
			return nil
		}
		b, ok = new(big.Int).SetString(s[2:], 16)
	} else {
		b, ok = new(big.Int).SetString(s, 10)
	}
	if !ok {
		f, _, err := big.ParseFloat(s, 10, 512, big.ToNearestEven)
		if err != nil || !f.IsInt() {
			return nil
		}
		// No 256 bit slot holds 2**257; skip materializing larger values.
		if f.MantExp(nil) > maxIntegerBits+1 {
			return nil
		}
		b, _ = f.Int(nil)
	}
	if neg {
		b.Neg(b)
	}
	return b
}

// dataMismatchError generates an error for a mismatch between
// the provided type and data
func dataMismatchError(encType string, encValue interface{}) error {
	return fmt.Errorf("provided data '%v' doesn't match type '%s'", encValue, encType)
}

func convertDataToSlice(encValue interface{}) ([]interface{}, error) {
	if s, ok := encValue.([]interface{}); ok {
		return s, nil
	}
	rv := reflect.ValueOf(encValue)
	if rv.Kind() != reflect.Slice {
		return nil, errors.New("not a slice")
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

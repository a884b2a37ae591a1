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
	"fmt"
	"strings"

	"github.com/sunyihoo/walletcore/common"
)

// NameValueType is a very simple struct with Name, Value and Type. It's meant for simple
// json structures used to communicate signing-info about typed data with the UI
type NameValueType struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Typ   string      `json:"type"`
}

// Format returns a representation of typedData, which can be easily displayed by a user-interface
// without in-depth knowledge about 712 rules
func (typedData *TypedData) Format() ([]*NameValueType, error) {
	td := typedData.withDomainType()
	domain, err := td.formatData(DomainType, td.Domain.Map())
	if err != nil {
		return nil, err
	}
	ptype, err := td.formatData(td.PrimaryType, td.Message)
	if err != nil {
		return nil, err
	}
	return []*NameValueType{
		{Name: DomainType, Value: domain, Typ: "domain"},
		{Name: td.PrimaryType, Value: ptype, Typ: "primary type"},
	}, nil
}

func (typedData *TypedData) formatData(primaryType string, data map[string]interface{}) ([]*NameValueType, error) {
	var output []*NameValueType
	for _, field := range typedData.Types[primaryType] {
		value, err := typedData.formatValue(field.Type, data[field.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", primaryType, field.Name, err)
		}
		output = append(output, &NameValueType{Name: field.Name, Value: value, Typ: field.Type})
	}
	return output, nil
}

func (typedData *TypedData) formatValue(encType string, encValue interface{}) (interface{}, error) {
	switch {
	case strings.HasSuffix(encType, "]"):
		items, err := convertDataToSlice(encValue)
		if err != nil {
			return nil, dataMismatchError(encType, encValue)
		}
		elemType := encType[:strings.LastIndexByte(encType, '[')]
		out := make([]*NameValueType, 0, len(items))
		for i, item := range items {
			value, err := typedData.formatValue(elemType, item)
			if err != nil {
				return nil, err
			}
			out = append(out, &NameValueType{Name: fmt.Sprintf("[%d]", i), Value: value, Typ: elemType})
		}
		return out, nil

	case typedData.Types[encType] != nil:
		mapValue, ok := encValue.(map[string]interface{})
		if !ok {
			return "<nil>", nil
		}
		return typedData.formatData(encType, mapValue)

	default:
		return formatPrimitiveValue(encType, encValue)
	}
}

func formatPrimitiveValue(encType string, encValue interface{}) (string, error) {
	switch encType {
	case "address":
		stringValue, ok := encValue.(string)
		if !ok || !common.IsHexAddress(stringValue) {
			return "", fmt.Errorf("could not format value %v as address", encValue)
		}
		return common.HexToAddress(stringValue).Hex(), nil
	case "bool":
		boolValue, ok := encValue.(bool)
		if !ok {
			return "", fmt.Errorf("could not format value %v as bool", encValue)
		}
		return fmt.Sprintf("%t", boolValue), nil
	case "bytes", "string":
		return fmt.Sprintf("%s", encValue), nil
	}
	if strings.HasPrefix(encType, "bytes") {
		return fmt.Sprintf("%s", encValue), nil
	}
	if strings.HasPrefix(encType, "uint") || strings.HasPrefix(encType, "int") {
		b, err := parseBigInteger(encType, encValue)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d (%#x)", b, b), nil
	}
	return "", fmt.Errorf("unhandled type %v", encType)
}

// Pprint returns a pretty-printed version of nvt
func (nvt *NameValueType) Pprint(depth int) string {
	output := bytes.Buffer{}
	output.WriteString(strings.Repeat(" ", depth*2))
	output.WriteString(fmt.Sprintf("%s [%s]: ", nvt.Name, nvt.Typ))
	if nvts, ok := nvt.Value.([]*NameValueType); ok {
		output.WriteString("\n")
		for _, next := range nvts {
			output.WriteString(next.Pprint(depth + 1))
		}
	} else if nvt.Value != nil {
		output.WriteString(fmt.Sprintf("%q\n", nvt.Value))
	} else {
		output.WriteString("\n")
	}
	return output.String()
}

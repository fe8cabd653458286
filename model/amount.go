/*
Copyright 2025 LimpehFi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenDecimals is the precision of the reference stablecoin. On-chain
// amounts are integers scaled by 10^TokenDecimals.
const TokenDecimals = 6

var (
	ErrAmountNotPositive = errors.New("amount must be a positive decimal number")
	ErrAmountTooPrecise  = errors.New("amount has more decimal places than the token supports")
)

// ParseAmount converts a user-supplied decimal string ("200", "0.5") into the
// token's smallest-unit integer representation. It rejects non-numeric,
// non-positive, and over-precise inputs.
func ParseAmount(raw string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrAmountNotPositive
	}
	if !d.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	scaled := d.Shift(TokenDecimals)
	if !scaled.IsInteger() {
		return nil, ErrAmountTooPrecise
	}
	return scaled.BigInt(), nil
}

// FormatDisplay renders a smallest-unit integer as a decimal string with
// trailing zeros trimmed, keeping at least one fractional digit so whole
// amounts read as "100.0" rather than "100". Parsing the result back through
// ParseAmount reproduces the input exactly.
func FormatDisplay(raw *big.Int, decimals int32) string {
	if raw == nil {
		raw = big.NewInt(0)
	}
	d := decimal.NewFromBigInt(raw, -decimals)
	s := d.StringFixed(decimals)

	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = strings.TrimRight(s, "0")
		if strings.HasSuffix(s, ".") {
			s += "0"
		}
	}
	return s
}

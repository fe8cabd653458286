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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTuple() []interface{} {
	return []interface{}{
		"kyc-hash-abc",
		big.NewInt(5_000_000000), // creditLimit
		big.NewInt(1_000_000000), // totalBorrowed
		big.NewInt(200_000000),   // totalPaid
		big.NewInt(800_000000),   // totalDue
		big.NewInt(1700000000),   // statementDate
		big.NewInt(1702592000),   // dueDate
		big.NewInt(0),            // lateFee
		true,                     // isAccountActive
	}
}

func TestAccountRecordFromTuple(t *testing.T) {
	rec, err := AccountRecordFromTuple("0xabc", validTuple())
	require.NoError(t, err)

	assert.Equal(t, "0xabc", rec.Address)
	assert.Equal(t, "kyc-hash-abc", rec.KYC)
	assert.Equal(t, int64(5_000_000000), rec.CreditLimit.Int64())
	assert.Equal(t, int64(1_000_000000), rec.TotalBorrowed.Int64())
	assert.Equal(t, int64(1700000000), rec.StatementDate)
	assert.True(t, rec.Active)
}

func TestAccountRecordFromTupleMalformed(t *testing.T) {
	// short tuple
	_, err := AccountRecordFromTuple("0xabc", validTuple()[:7])
	assert.ErrorIs(t, err, ErrMalformedAccountTuple)

	// wrong type in an amount slot
	bad := validTuple()
	bad[2] = "not-a-number"
	_, err = AccountRecordFromTuple("0xabc", bad)
	assert.ErrorIs(t, err, ErrMalformedAccountTuple)

	// wrong type in the bool slot
	bad = validTuple()
	bad[8] = big.NewInt(1)
	_, err = AccountRecordFromTuple("0xabc", bad)
	assert.ErrorIs(t, err, ErrMalformedAccountTuple)
}

func TestHeadroomAndCanBorrow(t *testing.T) {
	rec, err := AccountRecordFromTuple("0xabc", validTuple())
	require.NoError(t, err)

	assert.Equal(t, int64(4_000_000000), rec.Headroom().Int64())
	assert.True(t, rec.CanBorrow(big.NewInt(4_000_000000)))
	assert.False(t, rec.CanBorrow(big.NewInt(4_000_000001)))
	assert.False(t, rec.CanBorrow(big.NewInt(0)))
	assert.False(t, rec.CanBorrow(nil))
}

func TestAccountRecordEqual(t *testing.T) {
	a, err := AccountRecordFromTuple("0xabc", validTuple())
	require.NoError(t, err)
	b, err := AccountRecordFromTuple("0xabc", validTuple())
	require.NoError(t, err)

	assert.True(t, a.Equal(b))

	b.TotalBorrowed = big.NewInt(999)
	assert.False(t, a.Equal(b))
}

func TestEmptyAccountRecord(t *testing.T) {
	rec := EmptyAccountRecord()
	assert.Equal(t, int64(0), rec.CreditLimit.Int64())
	assert.False(t, rec.Active)
	assert.Equal(t, int64(0), rec.Headroom().Int64())
}

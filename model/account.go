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
	"fmt"
	"math/big"
	"time"
)

// accountTupleLen is the arity of the Credit contract's accounts(address)
// return tuple.
const accountTupleLen = 9

var ErrMalformedAccountTuple = errors.New("malformed account tuple")

// AccountRecord is the typed projection of one address's on-chain credit
// account. Amount fields are integers scaled by 10^TokenDecimals; dates are
// unix seconds. The contract is the store of record: this struct is never
// written back, only re-read.
type AccountRecord struct {
	Address       string   `json:"address"`
	KYC           string   `json:"kyc"`
	CreditLimit   *big.Int `json:"credit_limit"`
	TotalBorrowed *big.Int `json:"total_borrowed"`
	TotalPaid     *big.Int `json:"total_paid"`
	TotalDue      *big.Int `json:"total_due"`
	StatementDate int64    `json:"statement_date"`
	DueDate       int64    `json:"due_date"`
	LateFee       *big.Int `json:"late_fee"`
	Active        bool     `json:"is_account_active"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// EmptyAccountRecord is the "no data" state returned when no address is
// connected. It is a valid record, not an error.
func EmptyAccountRecord() *AccountRecord {
	return &AccountRecord{
		CreditLimit:   big.NewInt(0),
		TotalBorrowed: big.NewInt(0),
		TotalPaid:     big.NewInt(0),
		TotalDue:      big.NewInt(0),
		LateFee:       big.NewInt(0),
	}
}

// Headroom returns the remaining borrowable amount, creditLimit - totalBorrowed,
// floored at zero.
func (a *AccountRecord) Headroom() *big.Int {
	h := new(big.Int).Sub(a.CreditLimit, a.TotalBorrowed)
	if h.Sign() < 0 {
		return big.NewInt(0)
	}
	return h
}

// CanBorrow reports whether borrowing the scaled amount keeps totalBorrowed
// within the credit limit.
func (a *AccountRecord) CanBorrow(amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	next := new(big.Int).Add(a.TotalBorrowed, amount)
	return next.Cmp(a.CreditLimit) <= 0
}

// AccountRecordFromTuple maps the contract's nine-field return tuple
// positionally into an AccountRecord:
//
//	(kyc, creditLimit, totalBorrowed, totalPaid, totalDue,
//	 statementDate, dueDate, lateFee, isAccountActive)
//
// A short tuple or a field of the wrong dynamic type is a malformed read.
func AccountRecordFromTuple(address string, tuple []interface{}) (*AccountRecord, error) {
	if len(tuple) != accountTupleLen {
		return nil, fmt.Errorf("%w: got %d fields, want %d", ErrMalformedAccountTuple, len(tuple), accountTupleLen)
	}

	kyc, ok := tuple[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: kyc field is not a string", ErrMalformedAccountTuple)
	}
	active, ok := tuple[8].(bool)
	if !ok {
		return nil, fmt.Errorf("%w: isAccountActive field is not a bool", ErrMalformedAccountTuple)
	}

	nums := make([]*big.Int, 0, 7)
	for i := 1; i <= 7; i++ {
		n, ok := tuple[i].(*big.Int)
		if !ok || n == nil {
			return nil, fmt.Errorf("%w: field %d is not a uint256", ErrMalformedAccountTuple, i)
		}
		nums = append(nums, n)
	}

	return &AccountRecord{
		Address:       address,
		KYC:           kyc,
		CreditLimit:   nums[0],
		TotalBorrowed: nums[1],
		TotalPaid:     nums[2],
		TotalDue:      nums[3],
		StatementDate: nums[4].Int64(),
		DueDate:       nums[5].Int64(),
		LateFee:       nums[6],
		Active:        active,
		FetchedAt:     time.Now(),
	}, nil
}

// Equal compares two records field-by-field, ignoring FetchedAt. Used by the
// reader's idempotence guarantees.
func (a *AccountRecord) Equal(b *AccountRecord) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Address == b.Address &&
		a.KYC == b.KYC &&
		a.CreditLimit.Cmp(b.CreditLimit) == 0 &&
		a.TotalBorrowed.Cmp(b.TotalBorrowed) == 0 &&
		a.TotalPaid.Cmp(b.TotalPaid) == 0 &&
		a.TotalDue.Cmp(b.TotalDue) == 0 &&
		a.StatementDate == b.StatementDate &&
		a.DueDate == b.DueDate &&
		a.LateFee.Cmp(b.LateFee) == 0 &&
		a.Active == b.Active
}

// PendingAllowance records an ERC-20 approval that confirmed while the repay
// call that should have consumed it failed. The allowance stands on-chain
// until spent or revoked; the service tracks it instead of silently dropping
// the partial-failure state.
type PendingAllowance struct {
	AllowanceID   string    `json:"allowance_id"`
	Address       string    `json:"address"`
	Amount        *big.Int  `json:"amount"`
	ApproveTxHash string    `json:"approve_tx_hash"`
	CreatedAt     time.Time `json:"created_at"`
}

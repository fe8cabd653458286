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

package limpeh

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/limpehfi/limpeh/chain"
	"github.com/limpehfi/limpeh/worldid"
)

// MockGateway is a function-field stub of chain.Gateway for tests. Unset
// fields return zero values and confirmed receipts so happy paths need no
// setup.
type MockGateway struct {
	mockAccounts       func(common.Address) ([]interface{}, error)
	mockBorrowFunds    func(common.Address, *big.Int) (common.Hash, error)
	mockApprove        func(*big.Int) (common.Hash, error)
	mockRepayLoans     func(*big.Int) (common.Hash, error)
	mockBalanceOf      func(common.Address) (*big.Int, error)
	mockAllowance      func(common.Address) (*big.Int, error)
	mockWaitForReceipt func(common.Hash) (*types.Receipt, error)
	operator           common.Address
	chainID            uint64
	explorerURL        string
}

var _ chain.Gateway = (*MockGateway)(nil)

func (m *MockGateway) Accounts(_ context.Context, address common.Address) ([]interface{}, error) {
	if m.mockAccounts != nil {
		return m.mockAccounts(address)
	}
	return nil, chain.ErrNoProvider
}

func (m *MockGateway) BorrowFunds(_ context.Context, borrower common.Address, amount *big.Int) (common.Hash, error) {
	if m.mockBorrowFunds != nil {
		return m.mockBorrowFunds(borrower, amount)
	}
	return common.HexToHash("0x01"), nil
}

func (m *MockGateway) Approve(_ context.Context, amount *big.Int) (common.Hash, error) {
	if m.mockApprove != nil {
		return m.mockApprove(amount)
	}
	return common.HexToHash("0x02"), nil
}

func (m *MockGateway) RepayLoans(_ context.Context, amount *big.Int) (common.Hash, error) {
	if m.mockRepayLoans != nil {
		return m.mockRepayLoans(amount)
	}
	return common.HexToHash("0x03"), nil
}

func (m *MockGateway) BalanceOf(_ context.Context, address common.Address) (*big.Int, error) {
	if m.mockBalanceOf != nil {
		return m.mockBalanceOf(address)
	}
	return new(big.Int).Lsh(big.NewInt(1), 62), nil
}

func (m *MockGateway) Allowance(_ context.Context, owner common.Address) (*big.Int, error) {
	if m.mockAllowance != nil {
		return m.mockAllowance(owner)
	}
	return big.NewInt(0), nil
}

func (m *MockGateway) WaitForReceipt(_ context.Context, txHash common.Hash) (*types.Receipt, error) {
	if m.mockWaitForReceipt != nil {
		return m.mockWaitForReceipt(txHash)
	}
	return &types.Receipt{Status: 1, TxHash: txHash}, nil
}

func (m *MockGateway) OperatorAddress() common.Address {
	return m.operator
}

func (m *MockGateway) ChainID() uint64 {
	return m.chainID
}

func (m *MockGateway) ExplorerTxURL(txHash common.Hash) string {
	if m.explorerURL == "" {
		return ""
	}
	return m.explorerURL + "/tx/" + txHash.Hex()
}

// MockVerifier is a canned-outcome stub of worldid.Verifier.
type MockVerifier struct {
	mockVerify func(worldid.ProofBundle, string) worldid.ProofOutcome
}

var _ worldid.Verifier = (*MockVerifier)(nil)

func (m *MockVerifier) Name() string {
	return "mock"
}

func (m *MockVerifier) Verify(_ context.Context, bundle worldid.ProofBundle, signal string) worldid.ProofOutcome {
	if m.mockVerify != nil {
		return m.mockVerify(bundle, signal)
	}
	return worldid.ProofAccepted{}
}

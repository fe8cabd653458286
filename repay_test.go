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
	"encoding/json"
	"math/big"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hibiken/asynq"
	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepayRequiresVerification(t *testing.T) {
	l, _, _ := newTestLimpeh(t)

	_, err := l.Repay(context.Background(), gofakeit.UUID(), testAddress, "100")
	apiErr := requireAPIErrorCode(t, err, apierror.ErrValidationFailed)
	assert.Contains(t, apiErr.Message, "World ID")
}

func TestRepayExceedsOutstandingBalance(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	gateway.mockAccounts = func(common.Address) ([]interface{}, error) {
		return creditTuple(5000, 4900, 100, 4800, true), nil
	}
	sessionID := verifiedSession(t, l, testAddress)

	_, err := l.Repay(context.Background(), sessionID, testAddress, "5000")
	apiErr := requireAPIErrorCode(t, err, apierror.ErrValidationFailed)
	assert.Contains(t, apiErr.Message, "4800.0")
}

func TestRepayInsufficientBalance(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	gateway.mockAccounts = func(common.Address) ([]interface{}, error) {
		return creditTuple(5000, 4900, 100, 4800, true), nil
	}
	gateway.mockBalanceOf = func(common.Address) (*big.Int, error) {
		return big.NewInt(0), nil
	}
	sessionID := verifiedSession(t, l, testAddress)

	_, err := l.Repay(context.Background(), sessionID, testAddress, "100")
	apiErr := requireAPIErrorCode(t, err, apierror.ErrValidationFailed)
	assert.Contains(t, apiErr.Message, "insufficient")
}

func TestRepaySuccess(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	ctx := context.Background()

	paid := int64(100)
	gateway.mockAccounts = func(common.Address) ([]interface{}, error) {
		return creditTuple(5000, 4900, paid, 4900-paid+100, true), nil
	}
	gateway.mockApprove = func(amount *big.Int) (common.Hash, error) {
		assert.Equal(t, int64(100_000000), amount.Int64())
		return common.HexToHash("0xa1"), nil
	}
	gateway.mockRepayLoans = func(amount *big.Int) (common.Hash, error) {
		assert.Equal(t, int64(100_000000), amount.Int64())
		paid += 100
		return common.HexToHash("0xa2"), nil
	}
	sessionID := verifiedSession(t, l, testAddress)

	receipt, err := l.Repay(ctx, sessionID, testAddress, "100")
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xa2").Hex(), receipt.TxHash)
	require.NotNil(t, receipt.Account)
	assert.Equal(t, int64(200_000000), receipt.Account.TotalPaid.Int64())
}

func TestRepayApproveConfirmedRepayReverted(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	ctx := context.Background()

	gateway.mockAccounts = func(common.Address) ([]interface{}, error) {
		return creditTuple(5000, 4900, 100, 4800, true), nil
	}
	approveHash := common.HexToHash("0xb1")
	repayHash := common.HexToHash("0xb2")
	gateway.mockApprove = func(*big.Int) (common.Hash, error) {
		return approveHash, nil
	}
	gateway.mockRepayLoans = func(*big.Int) (common.Hash, error) {
		return repayHash, nil
	}
	gateway.mockWaitForReceipt = func(txHash common.Hash) (*types.Receipt, error) {
		if txHash == repayHash {
			return &types.Receipt{Status: 0, TxHash: txHash}, nil
		}
		return &types.Receipt{Status: 1, TxHash: txHash}, nil
	}
	sessionID := verifiedSession(t, l, testAddress)

	before, err := l.GetAccount(ctx, testAddress, true)
	require.NoError(t, err)

	_, err = l.Repay(ctx, sessionID, testAddress, "100")
	apiErr := requireAPIErrorCode(t, err, apierror.ErrTransactionFailed)
	assert.Contains(t, apiErr.Message, "remains standing", "the partial state must name the standing allowance")
	assert.Contains(t, apiErr.Message, approveHash.Hex())

	// The account record is untouched by the failed repayment.
	after, err := l.GetAccount(ctx, testAddress, true)
	require.NoError(t, err)
	assert.True(t, before.Equal(after))

	// The standing allowance was recorded for reconciliation.
	keys, err := l.redis.Keys(ctx, "allowance:*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestProcessAllowanceReconcileConsumed(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	ctx := context.Background()

	pending := &model.PendingAllowance{
		AllowanceID: model.GenerateUUIDWithSuffix("alw"),
		Address:     testAddress,
		Amount:      big.NewInt(100_000000),
	}
	require.NoError(t, l.cache.Set(ctx, pendingAllowanceKey(pending.AllowanceID), pending, 0))

	gateway.mockAllowance = func(common.Address) (*big.Int, error) {
		return big.NewInt(0), nil
	}

	payload, err := json.Marshal(pending)
	require.NoError(t, err)
	task := asynq.NewTask("allowance_reconcile_queue", payload)
	require.NoError(t, l.ProcessAllowanceReconcile(ctx, task))

	reconciled, err := l.GetPendingAllowance(ctx, pending.AllowanceID)
	require.NoError(t, err)
	assert.Nil(t, reconciled, "a consumed allowance record must be dropped")
}

func TestProcessAllowanceReconcileStillStanding(t *testing.T) {
	l, gateway, _ := newTestLimpeh(t)
	ctx := context.Background()

	pending := &model.PendingAllowance{
		AllowanceID: model.GenerateUUIDWithSuffix("alw"),
		Address:     testAddress,
		Amount:      big.NewInt(100_000000),
	}
	require.NoError(t, l.cache.Set(ctx, pendingAllowanceKey(pending.AllowanceID), pending, 0))

	gateway.mockAllowance = func(common.Address) (*big.Int, error) {
		return big.NewInt(100_000000), nil
	}

	payload, err := json.Marshal(pending)
	require.NoError(t, err)
	task := asynq.NewTask("allowance_reconcile_queue", payload)
	require.NoError(t, l.ProcessAllowanceReconcile(ctx, task))

	standing, err := l.GetPendingAllowance(ctx, pending.AllowanceID)
	require.NoError(t, err)
	require.NotNil(t, standing, "a standing allowance record is kept")
	assert.Equal(t, pending.AllowanceID, standing.AllowanceID)
}

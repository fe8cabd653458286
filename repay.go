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
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/limpehfi/limpeh/internal/apierror"
	redlock "github.com/limpehfi/limpeh/internal/lock"
	"github.com/limpehfi/limpeh/internal/notification"
	"github.com/limpehfi/limpeh/model"
	"github.com/sirupsen/logrus"
)

// Repay pays down the outstanding balance. It is a two-step flow: approve the
// Credit contract to pull the payment token, then call repayLoans. When the
// approval confirms but the repayment fails, the allowance stands on chain;
// the partial state is recorded and scheduled for reconciliation instead of
// being silently dropped.
func (l *Limpeh) Repay(ctx context.Context, sessionID, address, amount string) (*LoanReceipt, error) {
	ctx, span := tracer.Start(ctx, "Repaying loan")
	defer span.End()

	verified, err := l.IsVerifiedFor(ctx, sessionID, address)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "verify with World ID before repaying", nil)
	}

	if !common.IsHexAddress(address) {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "invalid wallet address", address)
	}

	scaled, err := model.ParseAmount(amount)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, fmt.Sprintf("invalid amount %q", amount), err.Error())
	}

	record, err := l.GetAccount(ctx, address, true)
	if err != nil {
		return nil, err
	}
	if scaled.Cmp(record.TotalDue) > 0 {
		due := model.FormatDisplay(record.TotalDue, model.TokenDecimals)
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed,
			fmt.Sprintf("amount exceeds outstanding balance of %s", due), nil)
	}

	balance, err := l.gateway.BalanceOf(ctx, l.gateway.OperatorAddress())
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrContractReadFailed, "could not read payment token balance", err.Error())
	}
	if balance.Cmp(scaled) < 0 {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "insufficient payment token balance", nil)
	}

	locker := redlock.NewFlowLocker(l.redis, address, flowRepay, model.GenerateUUIDWithSuffix("lock"))
	if err := locker.Lock(ctx, flowLockTTL); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "a repayment for this address is already in progress", err.Error())
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release repay lock", err)
		}
	}()

	approveHash, err := l.gateway.Approve(ctx, scaled)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "token approval could not be submitted", err.Error())
	}
	approveReceipt, err := l.gateway.WaitForReceipt(ctx, approveHash)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "token approval was not confirmed", err.Error())
	}
	if approveReceipt.Status != 1 {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "token approval reverted", approveHash.Hex())
	}

	repayHash, err := l.gateway.RepayLoans(ctx, scaled)
	if err != nil {
		return nil, l.recordStandingAllowance(ctx, address, scaled, approveHash, err.Error())
	}
	repayReceipt, err := l.gateway.WaitForReceipt(ctx, repayHash)
	if err != nil {
		return nil, l.recordStandingAllowance(ctx, address, scaled, approveHash, err.Error())
	}
	if repayReceipt.Status != 1 {
		return nil, l.recordStandingAllowance(ctx, address, scaled, approveHash, fmt.Sprintf("repay transaction %s reverted", repayHash.Hex()))
	}

	l.InvalidateAccount(ctx, address, "repayment confirmed")
	updated, err := l.GetAccount(ctx, address, true)
	if err != nil {
		logrus.Warnf("repayment confirmed but account re-read failed for %s: %v", address, err)
		updated = nil
	}

	result := &LoanReceipt{
		TxHash:      repayHash.Hex(),
		ExplorerURL: l.gateway.ExplorerTxURL(repayHash),
		Account:     updated,
	}

	if err := l.SendWebhook(NewWebhook{Event: "loan.repaid", Payload: result}); err != nil {
		logrus.Error(err)
	}
	return result, nil
}

func pendingAllowanceKey(allowanceID string) string {
	return fmt.Sprintf("allowance:%s", allowanceID)
}

// recordStandingAllowance captures the approve-confirmed-repay-failed partial
// state. The allowance record is persisted, a reconcile task is scheduled,
// and the caller gets a transaction failure that names the standing approval
// so the operator knows funds remain pullable.
func (l *Limpeh) recordStandingAllowance(ctx context.Context, address string, amount *big.Int, approveHash common.Hash, cause string) error {
	pending := &model.PendingAllowance{
		AllowanceID:   model.GenerateUUIDWithSuffix("alw"),
		Address:       address,
		Amount:        amount,
		ApproveTxHash: approveHash.Hex(),
		CreatedAt:     time.Now(),
	}

	if err := l.cache.Set(ctx, pendingAllowanceKey(pending.AllowanceID), pending, 0); err != nil {
		logrus.Errorf("failed to persist pending allowance %s: %v", pending.AllowanceID, err)
	}
	if l.queue != nil {
		if err := l.queue.queueAllowanceReconcile(pending); err != nil {
			logrus.Errorf("failed to enqueue allowance reconcile %s: %v", pending.AllowanceID, err)
		}
	}

	err := apierror.NewAPIError(apierror.ErrTransactionFailed,
		fmt.Sprintf("repayment failed after approval %s confirmed; an allowance of %s remains standing", approveHash.Hex(), model.FormatDisplay(pending.Amount, model.TokenDecimals)),
		cause)
	notification.NotifyError(err)
	return err
}

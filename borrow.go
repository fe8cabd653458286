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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/limpehfi/limpeh/internal/apierror"
	redlock "github.com/limpehfi/limpeh/internal/lock"
	"github.com/limpehfi/limpeh/model"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("Loan flow")

const (
	flowBorrow = "borrow"
	flowRepay  = "repay"

	// flowLockTTL bounds how long a borrow or repay submission may hold its
	// single-flight lock before it is presumed dead.
	flowLockTTL = 5 * time.Minute
)

// LoanReceipt is the result of a confirmed borrow or repay: the transaction,
// where to look it up, and the account record re-read after confirmation.
type LoanReceipt struct {
	TxHash      string               `json:"tx_hash"`
	ExplorerURL string               `json:"explorer_url,omitempty"`
	Account     *model.AccountRecord `json:"account"`
}

// Borrow draws down the credit line. The session must hold a World ID proof
// bound to the borrowing address, the amount must parse to a positive token
// quantity, and the draw must fit inside the headroom read from the contract
// immediately before submission. Borrows are single-flight per address.
func (l *Limpeh) Borrow(ctx context.Context, sessionID, address, amount string) (*LoanReceipt, error) {
	ctx, span := tracer.Start(ctx, "Borrowing funds")
	defer span.End()

	verified, err := l.IsVerifiedFor(ctx, sessionID, address)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "verify with World ID before borrowing", nil)
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
	if !record.Active {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "account is not active", address)
	}
	if !record.CanBorrow(scaled) {
		headroom := model.FormatDisplay(record.Headroom(), model.TokenDecimals)
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed,
			fmt.Sprintf("amount exceeds available credit of %s", headroom), nil)
	}

	locker := redlock.NewFlowLocker(l.redis, address, flowBorrow, model.GenerateUUIDWithSuffix("lock"))
	if err := locker.Lock(ctx, flowLockTTL); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrConflict, "a borrow for this address is already in progress", err.Error())
	}
	defer func() {
		if err := locker.Unlock(ctx); err != nil {
			logrus.Error("failed to release borrow lock", err)
		}
	}()

	txHash, err := l.gateway.BorrowFunds(ctx, common.HexToAddress(address), scaled)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "borrow transaction could not be submitted", err.Error())
	}

	receipt, err := l.gateway.WaitForReceipt(ctx, txHash)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "borrow transaction was not confirmed", err.Error())
	}
	if receipt.Status != 1 {
		return nil, apierror.NewAPIError(apierror.ErrTransactionFailed, "borrow transaction reverted", txHash.Hex())
	}

	l.InvalidateAccount(ctx, address, "borrow confirmed")
	updated, err := l.GetAccount(ctx, address, true)
	if err != nil {
		// The draw is on chain; surface the record as unknown rather than
		// failing the whole operation.
		logrus.Warnf("borrow confirmed but account re-read failed for %s: %v", address, err)
		updated = nil
	}

	result := &LoanReceipt{
		TxHash:      txHash.Hex(),
		ExplorerURL: l.gateway.ExplorerTxURL(txHash),
		Account:     updated,
	}

	if err := l.SendWebhook(NewWebhook{Event: "loan.borrowed", Payload: result}); err != nil {
		logrus.Error(err)
	}
	return result, nil
}

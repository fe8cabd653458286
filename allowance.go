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
	"log"

	"fmt"

	"github.com/hibiken/asynq"
	"github.com/limpehfi/limpeh/internal/notification"
	"github.com/limpehfi/limpeh/model"
	"github.com/sirupsen/logrus"
)

// ProcessAllowanceReconcile checks whether a standing allowance left by a
// failed repayment was since consumed. A zero on-chain allowance means a
// retried repayment spent it and the record can be dropped; anything else is
// still pullable and is reported through the webhook channel.
func (l *Limpeh) ProcessAllowanceReconcile(ctx context.Context, task *asynq.Task) error {
	var pending model.PendingAllowance
	if err := json.Unmarshal(task.Payload(), &pending); err != nil {
		log.Printf("Error unmarshaling task payload: %v", err)
		return err
	}

	allowance, err := l.gateway.Allowance(ctx, l.gateway.OperatorAddress())
	if err != nil {
		// Returning the error lets asynq retry with backoff.
		return err
	}

	if allowance.Sign() == 0 {
		if err := l.cache.Delete(ctx, pendingAllowanceKey(pending.AllowanceID)); err != nil {
			logrus.Warnf("failed to drop reconciled allowance %s: %v", pending.AllowanceID, err)
		}
		logrus.Infof("allowance %s reconciled: consumed on chain", pending.AllowanceID)
		return nil
	}

	notification.NotifyError(fmt.Errorf("allowance %s still standing: %s remains approved for %s", pending.AllowanceID, allowance.String(), pending.Address))
	if err := l.SendWebhook(NewWebhook{Event: "allowance.standing", Payload: pending}); err != nil {
		logrus.Error(err)
	}
	return nil
}

// GetPendingAllowance loads a recorded partial-failure allowance by id.
func (l *Limpeh) GetPendingAllowance(ctx context.Context, allowanceID string) (*model.PendingAllowance, error) {
	var pending model.PendingAllowance
	if err := l.cache.Get(ctx, pendingAllowanceKey(allowanceID), &pending); err != nil {
		return nil, err
	}
	if pending.AllowanceID == "" {
		return nil, nil
	}
	return &pending, nil
}

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

	"github.com/ethereum/go-ethereum/common"
	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/model"
	"github.com/sirupsen/logrus"
)

func accountCacheKey(address string) string {
	return fmt.Sprintf("account:%s", address)
}

func accountSeqKey(address string) string {
	return fmt.Sprintf("account:seq:%s", address)
}

// GetAccount returns the credit account record for an address. An empty
// address is the disconnected state and yields the empty record, not an
// error. Cached records are served unless refresh is set; a fresh read that
// lost the race against a later invalidation is returned to its caller but
// never written back, so the cache can only move forward.
func (l *Limpeh) GetAccount(ctx context.Context, address string, refresh bool) (*model.AccountRecord, error) {
	if address == "" {
		return model.EmptyAccountRecord(), nil
	}
	if !common.IsHexAddress(address) {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "invalid wallet address", address)
	}

	if !refresh {
		var cached model.AccountRecord
		if err := l.cache.Get(ctx, accountCacheKey(address), &cached); err == nil && cached.Address != "" {
			return &cached, nil
		}
	}

	return l.fetchAccount(ctx, address)
}

// fetchAccount reads the contract and caches the normalized record, guarded
// by a per-address fetch sequence. Each fetch takes a ticket before the RPC
// call; an invalidation or a newer fetch bumps the sequence, and a write with
// a stale ticket is dropped.
func (l *Limpeh) fetchAccount(ctx context.Context, address string) (*model.AccountRecord, error) {
	seq, err := l.redis.Incr(ctx, accountSeqKey(address)).Result()
	if err != nil {
		logrus.Warnf("account fetch sequence unavailable for %s: %v", address, err)
	}

	tuple, err := l.gateway.Accounts(ctx, common.HexToAddress(address))
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrContractReadFailed, "could not read account from contract", err.Error())
	}

	record, err := model.AccountRecordFromTuple(address, tuple)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrContractReadFailed, "contract returned a malformed account tuple", err.Error())
	}

	current, err := l.redis.Get(ctx, accountSeqKey(address)).Int64()
	if err == nil && current == seq {
		if err := l.cache.Set(ctx, accountCacheKey(address), record, 0); err != nil {
			logrus.Warnf("failed to cache account record for %s: %v", address, err)
		}
	} else {
		logrus.Infof("dropping stale account read for %s (ticket %d, current %d)", address, seq, current)
	}

	return record, nil
}

// InvalidateAccount drops the cached record and bumps the fetch sequence so
// any in-flight read becomes stale. Called after confirmed transactions and
// on chain or account change events.
func (l *Limpeh) InvalidateAccount(ctx context.Context, address, reason string) {
	if address == "" {
		return
	}
	if err := l.redis.Incr(ctx, accountSeqKey(address)).Err(); err != nil {
		logrus.Warnf("failed to bump account sequence for %s: %v", address, err)
	}
	if err := l.cache.Delete(ctx, accountCacheKey(address)); err != nil {
		logrus.Warnf("failed to drop cached account for %s: %v", address, err)
	}
	logrus.Infof("account cache invalidated for %s: %s", address, reason)
}

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
	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/model"
	"github.com/sirupsen/logrus"
)

func walletCacheKey(sessionID string) string {
	return fmt.Sprintf("wallet:%s", sessionID)
}

// GetWalletSession loads the wallet session, or a fresh disconnected one.
func (l *Limpeh) GetWalletSession(ctx context.Context, sessionID string) (*model.WalletSession, error) {
	var session model.WalletSession
	if err := l.cache.Get(ctx, walletCacheKey(sessionID), &session); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "could not load wallet session", err.Error())
	}
	if session.SessionID == "" {
		session = model.WalletSession{SessionID: sessionID}
	}
	return &session, nil
}

func (l *Limpeh) saveWalletSession(ctx context.Context, session *model.WalletSession) error {
	session.UpdatedAt = time.Now()
	if err := l.cache.Set(ctx, walletCacheKey(session.SessionID), session, 0); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "could not persist wallet session", err.Error())
	}
	return nil
}

// ConnectWallet records a wallet connection for the session. The chain id
// must resolve to a configured network, exactly or through the fallback.
func (l *Limpeh) ConnectWallet(ctx context.Context, sessionID, address string, chainID uint64) (*model.WalletSession, error) {
	if !common.IsHexAddress(address) {
		return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "invalid wallet address", address)
	}
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	if _, ok := resolveOrFallback(cfg, chainID); !ok {
		return nil, networkMismatchError(chainID)
	}

	session, err := l.GetWalletSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	previous := session.Address
	session.Address = address
	session.ChainID = chainID
	session.Connected = true
	session.Seq++
	if err := l.saveWalletSession(ctx, session); err != nil {
		return nil, err
	}

	if previous != "" && previous != address {
		l.onAddressChanged(ctx, sessionID, previous, address)
	}
	return session, nil
}

// HandleAccountsChanged applies a provider accountsChanged event. An empty
// address list means the wallet disconnected. Events carry the provider's
// sequence number; one at or below the session's current sequence is stale
// and dropped, which makes concurrent events last-write-wins.
func (l *Limpeh) HandleAccountsChanged(ctx context.Context, sessionID string, addresses []string, seq uint64) (*model.WalletSession, error) {
	session, err := l.GetWalletSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if seq != 0 && seq <= session.Seq {
		logrus.Infof("dropping stale accountsChanged for session %s (seq %d <= %d)", sessionID, seq, session.Seq)
		return session, nil
	}

	previous := session.Address
	if len(addresses) == 0 {
		session.Address = ""
		session.Connected = false
	} else {
		if !common.IsHexAddress(addresses[0]) {
			return nil, apierror.NewAPIError(apierror.ErrValidationFailed, "invalid wallet address", addresses[0])
		}
		session.Address = addresses[0]
		session.Connected = true
	}
	session.Seq = maxSeq(seq, session.Seq+1)
	if err := l.saveWalletSession(ctx, session); err != nil {
		return nil, err
	}

	if previous != session.Address {
		l.onAddressChanged(ctx, sessionID, previous, session.Address)
	}
	return session, nil
}

// HandleChainChanged applies a provider chainChanged event. The cached
// account record belongs to the old chain, so it is invalidated; a read
// already in flight against the old chain becomes stale and will not be
// written back.
func (l *Limpeh) HandleChainChanged(ctx context.Context, sessionID string, chainID uint64, seq uint64) (*model.WalletSession, error) {
	session, err := l.GetWalletSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if seq != 0 && seq <= session.Seq {
		logrus.Infof("dropping stale chainChanged for session %s (seq %d <= %d)", sessionID, seq, session.Seq)
		return session, nil
	}

	session.ChainID = chainID
	session.Seq = maxSeq(seq, session.Seq+1)
	if err := l.saveWalletSession(ctx, session); err != nil {
		return nil, err
	}

	l.InvalidateAccount(ctx, session.Address, fmt.Sprintf("chain changed to %d", chainID))
	return session, nil
}

// SwitchNetwork moves the session to a configured network. An unknown chain
// id is a mismatch: the service never adds chains on the wallet's behalf, the
// caller must handle the wallet's 4902 unrecognized-chain error itself.
func (l *Limpeh) SwitchNetwork(ctx context.Context, sessionID string, chainID uint64) (*model.WalletSession, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	network, exact := cfg.ResolveNetwork(chainID)
	if !exact || network.ChainID != chainID {
		return nil, networkMismatchError(chainID)
	}

	return l.HandleChainChanged(ctx, sessionID, chainID, 0)
}

// DisconnectWallet clears the session's connection state. This is local
// bookkeeping only; no provider permissions are revoked. The verification
// session is kept, since it stays bound to the address it vouched for.
func (l *Limpeh) DisconnectWallet(ctx context.Context, sessionID string) (*model.WalletSession, error) {
	session, err := l.GetWalletSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Address = ""
	session.Connected = false
	session.Seq++
	if err := l.saveWalletSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (l *Limpeh) onAddressChanged(ctx context.Context, sessionID, previous, current string) {
	if err := l.ResetVerification(ctx, sessionID, fmt.Sprintf("wallet address changed from %q to %q", previous, current)); err != nil {
		logrus.Warnf("failed to reset verification for session %s: %v", sessionID, err)
	}
	l.InvalidateAccount(ctx, previous, "wallet address changed")
}

func resolveOrFallback(cfg *config.Configuration, chainID uint64) (config.NetworkConfig, bool) {
	network, exact := cfg.ResolveNetwork(chainID)
	if exact {
		return network, true
	}
	// A non-exact resolution still names the fallback network when one is
	// configured. The zero value means the chain is unsupported outright.
	if network.RpcUrl != "" || network.ChainID != 0 {
		return network, true
	}
	return config.NetworkConfig{}, false
}

func networkMismatchError(chainID uint64) error {
	return apierror.NewAPIError(
		apierror.ErrNetworkMismatch,
		fmt.Sprintf("chain %d is not supported, switch your wallet to a configured network", chainID),
		map[string]interface{}{"chain_id": chainID, "wallet_error_code": 4902},
	)
}

func maxSeq(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

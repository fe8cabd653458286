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
	"math/big"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/wacul/ptr"
)

const (
	testAddress      = "0x1111111111111111111111111111111111111111"
	testOtherAddress = "0x2222222222222222222222222222222222222222"
)

// newTestLimpeh wires the service against miniredis and stub chain and
// verifier implementations.
func newTestLimpeh(t *testing.T) (*Limpeh, *MockGateway, *MockVerifier) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		ProjectName: "Limpeh Test",
		Redis:       config.RedisConfig{Dns: mr.Addr()},
		Chain: config.ChainConfig{
			Networks: map[string]config.NetworkConfig{
				"mainnet":          {ChainID: 1, RpcUrl: "http://localhost:8545", CreditContract: testOtherAddress, PaymentToken: testOtherAddress},
				"unichain-sepolia": {ChainID: 1301, RpcUrl: "http://localhost:8546", CreditContract: testOtherAddress, PaymentToken: testOtherAddress, ExplorerUrl: "https://sepolia.uniscan.xyz"},
			},
			DefaultNetwork:  "mainnet",
			FallbackNetwork: "unichain-sepolia",
		},
		Queue: config.QueueConfig{
			WebhookQueue:        "webhook_queue",
			AllowanceQueue:      "allowance_reconcile_queue",
			MaxRetryAttempts:    3,
			ReconcileDelayHours: 1,
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:  ptr.Float64(100),
			Burst:              ptr.Int(200),
			CleanupIntervalSec: ptr.Int(60),
		},
	})

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gateway := &MockGateway{
		operator: common.HexToAddress(testOtherAddress),
		chainID:  1,
	}
	verifier := &MockVerifier{}

	l := &Limpeh{
		redis:    client,
		cache:    cache.NewCacheFromClient(client),
		gateway:  gateway,
		verifier: verifier,
	}
	return l, gateway, verifier
}

// creditTuple builds an accounts() return tuple with amounts given in whole
// tokens.
func creditTuple(limit, borrowed, paid, due int64, active bool) []interface{} {
	scale := func(v int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(v), big.NewInt(1_000_000))
	}
	return []interface{}{
		"approved",
		scale(limit),
		scale(borrowed),
		scale(paid),
		scale(due),
		big.NewInt(1735689600),
		big.NewInt(1738368000),
		scale(25),
		active,
	}
}

func requireAPIErrorCode(t *testing.T, err error, code apierror.ErrorCode) apierror.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(apierror.APIError)
	require.True(t, ok, "expected APIError, got %T: %v", err, err)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

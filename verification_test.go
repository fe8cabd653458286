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
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/internal/cache"
	"github.com/limpehfi/limpeh/model"
	"github.com/limpehfi/limpeh/worldid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle() worldid.ProofBundle {
	return worldid.ProofBundle{
		MerkleRoot:    "0xroot",
		NullifierHash: "0xnull",
		Proof:         "0xproof",
	}
}

func TestGetVerificationSessionDefaultsToIdle(t *testing.T) {
	l, _, _ := newTestLimpeh(t)

	session, err := l.GetVerificationSession(context.Background(), gofakeit.UUID())
	require.NoError(t, err)
	assert.Equal(t, model.VerificationIdle, session.State)
	assert.False(t, session.Verified)
}

func TestStartVerification(t *testing.T) {
	l, _, _ := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	session, err := l.StartVerification(ctx, sessionID, testAddress)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationProofRequested, session.State)
	assert.Equal(t, testAddress, session.BoundAddress)

	reloaded, err := l.GetVerificationSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationProofRequested, reloaded.State)
}

func TestSubmitProofAccepted(t *testing.T) {
	l, _, verifier := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	verifier.mockVerify = func(bundle worldid.ProofBundle, signal string) worldid.ProofOutcome {
		assert.Equal(t, "0xproof", bundle.Proof)
		return worldid.ProofAccepted{}
	}

	_, err := l.StartVerification(ctx, sessionID, testAddress)
	require.NoError(t, err)

	session, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, session.State)
	assert.True(t, session.Verified)
	assert.Equal(t, testAddress, session.BoundAddress)
	assert.Equal(t, "0xnull", session.NullifierHash)

	verified, err := l.IsVerifiedFor(ctx, sessionID, testAddress)
	require.NoError(t, err)
	assert.True(t, verified)

	// Verification is bound to the address that submitted the proof.
	verified, err = l.IsVerifiedFor(ctx, sessionID, testOtherAddress)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestSubmitProofIdempotentWhenVerified(t *testing.T) {
	l, _, verifier := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	calls := 0
	verifier.mockVerify = func(worldid.ProofBundle, string) worldid.ProofOutcome {
		calls++
		return worldid.ProofAccepted{}
	}

	_, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)
	_, err = l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "a verified session must not re-verify")
}

func TestSubmitProofRejected(t *testing.T) {
	l, _, verifier := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	verifier.mockVerify = func(worldid.ProofBundle, string) worldid.ProofOutcome {
		return worldid.ProofRejected{Code: "invalid_proof", Reason: "proof did not verify"}
	}

	session, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	requireAPIErrorCode(t, err, apierror.ErrVerificationRejected)
	assert.Equal(t, model.VerificationFailed, session.State)
	assert.Equal(t, "proof did not verify", session.LastError)

	verified, err := l.IsVerifiedFor(ctx, sessionID, testAddress)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestSubmitProofTransportErrorIsRetryable(t *testing.T) {
	l, _, verifier := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	verifier.mockVerify = func(worldid.ProofBundle, string) worldid.ProofOutcome {
		return worldid.ProofError{Cause: assert.AnError}
	}

	session, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	requireAPIErrorCode(t, err, apierror.ErrInternalServer)
	assert.Equal(t, model.VerificationProofReceived, session.State, "no verdict was reached, the proof stays retryable")

	verifier.mockVerify = func(worldid.ProofBundle, string) worldid.ProofOutcome {
		return worldid.ProofAccepted{}
	}
	session, err = l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)
	assert.True(t, session.Verified)
}

func TestVerificationSurvivesRestart(t *testing.T) {
	l, gateway, verifier := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	_, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)

	// A second service instance over the same store must see the verified
	// session without any re-verification.
	restarted := &Limpeh{
		redis:    l.redis,
		cache:    cache.NewCacheFromClient(l.redis),
		gateway:  gateway,
		verifier: verifier,
	}
	verified, err := restarted.IsVerifiedFor(ctx, sessionID, testAddress)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestResetVerification(t *testing.T) {
	l, _, _ := newTestLimpeh(t)
	ctx := context.Background()
	sessionID := gofakeit.UUID()

	_, err := l.SubmitProof(ctx, sessionID, testAddress, sampleBundle(), "")
	require.NoError(t, err)

	require.NoError(t, l.ResetVerification(ctx, sessionID, "test"))

	session, err := l.GetVerificationSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationIdle, session.State)
	assert.False(t, session.Verified)
	assert.Empty(t, session.BoundAddress)
}

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

	"github.com/limpehfi/limpeh/internal/apierror"
	"github.com/limpehfi/limpeh/model"
	"github.com/limpehfi/limpeh/worldid"
	"github.com/sirupsen/logrus"
)

func verificationCacheKey(sessionID string) string {
	return fmt.Sprintf("verification:%s", sessionID)
}

// GetVerificationSession loads the verification session, or returns a fresh
// idle one when none exists. Sessions are persisted without expiry so a
// verified state survives page reloads and server restarts.
func (l *Limpeh) GetVerificationSession(ctx context.Context, sessionID string) (*model.VerificationSession, error) {
	var session model.VerificationSession
	if err := l.cache.Get(ctx, verificationCacheKey(sessionID), &session); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "could not load verification session", err.Error())
	}
	if session.SessionID == "" {
		session = model.VerificationSession{
			SessionID: sessionID,
			State:     model.VerificationIdle,
		}
	}
	return &session, nil
}

func (l *Limpeh) saveVerificationSession(ctx context.Context, session *model.VerificationSession) error {
	if err := l.cache.Set(ctx, verificationCacheKey(session.SessionID), session, 0); err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "could not persist verification session", err.Error())
	}
	return nil
}

// StartVerification marks the session as waiting for a proof from the
// identity wallet and binds it to the currently connected address. Starting
// an already verified session for the same address is a no-op.
func (l *Limpeh) StartVerification(ctx context.Context, sessionID, address string) (*model.VerificationSession, error) {
	session, err := l.GetVerificationSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Verified && session.BoundAddress == address {
		return session, nil
	}

	session.State = model.VerificationProofRequested
	session.Verified = false
	session.BoundAddress = address
	session.LastError = ""
	if err := l.saveVerificationSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitProof drives the session through backend verification of the proof
// bundle. A verdict from the verifier is terminal for this attempt: accepted
// proofs pin the session to the submitting address, rejected ones land in the
// failed state. A transport failure leaves the proof received and retryable,
// since no verdict was ever reached.
func (l *Limpeh) SubmitProof(ctx context.Context, sessionID, address string, bundle worldid.ProofBundle, signal string) (*model.VerificationSession, error) {
	session, err := l.GetVerificationSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Verified && session.BoundAddress == address {
		return session, nil
	}

	session.BoundAddress = address
	session.State = model.VerificationProofReceived
	if err := l.saveVerificationSession(ctx, session); err != nil {
		return nil, err
	}

	session.State = model.VerificationServerVerifying
	if err := l.saveVerificationSession(ctx, session); err != nil {
		return nil, err
	}

	outcome := l.verifier.Verify(ctx, bundle, signal)
	switch result := outcome.(type) {
	case worldid.ProofAccepted:
		session.State = model.VerificationVerified
		session.Verified = true
		session.VerifiedAt = time.Now()
		session.NullifierHash = bundle.NullifierHash
		session.LastError = ""
		if err := l.saveVerificationSession(ctx, session); err != nil {
			return nil, err
		}
		logrus.Infof("session %s verified for %s", sessionID, address)
		return session, nil

	case worldid.ProofRejected:
		session.State = model.VerificationFailed
		session.Verified = false
		session.LastError = result.Reason
		if err := l.saveVerificationSession(ctx, session); err != nil {
			return nil, err
		}
		return session, apierror.NewAPIError(apierror.ErrVerificationRejected, result.Reason, result.Code)

	case worldid.ProofError:
		session.State = model.VerificationProofReceived
		session.LastError = result.Cause.Error()
		if err := l.saveVerificationSession(ctx, session); err != nil {
			return nil, err
		}
		return session, apierror.NewAPIError(apierror.ErrInternalServer, "verification service unreachable, try again", result.Cause.Error())

	default:
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "unknown verification outcome", fmt.Sprintf("%T", outcome))
	}
}

// ResetVerification clears the session back to idle. Called when the wallet
// address changes so a proof accepted for one address never vouches for
// another.
func (l *Limpeh) ResetVerification(ctx context.Context, sessionID, reason string) error {
	session := &model.VerificationSession{
		SessionID: sessionID,
		State:     model.VerificationIdle,
	}
	if err := l.saveVerificationSession(ctx, session); err != nil {
		return err
	}
	logrus.Infof("verification session %s reset: %s", sessionID, reason)
	return nil
}

// IsVerifiedFor reports whether the session holds an accepted proof bound to
// the given address. The loan executor gates on this.
func (l *Limpeh) IsVerifiedFor(ctx context.Context, sessionID, address string) (bool, error) {
	session, err := l.GetVerificationSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return session.Verified && session.State == model.VerificationVerified && session.BoundAddress == address, nil
}

package model

import "time"

// VerificationState is one step of the identity verification flow.
type VerificationState string

const (
	VerificationIdle            VerificationState = "IDLE"
	VerificationProofRequested  VerificationState = "PROOF_REQUESTED"
	VerificationProofReceived   VerificationState = "PROOF_RECEIVED"
	VerificationServerVerifying VerificationState = "SERVER_VERIFYING"
	VerificationVerified        VerificationState = "VERIFIED"
	VerificationFailed          VerificationState = "FAILED"
)

// VerificationSession carries the proof-of-personhood status of one browser
// session. It is bound to the wallet address that was connected when the
// proof was accepted and is invalidated when that address changes, so a
// verification can never silently carry over to a different wallet.
type VerificationSession struct {
	SessionID     string            `json:"session_id"`
	State         VerificationState `json:"state"`
	Verified      bool              `json:"verified"`
	VerifiedAt    time.Time         `json:"verified_at,omitempty"`
	BoundAddress  string            `json:"bound_address,omitempty"`
	NullifierHash string            `json:"nullifier_hash,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
}

// WalletSession is the server-side view of one connected wallet: address and
// chain id as last reported by the provider. Seq makes concurrent provider
// events last-write-wins; an event applied with a stale sequence is dropped.
type WalletSession struct {
	SessionID string    `json:"session_id"`
	Address   string    `json:"address,omitempty"`
	ChainID   uint64    `json:"chain_id,omitempty"`
	Connected bool      `json:"is_connected"`
	Seq       uint64    `json:"seq"`
	UpdatedAt time.Time `json:"updated_at"`
}

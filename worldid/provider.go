package worldid

import (
	"context"
	"time"
)

// ProofBundle is the zero-knowledge proof material produced by the identity
// wallet. The three fields travel together and are opaque to the service.
type ProofBundle struct {
	MerkleRoot    string `json:"merkle_root"`
	NullifierHash string `json:"nullifier_hash"`
	Proof         string `json:"proof"`
}

// ProofOutcome is the result of submitting a proof for backend verification.
// It is a closed set: ProofAccepted, ProofRejected, or ProofError. Callers
// switch on the concrete type instead of inspecting error strings, so a
// rejection (the verifier said no) can never be confused with a transport
// failure (the verifier was unreachable).
type ProofOutcome interface {
	outcome()
}

// ProofAccepted means the verifier confirmed the proof.
type ProofAccepted struct {
	Raw       map[string]interface{}
	Timestamp time.Time
}

// ProofRejected means the verifier examined the proof and declined it.
type ProofRejected struct {
	Code   string
	Reason string
}

// ProofError means the verdict is unknown: the request never completed.
type ProofError struct {
	Cause error
}

func (ProofAccepted) outcome() {}
func (ProofRejected) outcome() {}
func (ProofError) outcome()    {}

// Verifier submits proof bundles to an identity backend for verification.
type Verifier interface {
	Name() string
	Verify(ctx context.Context, bundle ProofBundle, signal string) ProofOutcome
}

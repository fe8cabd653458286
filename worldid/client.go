package worldid

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/limpehfi/limpeh/config"
	"github.com/limpehfi/limpeh/internal/request"
)

const (
	// DefaultSignal is sent when the caller supplies no signal of its own.
	DefaultSignal = "my_signal"

	verificationLevel = "orb"
)

// Client verifies World ID proofs against the Developer Portal cloud API.
type Client struct {
	baseURL string
	appID   string
	action  string
}

// NewClient builds a verifier from the configured app credentials.
func NewClient(cfg config.WorldIDConfig) *Client {
	return &Client{
		baseURL: cfg.ApiBaseUrl,
		appID:   cfg.AppID,
		action:  cfg.Action,
	}
}

func (c *Client) Name() string {
	return "worldcoin-cloud"
}

type verifyRequest struct {
	Action            string `json:"action"`
	Signal            string `json:"signal"`
	Proof             string `json:"proof"`
	NullifierHash     string `json:"nullifier_hash"`
	MerkleRoot        string `json:"merkle_root"`
	VerificationLevel string `json:"verification_level"`
}

type verifyResponse struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Detail  string                 `json:"detail"`
	Error   string                 `json:"error"`
	Data    map[string]interface{} `json:"data"`
}

// Verify posts the proof bundle to the portal's verify endpoint. A 2xx
// response with success=true yields ProofAccepted; a definitive negative
// verdict yields ProofRejected; anything short of a verdict yields
// ProofError so the caller can retry.
func (c *Client) Verify(ctx context.Context, bundle ProofBundle, signal string) ProofOutcome {
	if signal == "" {
		signal = DefaultSignal
	}

	payload := verifyRequest{
		Action:            c.action,
		Signal:            signal,
		Proof:             bundle.Proof,
		NullifierHash:     bundle.NullifierHash,
		MerkleRoot:        bundle.MerkleRoot,
		VerificationLevel: verificationLevel,
	}

	var response verifyResponse
	url := fmt.Sprintf("%s/verify/%s", c.baseURL, c.appID)
	resp, err := request.PostJSON(ctx, url, payload, &response)
	if err != nil {
		return ProofError{Cause: err}
	}

	switch {
	case resp.StatusCode < 300 && response.Success:
		return ProofAccepted{Raw: response.Data, Timestamp: time.Now()}
	case resp.StatusCode == http.StatusBadRequest:
		reason := response.Detail
		if reason == "" {
			reason = response.Error
		}
		if reason == "" {
			reason = "proof rejected"
		}
		return ProofRejected{Code: response.Code, Reason: reason}
	default:
		return ProofError{Cause: fmt.Errorf("verifier returned status %d", resp.StatusCode)}
	}
}

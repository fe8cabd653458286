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
package model

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/limpehfi/limpeh/worldid"
)

// hexAddress validates that a value is a well-formed 0x address.
func hexAddress(value interface{}) error {
	s, _ := value.(string)
	if !common.IsHexAddress(s) {
		return errors.New("must be a valid 0x wallet address")
	}
	return nil
}

// StartVerification begins the proof flow for a session. The address binds
// the eventual proof to the connected wallet.
type StartVerification struct {
	Address string `json:"address"`
}

func (s *StartVerification) ValidateStartVerification() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Address, validation.Required, validation.By(hexAddress)),
	)
}

// SubmitProof carries the zero-knowledge proof material from the identity
// wallet plus the address it should vouch for.
type SubmitProof struct {
	Address       string `json:"address"`
	Signal        string `json:"signal"`
	MerkleRoot    string `json:"merkle_root"`
	NullifierHash string `json:"nullifier_hash"`
	Proof         string `json:"proof"`
}

func (s *SubmitProof) ValidateSubmitProof() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Address, validation.Required, validation.By(hexAddress)),
		validation.Field(&s.MerkleRoot, validation.Required),
		validation.Field(&s.NullifierHash, validation.Required),
		validation.Field(&s.Proof, validation.Required),
	)
}

func (s *SubmitProof) ToBundle() worldid.ProofBundle {
	return worldid.ProofBundle{
		MerkleRoot:    s.MerkleRoot,
		NullifierHash: s.NullifierHash,
		Proof:         s.Proof,
	}
}

// ConnectWallet records a wallet connection.
type ConnectWallet struct {
	Address string `json:"address"`
	ChainID uint64 `json:"chain_id"`
}

func (w *ConnectWallet) ValidateConnectWallet() error {
	return validation.ValidateStruct(w,
		validation.Field(&w.Address, validation.Required, validation.By(hexAddress)),
		validation.Field(&w.ChainID, validation.Required),
	)
}

// AccountsChanged mirrors the provider's accountsChanged event. An empty
// address list is a disconnect, so no Required rule on Addresses.
type AccountsChanged struct {
	Addresses []string `json:"addresses"`
	Seq       uint64   `json:"seq"`
}

func (e *AccountsChanged) ValidateAccountsChanged() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Addresses, validation.Each(validation.By(hexAddress))),
	)
}

// ChainChanged mirrors the provider's chainChanged event.
type ChainChanged struct {
	ChainID uint64 `json:"chain_id"`
	Seq     uint64 `json:"seq"`
}

func (e *ChainChanged) ValidateChainChanged() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.ChainID, validation.Required),
	)
}

// SwitchNetwork asks the service to move the session to another configured
// network.
type SwitchNetwork struct {
	ChainID uint64 `json:"chain_id"`
}

func (s *SwitchNetwork) ValidateSwitchNetwork() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.ChainID, validation.Required),
	)
}

// LoanRequest is the shared shape of borrow and repay submissions. Amount is
// a decimal string; the service owns parsing and scaling.
type LoanRequest struct {
	SessionID string `json:"session_id"`
	Address   string `json:"address"`
	Amount    string `json:"amount"`
}

func (r *LoanRequest) ValidateLoanRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SessionID, validation.Required),
		validation.Field(&r.Address, validation.Required, validation.By(hexAddress)),
		validation.Field(&r.Amount, validation.Required),
	)
}

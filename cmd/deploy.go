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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
)

// contractArtifact is the compiler output the deploy command consumes: the
// ABI and creation bytecode, as emitted by standard Solidity toolchains.
type contractArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode string          `json:"bytecode"`
}

func loadArtifact(path string) (abi.ABI, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("error reading artifact: %v", err)
	}

	var artifact contractArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return abi.ABI{}, nil, fmt.Errorf("error parsing artifact: %v", err)
	}

	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return abi.ABI{}, nil, fmt.Errorf("error parsing artifact abi: %v", err)
	}

	bytecode := common.FromHex(strings.TrimSpace(artifact.Bytecode))
	if len(bytecode) == 0 {
		return abi.ABI{}, nil, fmt.Errorf("artifact has no creation bytecode")
	}
	return parsed, bytecode, nil
}

// deployCommands defines the "deploy" command, which deploys the Credit
// contract from a compiled artifact. The payment token address is the
// contract's one constructor argument.
func deployCommands(b *limpehInstance) *cobra.Command {
	var artifactPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "deploy the credit contract",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()

			network := b.cnf.DefaultNetworkConfig()
			if b.cnf.Chain.OperatorKey == "" {
				log.Fatal("an operator key is required to deploy")
			}
			if !common.IsHexAddress(network.PaymentToken) {
				log.Fatalf("invalid payment token address %q", network.PaymentToken)
			}

			parsed, bytecode, err := loadArtifact(artifactPath)
			if err != nil {
				log.Fatal(err)
			}

			client, err := ethclient.Dial(network.RpcUrl)
			if err != nil {
				log.Fatalf("error dialing rpc endpoint: %v", err)
			}
			defer client.Close()

			key, err := crypto.HexToECDSA(strings.TrimPrefix(b.cnf.Chain.OperatorKey, "0x"))
			if err != nil {
				log.Fatalf("error parsing operator key: %v", err)
			}
			auth, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(network.ChainID))
			if err != nil {
				log.Fatalf("error building transactor: %v", err)
			}
			auth.Context = ctx

			address, tx, _, err := bind.DeployContract(auth, parsed, bytecode, client, common.HexToAddress(network.PaymentToken))
			if err != nil {
				log.Fatalf("error deploying contract: %v", err)
			}

			log.Printf("deploy transaction submitted: %s", tx.Hash().Hex())
			log.Printf("credit contract will be at: %s", address.Hex())
			log.Printf("set chain.networks.%s.credit_contract to this address once the transaction confirms", b.cnf.Chain.DefaultNetwork)
		},
	}

	cmd.Flags().StringVar(&artifactPath, "artifact", "./artifacts/Credit.json", "Compiled contract artifact (abi + bytecode)")

	return cmd
}

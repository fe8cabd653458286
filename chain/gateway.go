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

package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/limpehfi/limpeh/config"
	"github.com/pkg/errors"
)

var (
	// ErrNoProvider is returned when the gateway has no RPC connection or no
	// signing key for the requested operation.
	ErrNoProvider = errors.New("no provider available")
)

// Gateway is the service's view of the chain: the Credit contract's read and
// write surface plus the payment token. The concrete implementation talks
// JSON-RPC; tests substitute a stub.
type Gateway interface {
	// Accounts performs the read-only accounts(address) call and returns the
	// raw nine-field tuple for positional normalization.
	Accounts(ctx context.Context, address common.Address) ([]interface{}, error)

	// BorrowFunds submits borrowFunds(borrower, amount).
	BorrowFunds(ctx context.Context, borrower common.Address, amount *big.Int) (common.Hash, error)

	// Approve submits approve(creditContract, amount) on the payment token.
	Approve(ctx context.Context, amount *big.Int) (common.Hash, error)

	// RepayLoans submits repayLoans(amount).
	RepayLoans(ctx context.Context, amount *big.Int) (common.Hash, error)

	// BalanceOf reads the payment-token balance of an address.
	BalanceOf(ctx context.Context, address common.Address) (*big.Int, error)

	// Allowance reads the standing payment-token allowance granted by owner
	// to the Credit contract.
	Allowance(ctx context.Context, owner common.Address) (*big.Int, error)

	// WaitForReceipt blocks until the transaction is mined, honoring ctx.
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)

	// OperatorAddress is the account the gateway signs with.
	OperatorAddress() common.Address

	ChainID() uint64
	ExplorerTxURL(txHash common.Hash) string
}

// EthGateway implements Gateway over go-ethereum's ethclient against the
// configured default network.
type EthGateway struct {
	client   *ethclient.Client
	network  config.NetworkConfig
	credit   *bind.BoundContract
	token    *bind.BoundContract
	auth     *bind.TransactOpts
	operator common.Address
}

// NewEthGateway dials the default network's RPC endpoint and binds the Credit
// and payment-token contracts. The operator key is optional: without it the
// gateway serves reads and fails writes with ErrNoProvider.
func NewEthGateway(cfg *config.Configuration) (*EthGateway, error) {
	network := cfg.DefaultNetworkConfig()
	if network.RpcUrl == "" {
		return nil, errors.Wrap(ErrNoProvider, "no rpc url configured for default network")
	}
	if !common.IsHexAddress(network.CreditContract) {
		return nil, errors.Errorf("invalid credit contract address %q", network.CreditContract)
	}
	if !common.IsHexAddress(network.PaymentToken) {
		return nil, errors.Errorf("invalid payment token address %q", network.PaymentToken)
	}

	client, err := ethclient.Dial(network.RpcUrl)
	if err != nil {
		return nil, errors.Wrap(err, "dialing rpc endpoint")
	}

	creditParsed, err := abi.JSON(strings.NewReader(creditABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing credit abi")
	}
	tokenParsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "parsing erc20 abi")
	}

	g := &EthGateway{
		client:  client,
		network: network,
		credit:  bind.NewBoundContract(common.HexToAddress(network.CreditContract), creditParsed, client, client, client),
		token:   bind.NewBoundContract(common.HexToAddress(network.PaymentToken), tokenParsed, client, client, client),
	}

	if cfg.Chain.OperatorKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.Chain.OperatorKey, "0x"))
		if err != nil {
			return nil, errors.Wrap(err, "parsing operator key")
		}
		auth, err := bind.NewKeyedTransactorWithChainID(key, new(big.Int).SetUint64(network.ChainID))
		if err != nil {
			return nil, errors.Wrap(err, "building transactor")
		}
		g.auth = auth
		g.operator = crypto.PubkeyToAddress(key.PublicKey)
	}

	return g, nil
}

func (g *EthGateway) Accounts(ctx context.Context, address common.Address) ([]interface{}, error) {
	var out []interface{}
	err := g.credit.Call(&bind.CallOpts{Context: ctx}, &out, "accounts", address)
	if err != nil {
		return nil, errors.Wrap(err, "accounts call")
	}
	return out, nil
}

func (g *EthGateway) BorrowFunds(ctx context.Context, borrower common.Address, amount *big.Int) (common.Hash, error) {
	return g.transact(ctx, g.credit, "borrowFunds", borrower, amount)
}

func (g *EthGateway) Approve(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return g.transact(ctx, g.token, "approve", common.HexToAddress(g.network.CreditContract), amount)
}

func (g *EthGateway) RepayLoans(ctx context.Context, amount *big.Int) (common.Hash, error) {
	return g.transact(ctx, g.credit, "repayLoans", amount)
}

func (g *EthGateway) BalanceOf(ctx context.Context, address common.Address) (*big.Int, error) {
	var out []interface{}
	err := g.token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", address)
	if err != nil {
		return nil, errors.Wrap(err, "balanceOf call")
	}
	if len(out) != 1 {
		return nil, errors.New("balanceOf returned unexpected tuple")
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("balanceOf returned non-integer value")
	}
	return balance, nil
}

func (g *EthGateway) Allowance(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out []interface{}
	err := g.token.Call(&bind.CallOpts{Context: ctx}, &out, "allowance", owner, common.HexToAddress(g.network.CreditContract))
	if err != nil {
		return nil, errors.Wrap(err, "allowance call")
	}
	if len(out) != 1 {
		return nil, errors.New("allowance returned unexpected tuple")
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("allowance returned non-integer value")
	}
	return allowance, nil
}

func (g *EthGateway) OperatorAddress() common.Address {
	return g.operator
}

func (g *EthGateway) ChainID() uint64 {
	return g.network.ChainID
}

func (g *EthGateway) ExplorerTxURL(txHash common.Hash) string {
	if g.network.ExplorerUrl == "" {
		return ""
	}
	return strings.TrimSuffix(g.network.ExplorerUrl, "/") + "/tx/" + txHash.Hex()
}

func (g *EthGateway) transact(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) (common.Hash, error) {
	if g.auth == nil {
		return common.Hash{}, errors.Wrapf(ErrNoProvider, "no operator key, cannot submit %s", method)
	}

	opts := *g.auth
	opts.Context = ctx
	tx, err := contract.Transact(&opts, method, args...)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "submitting %s", method)
	}
	return tx.Hash(), nil
}

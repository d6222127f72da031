package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

const orderGasLimit = 150_000

// EthWallet signs locally with an in-process key and submits through an
// Ethereum node. It satisfies Wallet for the production wiring.
type EthWallet struct {
	cli      *ethclient.Client
	key      *ecdsa.PrivateKey
	address  common.Address
	contract common.Address
	chainID  *big.Int
}

// NewEthWallet dials the node and derives the signing address. Missing
// configuration is reported as ErrWalletUnavailable so the UI can offer a
// setup action instead of a generic error.
func NewEthWallet(ctx context.Context, rpcURL, privateKeyHex, contractHex string) (*EthWallet, error) {
	if rpcURL == "" || privateKeyHex == "" {
		return nil, ErrWalletUnavailable
	}
	cli, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrWalletUnavailable, rpcURL, err)
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: parse key: %v", ErrWalletUnavailable, err)
	}
	chainID, err := cli.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", ErrWalletUnavailable, err)
	}
	return &EthWallet{
		cli:      cli,
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		contract: common.HexToAddress(contractHex),
		chainID:  chainID,
	}, nil
}

func (w *EthWallet) Connect(ctx context.Context) (string, error) {
	if w.cli == nil {
		return "", ErrWalletUnavailable
	}
	return w.address.Hex(), nil
}

// SignAndSubmitTransaction builds a dynamic-fee transaction carrying the
// order payload as calldata, signs it, and hands it to the node. Any
// failure past this point means the order never reached the chain.
func (w *EthWallet) SignAndSubmitTransaction(ctx context.Context, payload models.ChainTxPayload) (models.ChainReceipt, error) {
	nonce, err := w.cli.PendingNonceAt(ctx, w.address)
	if err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: nonce: %v", ErrChainRejected, err)
	}
	tip, err := w.cli.SuggestGasTipCap(ctx)
	if err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: gas tip: %v", ErrChainRejected, err)
	}
	head, err := w.cli.HeaderByNumber(ctx, nil)
	if err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: head: %v", ErrChainRejected, err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: encode payload: %v", ErrChainRejected, err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   w.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       orderGasLimit,
		To:        &w.contract,
		Value:     big.NewInt(0),
		Data:      data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: sign: %v", ErrChainRejected, err)
	}
	if err := w.cli.SendTransaction(ctx, signed); err != nil {
		return models.ChainReceipt{}, fmt.Errorf("%w: %v", ErrChainRejected, err)
	}
	return models.ChainReceipt{TxHash: signed.Hash().Hex()}, nil
}

package chain

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"catsvg-indexer/internal/shared/errors"
	"catsvg-indexer/internal/shared/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// contractABIJSON is the read-only surface of the cat SVG NFT contract: the
// ERC-721 Enumerable views the reconciler walks, plus the event the listener
// subscribes to.
const contractABIJSON = `[
	{"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"index","type":"uint256"}],"name":"tokenByIndex","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"name":"tokenId","type":"uint256"}],"name":"tokenURI","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"tokenId","type":"uint256"},{"indexed":false,"name":"text","type":"string"}],"name":"CatTextSet","type":"event"}
]`

// catTextEventName is the contract event carrying freeform token text.
const catTextEventName = "CatTextSet"

var contractABI = mustParseABI(contractABIJSON)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("chain: invalid contract ABI: %v", err))
	}
	return parsed
}

// ContractBackend is the subset of ethclient.Client the Reader needs.
type ContractBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Reader provides read-only access to the contract's view functions.
type Reader struct {
	backend ContractBackend
	address common.Address
	log     logger.Logger
}

// Dial connects to the RPC endpoint and verifies liveness by querying the
// network identity. A failed dial is returned as an explicit connectivity
// error; callers degrade for the current cycle instead of crashing.
func Dial(ctx context.Context, rpcURL, contractAddress string, log logger.Logger) (*Reader, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.NewConnectivityError("failed to dial chain RPC endpoint").
			WithCause(err).
			WithComponent("chain_reader")
	}

	if _, err := client.ChainID(ctx); err != nil {
		client.Close()
		return nil, errors.NewConnectivityError("chain RPC endpoint failed liveness probe").
			WithCause(err).
			WithComponent("chain_reader")
	}

	return NewReader(client, common.HexToAddress(contractAddress), log), nil
}

// NewReader wraps an already-established backend. Used directly by tests.
func NewReader(backend ContractBackend, address common.Address, log logger.Logger) *Reader {
	return &Reader{
		backend: backend,
		address: address,
		log:     log.WithComponent("chain_reader"),
	}
}

// Close releases the underlying RPC connection when the backend owns one.
func (r *Reader) Close() {
	if closer, ok := r.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

// TotalSupply returns the contract-reported token count.
func (r *Reader) TotalSupply(ctx context.Context) (*big.Int, error) {
	out, err := r.call(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("totalSupply returned unexpected type %T", out[0])
	}
	return supply, nil
}

// TokenByIndex returns the token identifier at enumeration index i.
func (r *Reader) TokenByIndex(ctx context.Context, i *big.Int) (*big.Int, error) {
	out, err := r.call(ctx, "tokenByIndex", i)
	if err != nil {
		return nil, err
	}
	id, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("tokenByIndex returned unexpected type %T", out[0])
	}
	return id, nil
}

// TokenURI returns the data URI embedding the token's SVG.
func (r *Reader) TokenURI(ctx context.Context, id *big.Int) (string, error) {
	out, err := r.call(ctx, "tokenURI", id)
	if err != nil {
		return "", err
	}
	uri, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("tokenURI returned unexpected type %T", out[0])
	}
	return uri, nil
}

// call packs, executes, and unpacks a single view function call.
func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	result, err := r.backend.CallContract(ctx, ethereum.CallMsg{
		To:   &r.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s returned no values", method)
	}
	return out, nil
}

// DecodeTokenURI extracts the SVG markup from a data URI. The payload after
// the first comma is base64-encoded UTF-8 text.
func DecodeTokenURI(uri string) (string, error) {
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return "", errors.NewDecodeError("token URI has no payload separator").
			WithDetail("uri_prefix", truncate(uri, 48))
	}

	payload, err := base64.StdEncoding.DecodeString(uri[idx+1:])
	if err != nil {
		return "", errors.NewDecodeError("token URI payload is not valid base64").
			WithCause(err).
			WithDetail("uri_prefix", truncate(uri, 48))
	}
	return string(payload), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

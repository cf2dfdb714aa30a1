// Package chainclient is the external JSON-RPC blockchain collaborator
// (spec §6.1). It is a thin wrapper over go-ethereum's ethclient/rpc,
// following the shape of the teacher's internal/services/ethrequest
// package: a small interface the rest of the pipeline depends on, plus
// one concrete implementation bound to a single endpoint.
package chainclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is everything the pipeline needs from a chain endpoint.
type Client interface {
	Context() context.Context
	ChainID() (*big.Int, error)
	LatestBlock() (*big.Int, error)
	BlockByNumber(number *big.Int) (*types.Block, error)
	GetCode(address common.Address) ([]byte, error)
	Close()
}

// EthClient is the concrete go-ethereum backed implementation.
type EthClient struct {
	rpc    *rpc.Client
	client *ethclient.Client
	ctx    context.Context
}

func Dial(ctx context.Context, endpoint string) (*EthClient, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &EthClient{
		rpc:    rc,
		client: ethclient.NewClient(rc),
		ctx:    ctx,
	}, nil
}

func (e *EthClient) Context() context.Context {
	return e.ctx
}

func (e *EthClient) Close() {
	e.client.Close()
}

func (e *EthClient) ChainID() (*big.Int, error) {
	return e.client.ChainID(e.ctx)
}

func (e *EthClient) LatestBlock() (*big.Int, error) {
	blk, err := e.client.BlockByNumber(e.ctx, nil)
	if err != nil {
		return common.Big0, err
	}

	return blk.Number(), nil
}

func (e *EthClient) BlockByNumber(number *big.Int) (*types.Block, error) {
	return e.client.BlockByNumber(e.ctx, number)
}

func (e *EthClient) GetCode(address common.Address) ([]byte, error) {
	return e.client.CodeAt(e.ctx, address, nil)
}

// Package registry holds the static description of tradeable assets and
// known contract deployments per chain.
package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
)

// Deployment lists the contract addresses the engine talks to on one chain.
type Deployment struct {
	ChainID         uint64
	UniversalRouter common.Address
	SwapRouter      common.Address
	Quoter          common.Address
	StateView       common.Address
	PoolFactory     common.Address
	Permit2         common.Address
	WrappedNative   model.Token
	StateAPIURL     string
}

var deployments = map[uint64]Deployment{
	1: {
		ChainID:         1,
		UniversalRouter: common.HexToAddress("0x66a9893cC07D91D95644AEDD05D03f95e1dBA8Af"),
		SwapRouter:      common.HexToAddress("0xE592427A0AEce92De3Edee1F18E0157C05861564"),
		Quoter:          common.HexToAddress("0x52F0E24D1c21C8A0cB1e5a5dD6198556BD9E1203"),
		StateView:       common.HexToAddress("0x7fFE42C4a5DEeA5b0feC41C94C136Cf115597227"),
		PoolFactory:     common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984"),
		Permit2:         common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3"),
		WrappedNative: model.Token{
			ChainID:  1,
			Address:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
			Decimals: 18,
			Symbol:   "WETH",
		},
	},
	11155111: {
		ChainID:         11155111,
		UniversalRouter: common.HexToAddress("0x3A9D48AB9751398BbFa63ad67599Bb04e4BdF98b"),
		SwapRouter:      common.HexToAddress("0x3bFA4769FB09eefC5a80d6E87c3B9C650f7Ae48E"),
		Quoter:          common.HexToAddress("0x61fFE014bA17989E743c5F6cB21bF9697530B21e"),
		StateView:       common.HexToAddress("0xE1Dd9c3fA50EDB962E442f60DfBc432e24537E4C"),
		PoolFactory:     common.HexToAddress("0x0227628f3F023bb0B980b67D528571c95c6DaC1c"),
		Permit2:         common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3"),
		WrappedNative: model.Token{
			ChainID:  11155111,
			Address:  common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"),
			Decimals: 18,
			Symbol:   "WETH",
		},
	},
}

// DeploymentFor returns the deployment table for a chain.
func DeploymentFor(chainID uint64) (Deployment, error) {
	dep, ok := deployments[chainID]
	if !ok {
		return Deployment{}, fmt.Errorf("no deployment for chain %d", chainID)
	}
	return dep, nil
}

// Routable maps a token to the form pools actually trade: the wrapped
// representation for the native asset, the token itself otherwise.
func (d Deployment) Routable(token model.Token) model.Token {
	if token.IsNative() {
		return d.WrappedNative
	}
	return token
}

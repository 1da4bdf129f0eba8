package registry

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
)

// TokenRegistry resolves token symbols and addresses for one chain. The
// builtin table can be extended at config time with AddToken.
type TokenRegistry struct {
	chainID uint64

	mu        sync.RWMutex
	bySymbol  map[string]model.Token
	byAddress map[common.Address]model.Token
}

// NewTokenRegistry builds a registry seeded with the builtin tokens for the
// chain. The native asset is always present under its chain symbol.
func NewTokenRegistry(chainID uint64) *TokenRegistry {
	r := &TokenRegistry{
		chainID:   chainID,
		bySymbol:  make(map[string]model.Token),
		byAddress: make(map[common.Address]model.Token),
	}
	for _, token := range builtinTokens[chainID] {
		r.add(token)
	}
	return r
}

// AddToken registers an extra token, replacing any builtin with the same
// symbol.
func (r *TokenRegistry) AddToken(token model.Token) error {
	if token.ChainID != r.chainID {
		return fmt.Errorf("token %s belongs to chain %d, registry is chain %d", token.Symbol, token.ChainID, r.chainID)
	}
	if token.Symbol == "" {
		return fmt.Errorf("token symbol is required")
	}
	r.mu.Lock()
	r.add(token)
	r.mu.Unlock()
	return nil
}

func (r *TokenRegistry) add(token model.Token) {
	r.bySymbol[strings.ToUpper(token.Symbol)] = token
	if !token.IsNative() {
		r.byAddress[token.Address] = token
	}
}

// BySymbol resolves a token by its symbol, case-insensitively.
func (r *TokenRegistry) BySymbol(symbol string) (model.Token, error) {
	r.mu.RLock()
	token, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	r.mu.RUnlock()
	if !ok {
		return model.Token{}, fmt.Errorf("unknown token symbol %q on chain %d", symbol, r.chainID)
	}
	return token, nil
}

// ByAddress resolves an ERC-20 token by address.
func (r *TokenRegistry) ByAddress(address common.Address) (model.Token, error) {
	r.mu.RLock()
	token, ok := r.byAddress[address]
	r.mu.RUnlock()
	if !ok {
		return model.Token{}, fmt.Errorf("unknown token %s on chain %d", address.Hex(), r.chainID)
	}
	return token, nil
}

var builtinTokens = map[uint64][]model.Token{
	1: {
		{ChainID: 1, Decimals: 18, Symbol: "ETH"},
		{ChainID: 1, Address: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"), Decimals: 18, Symbol: "WETH"},
		{ChainID: 1, Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6, Symbol: "USDC"},
		{ChainID: 1, Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6, Symbol: "USDT"},
		{ChainID: 1, Address: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), Decimals: 18, Symbol: "DAI"},
		{ChainID: 1, Address: common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"), Decimals: 8, Symbol: "WBTC"},
	},
	11155111: {
		{ChainID: 11155111, Decimals: 18, Symbol: "ETH"},
		{ChainID: 11155111, Address: common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14"), Decimals: 18, Symbol: "WETH"},
		{ChainID: 11155111, Address: common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238"), Decimals: 6, Symbol: "USDC"},
	},
}

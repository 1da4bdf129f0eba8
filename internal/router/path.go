package router

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
)

const (
	addressLength = 20
	feeLength     = 3
	hopLength     = addressLength + feeLength
)

// EncodePath packs a swap route as token (20 bytes) | fee (3 bytes,
// big-endian) | token, repeating fee|token for every additional hop.
func EncodePath(tokens []common.Address, fees []model.FeeTier) ([]byte, error) {
	if len(tokens) < 2 {
		return nil, fmt.Errorf("path needs at least two tokens")
	}
	if len(fees) != len(tokens)-1 {
		return nil, fmt.Errorf("path needs exactly one fee per hop: %d tokens, %d fees", len(tokens), len(fees))
	}

	path := make([]byte, 0, addressLength+len(fees)*hopLength)
	path = append(path, tokens[0].Bytes()...)
	for i, fee := range fees {
		if !fee.Valid() {
			return nil, fmt.Errorf("invalid fee tier %d at hop %d", uint32(fee), i)
		}
		path = append(path, byte(fee>>16), byte(fee>>8), byte(fee))
		path = append(path, tokens[i+1].Bytes()...)
	}
	return path, nil
}

// DecodePath unpacks a packed route back into its tokens and fees.
func DecodePath(path []byte) ([]common.Address, []model.FeeTier, error) {
	if len(path) < addressLength+hopLength {
		return nil, nil, fmt.Errorf("path too short: %d bytes", len(path))
	}
	if (len(path)-addressLength)%hopLength != 0 {
		return nil, nil, fmt.Errorf("malformed path length: %d bytes", len(path))
	}

	hops := (len(path) - addressLength) / hopLength
	tokens := make([]common.Address, 0, hops+1)
	fees := make([]model.FeeTier, 0, hops)

	tokens = append(tokens, common.BytesToAddress(path[:addressLength]))
	offset := addressLength
	for i := 0; i < hops; i++ {
		fee := model.FeeTier(uint32(path[offset])<<16 | uint32(path[offset+1])<<8 | uint32(path[offset+2]))
		offset += feeLength
		tokens = append(tokens, common.BytesToAddress(path[offset:offset+addressLength]))
		offset += addressLength
		fees = append(fees, fee)
	}
	return tokens, fees, nil
}

package router

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapEngine/internal/model"
)

var (
	pathTokenA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pathTokenB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	pathTokenC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestEncodePathSingleHop(t *testing.T) {
	path, err := EncodePath([]common.Address{pathTokenA, pathTokenB}, []model.FeeTier{model.FeeMedium})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 43 {
		t.Fatalf("single-hop path must be 43 bytes, got %d", len(path))
	}
	if !bytes.Equal(path[:20], pathTokenA.Bytes()) {
		t.Fatalf("path does not start with tokenIn")
	}
	// 3000 big-endian over three bytes.
	if path[20] != 0x00 || path[21] != 0x0b || path[22] != 0xb8 {
		t.Fatalf("fee bytes mismatch: %x", path[20:23])
	}
	if !bytes.Equal(path[23:], pathTokenB.Bytes()) {
		t.Fatalf("path does not end with tokenOut")
	}
}

func TestPathRoundTrip(t *testing.T) {
	tokens := []common.Address{pathTokenA, pathTokenB, pathTokenC}
	fees := []model.FeeTier{model.FeeLow, model.FeeHigh}

	path, err := EncodePath(tokens, fees)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotTokens, gotFees, err := DecodePath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gotTokens) != len(tokens) || len(gotFees) != len(fees) {
		t.Fatalf("round trip shape mismatch: %d tokens, %d fees", len(gotTokens), len(gotFees))
	}
	for i := range tokens {
		if gotTokens[i] != tokens[i] {
			t.Fatalf("token %d mismatch: %s", i, gotTokens[i].Hex())
		}
	}
	for i := range fees {
		if gotFees[i] != fees[i] {
			t.Fatalf("fee %d mismatch: %s", i, gotFees[i])
		}
	}
}

func TestEncodePathValidation(t *testing.T) {
	if _, err := EncodePath([]common.Address{pathTokenA}, nil); err == nil {
		t.Fatalf("expected error for single-token path")
	}
	if _, err := EncodePath([]common.Address{pathTokenA, pathTokenB}, []model.FeeTier{model.FeeLow, model.FeeHigh}); err == nil {
		t.Fatalf("expected error for fee count mismatch")
	}
	if _, err := EncodePath([]common.Address{pathTokenA, pathTokenB}, []model.FeeTier{model.FeeTier(7)}); err == nil {
		t.Fatalf("expected error for invalid fee tier")
	}
}

func TestDecodePathValidation(t *testing.T) {
	if _, _, err := DecodePath(make([]byte, 10)); err == nil {
		t.Fatalf("expected error for short path")
	}
	if _, _, err := DecodePath(make([]byte, 44)); err == nil {
		t.Fatalf("expected error for malformed length")
	}
}

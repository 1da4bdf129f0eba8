package model

import "fmt"

// FeeTier is a pool fee in hundredths of a basis point.
type FeeTier uint32

const (
	// FeeLow is the 0.05% tier.
	FeeLow FeeTier = 500
	// FeeMedium is the 0.3% tier.
	FeeMedium FeeTier = 3000
	// FeeHigh is the 1% tier.
	FeeHigh FeeTier = 10000
)

// AllFeeTiers returns the candidate tiers in priority order, cheapest
// first. Ties on quoted output resolve to the earlier tier.
func AllFeeTiers() []FeeTier {
	return []FeeTier{FeeLow, FeeMedium, FeeHigh}
}

// TickSpacing returns the tick spacing paired with the tier.
func (f FeeTier) TickSpacing() int32 {
	switch f {
	case FeeLow:
		return 10
	case FeeMedium:
		return 60
	case FeeHigh:
		return 200
	default:
		return 0
	}
}

// Valid reports whether f is one of the supported tiers.
func (f FeeTier) Valid() bool {
	switch f {
	case FeeLow, FeeMedium, FeeHigh:
		return true
	default:
		return false
	}
}

func (f FeeTier) String() string {
	switch f {
	case FeeLow:
		return "0.05%"
	case FeeMedium:
		return "0.3%"
	case FeeHigh:
		return "1%"
	default:
		return fmt.Sprintf("%d", uint32(f))
	}
}

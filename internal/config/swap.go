package config

import (
	"github.com/spf13/pflag"
)

// SwapConfig holds the settings specific to quoting and swap execution.
type SwapConfig struct {
	Config

	Owner           string
	Recipient       string
	RelayURL        string
	SlippageBps     uint64
	DeadlineMinutes uint64
	Router          string
}

// LoadSwap merges config file, environment variables, and flags into SwapConfig.
func LoadSwap(cfgFile string, flags *pflag.FlagSet) (SwapConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SwapConfig{}, err
	}

	v.SetDefault("slippage-bps", uint64(50))
	v.SetDefault("deadline-minutes", uint64(20))
	v.SetDefault("router", "commands")

	base, err := Load(cfgFile, flags)
	if err != nil {
		return SwapConfig{}, err
	}

	cfg := SwapConfig{
		Config:          base,
		Owner:           v.GetString("owner"),
		Recipient:       v.GetString("recipient"),
		RelayURL:        v.GetString("relay-url"),
		SlippageBps:     v.GetUint64("slippage-bps"),
		DeadlineMinutes: v.GetUint64("deadline-minutes"),
		Router:          v.GetString("router"),
	}

	return cfg, nil
}

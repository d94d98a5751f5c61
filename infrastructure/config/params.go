package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
)

// ParamsFlags holds the ledger parameter selection.
type ParamsFlags struct {
	Devnet             bool   `long:"devnet" description:"Use the development parameters (difficulty 2)"`
	Simnet             bool   `long:"simnet" description:"Use the simulation parameters (difficulty 1)"`
	OverrideParamsFile string `long:"override-params-file" description:"Path to a JSON file overriding the selected parameters"`

	ActiveParams *ledgerconfig.Params
}

type overrideParamsConfig struct {
	Difficulty            *int     `json:"difficulty"`
	TipsPerTransaction    *int     `json:"tipsPerTransaction"`
	ConfirmationThreshold *float64 `json:"confirmationThreshold"`
	MiningReward          *float64 `json:"miningReward"`
}

// ResolveParams sets ActiveParams according to the parsed flags. The
// demonstration parameters are used when no other set is selected. It
// returns an error if more than one set was selected or the overrides are
// invalid.
func (paramsFlags *ParamsFlags) ResolveParams(parser *flags.Parser) error {
	params := ledgerconfig.DemonetParams
	numSelected := 0
	if paramsFlags.Devnet {
		numSelected++
		params = ledgerconfig.DevnetParams
	}
	if paramsFlags.Simnet {
		numSelected++
		params = ledgerconfig.SimnetParams
	}
	if numSelected > 1 {
		err := errors.New("Multiple parameter sets (devnet, simnet) cannot be used together. " +
			"Please choose only one")
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}

	// Presets are copied so that overrides never leak into them
	paramsFlags.ActiveParams = &params

	err := paramsFlags.overrideParams()
	if err != nil {
		return err
	}
	return paramsFlags.ActiveParams.Validate()
}

// Params returns the ActiveParams
func (paramsFlags *ParamsFlags) Params() *ledgerconfig.Params {
	return paramsFlags.ActiveParams
}

func (paramsFlags *ParamsFlags) overrideParams() error {
	if paramsFlags.OverrideParamsFile == "" {
		return nil
	}

	overrideParamsFile, err := os.Open(paramsFlags.OverrideParamsFile)
	if err != nil {
		return errors.WithStack(err)
	}
	defer overrideParamsFile.Close()

	decoder := json.NewDecoder(overrideParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "failed to decode %s", paramsFlags.OverrideParamsFile)
	}

	if config.Difficulty != nil {
		paramsFlags.ActiveParams.Difficulty = *config.Difficulty
	}

	if config.TipsPerTransaction != nil {
		paramsFlags.ActiveParams.TipsPerTransaction = *config.TipsPerTransaction
	}

	if config.ConfirmationThreshold != nil {
		paramsFlags.ActiveParams.ConfirmationThreshold = *config.ConfirmationThreshold
	}

	if config.MiningReward != nil {
		paramsFlags.ActiveParams.MiningReward = *config.MiningReward
	}

	return nil
}

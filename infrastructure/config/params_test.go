package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"

	"github.com/kaspanet/ledgersim/domain/ledgerconfig"
)

type testConfig struct {
	ParamsFlags
}

func parseTestConfig(t *testing.T, args ...string) (*testConfig, *flags.Parser, error) {
	cfg := &testConfig{}
	parser := flags.NewParser(cfg, flags.None)
	_, err := parser.ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs: %s", err)
	}
	return cfg, parser, cfg.ResolveParams(parser)
}

func TestResolveParams(t *testing.T) {
	tests := []struct {
		args     []string
		expected string
	}{
		{nil, ledgerconfig.DemonetParams.Name},
		{[]string{"--devnet"}, ledgerconfig.DevnetParams.Name},
		{[]string{"--simnet"}, ledgerconfig.SimnetParams.Name},
	}
	for _, test := range tests {
		cfg, _, err := parseTestConfig(t, test.args...)
		if err != nil {
			t.Fatalf("ResolveParams(%v): %s", test.args, err)
		}
		if cfg.Params().Name != test.expected {
			t.Errorf("ResolveParams(%v): expected %s, got %s", test.args, test.expected, cfg.Params().Name)
		}
	}

	_, _, err := parseTestConfig(t, "--devnet", "--simnet")
	if err == nil {
		t.Fatalf("expected an error when selecting two parameter sets")
	}
}

func TestOverrideParamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.json")
	err := os.WriteFile(path, []byte(`{"difficulty": 1, "miningReward": 2.5}`), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}

	cfg, _, err := parseTestConfig(t, "--devnet", "--override-params-file", path)
	if err != nil {
		t.Fatalf("ResolveParams: %s", err)
	}
	if cfg.Params().Difficulty != 1 || cfg.Params().MiningReward != 2.5 {
		t.Fatalf("overrides were not applied: %+v", cfg.Params())
	}
	if cfg.Params().TipsPerTransaction != ledgerconfig.DevnetParams.TipsPerTransaction {
		t.Fatalf("a parameter missing from the file was changed")
	}
	if ledgerconfig.DevnetParams.Difficulty != 2 {
		t.Fatalf("overrides leaked into the preset")
	}

	invalidPath := filepath.Join(t.TempDir(), "invalid.json")
	err = os.WriteFile(invalidPath, []byte(`{"difficulty": 100}`), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, _, err = parseTestConfig(t, "--override-params-file", invalidPath)
	if err == nil {
		t.Fatalf("expected an error for an out of range difficulty")
	}

	unknownPath := filepath.Join(t.TempDir(), "unknown.json")
	err = os.WriteFile(unknownPath, []byte(`{"k": 3}`), 0600)
	if err != nil {
		t.Fatalf("WriteFile: %s", err)
	}
	_, _, err = parseTestConfig(t, "--override-params-file", unknownPath)
	if err == nil {
		t.Fatalf("expected an error for an unknown parameter")
	}
}

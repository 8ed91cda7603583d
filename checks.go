package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"oasyspark/pkg/config"
	"oasyspark/pkg/explorer"
	"oasyspark/pkg/logging"
	"oasyspark/pkg/models"

	"github.com/ethereum/go-ethereum/ethclient"
)

type testOptions struct {
	JSON   bool
	DryRun bool
}

type chainIDClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// dialRPC is replaced in tests.
var dialRPC = func(ctx context.Context, url string) (chainIDClient, error) {
	return ethclient.DialContext(ctx, url)
}

// checkStartupConfig prints the structure errors of cfg and reports whether
// the dashboard can start with it.
func checkStartupConfig(cfg config.Config, path string, out io.Writer) bool {
	errs := config.Validate(cfg)
	if len(errs) == 0 {
		return true
	}
	fmt.Fprintf(out, "Invalid configuration in %s:\n", path)
	for _, e := range errs {
		fmt.Fprintf(out, "  - %s\n", e)
	}
	fmt.Fprintln(out, "Run with -t for a full configuration test.")
	return false
}

// runConfigTest validates cfg and probes the explorer and the RPC node. It
// reports false when the configuration structure is invalid.
func runConfigTest(ctx context.Context, cfg config.Config, path string, opt testOptions, out io.Writer) (models.TestReport, bool) {
	say := func(format string, args ...interface{}) {
		if !opt.JSON {
			fmt.Fprintf(out, format, args...)
		}
	}
	finish := func(report models.TestReport, ok bool) (models.TestReport, bool) {
		if opt.JSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		}
		return report, ok
	}

	report := models.TestReport{
		ConfigPath:     path,
		ValidStructure: true,
		ConfigChainID:  cfg.ChainID,
		DryRun:         opt.DryRun,
	}
	say("Testing configuration at: %s\n", path)

	if errs := config.Validate(cfg); len(errs) > 0 {
		report.ValidStructure = false
		report.StructureErrors = errs
		for _, e := range errs {
			say("Error: %s\n", e)
		}
		return finish(report, false)
	}

	say("Explorer: %s ... ", cfg.ExplorerURL)
	check := models.CheckResult{Name: "explorer", Target: cfg.ExplorerURL, Status: "ok"}
	client := explorer.NewClient(cfg.ExplorerURL, cfg.HTTPTimeout(), logging.Discard())
	if err := client.Ping(ctx); err != nil {
		check.Status = "error"
		check.Error = err.Error()
		say("Failed: %v\n", err)
	} else {
		say("OK\n")
	}
	report.Checks = append(report.Checks, check)

	if cfg.RPCURL == "" {
		say("No RPC URL configured, skipping chain id check.\n")
		return finish(report, true)
	}

	say("RPC: %s ... ", cfg.RPCURL)
	check = models.CheckResult{Name: "rpc", Target: cfg.RPCURL}
	rpc, err := dialRPC(ctx, cfg.RPCURL)
	if err != nil {
		check.Status = "error"
		check.Error = err.Error()
		say("Failed: %v\n", err)
		report.Checks = append(report.Checks, check)
		return finish(report, true)
	}
	defer rpc.Close()

	id, err := rpc.ChainID(ctx)
	if err != nil {
		check.Status = "error"
		check.Error = fmt.Sprintf("Failed to get ChainID: %v", err)
		say("Failed to get ChainID: %v\n", err)
		report.Checks = append(report.Checks, check)
		return finish(report, true)
	}

	check.Status = "ok"
	check.ChainID = id.Int64()
	report.ObservedChainID = id.Int64()
	say("OK (ChainID: %s)", id.String())

	switch {
	case cfg.ChainID == 0:
		report.ConfigUpdated = true
		cfg.ChainID = id.Int64()
		say(" - UPDATED CONFIG")
		if opt.DryRun {
			say(" (DRY RUN)\n")
			say("Dry run enabled: Configuration NOT saved.\n")
		} else if err := config.SaveConfig(cfg, path); err != nil {
			report.SaveError = err.Error()
			say("\nFailed to save config: %v\n", err)
		} else {
			say("\nConfiguration saved successfully.\n")
		}
	case id.Cmp(big.NewInt(cfg.ChainID)) != 0:
		check.Error = fmt.Sprintf("Mismatch! Expected %d", cfg.ChainID)
		say(" - MISMATCH! Expected %d\n", cfg.ChainID)
	default:
		say(" - Verified\n")
	}
	report.Checks = append(report.Checks, check)
	return finish(report, true)
}

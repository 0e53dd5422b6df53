package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/engine"
	"github.com/sourceplane/runcontract/internal/jobspec"
	"github.com/sourceplane/runcontract/internal/publish"
)

var (
	finalizeContractFile   string
	finalizeStatus         string
	finalizeOutputLocation string
	finalizeExtraFile      string
	finalizeAudit          bool
	finalizeScanLocalDirs  []string
	finalizeScanPrefixes   []string
	finalizeScope          string
	finalizeStrict         bool
)

var finalizeCmd = &cobra.Command{
	Use:   "finalize",
	Short: "Verify all assets, roll statuses up, and publish the contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFinalize()
	},
}

func registerFinalizeCommand(root *cobra.Command) {
	root.AddCommand(finalizeCmd)

	finalizeCmd.Flags().StringVar(&finalizeContractFile, "contract-file", "", "Path to the contract document")
	finalizeCmd.Flags().StringVar(&finalizeStatus, "status", "", "Override the computed run status")
	finalizeCmd.Flags().StringVar(&finalizeOutputLocation, "output-location", "", "Override run.output_location before publishing")
	finalizeCmd.Flags().StringVar(&finalizeExtraFile, "verification-json-file", "", "Object merged into verification extra")
	finalizeCmd.Flags().BoolVar(&finalizeAudit, "audit-corruption", true, "Inspect metadata assets for embedded failure markers")
	finalizeCmd.Flags().StringArrayVar(&finalizeScanLocalDirs, "scan-local-dir", nil, "Local directory scanned for unexpected outputs (repeatable)")
	finalizeCmd.Flags().StringArrayVar(&finalizeScanPrefixes, "scan-object-prefix", nil, "Object prefix scanned for unexpected outputs (repeatable)")
	finalizeCmd.Flags().StringVar(&finalizeScope, "contract-scope", publish.ScopeFolder, "Publication scope: folder or run")
	finalizeCmd.Flags().BoolVar(&finalizeStrict, "strict", false, "Fail when required assets have issues")
}

func runFinalize() error {
	contractFile, err := requireContractFile(finalizeContractFile)
	if err != nil {
		return err
	}
	if finalizeScope != publish.ScopeFolder && finalizeScope != publish.ScopeRun {
		return fmt.Errorf("--contract-scope must be %q or %q, got %q",
			publish.ScopeFolder, publish.ScopeRun, finalizeScope)
	}

	var extra map[string]any
	if finalizeExtraFile != "" {
		extra, err = jobspec.ReadObjectFile(finalizeExtraFile)
		if err != nil {
			return err
		}
	}

	ctx := context.Background()
	eng := engine.New(openStore())
	c, uploads, err := eng.Finalize(ctx, engine.FinalizeParams{
		ContractFile:       contractFile,
		StatusOverride:     finalizeStatus,
		OutputLocation:     finalizeOutputLocation,
		AuditCorruption:    finalizeAudit,
		ScanLocalDirs:      finalizeScanLocalDirs,
		ScanObjectPrefixes: finalizeScanPrefixes,
		VerificationExtra:  extra,
		Scope:              finalizeScope,
	})
	if err != nil {
		return err
	}

	v := c.Verification
	fmt.Printf("run %s finalized: %s\n", c.Run.RunID, c.Run.Status)
	if v != nil {
		fmt.Printf("  assets: expected=%d produced=%d required=%d\n",
			v.ExpectedAssetsCount, v.ProducedAssetsCount, v.RequiredAssetsCount)
		printIssueList("missing required", v.MissingRequiredAssetIDs)
		printIssueList("corrupt required", v.CorruptRequiredAssetIDs)
		printIssueList("unverified required", v.UnverifiedRequiredAssetIDs)
		if v.UnexpectedOutputsCount > 0 {
			fmt.Printf("  unexpected outputs: %d\n", v.UnexpectedOutputsCount)
		}
	}
	for _, u := range uploads {
		if u.Success {
			fmt.Printf("  published %s (%d assets)\n", u.Destination, u.AssetCount)
		} else {
			fmt.Printf("  %s publish %s: %s\n", tagMissing("[FAILED]"), u.Destination, u.Error)
		}
	}

	if finalizeStrict && v.HasRequiredIssues() {
		return fmt.Errorf("%w: run finished with required-asset issues (status=%s)",
			errStrictFailure, c.Run.Status)
	}
	return nil
}

func printIssueList(label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Printf("  %s (%d): %v\n", label, len(ids), ids)
}

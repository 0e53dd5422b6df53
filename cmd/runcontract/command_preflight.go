package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/engine"
)

var (
	preflightContractFile string
	preflightStrict       bool
	preflightUploadDir    string
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Verify declared inputs before the pipeline does real work",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPreflight()
	},
}

func registerPreflightCommand(root *cobra.Command) {
	root.AddCommand(preflightCmd)

	preflightCmd.Flags().StringVar(&preflightContractFile, "contract-file", "", "Path to the contract document")
	preflightCmd.Flags().BoolVar(&preflightStrict, "strict", false, "Fail when a required input is missing")
	preflightCmd.Flags().StringVar(&preflightUploadDir, "upload-object-dir", "", "Upload contract to an object dir after preflight")
}

func runPreflight() error {
	contractFile, err := requireContractFile(preflightContractFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	eng := engine.New(openStore())
	c, err := eng.Preflight(ctx, contractFile)
	if err != nil {
		return err
	}

	fmt.Println("preflight inputs:")
	for _, a := range c.Assets {
		if a.Role != contract.RoleInput {
			continue
		}
		tag := tagUnknown("[UNKNOWN]")
		if a.Exists != nil {
			if *a.Exists {
				tag = tagOK("[OK]")
			} else {
				tag = tagMissing("[MISSING]")
			}
		}
		note := ""
		if !a.Required {
			note = " (optional)"
		}
		fmt.Printf("  %s %s %s%s\n", tag, a.AssetID, a.PrimaryLocation(), note)
	}

	p := c.Preflight
	if p != nil {
		fmt.Printf("inputs=%d ok=%d missing_required=%d missing_optional=%d\n",
			p.TotalInputs, p.OK, p.MissingRequiredCount, p.MissingOptionalCount)
	}

	if preflightUploadDir != "" {
		uploadContract(eng, c, preflightUploadDir)
	}

	if preflightStrict && p != nil && len(p.MissingRequired) > 0 {
		return fmt.Errorf("%w: required inputs missing: %v", errStrictFailure, p.MissingRequired)
	}
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/jobspec"
)

var validateSpecFile string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a job specification file against the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := jobspec.ValidateFile(validateSpecFile); err != nil {
			return err
		}
		fmt.Printf("%s valid: %s\n", tagOK("✓"), validateSpecFile)
		return nil
	},
}

func registerValidateCommand(root *cobra.Command) {
	root.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateSpecFile, "spec-file", "", "Job expectations file (YAML or JSON)")
	validateCmd.MarkFlagRequired("spec-file")
}

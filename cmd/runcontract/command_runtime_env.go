package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/runtimeinfo"
)

var (
	runtimeEnvJobID      string
	runtimeEnvRunDir     string
	runtimeEnvFile       string
	runtimeEnvSpecFile   string
	runtimeEnvObjectDir  string
	runtimeEnvFormat     string
	runtimeEnvOutputFile string
)

var runtimeEnvCmd = &cobra.Command{
	Use:   "runtime-env",
	Short: "Render the RUN_CONTRACT_* environment wiring for a job",
	Long: `Render the environment variables that wire run-contract tracking into a
job: the contract file location, the spec file, the object-store run
directory, and the env var the run id is read from at init time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRuntimeEnv()
	},
}

func registerRuntimeEnvCommand(root *cobra.Command) {
	root.AddCommand(runtimeEnvCmd)
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvJobID, "job-id", "", "Job identifier (falls back to RUN_CONTRACT_JOB_ID)")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvRunDir, "run-dir", "", "Run directory holding the contract file")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvFile, "contract-file", "", "Contract file path (defaults to <run-dir>/"+contract.FileName+")")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvSpecFile, "spec-file", "", "Job spec file the contract is initialized from")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvObjectDir, "object-run-dir", "", "Object-store URI the run publishes under")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvFormat, "format", runtimeinfo.FormatDotenv, "Output format: dotenv, shell, set-env-vars, json")
	runtimeEnvCmd.Flags().StringVar(&runtimeEnvOutputFile, "output-file", "", "Write output to a file instead of stdout")
}

// runtimeEnvKeys fixes the rendering order for the line formats.
var runtimeEnvKeys = []string{
	"RUN_CONTRACT_ENABLED",
	"RUN_CONTRACT_JOB_ID",
	"RUN_CONTRACT_RUN_DIR",
	"RUN_CONTRACT_FILE",
	"RUN_CONTRACT_SPEC_FILE",
	"RUN_CONTRACT_OBJECT_DIR",
	"RUN_CONTRACT_RUN_ID_ENV",
}

func runRuntimeEnv() error {
	jobID := runtimeEnvJobID
	if jobID == "" {
		jobID = os.Getenv("RUN_CONTRACT_JOB_ID")
	}
	if jobID == "" {
		return fmt.Errorf("--job-id is required (or set RUN_CONTRACT_JOB_ID)")
	}

	runDir := runtimeEnvRunDir
	if runDir == "" {
		runDir = filepath.Join("/tmp", "run_contracts", runtimeinfo.SafeSlug(jobID))
	}
	contractFile := runtimeEnvFile
	if contractFile == "" {
		contractFile = filepath.Join(runDir, contract.FileName)
	}

	values := map[string]string{
		"RUN_CONTRACT_ENABLED":     "true",
		"RUN_CONTRACT_JOB_ID":      jobID,
		"RUN_CONTRACT_RUN_DIR":     runDir,
		"RUN_CONTRACT_FILE":        contractFile,
		"RUN_CONTRACT_SPEC_FILE":   runtimeEnvSpecFile,
		"RUN_CONTRACT_OBJECT_DIR":  runtimeEnvObjectDir,
		"RUN_CONTRACT_RUN_ID_ENV":  "CLOUD_RUN_EXECUTION",
	}

	out, err := runtimeinfo.FormatEnv(runtimeEnvKeys, values, runtimeEnvFormat)
	if err != nil {
		return err
	}
	out += "\n"

	if runtimeEnvOutputFile != "" {
		return os.WriteFile(runtimeEnvOutputFile, []byte(out), 0o644)
	}
	fmt.Print(out)
	return nil
}

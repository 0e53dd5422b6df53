package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/runtimeinfo"
	"github.com/sourceplane/runcontract/internal/storage"
)

// errStrictFailure marks a verification failure under --strict; main maps
// it to exit code 2 so callers can distinguish it from operational errors.
var errStrictFailure = errors.New("strict verification failed")

var rootCmd = &cobra.Command{
	Use:   "runcontract",
	Short: "Run-contract lifecycle tracker for pipeline runs",
	Long: "runcontract records the tasks and data assets of a pipeline run in a single " +
		"contract document, verifies declared expectations against ground truth, and " +
		"publishes the result per destination folder.",
	SilenceUsage: true,
}

func init() {
	registerInitCommand(rootCmd)
	registerRecordCommand(rootCmd)
	registerMarkCommands(rootCmd)
	registerPreflightCommand(rootCmd)
	registerFinalizeCommand(rootCmd)
	registerValidateCommand(rootCmd)
	registerRuntimeEnvCommand(rootCmd)
}

// requireContractFile resolves which contract document a command operates
// on: the flag wins, then RUN_CONTRACT_FILE, then a contract in the current
// directory.
func requireContractFile(flagValue string) (string, error) {
	if flagValue != "" {
		return storage.CanonicalLocalPath(flagValue), nil
	}
	if fromEnv := runtimeinfo.EnvString("RUN_CONTRACT_FILE", ""); fromEnv != "" {
		return storage.CanonicalLocalPath(fromEnv), nil
	}
	local := storage.CanonicalLocalPath(contract.FileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	return "", fmt.Errorf("no contract file: pass --contract-file or set RUN_CONTRACT_FILE")
}

// openStore builds the object-storage capability from the environment. An
// unconfigured or misconfigured backend degrades to nil: object locations
// then verify as unknown instead of aborting the operation.
func openStore() storage.ObjectStore {
	store, err := storage.OpenFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: object storage disabled: %v\n", err)
		return nil
	}
	return store
}

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/engine"
	"github.com/sourceplane/runcontract/internal/jobspec"
	"github.com/sourceplane/runcontract/internal/runtimeinfo"
	"github.com/sourceplane/runcontract/internal/storage"
)

var (
	initContractFile    string
	initRunDir          string
	initJobID           string
	initRunID           string
	initPipelineTitle   string
	initOutputLocation  string
	initSpecFile        string
	initAssetsFile      string
	initInputsFile      string
	initBundleFile      string
	initConfigFile      string
	initInputDataFile   string
	initRunMetadataFile string
	initVarsFile        string
	initVarFlags        []string
	initUploadDir       string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a run contract from a job specification",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func registerInitCommand(root *cobra.Command) {
	root.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initContractFile, "contract-file", "", "Path to "+contract.FileName)
	initCmd.Flags().StringVar(&initRunDir, "run-dir", "", "Run directory (default: run_contracts/<job>/<run_id>)")
	initCmd.Flags().StringVar(&initJobID, "job-id", "", "Job identifier (or set RUN_CONTRACT_JOB_ID)")
	initCmd.Flags().StringVar(&initRunID, "run-id", "", "Run identifier (default: ambient CI id or timestamp)")
	initCmd.Flags().StringVar(&initPipelineTitle, "pipeline-title", "", "Human-readable pipeline title")
	initCmd.Flags().StringVar(&initOutputLocation, "output-location", "", "Primary output root/path")
	initCmd.Flags().StringVar(&initSpecFile, "spec-file", "", "Job expectations file (YAML or JSON)")
	initCmd.Flags().StringVar(&initAssetsFile, "expected-assets-file", "", "Array of expected output assets")
	initCmd.Flags().StringVar(&initInputsFile, "expected-inputs-file", "", "Array of expected input assets")
	initCmd.Flags().StringVar(&initBundleFile, "init-json-file", "", "Single file with keys: config, inputs, expected_assets, expected_inputs, run_metadata")
	initCmd.Flags().StringVar(&initConfigFile, "config-json-file", "", "Object merged into configuration")
	initCmd.Flags().StringVar(&initInputDataFile, "inputs-json-file", "", "Object merged into input_data")
	initCmd.Flags().StringVar(&initRunMetadataFile, "run-metadata-json-file", "", "Object stored as run.extra")
	initCmd.Flags().StringVar(&initVarsFile, "vars-file", "", "Object of template variables")
	initCmd.Flags().StringArrayVar(&initVarFlags, "var", nil, "Template variable KEY=VALUE (repeatable)")
	initCmd.Flags().StringVar(&initUploadDir, "upload-object-dir", "", "Upload contract to an object dir after init")
}

func runInit() error {
	jobID := initJobID
	if jobID == "" {
		jobID = runtimeinfo.EnvString("RUN_CONTRACT_JOB_ID", "")
	}
	if jobID == "" {
		return fmt.Errorf("--job-id is required (or set RUN_CONTRACT_JOB_ID)")
	}

	runID := initRunID
	if runID == "" {
		runID = runtimeinfo.DefaultRunID()
	}
	runID = runtimeinfo.SafeSlug(runID)

	runDir := initRunDir
	if runDir == "" {
		runDir = filepath.Join("run_contracts", runtimeinfo.SafeSlug(jobID), runID)
	}
	runDir = storage.CanonicalLocalPath(runDir)

	contractFile := initContractFile
	if contractFile == "" {
		contractFile = filepath.Join(runDir, contract.FileName)
	}
	contractFile = storage.CanonicalLocalPath(contractFile)

	job := &jobspec.JobDef{}
	specFile := ""
	if initSpecFile != "" {
		specFile = storage.CanonicalLocalPath(initSpecFile)
		if err := jobspec.ValidateFile(specFile); err != nil {
			return err
		}
		var err error
		var resolved string
		job, resolved, err = jobspec.Load(specFile, jobID)
		if err != nil {
			return err
		}
		jobID = resolved
	}

	overrides, bundle, err := loadInitInputs()
	if err != nil {
		return err
	}

	config, err := readObjectInput(initConfigFile, bundle.Config)
	if err != nil {
		return err
	}
	inputs, err := readObjectInput(initInputDataFile, bundle.Inputs)
	if err != nil {
		return err
	}
	runMetadata, err := readObjectInput(initRunMetadataFile, bundle.RunMetadata)
	if err != nil {
		return err
	}

	runtime := runtimeinfo.Describe()
	vars, err := buildVars(runtime, jobID, runID, runDir, contractFile)
	if err != nil {
		return err
	}

	eng := engine.New(openStore())
	c, err := eng.Init(engine.InitParams{
		JobID:          jobID,
		RunID:          runID,
		PipelineTitle:  initPipelineTitle,
		OutputLocation: initOutputLocation,
		RunDir:         runDir,
		ContractFile:   contractFile,
		SpecFile:       specFile,
		Job:            job,
		Overrides:      overrides,
		Vars:           vars,
		Config:         config,
		Inputs:         inputs,
		RunMetadata:    runMetadata,
		Runtime:        runtime,
	})
	if err != nil {
		return err
	}

	if initUploadDir != "" {
		uploadContract(eng, c, initUploadDir)
	}

	inputCount, outputCount := 0, 0
	for _, a := range c.Assets {
		if a.Role == contract.RoleInput {
			inputCount++
		} else {
			outputCount++
		}
	}

	fmt.Printf("run_contract init: %s\n", contractFile)
	fmt.Printf("run_id=%s\n", runID)
	fmt.Printf("tasks=%d assets=%d (inputs=%d outputs=%d)\n",
		len(c.Tasks), len(c.Assets), inputCount, outputCount)
	return nil
}

// loadInitInputs resolves the expected-asset overrides: individual files
// take precedence over the init bundle.
func loadInitInputs() (jobspec.Overrides, *jobspec.InitBundle, error) {
	bundle := &jobspec.InitBundle{}
	if initBundleFile != "" {
		loaded, err := jobspec.ReadInitBundle(initBundleFile)
		if err != nil {
			return jobspec.Overrides{}, nil, err
		}
		bundle = loaded
	}

	overrides := jobspec.Overrides{
		ExpectedAssets: bundle.ExpectedAssets,
		ExpectedInputs: bundle.ExpectedInputs,
	}
	if initAssetsFile != "" {
		assets, err := jobspec.ReadAssetList(initAssetsFile)
		if err != nil {
			return jobspec.Overrides{}, nil, err
		}
		overrides.ExpectedAssets = assets
	}
	if initInputsFile != "" {
		inputs, err := jobspec.ReadAssetList(initInputsFile)
		if err != nil {
			return jobspec.Overrides{}, nil, err
		}
		overrides.ExpectedInputs = inputs
	}
	return overrides, bundle, nil
}

func readObjectInput(path string, fromBundle map[string]any) (map[string]any, error) {
	if path == "" {
		return fromBundle, nil
	}
	return jobspec.ReadObjectFile(path)
}

// buildVars assembles the template context: runtime identity, the builtin
// run identifiers in both cases, a vars file, then --var flags, later
// sources winning.
func buildVars(runtime map[string]string, jobID, runID, runDir, contractFile string) (jobspec.Vars, error) {
	vars := jobspec.Vars{}
	for k, v := range runtime {
		vars[k] = v
	}
	builtin := map[string]string{
		"job_id":          jobID,
		"run_id":          runID,
		"run_dir":         runDir,
		"contract_file":   contractFile,
		"output_location": initOutputLocation,
	}
	for k, v := range builtin {
		vars[k] = v
		vars[strings.ToUpper(k)] = v
	}

	if initVarsFile != "" {
		fromFile, err := jobspec.ReadObjectFile(initVarsFile)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			if v == nil {
				continue
			}
			vars[k] = fmt.Sprint(v)
		}
	}

	fromFlags, err := jobspec.ParseVarFlags(initVarFlags)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFlags {
		vars[k] = v
	}
	return vars, nil
}

// uploadContract pushes the persisted document to an object dir, warning
// instead of failing: upload is a convenience, not part of the operation's
// contract.
func uploadContract(eng *engine.Engine, c *contract.Contract, dirURI string) {
	if err := eng.UploadContract(context.Background(), c, dirURI); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: contract upload failed: %v\n", err)
		return
	}
	fmt.Printf("  uploaded: %s/%s\n", storage.CanonicalURI(dirURI), contract.FileName)
}

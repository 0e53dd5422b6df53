package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/engine"
	"github.com/sourceplane/runcontract/internal/jobspec"
)

var (
	recordContractFile string
	recordTaskID       string
	recordAssetID      string
	recordKind         string
	recordRequired     string
	recordURI          string
	recordLocalPath    string
	recordLocalGlob    string
	recordObjectGlob   string
	recordExtraFile    string
)

var recordCmd = &cobra.Command{
	Use:   "record-produced",
	Short: "Record a produced asset under a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRecordProduced()
	},
}

func registerRecordCommand(root *cobra.Command) {
	root.AddCommand(recordCmd)

	recordCmd.Flags().StringVar(&recordContractFile, "contract-file", "", "Path to the contract document")
	recordCmd.Flags().StringVar(&recordTaskID, "task-id", "", "Owning task id")
	recordCmd.Flags().StringVar(&recordAssetID, "asset-id", "", "Asset id (default: derived from task and location)")
	recordCmd.Flags().StringVar(&recordKind, "kind", "", "Asset kind, e.g. data or metadata")
	recordCmd.Flags().StringVar(&recordRequired, "required", "", "Override required flag: true or false")
	recordCmd.Flags().StringVar(&recordURI, "uri", "", "Object URI of the asset")
	recordCmd.Flags().StringVar(&recordLocalPath, "local-path", "", "Local file path of the asset")
	recordCmd.Flags().StringVar(&recordLocalGlob, "local-glob", "", "Local glob covering the asset")
	recordCmd.Flags().StringVar(&recordObjectGlob, "object-glob", "", "Object glob covering the asset")
	recordCmd.Flags().StringVar(&recordExtraFile, "extra-json-file", "", "Object merged into asset extra")

	recordCmd.MarkFlagRequired("task-id")
}

func runRecordProduced() error {
	contractFile, err := requireContractFile(recordContractFile)
	if err != nil {
		return err
	}

	var required *bool
	switch recordRequired {
	case "":
	case "true":
		v := true
		required = &v
	case "false":
		v := false
		required = &v
	default:
		return fmt.Errorf("--required must be true or false, got %q", recordRequired)
	}

	var extra map[string]any
	if recordExtraFile != "" {
		extra, err = jobspec.ReadObjectFile(recordExtraFile)
		if err != nil {
			return err
		}
	}

	eng := engine.New(openStore())
	_, asset, err := eng.RecordProduced(contractFile, engine.RecordParams{
		TaskID:     recordTaskID,
		AssetID:    recordAssetID,
		Kind:       recordKind,
		Required:   required,
		URI:        recordURI,
		LocalPath:  recordLocalPath,
		LocalGlob:  recordLocalGlob,
		ObjectGlob: recordObjectGlob,
		Extra:      extra,
	})
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s under %s\n", asset.AssetID, recordTaskID)
	if loc := asset.PrimaryLocation(); loc != "" {
		fmt.Printf("  location: %s\n", loc)
	}
	return nil
}

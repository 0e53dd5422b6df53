package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/engine"
	"github.com/sourceplane/runcontract/internal/jobspec"
)

var (
	markContractFile string
	markTaskID       string
	markErrorFile    string
)

func registerMarkCommands(root *cobra.Command) {
	for _, spec := range []struct {
		use    string
		short  string
		status contract.TaskStatus
	}{
		{"mark-task-running", "Mark a task as running", contract.TaskRunning},
		{"mark-task-succeeded", "Mark a task as succeeded", contract.TaskSucceeded},
		{"mark-task-failed", "Mark a task as failed", contract.TaskFailed},
	} {
		status := spec.status
		cmd := &cobra.Command{
			Use:   spec.use,
			Short: spec.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMarkTask(status)
			},
		}
		cmd.Flags().StringVar(&markContractFile, "contract-file", "", "Path to the contract document")
		cmd.Flags().StringVar(&markTaskID, "task-id", "", "Task to mark")
		cmd.Flags().StringVar(&markErrorFile, "error-json-file", "", "Error record attached to the task (and, on failure, its assets)")
		cmd.MarkFlagRequired("task-id")
		root.AddCommand(cmd)
	}
}

func runMarkTask(status contract.TaskStatus) error {
	contractFile, err := requireContractFile(markContractFile)
	if err != nil {
		return err
	}

	var errRecord map[string]any
	if markErrorFile != "" {
		errRecord, err = jobspec.ReadObjectFile(markErrorFile)
		if err != nil {
			return err
		}
	}

	eng := engine.New(nil)
	c, err := eng.MarkTask(contractFile, markTaskID, status, errRecord)
	if err != nil {
		return err
	}

	task := c.FindTask(markTaskID)
	fmt.Printf("task %s -> %s\n", markTaskID, status)
	if task != nil && task.FinishedAt != "" {
		fmt.Printf("  finished_at=%s\n", task.FinishedAt)
	}
	return nil
}

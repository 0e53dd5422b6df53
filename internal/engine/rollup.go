package engine

import "github.com/sourceplane/runcontract/internal/contract"

// rollupTask derives a task's final status from its required assets. A
// prior failed status always stands. Optional assets never affect the
// rollup. The degradation order follows the asset-status precedence:
// failed, then missing, then corrupt, then unknown, then all-ok.
func rollupTask(task *contract.Task, assets map[string]*contract.Asset) contract.TaskStatus {
	if task.Status == contract.TaskFailed {
		return contract.TaskFailed
	}

	var required []*contract.Asset
	for _, id := range task.AssetIDs {
		if a, ok := assets[id]; ok && a.Required {
			required = append(required, a)
		}
	}

	if len(required) == 0 {
		if task.Status.Trivial() {
			return contract.TaskSucceeded
		}
		return task.Status
	}

	counts := map[contract.AssetStatus]int{}
	for _, a := range required {
		counts[a.Status]++
	}

	switch {
	case counts[contract.AssetFailed] > 0:
		return contract.TaskFailed
	case counts[contract.AssetMissing] > 0:
		return contract.TaskSucceededMissingOutputs
	case counts[contract.AssetCorrupt] > 0:
		return contract.TaskSucceededCorruptOutputs
	case counts[contract.AssetUnknown] > 0:
		return contract.TaskSucceededUnverifiedOutputs
	case counts[contract.AssetOK] == len(required):
		return contract.TaskSucceeded
	}

	// Residual mix (expected/produced leftovers): keep the prior status.
	if task.Status == "" {
		return contract.TaskSucceededUnverifiedOutputs
	}
	return task.Status
}

// rollupRun derives the run-level status, evaluated strictly in this
// order: failed tasks, then missing-or-corrupt required assets, then
// unverified required assets.
func rollupRun(taskCounts map[contract.TaskStatus]int, missingRequired, corruptRequired, unknownRequired []string) string {
	switch {
	case taskCounts[contract.TaskFailed] > 0:
		return contract.RunFailed
	case len(missingRequired) > 0 || len(corruptRequired) > 0:
		return contract.RunFinishedWithIssues
	case len(unknownRequired) > 0:
		return contract.RunFinishedUnverified
	default:
		return contract.RunFinished
	}
}

package engine

import (
	"fmt"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
)

// MarkTask sets a task's lifecycle status, creating the task when unseen.
// Transitioning into failed cascades onto every asset the task currently
// owns: each gets status failed and a copy of the error record, so failed
// work is never misreported as missing at finalize.
func (e *Engine) MarkTask(contractFile, taskID string, status contract.TaskStatus, errRecord map[string]any) (*contract.Contract, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is required")
	}

	c, err := contractio.Load(contractFile)
	if err != nil {
		return nil, err
	}

	now := e.now()
	task := c.EnsureTask(taskID, now)
	task.SetStatus(status, now)
	if errRecord != nil {
		task.Error = errRecord
	}

	if status == contract.TaskFailed {
		assets := c.AssetIndex()
		for _, id := range task.AssetIDs {
			asset, ok := assets[id]
			if !ok {
				continue
			}
			asset.Status = contract.AssetFailed
			if errRecord != nil {
				asset.Error = copyRecord(errRecord)
			}
		}
	}

	if err := contractio.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

func copyRecord(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

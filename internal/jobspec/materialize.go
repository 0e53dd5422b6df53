package jobspec

import (
	"fmt"

	"github.com/sourceplane/runcontract/internal/contract"
)

// Materialize expands a job definition into the declared tasks and expected
// assets of a new contract. Templates are rendered, ids are defaulted and
// checked for duplicates, and both collections come back sorted by id.
//
// Declared assets start as expected=true, produced=false: the run has
// committed to them but nothing has been observed yet.
func Materialize(job *JobDef, jobID, now string, vars Vars, overrides Overrides) ([]*contract.Task, []*contract.Asset, error) {
	taskDefs := job.Tasks

	if overrides.Active() {
		assets := overrides.ExpectedAssets
		if assets == nil {
			assets = job.ExpectedAssets
		}
		inputs := overrides.ExpectedInputs
		if inputs == nil {
			inputs = job.ExpectedInputs
		}
		taskDefs = []TaskDef{defaultTask(job, jobID, assets, inputs)}
	}

	if len(taskDefs) == 0 {
		taskDefs = []TaskDef{defaultTask(job, jobID, job.ExpectedAssets, job.ExpectedInputs)}
	}

	var (
		tasks      []*contract.Task
		assets     []*contract.Asset
		seenTasks  = map[string]struct{}{}
		seenAssets = map[string]struct{}{}
	)

	for i, def := range taskDefs {
		taskID := def.TaskID
		if taskID == "" {
			taskID = fmt.Sprintf("%s/task_%d", jobID, i+1)
		}
		taskID = vars.Expand(taskID)
		if taskID == "" {
			return nil, nil, fmt.Errorf("task definition #%d resolved to empty task_id", i+1)
		}
		if _, dup := seenTasks[taskID]; dup {
			return nil, nil, fmt.Errorf("duplicate task_id in contract definition: %s", taskID)
		}
		seenTasks[taskID] = struct{}{}

		task := &contract.Task{
			TaskID:    taskID,
			Labels:    vars.ExpandMap(def.Labels),
			Status:    contract.TaskExpected,
			CreatedAt: now,
			AssetIDs:  []string{},
		}
		tasks = append(tasks, task)

		type roleTagged struct {
			def  AssetDef
			role string
		}
		tagged := make([]roleTagged, 0, len(def.ExpectedAssets)+len(def.ExpectedInputs))
		for _, a := range def.ExpectedAssets {
			tagged = append(tagged, roleTagged{a, contract.RoleOutput})
		}
		for _, a := range def.ExpectedInputs {
			tagged = append(tagged, roleTagged{a, contract.RoleInput})
		}

		for j, entry := range tagged {
			assetID := entry.def.AssetID
			if assetID == "" {
				suffix := "asset"
				if entry.role == contract.RoleInput {
					suffix = "input"
				}
				assetID = fmt.Sprintf("%s/%s_%d", taskID, suffix, j+1)
			}
			assetID = vars.Expand(assetID)
			if _, dup := seenAssets[assetID]; dup {
				return nil, nil, fmt.Errorf("duplicate asset_id in contract definition: %s", assetID)
			}
			seenAssets[assetID] = struct{}{}

			kind := entry.def.Kind
			if kind == "" {
				kind = "output"
			}
			var extra map[string]any
			if entry.def.Extra != nil {
				extra = vars.ExpandAny(entry.def.Extra).(map[string]any)
			}

			asset := &contract.Asset{
				AssetID:    assetID,
				TaskID:     taskID,
				Role:       entry.role,
				Kind:       kind,
				Required:   entry.def.IsRequired(),
				URI:        vars.Expand(entry.def.URI),
				LocalPath:  vars.Expand(entry.def.LocalPath),
				LocalGlob:  vars.Expand(entry.def.LocalGlob),
				ObjectGlob: vars.Expand(entry.def.ObjectGlob),
				Extra:      extra,
				Expected:   true,
				Produced:   false,
				Status:     contract.AssetExpected,
				CreatedAt:  now,
			}
			task.AttachAsset(assetID)
			assets = append(assets, asset)
		}
	}

	holder := &contract.Contract{Tasks: tasks, Assets: assets}
	holder.SortCollections()
	return holder.Tasks, holder.Assets, nil
}

func defaultTask(job *JobDef, jobID string, assets, inputs []AssetDef) TaskDef {
	taskID := job.DefaultTaskID
	if taskID == "" {
		taskID = jobID
	}
	return TaskDef{
		TaskID:         taskID,
		Labels:         job.DefaultLabels,
		ExpectedAssets: assets,
		ExpectedInputs: inputs,
	}
}

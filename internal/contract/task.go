package contract

import "sort"

// Task is one unit of pipeline work owning a set of assets by id.
type Task struct {
	TaskID     string            `json:"task_id"`
	Labels     map[string]string `json:"labels,omitempty"`
	Status     TaskStatus        `json:"status"`
	CreatedAt  string            `json:"created_at"`
	StartedAt  string            `json:"started_at,omitempty"`
	FinishedAt string            `json:"finished_at,omitempty"`
	Error      map[string]any    `json:"error,omitempty"`
	AssetIDs   []string          `json:"asset_ids"`
}

// AttachAsset records ownership of an asset id, keeping the list sorted and
// duplicate-free. Ownership is a lookup relation only; the asset itself is
// stored once in the contract's asset collection.
func (t *Task) AttachAsset(assetID string) {
	for _, id := range t.AssetIDs {
		if id == assetID {
			return
		}
	}
	t.AssetIDs = append(t.AssetIDs, assetID)
	sort.Strings(t.AssetIDs)
}

// SetStatus applies a status transition, stamping started_at on the first
// transition into running and finished_at once on the first terminal
// transition. It does not cascade to assets; see Contract-level marking in
// the engine.
func (t *Task) SetStatus(status TaskStatus, now string) {
	if status == TaskRunning && t.StartedAt == "" {
		t.StartedAt = now
	}
	if status.Terminal() && t.FinishedAt == "" {
		t.FinishedAt = now
	}
	t.Status = status
}

package contract

import "sort"

// SchemaVersion is the contract document version this engine reads and
// writes. Loading a document with any other version is an error.
const SchemaVersion = 1

// FileName is the canonical name of a persisted contract document.
const FileName = "_run_contract.json"

// Contract is the root document tracking one pipeline run: its tasks, the
// data assets they consume and produce, and the verification outcome.
type Contract struct {
	SchemaVersion int            `json:"schema_version"`
	Run           Run            `json:"run"`
	Configuration map[string]any `json:"configuration"`
	InputData     map[string]any `json:"input_data"`
	Tasks         []*Task        `json:"tasks"`
	Assets        []*Asset       `json:"assets"`
	Verification  *Verification  `json:"verification,omitempty"`
	Preflight     *Preflight     `json:"preflight,omitempty"`
	Paths         Paths          `json:"paths"`
}

// Run holds run-level metadata.
type Run struct {
	RunID          string            `json:"run_id"`
	JobID          string            `json:"job_id"`
	PipelineTitle  string            `json:"pipeline_title"`
	Status         string            `json:"status"`
	StartedAt      string            `json:"started_at"`
	CompletedAt    string            `json:"completed_at,omitempty"`
	Runtime        map[string]string `json:"runtime,omitempty"`
	OutputLocation string            `json:"output_location,omitempty"`
	Extra          map[string]any    `json:"extra,omitempty"`
}

// Paths records where the document itself lives.
type Paths struct {
	RunDir       string `json:"run_dir,omitempty"`
	ContractJSON string `json:"contract_json,omitempty"`
	SpecFile     string `json:"spec_file,omitempty"`
	Scope        string `json:"scope,omitempty"`
	FolderURI    string `json:"folder_uri,omitempty"`
}

// TaskIndex returns a lookup from task id to task.
func (c *Contract) TaskIndex() map[string]*Task {
	idx := make(map[string]*Task, len(c.Tasks))
	for _, t := range c.Tasks {
		idx[t.TaskID] = t
	}
	return idx
}

// AssetIndex returns a lookup from asset id to asset.
func (c *Contract) AssetIndex() map[string]*Asset {
	idx := make(map[string]*Asset, len(c.Assets))
	for _, a := range c.Assets {
		idx[a.AssetID] = a
	}
	return idx
}

// FindTask returns the task with the given id, or nil.
func (c *Contract) FindTask(taskID string) *Task {
	for _, t := range c.Tasks {
		if t.TaskID == taskID {
			return t
		}
	}
	return nil
}

// FindAsset returns the asset with the given id, or nil.
func (c *Contract) FindAsset(assetID string) *Asset {
	for _, a := range c.Assets {
		if a.AssetID == assetID {
			return a
		}
	}
	return nil
}

// EnsureTask returns the task with the given id, creating a running
// placeholder when unseen. Late creation lets instrumentation report tasks
// the original job specification did not anticipate.
func (c *Contract) EnsureTask(taskID, now string) *Task {
	if t := c.FindTask(taskID); t != nil {
		return t
	}
	t := &Task{
		TaskID:    taskID,
		Labels:    map[string]string{},
		Status:    TaskRunning,
		CreatedAt: now,
		StartedAt: now,
		AssetIDs:  []string{},
	}
	c.Tasks = append(c.Tasks, t)
	return t
}

// EnsureAsset returns the asset with the given id, creating a produced
// placeholder owned by taskID when unseen.
func (c *Contract) EnsureAsset(assetID, taskID, now string) *Asset {
	if a := c.FindAsset(assetID); a != nil {
		return a
	}
	a := &Asset{
		AssetID:   assetID,
		TaskID:    taskID,
		Role:      RoleOutput,
		Kind:      "output",
		Required:  true,
		Expected:  false,
		Produced:  true,
		Status:    AssetProduced,
		CreatedAt: now,
	}
	c.Assets = append(c.Assets, a)
	return a
}

// SortCollections orders tasks and assets by id for deterministic output.
func (c *Contract) SortCollections() {
	sort.Slice(c.Tasks, func(i, j int) bool { return c.Tasks[i].TaskID < c.Tasks[j].TaskID })
	sort.Slice(c.Assets, func(i, j int) bool { return c.Assets[i].AssetID < c.Assets[j].AssetID })
}

// Package jobspec loads and materializes job specifications: the declared
// tasks and expected assets a pipeline run commits to up front. Files are
// accepted as YAML or JSON.
package jobspec

// JobDef is one job's declared expectations. A specification file either
// holds a single job at the top level or a `jobs` map keyed by job id.
type JobDef struct {
	DefaultTaskID  string            `yaml:"default_task_id" json:"default_task_id,omitempty"`
	DefaultLabels  map[string]string `yaml:"default_labels" json:"default_labels,omitempty"`
	Tasks          []TaskDef         `yaml:"tasks" json:"tasks,omitempty"`
	ExpectedAssets []AssetDef        `yaml:"expected_assets" json:"expected_assets,omitempty"`
	ExpectedInputs []AssetDef        `yaml:"expected_inputs" json:"expected_inputs,omitempty"`
}

// TaskDef declares one task and the assets it is expected to touch.
type TaskDef struct {
	TaskID         string            `yaml:"task_id" json:"task_id,omitempty"`
	Labels         map[string]string `yaml:"labels" json:"labels,omitempty"`
	ExpectedAssets []AssetDef        `yaml:"expected_assets" json:"expected_assets,omitempty"`
	ExpectedInputs []AssetDef        `yaml:"expected_inputs" json:"expected_inputs,omitempty"`
}

// AssetDef declares one expected asset. The role is implied by the list it
// appears in (expected_assets → output, expected_inputs → input).
type AssetDef struct {
	AssetID    string         `yaml:"asset_id" json:"asset_id,omitempty"`
	Kind       string         `yaml:"kind" json:"kind,omitempty"`
	Required   *bool          `yaml:"required" json:"required,omitempty"`
	URI        string         `yaml:"uri" json:"uri,omitempty"`
	LocalPath  string         `yaml:"local_path" json:"local_path,omitempty"`
	LocalGlob  string         `yaml:"local_glob" json:"local_glob,omitempty"`
	ObjectGlob string         `yaml:"object_glob" json:"object_glob,omitempty"`
	Extra      map[string]any `yaml:"extra" json:"extra,omitempty"`
}

// IsRequired applies the documented default: assets are required unless
// declared otherwise.
func (a AssetDef) IsRequired() bool {
	return a.Required == nil || *a.Required
}

// Overrides replaces the specification's task list with a single synthetic
// task carrying the given asset lists. Used by init-time flag and bundle
// overrides.
type Overrides struct {
	ExpectedAssets []AssetDef
	ExpectedInputs []AssetDef
}

func (o Overrides) Active() bool {
	return o.ExpectedAssets != nil || o.ExpectedInputs != nil
}

package contract

// Verification is the point-in-time snapshot attached by finalize.
type Verification struct {
	FinishedAt                 string              `json:"finished_at"`
	ExpectedAssetsCount        int                 `json:"expected_assets_count"`
	ProducedAssetsCount        int                 `json:"produced_assets_count"`
	RequiredAssetsCount        int                 `json:"required_assets_count"`
	AssetStatusCounts          map[AssetStatus]int `json:"asset_status_counts"`
	InputAssetStatusCounts     map[AssetStatus]int `json:"input_asset_status_counts,omitempty"`
	OutputAssetStatusCounts    map[AssetStatus]int `json:"output_asset_status_counts,omitempty"`
	TaskStatusCounts           map[TaskStatus]int  `json:"task_status_counts"`
	MissingRequiredAssetIDs    []string            `json:"missing_required_asset_ids"`
	MissingRequiredInputIDs    []string            `json:"missing_required_input_ids,omitempty"`
	CorruptRequiredAssetIDs    []string            `json:"corrupt_required_asset_ids"`
	UnverifiedRequiredAssetIDs []string            `json:"unverified_required_asset_ids"`
	UnexpectedOutputs          []string            `json:"unexpected_outputs,omitempty"`
	UnexpectedOutputsCount     int                 `json:"unexpected_outputs_count"`
	FolderUploads              []PublishOutcome    `json:"folder_uploads,omitempty"`
	Scope                      string              `json:"scope,omitempty"`
	FolderURI                  string              `json:"folder_uri,omitempty"`
	Extra                      map[string]any      `json:"extra,omitempty"`
}

// HasRequiredIssues reports whether any required asset ended up missing,
// corrupt, or unverified, or any task failed. Strict mode turns this into a
// non-zero completion signal.
func (v *Verification) HasRequiredIssues() bool {
	if v == nil {
		return false
	}
	return len(v.MissingRequiredAssetIDs) > 0 ||
		len(v.CorruptRequiredAssetIDs) > 0 ||
		len(v.UnverifiedRequiredAssetIDs) > 0 ||
		v.TaskStatusCounts[TaskFailed] > 0
}

// Preflight is the report written by the pre-execution input check.
type Preflight struct {
	CheckedAt            string   `json:"checked_at"`
	TotalInputs          int      `json:"total_inputs"`
	OK                   int      `json:"ok"`
	MissingRequired      []string `json:"missing_required"`
	MissingRequiredCount int      `json:"missing_required_count"`
	MissingOptional      []string `json:"missing_optional"`
	MissingOptionalCount int      `json:"missing_optional_count"`
}

// PublishOutcome records one per-destination publication attempt. Outcomes
// are collected, never raised: a failed folder must not block the others.
type PublishOutcome struct {
	FolderURI   string `json:"folder_uri"`
	Destination string `json:"destination"`
	AssetCount  int    `json:"asset_count"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

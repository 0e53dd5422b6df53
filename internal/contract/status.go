package contract

// TaskStatus is the lifecycle state of a single unit of work.
type TaskStatus string

const (
	TaskExpected                   TaskStatus = "expected"
	TaskRunning                    TaskStatus = "running"
	TaskSucceeded                  TaskStatus = "succeeded"
	TaskFailed                     TaskStatus = "failed"
	TaskSucceededMissingOutputs    TaskStatus = "succeeded_with_missing_outputs"
	TaskSucceededCorruptOutputs    TaskStatus = "succeeded_with_corrupt_outputs"
	TaskSucceededUnverifiedOutputs TaskStatus = "succeeded_with_unverified_outputs"
)

// Terminal reports whether the status ends the task lifecycle.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskSucceeded, TaskFailed, TaskSucceededMissingOutputs,
		TaskSucceededCorruptOutputs, TaskSucceededUnverifiedOutputs:
		return true
	}
	return false
}

// Trivial reports whether the status carries no verification outcome yet.
// A task in a trivial status with no required assets rolls up to succeeded.
func (s TaskStatus) Trivial() bool {
	switch s {
	case "", TaskExpected, TaskRunning, "produced":
		return true
	}
	return false
}

// AssetStatus is the verification state of a single data artifact.
type AssetStatus string

const (
	AssetExpected AssetStatus = "expected"
	AssetProduced AssetStatus = "produced"
	AssetOK       AssetStatus = "ok"
	AssetMissing  AssetStatus = "missing"
	AssetCorrupt  AssetStatus = "corrupt"
	AssetUnknown  AssetStatus = "unknown"
	AssetFailed   AssetStatus = "failed"
)

// Run-level statuses written into run.status.
const (
	RunStarted            = "STARTED"
	RunFinished           = "FINISHED"
	RunFailed             = "FAILED"
	RunFinishedWithIssues = "FINISHED_WITH_ISSUES"
	RunFinishedUnverified = "FINISHED_WITH_UNVERIFIED_OUTPUTS"
)

// Asset roles.
const (
	RoleInput  = "input"
	RoleOutput = "output"
)

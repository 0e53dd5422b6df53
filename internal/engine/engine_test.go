package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
	"github.com/sourceplane/runcontract/internal/jobspec"
	"github.com/sourceplane/runcontract/internal/storage"
)

func newTestEngine(store storage.ObjectStore) *Engine {
	e := New(store)
	e.Clock = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return e
}

func boolPtr(v bool) *bool { return &v }

// initContract materializes a fresh contract with one task owning the
// given asset definitions and returns its file path.
func initContract(t *testing.T, e *Engine, outputs, inputs []jobspec.AssetDef) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, contract.FileName)

	_, err := e.Init(InitParams{
		JobID:        "etl",
		RunID:        "r1",
		RunDir:       dir,
		ContractFile: path,
		Job: &jobspec.JobDef{
			Tasks: []jobspec.TaskDef{{
				TaskID:         "etl/main",
				ExpectedAssets: outputs,
				ExpectedInputs: inputs,
			}},
		},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return path
}

func TestInitMaterializesContract(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", URI: "s3://lake/out.json"}},
		[]jobspec.AssetDef{{AssetID: "etl/main/in", LocalPath: "/data/in.csv"}},
	)

	c, err := contractio.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Run.Status != contract.RunStarted || c.Run.JobID != "etl" {
		t.Errorf("run = %+v", c.Run)
	}
	if c.Run.StartedAt != "2026-03-14T09:26:53Z" {
		t.Errorf("started_at = %q", c.Run.StartedAt)
	}
	task := c.FindTask("etl/main")
	if task == nil || task.Status != contract.TaskExpected {
		t.Fatalf("task = %+v", task)
	}
	if len(task.AssetIDs) != 2 {
		t.Errorf("asset_ids = %v", task.AssetIDs)
	}
	for _, a := range c.Assets {
		if !a.Expected || a.Produced || a.Status != contract.AssetExpected {
			t.Errorf("asset %s = %+v", a.AssetID, a)
		}
	}
}

func TestRecordProducedUpserts(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e, nil, nil)

	_, first, err := e.RecordProduced(path, RecordParams{
		TaskID: "etl/main", URI: "s3://lake/out.json", Kind: "data",
	})
	if err != nil {
		t.Fatalf("RecordProduced: %v", err)
	}
	if !first.Produced || first.Status != contract.AssetProduced {
		t.Errorf("asset = %+v", first)
	}

	// Same location derives the same id: a second report must not
	// duplicate the asset.
	c, second, err := e.RecordProduced(path, RecordParams{
		TaskID: "etl/main", URI: "s3://lake/out.json",
		Extra: map[string]any{"rows": 10},
	})
	if err != nil {
		t.Fatalf("RecordProduced: %v", err)
	}
	if second.AssetID != first.AssetID {
		t.Errorf("ids differ: %q vs %q", first.AssetID, second.AssetID)
	}
	if len(c.Assets) != 1 {
		t.Errorf("assets = %d", len(c.Assets))
	}
	if second.Extra["rows"] != float64(10) && second.Extra["rows"] != 10 {
		t.Errorf("extra = %v", second.Extra)
	}

	// Reporting against an undeclared task creates it running.
	c, _, err = e.RecordProduced(path, RecordParams{TaskID: "etl/late", LocalPath: "/tmp/x"})
	if err != nil {
		t.Fatalf("RecordProduced: %v", err)
	}
	if task := c.FindTask("etl/late"); task == nil || task.Status != contract.TaskRunning {
		t.Errorf("late task = %+v", task)
	}
}

func TestMarkTaskFailedCascades(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", URI: "s3://lake/out.json"}}, nil)

	errRecord := map[string]any{"type": "RuntimeError", "message": "boom"}
	c, err := e.MarkTask(path, "etl/main", contract.TaskFailed, errRecord)
	if err != nil {
		t.Fatalf("MarkTask: %v", err)
	}

	task := c.FindTask("etl/main")
	if task.Status != contract.TaskFailed || task.FinishedAt == "" {
		t.Errorf("task = %+v", task)
	}
	asset := c.FindAsset("etl/main/out")
	if asset.Status != contract.AssetFailed || asset.Error["message"] != "boom" {
		t.Errorf("asset = %+v", asset)
	}
}

func TestMarkTaskErrorRecordWithoutCascade(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", URI: "s3://lake/out.json"}}, nil)

	// Non-failed statuses keep the record on the task only. A partial
	// success can carry diagnostics without condemning the outputs.
	errRecord := map[string]any{"type": "RetryExhausted", "message": "2 of 3 shards"}
	c, err := e.MarkTask(path, "etl/main", contract.TaskSucceeded, errRecord)
	if err != nil {
		t.Fatalf("MarkTask: %v", err)
	}

	task := c.FindTask("etl/main")
	if task.Status != contract.TaskSucceeded || task.Error["message"] != "2 of 3 shards" {
		t.Errorf("task = %+v", task)
	}
	if asset := c.FindAsset("etl/main/out"); asset.Status == contract.AssetFailed || asset.Error != nil {
		t.Errorf("asset = %+v", asset)
	}
}

func TestPreflightInputs(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.csv")
	if err := os.WriteFile(present, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(nil)
	path := initContract(t, e, nil, []jobspec.AssetDef{
		{AssetID: "etl/main/a", LocalPath: present},
		{AssetID: "etl/main/b", LocalPath: filepath.Join(dir, "absent.csv")},
		{AssetID: "etl/main/c", LocalPath: filepath.Join(dir, "opt.csv"), Required: boolPtr(false)},
		{AssetID: "etl/main/d", URI: "s3://lake/in.json"},
	})

	c, err := e.Preflight(context.Background(), path)
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}

	p := c.Preflight
	if p.TotalInputs != 4 || p.OK != 1 {
		t.Errorf("report = %+v", p)
	}
	if len(p.MissingRequired) != 1 || p.MissingRequired[0] != "etl/main/b" {
		t.Errorf("missing_required = %v", p.MissingRequired)
	}
	if len(p.MissingOptional) != 1 || p.MissingOptional[0] != "etl/main/c" {
		t.Errorf("missing_optional = %v", p.MissingOptional)
	}
	// Object-backed input without a backend stays unknown, not missing.
	if a := c.FindAsset("etl/main/d"); a.Status != contract.AssetUnknown {
		t.Errorf("object input status = %q", a.Status)
	}
}

func TestFinalizeUnverifiedWithoutBackend(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e, []jobspec.AssetDef{
		{AssetID: "etl/main/out", URI: "s3://lake/out.json"},
		{AssetID: "etl/main/aux", URI: "s3://lake/aux.json", Required: boolPtr(false)},
	}, nil)

	c, err := contractio.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range c.Assets {
		if a.Status != contract.AssetExpected {
			t.Errorf("declared asset %s starts %q", a.AssetID, a.Status)
		}
	}

	_, produced, err := e.RecordProduced(path, RecordParams{
		TaskID: "etl/main", AssetID: "etl/main/out", URI: "s3://lake/out.json",
	})
	if err != nil {
		t.Fatal(err)
	}
	if produced.Status != contract.AssetProduced {
		t.Errorf("recorded asset status = %q", produced.Status)
	}
	if _, err := e.MarkTask(path, "etl/main", contract.TaskSucceeded, nil); err != nil {
		t.Fatal(err)
	}

	c, _, err = e.Finalize(context.Background(), FinalizeParams{ContractFile: path, AuditCorruption: true})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if c.Run.Status != contract.RunFinishedUnverified {
		t.Errorf("run status = %q", c.Run.Status)
	}
	if task := c.FindTask("etl/main"); task.Status != contract.TaskSucceededUnverifiedOutputs {
		t.Errorf("task status = %q", task.Status)
	}
	for _, id := range []string{"etl/main/out", "etl/main/aux"} {
		asset := c.FindAsset(id)
		if asset.Status != contract.AssetUnknown || asset.Exists != nil {
			t.Errorf("asset %s = %+v", id, asset)
		}
	}
	// Only the required asset lands in the unverified list.
	if got := c.Verification.UnverifiedRequiredAssetIDs; len(got) != 1 || got[0] != "etl/main/out" {
		t.Errorf("unverified_required = %v", got)
	}
}

func TestFinalizeMissingRequiredOutput(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", LocalPath: filepath.Join(dir, "never-written.json")}}, nil)

	if _, err := e.MarkTask(path, "etl/main", contract.TaskSucceeded, nil); err != nil {
		t.Fatal(err)
	}

	c, _, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if c.Run.Status != contract.RunFinishedWithIssues {
		t.Errorf("run status = %q", c.Run.Status)
	}
	if task := c.FindTask("etl/main"); task.Status != contract.TaskSucceededMissingOutputs {
		t.Errorf("task status = %q", task.Status)
	}
	if got := c.Verification.MissingRequiredAssetIDs; len(got) != 1 || got[0] != "etl/main/out" {
		t.Errorf("missing_required = %v", got)
	}
	if !c.Verification.HasRequiredIssues() {
		t.Error("HasRequiredIssues should be true")
	}
}

func TestFinalizeFailedDominatesExistence(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutObject("s3://lake/out.json", []byte("{}"))

	e := newTestEngine(store)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", URI: "s3://lake/out.json"}}, nil)

	if _, err := e.MarkTask(path, "etl/main", contract.TaskFailed, map[string]any{"type": "Boom"}); err != nil {
		t.Fatal(err)
	}

	c, _, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// The object exists, but the recorded failure must stand.
	asset := c.FindAsset("etl/main/out")
	if asset.Exists == nil || !*asset.Exists {
		t.Errorf("exists = %v", asset.Exists)
	}
	if asset.Status != contract.AssetFailed {
		t.Errorf("asset status = %q", asset.Status)
	}
	if c.Run.Status != contract.RunFailed {
		t.Errorf("run status = %q", c.Run.Status)
	}
	// Failed required assets are reported alongside missing ones.
	if got := c.Verification.MissingRequiredAssetIDs; len(got) != 1 || got[0] != "etl/main/out" {
		t.Errorf("missing_required = %v", got)
	}
}

func TestFinalizeCorruptMetadata(t *testing.T) {
	dir := t.TempDir()
	meta := filepath.Join(dir, "_metadata.json")
	if err := os.WriteFile(meta, []byte(`{"success": false}`), 0644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/meta", Kind: "metadata", LocalPath: meta}}, nil)

	if _, err := e.MarkTask(path, "etl/main", contract.TaskSucceeded, nil); err != nil {
		t.Fatal(err)
	}

	c, _, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path, AuditCorruption: true})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	asset := c.FindAsset("etl/main/meta")
	if asset.Corrupt == nil || !*asset.Corrupt {
		t.Errorf("corrupt = %v", asset.Corrupt)
	}
	if asset.Status != contract.AssetCorrupt {
		t.Errorf("asset status = %q", asset.Status)
	}
	if task := c.FindTask("etl/main"); task.Status != contract.TaskSucceededCorruptOutputs {
		t.Errorf("task status = %q", task.Status)
	}
	if c.Run.Status != contract.RunFinishedWithIssues {
		t.Errorf("run status = %q", c.Run.Status)
	}

	// With auditing disabled the same document finalizes clean.
	c, _, err = e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatal(err)
	}
	if a := c.FindAsset("etl/main/meta"); a.Corrupt != nil {
		t.Errorf("audit disabled but corrupt = %v", *a.Corrupt)
	}
}

func TestFinalizeDiscoversUnexpectedOutputs(t *testing.T) {
	dir := t.TempDir()
	declared := filepath.Join(dir, "declared.json")
	stray := filepath.Join(dir, "stray.json")
	for _, p := range []string{declared, stray} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	e := newTestEngine(nil)
	path := initContract(t, e,
		[]jobspec.AssetDef{{AssetID: "etl/main/out", LocalPath: declared}}, nil)

	c, _, err := e.Finalize(context.Background(), FinalizeParams{
		ContractFile:  path,
		ScanLocalDirs: []string{dir},
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if c.Verification.UnexpectedOutputsCount != 1 {
		t.Fatalf("unexpected = %v", c.Verification.UnexpectedOutputs)
	}
	if c.Verification.UnexpectedOutputs[0] != stray {
		t.Errorf("unexpected = %v", c.Verification.UnexpectedOutputs)
	}
}

func TestFinalizeStatusOverride(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e, nil, nil)

	c, _, err := e.Finalize(context.Background(), FinalizeParams{
		ContractFile:   path,
		StatusOverride: contract.RunFailed,
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if c.Run.Status != contract.RunFailed {
		t.Errorf("run status = %q", c.Run.Status)
	}
	if c.Run.CompletedAt != "2026-03-14T09:26:53Z" {
		t.Errorf("completed_at = %q", c.Run.CompletedAt)
	}
}

func TestFinalizeTaskWithoutRequiredAssets(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e, nil, nil)

	c, _, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	// A task that never reported and owns nothing rolls up to succeeded.
	if task := c.FindTask("etl/main"); task.Status != contract.TaskSucceeded {
		t.Errorf("task status = %q", task.Status)
	}
	if c.Run.Status != contract.RunFinished {
		t.Errorf("run status = %q", c.Run.Status)
	}
}

func TestFinalizePublishesPerFolder(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutObject("s3://lake/a/one.json", []byte("1"))
	store.PutObject("s3://lake/b/two.json", []byte("2"))

	e := newTestEngine(store)
	path := initContract(t, e, []jobspec.AssetDef{
		{AssetID: "etl/main/one", URI: "s3://lake/a/one.json"},
		{AssetID: "etl/main/two", URI: "s3://lake/b/two.json"},
	}, nil)

	if _, err := e.MarkTask(path, "etl/main", contract.TaskSucceeded, nil); err != nil {
		t.Fatal(err)
	}

	c, outcomes, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %+v", outcomes)
	}
	for _, o := range outcomes {
		if !o.Success {
			t.Errorf("publish failed: %+v", o)
		}
		exists, _ := store.Stat(context.Background(), o.Destination)
		if !exists {
			t.Errorf("destination not written: %s", o.Destination)
		}
	}
	if len(c.Verification.FolderUploads) != 2 {
		t.Errorf("folder_uploads = %+v", c.Verification.FolderUploads)
	}
	if c.Run.Status != contract.RunFinished {
		t.Errorf("run status = %q", c.Run.Status)
	}
}

func TestFinalizeRepairsOrphanAssets(t *testing.T) {
	e := newTestEngine(nil)
	path := initContract(t, e, nil, nil)

	c, err := contractio.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	c.Assets = append(c.Assets, &contract.Asset{
		AssetID: "stray/out", Required: false, Produced: true, Status: contract.AssetProduced,
	})
	if err := contractio.Save(c); err != nil {
		t.Fatal(err)
	}

	got, _, err := e.Finalize(context.Background(), FinalizeParams{ContractFile: path})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	task := got.FindTask("unassigned")
	if task == nil {
		t.Fatal("orphan asset did not get a placeholder task")
	}
	if len(task.AssetIDs) != 1 || task.AssetIDs[0] != "stray/out" {
		t.Errorf("asset_ids = %v", task.AssetIDs)
	}
}

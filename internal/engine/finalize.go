package engine

import (
	"context"
	"sort"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
	"github.com/sourceplane/runcontract/internal/publish"
	"github.com/sourceplane/runcontract/internal/storage"
	"github.com/sourceplane/runcontract/internal/verify"
)

// FinalizeParams selects what the finalize pass verifies and where it
// publishes.
type FinalizeParams struct {
	ContractFile string

	// StatusOverride replaces the computed run status when set.
	StatusOverride string
	// OutputLocation replaces run.output_location when set.
	OutputLocation string

	AuditCorruption bool

	ScanLocalDirs      []string
	ScanObjectPrefixes []string

	// VerificationExtra is merged into the report's extra section.
	VerificationExtra map[string]any

	// Scope is publish.ScopeFolder (default) or publish.ScopeRun.
	Scope string
}

// Finalize verifies every asset against ground truth, recomputes all
// statuses and rollups, writes the verification report, and fans the
// document out to its destinations. Ground-truth uncertainty never fails
// the operation; it is recorded as the unknown tri-state.
func (e *Engine) Finalize(ctx context.Context, p FinalizeParams) (*contract.Contract, []contract.PublishOutcome, error) {
	c, err := contractio.Load(p.ContractFile)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	e.repairReferences(c, now)

	var (
		knownExisting   = map[string]struct{}{}
		missingRequired []string
		corruptRequired []string
		unknownRequired []string
	)

	for _, asset := range c.Assets {
		ex := e.Checker.Resolve(ctx, asset)
		asset.Exists = ex.Exists
		asset.ExistsReason = ex.Reason
		asset.SetMatched(ex.Matched)

		// Corruption is re-audited from scratch each pass; stale verdicts
		// must not survive a re-run.
		asset.Corrupt = nil
		asset.CorruptReason = ""
		if p.AuditCorruption && asset.Kind == "metadata" && ex.Exists != nil && *ex.Exists {
			asset.Corrupt, asset.CorruptReason = e.Checker.AuditCorruption(ctx, asset)
		}

		asset.Status = asset.ResolveStatus()

		if ex.Exists != nil && *ex.Exists {
			if asset.LocalPath != "" {
				knownExisting[storage.CanonicalLocalPath(asset.LocalPath)] = struct{}{}
			}
			if asset.URI != "" && storage.IsObjectURI(asset.URI) {
				knownExisting[storage.CanonicalURI(asset.URI)] = struct{}{}
			}
			for _, loc := range ex.Matched {
				knownExisting[loc] = struct{}{}
			}
		}

		if asset.Required {
			switch asset.Status {
			case contract.AssetMissing, contract.AssetFailed:
				missingRequired = append(missingRequired, asset.AssetID)
			case contract.AssetCorrupt:
				corruptRequired = append(corruptRequired, asset.AssetID)
			case contract.AssetUnknown:
				unknownRequired = append(unknownRequired, asset.AssetID)
			}
		}
	}

	unexpected := diffDiscovered(
		append(verify.ScanLocalFiles(p.ScanLocalDirs),
			e.Checker.ScanObjectPrefixes(ctx, p.ScanObjectPrefixes)...),
		knownExisting,
	)

	assets := c.AssetIndex()
	taskCounts := map[contract.TaskStatus]int{}
	for _, task := range c.Tasks {
		task.Status = rollupTask(task, assets)
		if task.FinishedAt == "" {
			task.FinishedAt = now
		}
		taskCounts[task.Status]++
	}

	verification := e.buildVerification(c, now, taskCounts, missingRequired, corruptRequired, unknownRequired, unexpected)
	verification.Extra = p.VerificationExtra
	c.Verification = verification

	status := p.StatusOverride
	if status == "" {
		status = rollupRun(taskCounts, missingRequired, corruptRequired, unknownRequired)
	}
	c.Run.Status = status
	c.Run.CompletedAt = now
	if p.OutputLocation != "" {
		c.Run.OutputLocation = p.OutputLocation
	}

	if err := contractio.Save(c); err != nil {
		return nil, nil, err
	}

	scope := p.Scope
	if scope == "" {
		scope = publish.ScopeFolder
	}
	publisher := &publish.Publisher{Store: e.Store}
	outcomes := publisher.Publish(ctx, c, scope, c.Run.OutputLocation)
	if len(outcomes) > 0 {
		c.Verification.FolderUploads = outcomes
		if err := contractio.Save(c); err != nil {
			return nil, nil, err
		}
	}

	return c, outcomes, nil
}

// repairReferences restores the invariant that every asset's task exists
// and lists the asset. Orphans get a synthesized placeholder task instead
// of failing: partial or out-of-order updates are tolerated by design.
func (e *Engine) repairReferences(c *contract.Contract, now string) {
	for _, task := range c.Tasks {
		if task.AssetIDs == nil {
			task.AssetIDs = []string{}
		}
	}
	for _, asset := range c.Assets {
		if asset.TaskID == "" {
			asset.TaskID = "unassigned"
		}
		task := c.EnsureTask(asset.TaskID, now)
		task.AttachAsset(asset.AssetID)
	}
}

func (e *Engine) buildVerification(c *contract.Contract, now string, taskCounts map[contract.TaskStatus]int,
	missingRequired, corruptRequired, unknownRequired, unexpected []string) *contract.Verification {

	v := &contract.Verification{
		FinishedAt:                 now,
		AssetStatusCounts:          map[contract.AssetStatus]int{},
		InputAssetStatusCounts:     map[contract.AssetStatus]int{},
		OutputAssetStatusCounts:    map[contract.AssetStatus]int{},
		TaskStatusCounts:           taskCounts,
		MissingRequiredAssetIDs:    sortedUnique(missingRequired),
		MissingRequiredInputIDs:    []string{},
		CorruptRequiredAssetIDs:    sortedUnique(corruptRequired),
		UnverifiedRequiredAssetIDs: sortedUnique(unknownRequired),
		UnexpectedOutputs:          unexpected,
		UnexpectedOutputsCount:     len(unexpected),
	}

	for _, asset := range c.Assets {
		if asset.Expected {
			v.ExpectedAssetsCount++
		}
		if asset.Produced {
			v.ProducedAssetsCount++
		}
		if asset.Required {
			v.RequiredAssetsCount++
		}
		v.AssetStatusCounts[asset.Status]++
		if asset.Role == contract.RoleInput {
			v.InputAssetStatusCounts[asset.Status]++
			if asset.Required && (asset.Status == contract.AssetMissing || asset.Status == contract.AssetFailed) {
				v.MissingRequiredInputIDs = append(v.MissingRequiredInputIDs, asset.AssetID)
			}
		} else {
			v.OutputAssetStatusCounts[asset.Status]++
		}
	}
	v.MissingRequiredInputIDs = sortedUnique(v.MissingRequiredInputIDs)
	return v
}

func diffDiscovered(discovered []string, known map[string]struct{}) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, loc := range discovered {
		if _, ok := known[loc]; ok {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

func sortedUnique(values []string) []string {
	if values == nil {
		return []string{}
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

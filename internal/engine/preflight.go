package engine

import (
	"context"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
)

// Preflight resolves existence for every input asset and records the
// outcome before any work runs. Input statuses map directly from the
// tri-state: confirmed present is ok, confirmed absent is missing, and an
// undeterminable backend answer stays unknown rather than blocking.
func (e *Engine) Preflight(ctx context.Context, contractFile string) (*contract.Contract, error) {
	c, err := contractio.Load(contractFile)
	if err != nil {
		return nil, err
	}

	report := &contract.Preflight{
		CheckedAt:       e.now(),
		MissingRequired: []string{},
		MissingOptional: []string{},
	}

	for _, asset := range c.Assets {
		if asset.Role != contract.RoleInput {
			continue
		}
		report.TotalInputs++

		ex := e.Checker.Resolve(ctx, asset)
		asset.Exists = ex.Exists
		asset.ExistsReason = ex.Reason
		asset.SetMatched(ex.Matched)

		switch {
		case ex.Exists != nil && *ex.Exists:
			asset.Status = contract.AssetOK
			report.OK++
		case ex.Exists != nil:
			asset.Status = contract.AssetMissing
			if asset.Required {
				report.MissingRequired = append(report.MissingRequired, asset.AssetID)
			} else {
				report.MissingOptional = append(report.MissingOptional, asset.AssetID)
			}
		default:
			asset.Status = contract.AssetUnknown
		}
	}

	report.MissingRequiredCount = len(report.MissingRequired)
	report.MissingOptionalCount = len(report.MissingOptional)
	c.Preflight = report

	if err := contractio.Save(c); err != nil {
		return nil, err
	}
	return c, nil
}

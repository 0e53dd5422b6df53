package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
	"github.com/sourceplane/runcontract/internal/storage"
)

// Scope selects how finalize fans the contract out.
const (
	ScopeFolder = "folder"
	ScopeRun    = "run"
)

// Publisher uploads serialized contracts to their destinations. A nil
// Store records every attempt as a failed outcome instead of erroring.
type Publisher struct {
	Store storage.ObjectStore
}

// Publish fans the contract out per the requested scope. With ScopeFolder
// each folder group gets its own filtered sub-contract; folder destinations
// come from the assets themselves, so fan-out happens whether or not a
// run-level output root is declared. When no asset has an object-storage
// destination (or with ScopeRun) exactly one whole contract goes to the
// output location instead; a non-object output location publishes nothing.
//
// Failures for one destination never block the others; every attempt is
// returned as an outcome.
func (p *Publisher) Publish(ctx context.Context, c *contract.Contract, scope, outputLocation string) []contract.PublishOutcome {
	if scope == ScopeFolder {
		groups := GroupByFolder(c.Assets)
		if len(groups) > 0 {
			return p.publishFolders(ctx, c, groups)
		}
	}
	if !storage.IsObjectURI(outputLocation) {
		return nil
	}
	return []contract.PublishOutcome{p.publishWhole(ctx, c, outputLocation)}
}

func (p *Publisher) publishFolders(ctx context.Context, c *contract.Contract, groups map[string][]*contract.Asset) []contract.PublishOutcome {
	outcomes := make([]contract.PublishOutcome, 0, len(groups))
	for _, folder := range SortedFolders(groups) {
		assets := groups[folder]
		dest := storage.CanonicalURI(folder) + "/" + contract.FileName
		outcome := contract.PublishOutcome{
			FolderURI:   folder,
			Destination: dest,
			AssetCount:  len(assets),
		}
		if err := p.upload(ctx, FolderContract(c, folder, assets), dest); err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Success = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (p *Publisher) publishWhole(ctx context.Context, c *contract.Contract, outputLocation string) contract.PublishOutcome {
	dest := storage.CanonicalURI(outputLocation) + "/" + contract.FileName
	outcome := contract.PublishOutcome{
		FolderURI:   storage.CanonicalURI(outputLocation),
		Destination: dest,
		AssetCount:  len(c.Assets),
	}
	if err := p.upload(ctx, c, dest); err != nil {
		outcome.Error = err.Error()
	} else {
		outcome.Success = true
	}
	return outcome
}

// upload serializes the contract to a temporary file and hands it to the
// storage write capability.
func (p *Publisher) upload(ctx context.Context, c *contract.Contract, dest string) error {
	if p.Store == nil {
		return storage.ErrUnavailable
	}

	dir, err := os.MkdirTemp("", "run_contract_publish_")
	if err != nil {
		return fmt.Errorf("failed to stage contract: %w", err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, contract.FileName)
	if err := contractio.WriteJSON(local, c); err != nil {
		return err
	}
	return p.Store.Write(ctx, local, dest)
}

package engine

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/contractio"
)

// RecordParams identifies the produced asset being reported. An empty
// AssetID derives a deterministic id from the declared location so repeated
// reports of the same artifact upsert instead of duplicating.
type RecordParams struct {
	TaskID  string
	AssetID string
	Kind    string

	Required *bool

	URI        string
	LocalPath  string
	LocalGlob  string
	ObjectGlob string

	Extra map[string]any
}

// RecordProduced upserts the reporting task and the produced asset. A task
// unseen by the original specification is created on the fly; an asset
// created here starts with expected=false, produced=true.
func (e *Engine) RecordProduced(contractFile string, p RecordParams) (*contract.Contract, *contract.Asset, error) {
	if p.TaskID == "" {
		return nil, nil, fmt.Errorf("task id is required")
	}

	c, err := contractio.Load(contractFile)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	task := c.EnsureTask(p.TaskID, now)
	if task.StartedAt == "" {
		task.StartedAt = now
	}
	if task.Status == "" || task.Status == contract.TaskExpected {
		task.Status = contract.TaskRunning
	}

	assetID := p.AssetID
	if assetID == "" {
		seed := firstNonEmpty(p.URI, p.LocalPath, p.LocalGlob, p.ObjectGlob, p.TaskID+":"+now)
		sum := sha1.Sum([]byte(seed))
		assetID = fmt.Sprintf("%s/produced/%s", p.TaskID, hex.EncodeToString(sum[:])[:12])
	}

	asset := c.EnsureAsset(assetID, p.TaskID, now)
	asset.TaskID = p.TaskID
	if p.Kind != "" {
		asset.Kind = p.Kind
	}
	if p.Required != nil {
		asset.Required = *p.Required
	}
	if p.URI != "" {
		asset.URI = p.URI
	}
	if p.LocalPath != "" {
		asset.LocalPath = p.LocalPath
	}
	if p.LocalGlob != "" {
		asset.LocalGlob = p.LocalGlob
	}
	if p.ObjectGlob != "" {
		asset.ObjectGlob = p.ObjectGlob
	}
	asset.Produced = true
	asset.Status = contract.AssetProduced

	if len(p.Extra) > 0 {
		if asset.Extra == nil {
			asset.Extra = map[string]any{}
		}
		for k, v := range p.Extra {
			asset.Extra[k] = v
		}
	}

	task.AttachAsset(assetID)

	if err := contractio.Save(c); err != nil {
		return nil, nil, err
	}
	return c, asset, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

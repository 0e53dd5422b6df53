package verify

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/storage"
)

// MaxAuditBytes bounds how much metadata content the auditor will read.
const MaxAuditBytes = 2 << 20

// Corruption reason codes.
const (
	ReasonMetadataCorrupt = "metadata.corrupt"
	ReasonMetadataSuccess = "metadata.success"
)

// AuditCorruption inspects a metadata asset's content for embedded
// success/corruption markers: an explicit boolean "corrupt" field is a
// direct signal; otherwise an explicit boolean "success" field inverted.
// Auditing is best-effort: any read or parse failure yields the unknown
// tri-state, never an error, so it cannot abort finalize. Callers guard on
// kind and confirmed existence.
func (c *Checker) AuditCorruption(ctx context.Context, a *contract.Asset) (corrupt *bool, reason string) {
	doc := c.readMetadata(ctx, a)
	if doc == nil {
		return nil, ""
	}
	if v, ok := doc["corrupt"].(bool); ok {
		return boolPtr(v), ReasonMetadataCorrupt
	}
	if v, ok := doc["success"].(bool); ok {
		return boolPtr(!v), ReasonMetadataSuccess
	}
	return nil, ""
}

func (c *Checker) readMetadata(ctx context.Context, a *contract.Asset) map[string]any {
	var data []byte

	switch {
	case a.LocalPath != "":
		path := storage.CanonicalLocalPath(a.LocalPath)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() > MaxAuditBytes {
			return nil
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil
		}
	case a.URI != "" && storage.IsObjectURI(a.URI):
		if c.Store == nil {
			return nil
		}
		var err error
		data, err = c.Store.Read(ctx, storage.CanonicalURI(a.URI), MaxAuditBytes)
		if err != nil {
			return nil
		}
	default:
		return nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc
}

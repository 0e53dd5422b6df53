package contract

import "encoding/json"

// MaxMatchedLocations bounds stored glob expansions.
const MaxMatchedLocations = 200

// Asset is one tracked data artifact, input or output. Exactly one of the
// four location fields is meaningful; when several are set the checker uses
// the first in field order. Assets are never deleted: absence of ground
// truth is recorded as a status, not removal.
type Asset struct {
	AssetID          string         `json:"asset_id"`
	TaskID           string         `json:"task_id"`
	Role             string         `json:"role"`
	Kind             string         `json:"kind"`
	Required         bool           `json:"required"`
	URI              string         `json:"uri,omitempty"`
	LocalPath        string         `json:"local_path,omitempty"`
	LocalGlob        string         `json:"local_glob,omitempty"`
	ObjectGlob       string         `json:"object_glob,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
	Expected         bool           `json:"expected"`
	Produced         bool           `json:"produced"`
	Status           AssetStatus    `json:"status"`
	CreatedAt        string         `json:"created_at"`
	Exists           *bool          `json:"exists"`
	ExistsReason     string         `json:"exists_reason,omitempty"`
	Corrupt          *bool          `json:"corrupt"`
	CorruptReason    string         `json:"corrupt_reason,omitempty"`
	MatchedLocations []string       `json:"matched_locations,omitempty"`
	Error            map[string]any `json:"error,omitempty"`
}

// assetAlias avoids recursing into Asset.UnmarshalJSON.
type assetAlias Asset

type assetWire struct {
	assetAlias
	RequiredRaw *bool   `json:"required"`
	RoleRaw     *string `json:"role"`
}

// UnmarshalJSON applies the documented defaults for absent optional fields:
// role defaults to output, required defaults to true. Older documents wrote
// neither field for implicitly-required outputs.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var w assetWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Asset(w.assetAlias)
	out.Required = true
	if w.RequiredRaw != nil {
		out.Required = *w.RequiredRaw
	}
	out.Role = RoleOutput
	if w.RoleRaw != nil && *w.RoleRaw != "" {
		out.Role = *w.RoleRaw
	}
	*a = out
	return nil
}

// HasLocation reports whether any location descriptor is declared.
func (a *Asset) HasLocation() bool {
	return a.URI != "" || a.LocalPath != "" || a.LocalGlob != "" || a.ObjectGlob != ""
}

// PrimaryLocation returns the declared location used for display, following
// the same precedence the existence checker applies.
func (a *Asset) PrimaryLocation() string {
	switch {
	case a.LocalPath != "":
		return a.LocalPath
	case a.URI != "":
		return a.URI
	case a.LocalGlob != "":
		return a.LocalGlob
	case a.ObjectGlob != "":
		return a.ObjectGlob
	}
	return ""
}

// ResolveStatus computes the asset status from current ground truth. The
// precedence is strict and order-independent: failed dominates missing
// dominates corrupt dominates ok dominates unknown dominates the declared
// produced/expected flags. Task- and run-level rollups depend on this exact
// ordering.
func (a *Asset) ResolveStatus() AssetStatus {
	switch {
	case len(a.Error) > 0:
		return AssetFailed
	case a.Exists != nil && !*a.Exists && a.HasLocation():
		return AssetMissing
	case a.Corrupt != nil && *a.Corrupt:
		return AssetCorrupt
	case a.Exists != nil && *a.Exists:
		return AssetOK
	case a.Exists == nil && a.HasLocation():
		return AssetUnknown
	case a.Produced:
		return AssetProduced
	default:
		return AssetExpected
	}
}

// SetMatched stores glob expansion results, bounded to MaxMatchedLocations.
func (a *Asset) SetMatched(matched []string) {
	if len(matched) > MaxMatchedLocations {
		matched = matched[:MaxMatchedLocations]
	}
	if len(matched) == 0 {
		a.MatchedLocations = nil
		return
	}
	a.MatchedLocations = matched
}

package contract

import (
	"encoding/json"
	"testing"
)

func boolPtr(v bool) *bool { return &v }

func TestResolveStatusPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		asset Asset
		want  AssetStatus
	}{
		{
			name:  "error dominates everything",
			asset: Asset{LocalPath: "/x", Exists: boolPtr(true), Corrupt: boolPtr(true), Error: map[string]any{"type": "Boom"}},
			want:  AssetFailed,
		},
		{
			name:  "missing dominates corrupt",
			asset: Asset{LocalPath: "/x", Exists: boolPtr(false), Corrupt: boolPtr(true)},
			want:  AssetMissing,
		},
		{
			name:  "corrupt dominates ok",
			asset: Asset{LocalPath: "/x", Exists: boolPtr(true), Corrupt: boolPtr(true)},
			want:  AssetCorrupt,
		},
		{
			name:  "exists and clean is ok",
			asset: Asset{LocalPath: "/x", Exists: boolPtr(true), Corrupt: boolPtr(false)},
			want:  AssetOK,
		},
		{
			name:  "located but unchecked is unknown",
			asset: Asset{URI: "s3://b/k", Exists: nil},
			want:  AssetUnknown,
		},
		{
			name:  "no location falls through to produced",
			asset: Asset{Produced: true},
			want:  AssetProduced,
		},
		{
			name:  "no location and not produced is expected",
			asset: Asset{Expected: true},
			want:  AssetExpected,
		},
		{
			name:  "not-exists without location is not missing",
			asset: Asset{Exists: boolPtr(false), Produced: true},
			want:  AssetProduced,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.asset.ResolveStatus(); got != tc.want {
				t.Errorf("ResolveStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUnmarshalDefaults(t *testing.T) {
	var a Asset
	if err := json.Unmarshal([]byte(`{"asset_id":"t/a"}`), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !a.Required {
		t.Error("required should default to true")
	}
	if a.Role != RoleOutput {
		t.Errorf("role = %q, want %q", a.Role, RoleOutput)
	}

	var b Asset
	if err := json.Unmarshal([]byte(`{"asset_id":"t/b","required":false,"role":"input"}`), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.Required {
		t.Error("explicit required=false should stick")
	}
	if b.Role != RoleInput {
		t.Errorf("role = %q, want %q", b.Role, RoleInput)
	}
}

func TestPrimaryLocationPrecedence(t *testing.T) {
	a := Asset{URI: "s3://b/k", LocalPath: "/data/f", LocalGlob: "/data/*"}
	if got := a.PrimaryLocation(); got != "/data/f" {
		t.Errorf("PrimaryLocation() = %q, want local path", got)
	}
	a.LocalPath = ""
	if got := a.PrimaryLocation(); got != "s3://b/k" {
		t.Errorf("PrimaryLocation() = %q, want uri", got)
	}
}

func TestSetMatchedBounded(t *testing.T) {
	matched := make([]string, MaxMatchedLocations+50)
	for i := range matched {
		matched[i] = "x"
	}
	var a Asset
	a.SetMatched(matched)
	if len(a.MatchedLocations) != MaxMatchedLocations {
		t.Errorf("matched len = %d, want %d", len(a.MatchedLocations), MaxMatchedLocations)
	}
	a.SetMatched(nil)
	if a.MatchedLocations != nil {
		t.Error("empty match should clear the field")
	}
}

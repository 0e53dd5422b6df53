package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/storage"
)

func writeMetadata(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "_metadata.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAuditCorruptionMarkers(t *testing.T) {
	c := &Checker{}
	ctx := context.Background()

	cases := []struct {
		name    string
		content string
		want    *bool
		reason  string
	}{
		{"explicit corrupt", `{"corrupt": true}`, boolPtr(true), ReasonMetadataCorrupt},
		{"explicit clean", `{"corrupt": false}`, boolPtr(false), ReasonMetadataCorrupt},
		{"success inverted", `{"success": true}`, boolPtr(false), ReasonMetadataSuccess},
		{"failure inverted", `{"success": false}`, boolPtr(true), ReasonMetadataSuccess},
		{"corrupt wins over success", `{"corrupt": false, "success": false}`, boolPtr(false), ReasonMetadataCorrupt},
		{"no markers", `{"rows": 100}`, nil, ""},
		{"non-boolean marker ignored", `{"corrupt": "yes"}`, nil, ""},
		{"unparseable", `not json`, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &contract.Asset{Kind: "metadata", LocalPath: writeMetadata(t, tc.content)}
			got, reason := c.AuditCorruption(ctx, a)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("corrupt = %v, want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Errorf("corrupt = %v, want %v", *got, *tc.want)
			}
			if reason != tc.reason {
				t.Errorf("reason = %q, want %q", reason, tc.reason)
			}
		})
	}
}

func TestAuditCorruptionObjectBacked(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutObject("s3://bucket/run/_metadata.json", []byte(`{"success": false}`))

	c := &Checker{Store: store}
	a := &contract.Asset{Kind: "metadata", URI: "s3://bucket/run/_metadata.json"}
	got, reason := c.AuditCorruption(context.Background(), a)
	if got == nil || !*got {
		t.Errorf("corrupt = %v", got)
	}
	if reason != ReasonMetadataSuccess {
		t.Errorf("reason = %q", reason)
	}

	// Without a backend the audit yields unknown, never an error.
	c = &Checker{}
	got, _ = c.AuditCorruption(context.Background(), a)
	if got != nil {
		t.Errorf("corrupt without backend = %v", *got)
	}
}

func TestScanLocalFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{filepath.Join(dir, "a"), filepath.Join(sub, "b")} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files := ScanLocalFiles([]string{dir, filepath.Join(dir, "absent")})
	if len(files) != 2 {
		t.Errorf("files = %v", files)
	}

	// A file root counts as one hit.
	files = ScanLocalFiles([]string{filepath.Join(dir, "a")})
	if len(files) != 1 {
		t.Errorf("file root = %v", files)
	}
}

func TestScanObjectPrefixes(t *testing.T) {
	store := storage.NewMemoryStore()
	store.PutObject("s3://bucket/run/a.json", []byte("a"))
	store.PutObject("s3://bucket/run/b.json", []byte("b"))
	store.PutObject("s3://bucket/other/c.json", []byte("c"))

	c := &Checker{Store: store}
	uris := c.ScanObjectPrefixes(context.Background(), []string{"s3://bucket/run"})
	if len(uris) != 2 {
		t.Errorf("uris = %v", uris)
	}

	// A scanned prefix is a folder: sibling folders sharing the string
	// prefix must not leak into the result.
	store.PutObject("s3://bucket/run-archive/old.json", []byte("z"))
	uris = c.ScanObjectPrefixes(context.Background(), []string{"s3://bucket/run"})
	if len(uris) != 2 {
		t.Errorf("sibling folder leaked: %v", uris)
	}

	uris = c.ScanObjectPrefixes(context.Background(), []string{"s3://bucket/**/[ab].json"})
	if len(uris) != 2 {
		t.Errorf("glob uris = %v", uris)
	}

	if got := (&Checker{}).ScanObjectPrefixes(context.Background(), []string{"s3://bucket/run"}); got != nil {
		t.Errorf("nil store scan = %v", got)
	}
}

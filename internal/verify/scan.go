package verify

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sourceplane/runcontract/internal/storage"
)

// ScanLocalFiles walks the given roots and returns every regular file as a
// canonical absolute path. A root that is itself a file counts as one hit;
// missing roots are skipped.
func ScanLocalFiles(roots []string) []string {
	seen := map[string]struct{}{}
	for _, raw := range roots {
		if raw == "" {
			continue
		}
		root := storage.CanonicalLocalPath(raw)
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			seen[root] = struct{}{}
			continue
		}
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			seen[storage.CanonicalLocalPath(path)] = struct{}{}
			return nil
		})
	}
	return sortedKeys(seen)
}

// ScanObjectPrefixes lists every object under the given prefixes (or glob
// patterns) and returns sorted canonical URIs. Listing failures are skipped:
// discovery is best-effort drift detection, not verification.
func (c *Checker) ScanObjectPrefixes(ctx context.Context, prefixes []string) []string {
	if c.Store == nil || len(prefixes) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	for _, raw := range prefixes {
		if raw == "" {
			continue
		}
		if storage.HasGlobMeta(raw) {
			ex := c.resolveObjectGlob(ctx, raw)
			for _, uri := range ex.Matched {
				seen[uri] = struct{}{}
			}
			continue
		}
		listed, err := c.Store.List(ctx, storage.CanonicalURI(raw)+"/")
		if err != nil {
			continue
		}
		for _, uri := range listed {
			seen[uri] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

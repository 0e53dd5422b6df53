// Package verify resolves the ground truth for contract assets: tri-state
// existence over heterogeneous locations, best-effort corruption auditing
// of metadata assets, and discovery scans for undeclared outputs.
package verify

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/storage"
)

// Existence reason codes.
const (
	ReasonLocalPath          = "local_path"
	ReasonObjectURI          = "object_uri"
	ReasonLocalGlob          = "local_glob"
	ReasonObjectGlob         = "object_glob"
	ReasonNoLocation         = "no_location"
	ReasonBackendUnavailable = "backend_unavailable"
)

// Existence is the outcome of resolving one asset's declared location.
// Exists is tri-state: nil means the ground truth could not be determined,
// which is distinct from a confirmed absence.
type Existence struct {
	Exists  *bool
	Reason  string
	Matched []string
}

// Checker resolves existence and corruption against the filesystem and an
// optional object-storage backend. A nil Store means the backend capability
// is unavailable; object locations then resolve to unknown rather than
// erroring.
type Checker struct {
	Store storage.ObjectStore
}

// Resolve determines whether the asset's declared location exists. Location
// precedence when several are stored: local path, object URI, local glob,
// object glob.
func (c *Checker) Resolve(ctx context.Context, a *contract.Asset) Existence {
	switch {
	case a.LocalPath != "":
		return resolveLocalPath(a.LocalPath)
	case a.URI != "" && storage.IsObjectURI(a.URI):
		return c.resolveObjectURI(ctx, a.URI)
	case a.LocalGlob != "":
		return resolveLocalGlob(a.LocalGlob)
	case a.ObjectGlob != "":
		return c.resolveObjectGlob(ctx, a.ObjectGlob)
	}
	return Existence{Reason: ReasonNoLocation}
}

func resolveLocalPath(path string) Existence {
	resolved := storage.CanonicalLocalPath(path)
	if _, err := os.Stat(resolved); err == nil {
		return Existence{Exists: boolPtr(true), Reason: ReasonLocalPath, Matched: []string{resolved}}
	}
	return Existence{Exists: boolPtr(false), Reason: ReasonLocalPath}
}

func (c *Checker) resolveObjectURI(ctx context.Context, uri string) Existence {
	if c.Store == nil {
		return Existence{Reason: ReasonBackendUnavailable}
	}
	canonical := storage.CanonicalURI(uri)
	exists, err := c.Store.Stat(ctx, canonical)
	if err != nil {
		return Existence{Reason: ReasonBackendUnavailable}
	}
	ex := Existence{Exists: boolPtr(exists), Reason: ReasonObjectURI}
	if exists {
		ex.Matched = []string{canonical}
	}
	return ex
}

func resolveLocalGlob(pattern string) Existence {
	// Anchor the pattern at the canonical form of its glob-free prefix so
	// matching and reporting both use absolute paths.
	prefix := storage.LiteralPrefix(pattern)
	suffix := pattern[len(prefix):]
	anchored := storage.CanonicalLocalPath(prefix)
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		anchored += "/"
	}

	match, err := storage.GlobMatcher(anchored + suffix)
	if err != nil {
		return Existence{Exists: boolPtr(false), Reason: ReasonLocalGlob}
	}

	root := anchored
	if !strings.HasSuffix(anchored, "/") {
		root = filepath.Dir(anchored)
	}

	seen := map[string]struct{}{}
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		resolved := storage.CanonicalLocalPath(path)
		if match(resolved) {
			seen[resolved] = struct{}{}
		}
		return nil
	})

	matched := make([]string, 0, len(seen))
	for p := range seen {
		matched = append(matched, p)
	}
	sort.Strings(matched)
	return Existence{Exists: boolPtr(len(matched) > 0), Reason: ReasonLocalGlob, Matched: matched}
}

// resolveObjectGlob lists under the glob's literal prefix and filters by
// pattern. An empty result is a confirmed absence; a hard listing failure
// is recorded as unknown with the backend error embedded in the reason.
func (c *Checker) resolveObjectGlob(ctx context.Context, pattern string) Existence {
	if c.Store == nil {
		return Existence{Reason: ReasonBackendUnavailable}
	}
	prefix := storage.LiteralPrefix(pattern)
	suffix := pattern[len(prefix):]
	anchored := storage.CanonicalURI(prefix)
	if strings.HasSuffix(prefix, "/") {
		anchored += "/"
	}

	match, err := storage.GlobMatcher(anchored + suffix)
	if err != nil {
		return Existence{Exists: boolPtr(false), Reason: ReasonObjectGlob}
	}

	listed, err := c.Store.List(ctx, anchored)
	if err != nil {
		return Existence{Reason: listFailureReason(err)}
	}

	var matched []string
	for _, uri := range listed {
		if match(uri) {
			matched = append(matched, uri)
		}
	}
	sort.Strings(matched)
	return Existence{Exists: boolPtr(len(matched) > 0), Reason: ReasonObjectGlob, Matched: matched}
}

func listFailureReason(err error) string {
	if err == storage.ErrUnavailable {
		return ReasonBackendUnavailable
	}
	detail := strings.ReplaceAll(err.Error(), "\n", " ")
	return fmt.Sprintf("object_list_failed:%s", detail)
}

func boolPtr(v bool) *bool { return &v }

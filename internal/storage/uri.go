package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Object URI schemes the resolver understands. The minio backend is
// scheme-agnostic; the scheme is preserved through canonicalization so
// documents keep their declared form.
var objectSchemes = []string{"s3://", "gs://"}

// IsObjectURI reports whether the string names an object-storage location.
func IsObjectURI(s string) bool {
	_, ok := schemeOf(s)
	return ok
}

func schemeOf(s string) (string, bool) {
	for _, scheme := range objectSchemes {
		if strings.HasPrefix(s, scheme) {
			return scheme, true
		}
	}
	return "", false
}

// CanonicalURI collapses redundant path separators and strips trailing
// separators from an object URI. Equality and deduplication must use the
// canonical form.
func CanonicalURI(uri string) string {
	scheme, ok := schemeOf(strings.TrimSpace(uri))
	if !ok {
		return strings.TrimSpace(uri)
	}
	rest := strings.TrimPrefix(strings.TrimSpace(uri), scheme)
	for strings.Contains(rest, "//") {
		rest = strings.ReplaceAll(rest, "//", "/")
	}
	return scheme + strings.TrimSuffix(rest, "/")
}

// SplitURI breaks a canonical object URI into bucket and key.
func SplitURI(uri string) (bucket, key string, err error) {
	u := CanonicalURI(uri)
	scheme, ok := schemeOf(u)
	if !ok {
		return "", "", fmt.Errorf("not an object URI: %q", uri)
	}
	rest := strings.TrimPrefix(u, scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("object URI missing bucket: %q", uri)
	}
	return bucket, key, nil
}

// FolderOf returns the folder (URI directory) of an object URI. A URI with
// no key component has no folder.
func FolderOf(uri string) (string, bool) {
	u := CanonicalURI(uri)
	scheme, ok := schemeOf(u)
	if !ok {
		return "", false
	}
	idx := strings.LastIndex(u, "/")
	if idx <= len(scheme) {
		return "", false
	}
	return u[:idx], true
}

// HasGlobMeta reports whether the string contains glob metacharacters.
func HasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[]")
}

// GlobFolder returns the fixed-prefix folder of an object glob: the URI
// segments before the first wildcard token. At least a bucket must remain,
// otherwise the glob has no folder.
func GlobFolder(pattern string) (string, bool) {
	u := CanonicalURI(pattern)
	scheme, ok := schemeOf(u)
	if !ok {
		return "", false
	}
	segments := strings.Split(strings.TrimPrefix(u, scheme), "/")
	fixed := make([]string, 0, len(segments))
	for _, seg := range segments {
		if HasGlobMeta(seg) {
			break
		}
		fixed = append(fixed, seg)
	}
	if len(fixed) == 0 || fixed[0] == "" {
		return "", false
	}
	return scheme + strings.TrimSuffix(strings.Join(fixed, "/"), "/"), true
}

// LiteralPrefix returns the leading glob-free portion of a pattern, used to
// bound recursive listings.
func LiteralPrefix(pattern string) string {
	if i := strings.IndexAny(pattern, "*?["); i >= 0 {
		return pattern[:i]
	}
	return pattern
}

// GlobMatcher compiles a glob pattern into a match predicate. `**` crosses
// path separators, `*` and `?` do not; character classes carry over,
// including `[!...]` negation.
func GlobMatcher(pattern string) (func(string) bool, error) {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			j := i + 1
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				class := string(runes[i : j+1])
				// Glob negation spells complement with !, regexp with ^.
				if strings.HasPrefix(class, "[!") {
					class = "[^" + class[2:]
				}
				b.WriteString(class)
				i = j
			} else {
				b.WriteString(regexp.QuoteMeta("["))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}
	return re.MatchString, nil
}

// CanonicalLocalPath resolves a local path to absolute form, expanding a
// leading ~.
func CanonicalLocalPath(path string) string {
	p := strings.TrimSpace(path)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

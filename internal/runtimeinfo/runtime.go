// Package runtimeinfo infers the runtime identity of the current process
// from ambient environment variables. The descriptor is captured once, at
// contract-init time, and stored as opaque metadata; the engine never
// re-reads ambient state mid-lifecycle.
package runtimeinfo

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Runtime kinds, most specific first.
const (
	KindCloudRun   = "cloud_run"
	KindCloudBuild = "cloud_build"
	KindVM         = "vm"
	KindLocal      = "local"
)

// Kind classifies the current execution environment.
func Kind() string {
	switch {
	case os.Getenv("K_SERVICE") != "" || os.Getenv("CLOUD_RUN_JOB") != "":
		return KindCloudRun
	case os.Getenv("BUILD_ID") != "" && os.Getenv("PROJECT_ID") != "":
		return KindCloudBuild
	case os.Getenv("VM_NAME") != "":
		return KindVM
	default:
		return KindLocal
	}
}

// Describe builds the runtime descriptor stored in run metadata. Empty
// values are omitted.
func Describe() map[string]string {
	kind := Kind()
	meta := map[string]string{"runtime": kind}
	put := func(field, env string) {
		if v := os.Getenv(env); v != "" {
			meta[field] = v
		}
	}
	put("project_id", "PROJECT_ID")
	put("build_id", "BUILD_ID")
	put("vm_name", "VM_NAME")
	put("vm_zone", "VM_ZONE")
	for _, env := range []string{"SHORT_SHA", "COMMIT_SHA", "GIT_COMMIT"} {
		if v := os.Getenv(env); v != "" {
			meta["commit_sha"] = v
			break
		}
	}
	if kind == KindCloudRun {
		put("service", "K_SERVICE")
		put("revision", "K_REVISION")
		put("configuration", "K_CONFIGURATION")
		put("cloud_run_job", "CLOUD_RUN_JOB")
		put("cloud_run_execution", "CLOUD_RUN_EXECUTION")
		put("cloud_run_task_index", "CLOUD_RUN_TASK_INDEX")
	}
	return meta
}

// DefaultRunID picks a run identifier from ambient CI identity, falling
// back to a timestamped unique id.
func DefaultRunID() string {
	for _, env := range []string{"RUN_CONTRACT_RUN_ID", "BUILD_ID", "CLOUD_RUN_EXECUTION"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return SafeSlug(v)
		}
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	return ts + "_" + uuid.NewString()[:8]
}

var slugPattern = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SafeSlug reduces a value to a filesystem- and URI-safe identifier.
func SafeSlug(value string) string {
	slug := slugPattern.ReplaceAllString(value, "_")
	slug = strings.Trim(slug, "._-")
	if slug == "" {
		return "run"
	}
	return slug
}

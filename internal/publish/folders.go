// Package publish fans a finalized contract out to its destinations:
// assets are grouped by object-storage folder, a filtered sub-contract is
// derived per folder, and each is uploaded independently.
package publish

import (
	"sort"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/storage"
)

// AssetFolder returns the object-storage folder implied by an asset's
// location: the URI directory for a direct reference, or the fixed prefix
// before any wildcard token for a glob. Local-only assets have no folder.
func AssetFolder(a *contract.Asset) (string, bool) {
	if a.URI != "" && storage.IsObjectURI(a.URI) {
		return storage.FolderOf(a.URI)
	}
	if a.ObjectGlob != "" && storage.IsObjectURI(a.ObjectGlob) {
		return storage.GlobFolder(a.ObjectGlob)
	}
	return "", false
}

// GroupByFolder partitions assets by destination folder. The grouping is
// exhaustive and disjoint over object-storage-destined assets; local-only
// assets are excluded.
func GroupByFolder(assets []*contract.Asset) map[string][]*contract.Asset {
	groups := map[string][]*contract.Asset{}
	for _, a := range assets {
		if folder, ok := AssetFolder(a); ok {
			groups[folder] = append(groups[folder], a)
		}
	}
	return groups
}

// SortedFolders returns the group keys in stable order.
func SortedFolders(groups map[string][]*contract.Asset) []string {
	folders := make([]string, 0, len(groups))
	for f := range groups {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	return folders
}

// FolderContract derives the filtered sub-contract for one folder: only
// tasks referencing at least one folder asset, each task's asset-id list
// subset to the folder, only the folder's assets, and a scoped verification
// summary. Run, configuration, and input sections pass through unchanged.
func FolderContract(full *contract.Contract, folderURI string, folderAssets []*contract.Asset) *contract.Contract {
	assetIDs := make(map[string]struct{}, len(folderAssets))
	taskIDs := make(map[string]struct{}, len(folderAssets))
	for _, a := range folderAssets {
		assetIDs[a.AssetID] = struct{}{}
		taskIDs[a.TaskID] = struct{}{}
	}

	var tasks []*contract.Task
	for _, t := range full.Tasks {
		if _, ok := taskIDs[t.TaskID]; !ok {
			continue
		}
		scoped := *t
		scoped.AssetIDs = []string{}
		for _, id := range t.AssetIDs {
			if _, ok := assetIDs[id]; ok {
				scoped.AssetIDs = append(scoped.AssetIDs, id)
			}
		}
		sort.Strings(scoped.AssetIDs)
		tasks = append(tasks, &scoped)
	}

	assetCounts := map[contract.AssetStatus]int{}
	for _, a := range folderAssets {
		assetCounts[a.Status]++
	}
	taskCounts := map[contract.TaskStatus]int{}
	for _, t := range tasks {
		taskCounts[t.Status]++
	}

	verification := &contract.Verification{
		AssetStatusCounts:          assetCounts,
		TaskStatusCounts:           taskCounts,
		MissingRequiredAssetIDs:    []string{},
		CorruptRequiredAssetIDs:    []string{},
		UnverifiedRequiredAssetIDs: []string{},
		Scope:                      "folder",
		FolderURI:                  folderURI,
	}
	if full.Verification != nil {
		verification.FinishedAt = full.Verification.FinishedAt
	}

	return &contract.Contract{
		SchemaVersion: full.SchemaVersion,
		Run:           full.Run,
		Configuration: full.Configuration,
		InputData:     full.InputData,
		Tasks:         tasks,
		Assets:        folderAssets,
		Verification:  verification,
		Paths:         contract.Paths{Scope: "folder", FolderURI: folderURI},
	}
}

// Package engine implements the contract lifecycle operations: init,
// record-produced, mark-task-status, preflight, and finalize. Each
// operation is a complete read-document, mutate, write-document cycle;
// callers are responsible for serializing invocations against one document.
package engine

import (
	"context"
	"time"

	"github.com/sourceplane/runcontract/internal/contract"
	"github.com/sourceplane/runcontract/internal/storage"
	"github.com/sourceplane/runcontract/internal/verify"
)

// Engine drives contract lifecycle operations against the filesystem and
// an optional object-storage backend.
type Engine struct {
	Store   storage.ObjectStore
	Checker *verify.Checker

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// New builds an engine over the given store. A nil store is valid: object
// locations then verify as unknown rather than failing.
func New(store storage.ObjectStore) *Engine {
	return &Engine{
		Store:   store,
		Checker: &verify.Checker{Store: store},
		Clock:   time.Now,
	}
}

// now returns the current UTC timestamp at second precision, the format
// persisted throughout the document.
func (e *Engine) now() string {
	return e.Clock().UTC().Format("2006-01-02T15:04:05Z")
}

// UploadContract copies the persisted document to an object-storage
// directory.
func (e *Engine) UploadContract(ctx context.Context, c *contract.Contract, dirURI string) error {
	if e.Store == nil {
		return storage.ErrUnavailable
	}
	dest := storage.CanonicalURI(dirURI) + "/" + contract.FileName
	return e.Store.Write(ctx, c.Paths.ContractJSON, dest)
}

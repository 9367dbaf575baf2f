// Package content implements the versioned blob store the Repository
// node serves: raw bytes addressed by (kind, namespace, id, version),
// laid out on disk under a target file name that depends only on
// kind.
package content

import (
	"context"
	"io"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
)

// Store puts, gets, and deletes versioned blobs.
type Store interface {
	// Put writes r's contents as (kind, namespace, id, version) and
	// returns the number of bytes written.
	Put(ctx context.Context, kind apis.ContentKind, namespace, id string, version uint64, r io.Reader) (int64, error)
	// Get opens the blob at (kind, namespace, id, version) for
	// reading; the caller must Close it. Returns
	// pberrors.KindNotFound when absent.
	Get(ctx context.Context, kind apis.ContentKind, namespace, id string, version uint64) (io.ReadCloser, error)
	// Delete removes every version of (kind, namespace, id).
	Delete(ctx context.Context, kind apis.ContentKind, namespace, id string) error
	// DeleteVersion removes a single version's blob.
	DeleteVersion(ctx context.Context, kind apis.ContentKind, namespace, id string, version uint64) error
}

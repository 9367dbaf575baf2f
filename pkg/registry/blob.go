package registry

import (
	"context"
	"encoding/json"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// UpdateBlobResource implements create-on-first-put,
// increment-pulls-on-read behavior for a single (namespace, id,
// version) blob. size is only meaningful (and only applied) on
// creation; callers incrementing pulls pass size <= 0.
func UpdateBlobResource(ctx context.Context, c *Client, kind apis.ContentKind, namespace, id string, version uint64, size int64, leaseID clientv3.LeaseID) (apis.BlobMetadata, error) {
	key := MetadataKey(kind, namespace, id, version)
	raw, _, err := c.Get(ctx, key)
	if err != nil && pberrors.KindOf(err) != pberrors.KindNotFound {
		return apis.BlobMetadata{}, err
	}
	var meta apis.BlobMetadata
	if err == nil {
		if uerr := json.Unmarshal(raw, &meta); uerr != nil {
			return apis.BlobMetadata{}, pberrors.Wrap(pberrors.KindRegistry, "registry: decode blob metadata", uerr)
		}
		meta.Pulls++
	} else {
		meta = apis.BlobMetadata{
			Namespace: namespace,
			ID:        id,
			Version:   version,
			Pulls:     0,
			Size:      size,
			Created:   nowUTC(),
		}
	}
	encoded, merr := json.Marshal(meta)
	if merr != nil {
		return apis.BlobMetadata{}, pberrors.Wrap(pberrors.KindRegistry, "registry: encode blob metadata", merr)
	}
	if perr := c.Put(ctx, key, encoded, leaseID); perr != nil {
		return apis.BlobMetadata{}, perr
	}
	return meta, nil
}

// PutBuildMetadata writes a BuildMetadata record at its key, creating
// or overwriting it wholesale -- build lifecycle transitions replace
// the whole record rather than patching fields, mirroring how
// BlobMetadata is replaced whole on every UpdateBlobResource call.
func PutBuildMetadata(ctx context.Context, c *Client, meta apis.BuildMetadata) error {
	key := MetadataKey(apis.ContentKindBuild, meta.Namespace, meta.ID, meta.Version)
	raw, err := json.Marshal(meta)
	if err != nil {
		return pberrors.Wrap(pberrors.KindRegistry, "registry: encode build metadata", err)
	}
	return c.Put(ctx, key, raw, 0)
}

// GetBuildMetadata reads a single BuildMetadata record.
func GetBuildMetadata(ctx context.Context, c *Client, namespace, id string, version uint64) (*apis.BuildMetadata, error) {
	key := MetadataKey(apis.ContentKindBuild, namespace, id, version)
	return GetResource[apis.BuildMetadata](ctx, c, key, 0)
}

package content

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

// FSStore lays blobs out under root as
// <root>/<kind>/<namespace>/<id>/<version>/<target-name>, where
// target-name is fixed per kind (pipe.yml, catalogs.yml, schema.yml,
// app, build).
type FSStore struct {
	root string
}

func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) path(kind apis.ContentKind, namespace, id string, version uint64) string {
	return filepath.Join(s.root, string(kind), namespace, id, strconv.FormatUint(version, 10), kind.TargetName())
}

func (s *FSStore) Put(_ context.Context, kind apis.ContentKind, namespace, id string, version uint64, r io.Reader) (int64, error) {
	path := s.path(kind, namespace, id, version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, pberrors.Wrap(pberrors.KindContentStore, "content: mkdir", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, pberrors.Wrap(pberrors.KindContentStore, "content: create blob", err)
	}
	defer f.Close()
	n, err := io.Copy(f, r)
	if err != nil {
		return n, pberrors.Wrap(pberrors.KindContentStore, "content: write blob", err)
	}
	return n, nil
}

func (s *FSStore) Get(_ context.Context, kind apis.ContentKind, namespace, id string, version uint64) (io.ReadCloser, error) {
	path := s.path(kind, namespace, id, version)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pberrors.NotFoundf("content: blob %s/%s/%s/%d not found", kind, namespace, id, version)
		}
		return nil, pberrors.Wrap(pberrors.KindContentStore, "content: open blob", err)
	}
	return f, nil
}

func (s *FSStore) Delete(_ context.Context, kind apis.ContentKind, namespace, id string) error {
	dir := filepath.Join(s.root, string(kind), namespace, id)
	if err := os.RemoveAll(dir); err != nil {
		return pberrors.Wrap(pberrors.KindContentStore, "content: delete blob tree", err)
	}
	return nil
}

func (s *FSStore) DeleteVersion(_ context.Context, kind apis.ContentKind, namespace, id string, version uint64) error {
	dir := filepath.Join(s.root, string(kind), namespace, id, strconv.FormatUint(version, 10))
	if err := os.RemoveAll(dir); err != nil {
		return pberrors.Wrap(pberrors.KindContentStore, "content: delete blob version", err)
	}
	return nil
}

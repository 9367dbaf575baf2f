package content

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/pberrors"
)

func TestFSStore_PutGetRoundTrip(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, apis.ContentKindManifest, "ns", "proj", 1, bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	rc, err := store.Get(ctx, apis.ContentKindManifest, "ns", "proj", 1)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFSStore_GetMissingReturnsNotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())
	_, err := store.Get(context.Background(), apis.ContentKindApp, "ns", "proj", 1)
	require.Error(t, err)
	assert.Equal(t, pberrors.KindNotFound, pberrors.KindOf(err))
}

func TestFSStore_DeleteRemovesAllVersions(t *testing.T) {
	store := NewFSStore(t.TempDir())
	ctx := context.Background()

	_, err := store.Put(ctx, apis.ContentKindBuild, "ns", "proj", 1, bytes.NewReader([]byte("v1")))
	require.NoError(t, err)
	_, err = store.Put(ctx, apis.ContentKindBuild, "ns", "proj", 2, bytes.NewReader([]byte("v2")))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, apis.ContentKindBuild, "ns", "proj"))

	_, err = store.Get(ctx, apis.ContentKindBuild, "ns", "proj", 1)
	assert.Equal(t, pberrors.KindNotFound, pberrors.KindOf(err))
	_, err = store.Get(ctx, apis.ContentKindBuild, "ns", "proj", 2)
	assert.Equal(t, pberrors.KindNotFound, pberrors.KindOf(err))
}

package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
	"github.com/pipebase/pipebuilder-sub000/pkg/content"
)

func TestBlobRouter_GetReturnsStoredBytes(t *testing.T) {
	store := content.NewFSStore(t.TempDir())
	_, err := store.Put(context.Background(), apis.ContentKindManifest, "ns", "proj", 1, bytes.NewReader([]byte("payload")))
	require.NoError(t, err)

	srv := httptest.NewServer(blobRouter(store))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/?kind=manifest&namespace=ns&id=proj&version=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))
}

func TestBlobRouter_RejectsInvalidKind(t *testing.T) {
	store := content.NewFSStore(t.TempDir())
	srv := httptest.NewServer(blobRouter(store))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/?kind=Bogus&namespace=ns&id=proj&version=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)
}

package builderworker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipebase/pipebuilder-sub000/pkg/apis"
)

func TestWorker_BuildCancelLogRoundTrip(t *testing.T) {
	w := New(nil)
	srv := httptest.NewServer(w.Router())
	defer srv.Close()

	body, err := json.Marshal(buildRequest{Namespace: "ns", ID: "proj", Version: 1, TargetPlatform: apis.TargetPlatformX86_64UnknownLinuxGNU})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/internal/v1/build/", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	logResp, err := http.Get(srv.URL + "/internal/v1/build/log?namespace=ns&id=proj&version=1")
	require.NoError(t, err)
	defer logResp.Body.Close()
	assert.Equal(t, http.StatusOK, logResp.StatusCode)

	require.NoError(t, w.RecordTransition(context.Background(), "ns", "proj", 1, apis.BuildStatusSucceed, "done"))

	cancelBody, err := json.Marshal(cancelRequest{Namespace: "ns", ID: "missing", Version: 9})
	require.NoError(t, err)
	cancelResp, err := http.Post(srv.URL+"/internal/v1/build/cancel", "application/json", bytes.NewReader(cancelBody))
	require.NoError(t, err)
	defer cancelResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, cancelResp.StatusCode)
}

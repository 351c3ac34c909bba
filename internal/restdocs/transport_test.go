package restdocs

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportCapturesRoundTrip(t *testing.T) {
	headers := http.Header{"Content-Type": {"application/hal+json"}, "Location": {"http://h/tags/1"}}
	handler, requests := httphelpers.RecordingHandler(
		httphelpers.HandlerWithResponse(http.StatusOK, headers, []byte(`{"id":1,"name":"GET"}`)),
	)
	server := httptest.NewServer(handler)
	defer server.Close()

	rec := NewRecorder(t.TempDir())
	client := &http.Client{Transport: &Transport{Observer: rec}}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/crud", strings.NewReader(`{"name":"GET"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/hal+json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, `{"id":1,"name":"GET"}`, string(body), "the caller still reads the body")

	sent := <-requests
	assert.Equal(t, `{"name":"GET"}`, string(sent.Body), "the server still receives the body")

	ex, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, http.MethodGet, ex.Request.Method)
	assert.Equal(t, "/crud", ex.Request.URL.Path)
	assert.Equal(t, `{"name":"GET"}`, string(ex.Request.Body))
	assert.Equal(t, http.StatusOK, ex.Response.Status)
	assert.Equal(t, "http://h/tags/1", ex.Response.Header.Get("Location"))
	assert.NotEmpty(t, ex.ID)
}

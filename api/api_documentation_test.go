package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/crud-docs/api/handlers"
	"github.com/kutbudev/crud-docs/internal/logging"
	"github.com/kutbudev/crud-docs/internal/restdocs"
	"github.com/kutbudev/crud-docs/pkg/repository"
	"github.com/kutbudev/crud-docs/pkg/service"
)

// documentation runs requests through a router whose exchanges are
// recorded, and documents each one under the operation name. Extra snippets
// passed to always are added to every operation, the way a shared
// documentation handler would.
type documentation struct {
	t        *testing.T
	name     string
	router   http.Handler
	svc      *service.Service
	recorder *restdocs.Recorder
	always   []restdocs.Snippet
}

func newDocumentation(t *testing.T, name string) *documentation {
	t.Helper()
	rec := restdocs.NewRecorder(t.TempDir())
	svc := service.NewService(repository.NewMemoryRepository(), service.WithLogger(logging.Discard()))
	return &documentation{
		t:        t,
		name:     name,
		router:   NewRouter(svc, Options{Observer: rec, Logger: logging.Discard()}),
		svc:      svc,
		recorder: rec,
	}
}

// seed creates n resources so fixed ids such as /crud/10 exist
func (d *documentation) seed(n int) {
	d.t.Helper()
	for i := 0; i < n; i++ {
		_, err := d.svc.Create(context.Background(), service.CreateInput{
			Title: fmt.Sprintf("Seed %d", i+1),
			Body:  "http://www.baeldung.com/",
		})
		require.NoError(d.t, err)
	}
}

func (d *documentation) perform(method, path string, body interface{}) *httptest.ResponseRecorder {
	d.t.Helper()
	var reader *strings.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(d.t, err)
		reader = strings.NewReader(string(data))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", handlers.MediaTypeHAL)

	w := httptest.NewRecorder()
	d.router.ServeHTTP(w, req)

	require.NoError(d.t, d.recorder.DocumentLast(d.name, d.always...))
	return w
}

func (d *documentation) document(name string, snippets ...restdocs.Snippet) {
	d.t.Helper()
	require.NoError(d.t, d.recorder.DocumentLast(name, snippets...))
}

func (d *documentation) snippet(operation, name string) string {
	d.t.Helper()
	data, err := os.ReadFile(filepath.Join(d.recorder.Dir(), operation, name+".adoc"))
	require.NoError(d.t, err)
	return string(data)
}

func TestHeadersExample(t *testing.T) {
	d := newDocumentation(t, "headers-example")
	d.always = []restdocs.Snippet{restdocs.ResponseHeaders(
		restdocs.HeaderWithName("Content-Type").
			Description("The Content-Type of the payload, e.g. `application/hal+json`"),
	)}

	w := d.perform(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	headers := d.snippet("headers-example", "response-headers")
	assert.Contains(t, headers, "`Content-Type`")
	assert.Contains(t, headers, "application/hal+json")
	assert.Contains(t, d.snippet("headers-example", "http-response"), "Content-Type: application/hal+json")
}

func TestIndexExample(t *testing.T) {
	d := newDocumentation(t, "index-example")

	w := d.perform(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)

	d.document("index",
		restdocs.Links(
			restdocs.LinkWithRel("crud").Description("The CRUD resource"),
			restdocs.LinkWithRel("tags").Description("The tag resource"),
		),
		restdocs.ResponseFields(restdocs.SubsectionWithPath("_links").Description("Links to other resources")),
		restdocs.ResponseHeaders(restdocs.HeaderWithName("Content-Type").Description("The Content-Type of the payload")),
	)

	assert.Contains(t, d.snippet("index", "links"), "`crud`")
	assert.Contains(t, d.snippet("index", "response-fields"), "`_links`")
	assert.Contains(t, d.snippet("index", "curl-request"), "$ curl http://example.com/ -i -X GET")
}

func TestCrudGetExample(t *testing.T) {
	d := newDocumentation(t, "crud-get-example")

	w := d.perform(http.MethodGet, "/crud", map[string]string{"name": "GET"})
	require.Equal(t, http.StatusOK, w.Code)
	tagLocation := w.Header().Get("Location")
	require.NotEmpty(t, tagLocation)

	w = d.perform(http.MethodGet, "/crud", map[string]interface{}{
		"title": "Sample Model",
		"body":  "http://www.baeldung.com/",
		"tags":  []string{tagLocation},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, d.snippet("crud-get-example", "http-request"), "GET /crud HTTP/1.1")
	assert.Contains(t, d.snippet("crud-get-example", "request-body"), `"title": "Sample Model"`)
}

func TestCrudCreateExample(t *testing.T) {
	d := newDocumentation(t, "crud-create-example")

	w := d.perform(http.MethodPost, "/crud", map[string]string{
		"title": "Sample Model",
		"body":  "http://www.baeldung.com/",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	d.document("crud-create-example",
		restdocs.RequestFields(
			restdocs.FieldWithPath("title").Description("The title of the input"),
			restdocs.FieldWithPath("body").Description("The body of the input"),
		),
	)

	fields := d.snippet("crud-create-example", "request-fields")
	assert.Contains(t, fields, "|`title`\n|`String`\n|The title of the input")
	assert.Contains(t, fields, "|`body`\n|`String`\n|The body of the input")
	assert.Contains(t, d.snippet("crud-create-example", "http-response"), "HTTP/1.1 201 Created")
}

func TestCrudDeleteExample(t *testing.T) {
	d := newDocumentation(t, "crud-delete-example")
	d.seed(10)

	w := d.perform(http.MethodDelete, "/crud/10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	d.document("crud-delete-example",
		restdocs.PathParameters(restdocs.ParameterWithName("id").Description("The id of the input to delete")),
	)

	params := d.snippet("crud-delete-example", "path-parameters")
	assert.True(t, strings.HasPrefix(params, ".+/crud/{id}+\n"), params)
	assert.Contains(t, params, "|`id`\n|The id of the input to delete")
}

func TestCrudPatchExample(t *testing.T) {
	d := newDocumentation(t, "crud-patch-example")
	d.seed(10)

	w := d.perform(http.MethodPatch, "/crud/10", map[string]string{"name": "PATCH"})
	require.Equal(t, http.StatusNoContent, w.Code)
	tagLocation := w.Header().Get("Location")
	require.NotEmpty(t, tagLocation)

	w = d.perform(http.MethodPatch, "/crud/10", map[string]interface{}{
		"title": "Sample Model",
		"body":  "http://www.baeldung.com/",
		"tags":  []string{tagLocation},
	})
	assert.Equal(t, http.StatusNoContent, w.Code)

	crud, err := d.svc.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "Sample Model", crud.Title)
	assert.Len(t, crud.TagIDs, 1)
	assert.Contains(t, d.snippet("crud-patch-example", "http-response"), "HTTP/1.1 204 No Content")
}

func TestCrudPutExample(t *testing.T) {
	d := newDocumentation(t, "crud-put-example")
	d.seed(10)

	w := d.perform(http.MethodPut, "/crud/10", map[string]string{"name": "PUT"})
	require.Equal(t, http.StatusAccepted, w.Code)
	tagLocation := w.Header().Get("Location")
	require.NotEmpty(t, tagLocation)

	w = d.perform(http.MethodPut, "/crud/10", map[string]interface{}{
		"title": "Sample Model",
		"body":  "http://www.baeldung.com/",
		"tags":  []string{tagLocation},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Contains(t, d.snippet("crud-put-example", "http-response"), "HTTP/1.1 202 Accepted")
	assert.Contains(t, d.snippet("crud-put-example", "response-body"), tagLocation)
}

func TestUndocumentedFieldFailsDocumentation(t *testing.T) {
	d := newDocumentation(t, "undocumented")

	d.perform(http.MethodPost, "/crud", map[string]string{"title": "t", "body": "b"})

	err := d.recorder.DocumentLast("partial", restdocs.RequestFields(restdocs.FieldWithPath("title")))
	assert.ErrorIs(t, err, restdocs.ErrUndocumented)

	_, statErr := os.Stat(filepath.Join(d.recorder.Dir(), "partial"))
	assert.True(t, os.IsNotExist(statErr), "failed documentation writes nothing")
}

// Package scenario drives a running crud service through the documented
// request sequence and records every exchange as snippets.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/kutbudev/crud-docs/internal/api"
	"github.com/kutbudev/crud-docs/internal/restdocs"
)

// Step is the outcome of one documented operation
type Step struct {
	Name   string
	Status int
	Err    error
}

// Runner owns a client whose round trips feed a Recorder
type Runner struct {
	client   *api.Client
	recorder *restdocs.Recorder
	id       uint
}

// NewRunner returns a Runner for the service at baseURL writing to rec
func NewRunner(baseURL string, rec *restdocs.Recorder) *Runner {
	client := api.NewClient(baseURL)
	client.HTTPClient.Transport = &restdocs.Transport{Observer: rec}
	return &Runner{client: client, recorder: rec}
}

type operation struct {
	name string
	run  func(ctx context.Context, r *Runner) (int, error)
}

var operations = []operation{
	{"headers-example", headersExample},
	{"index-example", indexExample},
	{"crud-get-example", crudGetExample},
	{"crud-create-example", crudCreateExample},
	{"crud-patch-example", crudPatchExample},
	{"crud-put-example", crudPutExample},
	{"crud-delete-example", crudDeleteExample},
}

// Names lists the operations Run documents, in order
func Names() []string {
	names := make([]string, len(operations))
	for i, op := range operations {
		names[i] = op.name
	}
	return names
}

// Run executes every operation in order and writes the snippet index. It
// stops at the first failing operation since later ones reuse its state.
func (r *Runner) Run(ctx context.Context) ([]Step, error) {
	steps := make([]Step, 0, len(operations))
	for _, op := range operations {
		status, err := op.run(ctx, r)
		steps = append(steps, Step{Name: op.name, Status: status, Err: err})
		if err != nil {
			return steps, fmt.Errorf("%s: %w", op.name, err)
		}
	}
	if err := r.recorder.WriteIndex(); err != nil {
		return steps, fmt.Errorf("failed to write snippet index: %w", err)
	}
	return steps, nil
}

// ErrUnexpectedStatus is returned when the service answers with another
// status than the documented one.
var ErrUnexpectedStatus = errors.New("unexpected status")

// perform sends one request, checks its status and documents it under name
func (r *Runner) perform(ctx context.Context, name, method, endpoint string, body interface{}, want int, snippets ...restdocs.Snippet) (*api.Response, error) {
	resp, err := r.client.Do(ctx, method, endpoint, body)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			return &api.Response{StatusCode: apiErr.StatusCode}, fmt.Errorf("%s %s: %w", method, endpoint, err)
		}
		return nil, err
	}
	if resp.StatusCode != want {
		return resp, fmt.Errorf("%s %s answered %d, want %d: %w", method, endpoint, resp.StatusCode, want, ErrUnexpectedStatus)
	}
	if err := r.recorder.DocumentLast(name, snippets...); err != nil {
		return resp, err
	}
	return resp, nil
}

func status(resp *api.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

func sampleCrud(tagLocation string) map[string]interface{} {
	crud := map[string]interface{}{
		"title": "Sample Model",
		"body":  "http://www.baeldung.com/",
	}
	if tagLocation != "" {
		crud["tags"] = []string{tagLocation}
	}
	return crud
}

func headersExample(ctx context.Context, r *Runner) (int, error) {
	resp, err := r.perform(ctx, "headers-example", http.MethodGet, "/", nil, http.StatusOK,
		restdocs.ResponseHeaders(restdocs.HeaderWithName("Content-Type").
			Description("The Content-Type of the payload, e.g. `application/hal+json`")),
	)
	return status(resp), err
}

func indexExample(ctx context.Context, r *Runner) (int, error) {
	resp, err := r.perform(ctx, "index", http.MethodGet, "/", nil, http.StatusOK,
		restdocs.Links(
			restdocs.LinkWithRel("crud").Description("The CRUD resource"),
			restdocs.LinkWithRel("tags").Description("The tag resource").Optional(),
		),
		restdocs.ResponseFields(restdocs.SubsectionWithPath("_links").Description("Links to other resources")),
		restdocs.ResponseHeaders(restdocs.HeaderWithName("Content-Type").Description("The Content-Type of the payload")),
	)
	if err != nil {
		return status(resp), err
	}
	return resp.StatusCode, r.recorder.DocumentLast("index-example")
}

func crudGetExample(ctx context.Context, r *Runner) (int, error) {
	resp, err := r.perform(ctx, "crud-get-example", http.MethodGet, "/crud", map[string]string{"name": "GET"}, http.StatusOK)
	if err != nil {
		return status(resp), err
	}
	resp, err = r.perform(ctx, "crud-get-example", http.MethodGet, "/crud", sampleCrud(resp.Location), http.StatusOK)
	return status(resp), err
}

func crudCreateExample(ctx context.Context, r *Runner) (int, error) {
	resp, err := r.perform(ctx, "crud-create-example", http.MethodPost, "/crud", sampleCrud(""), http.StatusCreated,
		restdocs.RequestFields(
			restdocs.FieldWithPath("title").Description("The title of the input"),
			restdocs.FieldWithPath("body").Description("The body of the input"),
		),
	)
	if err != nil {
		return status(resp), err
	}

	id, err := idFromLocation(resp.Location)
	if err != nil {
		return resp.StatusCode, err
	}
	r.id = id
	return resp.StatusCode, nil
}

func crudPatchExample(ctx context.Context, r *Runner) (int, error) {
	return r.updateExample(ctx, "crud-patch-example", http.MethodPatch, http.StatusNoContent)
}

func crudPutExample(ctx context.Context, r *Runner) (int, error) {
	return r.updateExample(ctx, "crud-put-example", http.MethodPut, http.StatusAccepted)
}

func (r *Runner) updateExample(ctx context.Context, name, method string, want int) (int, error) {
	endpoint := fmt.Sprintf("/crud/%d", r.id)
	resp, err := r.perform(ctx, name, method, endpoint, map[string]string{"name": method}, want)
	if err != nil {
		return status(resp), err
	}
	if resp.Location == "" {
		return resp.StatusCode, fmt.Errorf("%s %s: no Location for the new tag", method, endpoint)
	}
	resp, err = r.perform(ctx, name, method, endpoint, sampleCrud(resp.Location), want)
	return status(resp), err
}

func crudDeleteExample(ctx context.Context, r *Runner) (int, error) {
	endpoint := fmt.Sprintf("/crud/%d", r.id)
	resp, err := r.client.Do(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("DELETE %s answered %d: %w", endpoint, resp.StatusCode, ErrUnexpectedStatus)
	}

	ex, ok := r.recorder.Last()
	if !ok {
		return resp.StatusCode, restdocs.ErrNoExchange
	}
	// the client cannot see the route, so name it for the path-parameters snippet
	ex.Route = "/crud/:id"
	ex.PathParameters = map[string]string{"id": strconv.FormatUint(uint64(r.id), 10)}

	return resp.StatusCode, r.recorder.Document("crud-delete-example", ex,
		restdocs.PathParameters(restdocs.ParameterWithName("id").Description("The id of the input to delete")),
	)
}

func idFromLocation(location string) (uint, error) {
	i := len(location) - 1
	for i >= 0 && location[i] >= '0' && location[i] <= '9' {
		i--
	}
	id, err := strconv.ParseUint(location[i+1:], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("no resource id in Location %q", location)
	}
	return uint(id), nil
}

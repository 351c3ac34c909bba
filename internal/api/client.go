package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kutbudev/crud-docs/api/handlers"
	"github.com/kutbudev/crud-docs/internal/config"
)

const defaultBaseURL = "http://localhost:8080"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client for baseURL. An empty baseURL falls back to
// CRUD_API_URL, then the CLI config file, then localhost.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("CRUD_API_URL")
	}
	if baseURL == "" {
		if cfg, err := config.LoadConfig(); err == nil && cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Response is a successful API response
type Response struct {
	StatusCode int
	Location   string
	Body       []byte
}

// Do sends body as JSON to endpoint and returns the raw response. Non-2xx
// statuses become *APIError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body interface{}) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", handlers.MediaTypeHAL)
	if body != nil {
		req.Header.Set("Content-Type", handlers.MediaTypeHAL)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Location:   resp.Header.Get("Location"),
		Body:       respBody,
	}, nil
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.BaseURL + endpoint
}

func errorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func decode(resp *Response, v interface{}) error {
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// CrudInput is the wire form of a complete resource
type CrudInput struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

// CrudPatch is the wire form of a partial update. Nil fields are omitted.
type CrudPatch struct {
	Title *string   `json:"title,omitempty"`
	Body  *string   `json:"body,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

type tagPayload struct {
	Name string `json:"name"`
}

// Index fetches the API entry point
func (c *Client) Index(ctx context.Context) (*handlers.IndexResource, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	var index handlers.IndexResource
	if err := decode(resp, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// ListCrud lists resources, optionally filtered by exact title
func (c *Client) ListCrud(ctx context.Context, title string) ([]handlers.CrudResource, error) {
	endpoint := "/crud"
	if title != "" {
		endpoint += "?" + url.Values{"title": {title}}.Encode()
	}
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var list handlers.CrudCollection
	if err := decode(resp, &list); err != nil {
		return nil, err
	}
	return list.Embedded.Crud, nil
}

// CreateCrud creates a resource and returns it with its Location
func (c *Client) CreateCrud(ctx context.Context, in CrudInput) (*handlers.CrudResource, string, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/crud", in)
	if err != nil {
		return nil, "", err
	}
	var crud handlers.CrudResource
	if err := decode(resp, &crud); err != nil {
		return nil, "", err
	}
	return &crud, resp.Location, nil
}

func (c *Client) GetCrud(ctx context.Context, id uint) (*handlers.CrudResource, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/crud/%d", id), nil)
	if err != nil {
		return nil, err
	}
	var crud handlers.CrudResource
	if err := decode(resp, &crud); err != nil {
		return nil, err
	}
	return &crud, nil
}

// PatchCrud applies a partial update. The API answers 204 with no body.
func (c *Client) PatchCrud(ctx context.Context, id uint, patch CrudPatch) error {
	_, err := c.Do(ctx, http.MethodPatch, fmt.Sprintf("/crud/%d", id), patch)
	return err
}

// PutCrud replaces a resource. Omitted tags are cleared.
func (c *Client) PutCrud(ctx context.Context, id uint, in CrudInput) (*handlers.CrudResource, error) {
	resp, err := c.Do(ctx, http.MethodPut, fmt.Sprintf("/crud/%d", id), in)
	if err != nil {
		return nil, err
	}
	var crud handlers.CrudResource
	if err := decode(resp, &crud); err != nil {
		return nil, err
	}
	return &crud, nil
}

func (c *Client) DeleteCrud(ctx context.Context, id uint) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/crud/%d", id), nil)
	return err
}

// AttachTag creates a tag named name on resource id through PATCH or PUT
// and returns the tag's Location.
func (c *Client) AttachTag(ctx context.Context, method string, id uint, name string) (string, error) {
	if method != http.MethodPatch && method != http.MethodPut {
		return "", fmt.Errorf("unsupported method %s", method)
	}
	resp, err := c.Do(ctx, method, fmt.Sprintf("/crud/%d", id), tagPayload{Name: name})
	if err != nil {
		return "", err
	}
	return resp.Location, nil
}

// CreateTag creates a tag and returns it with its Location
func (c *Client) CreateTag(ctx context.Context, name string) (*handlers.TagResource, string, error) {
	resp, err := c.Do(ctx, http.MethodPost, "/tags", tagPayload{Name: name})
	if err != nil {
		return nil, "", err
	}
	var tag handlers.TagResource
	if err := decode(resp, &tag); err != nil {
		return nil, "", err
	}
	return &tag, resp.Location, nil
}

// GetTag fetches a tag by id or by its location
func (c *Client) GetTag(ctx context.Context, ref string) (*handlers.TagResource, error) {
	endpoint := ref
	if !strings.Contains(ref, "/") {
		endpoint = "/tags/" + ref
	}
	resp, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var tag handlers.TagResource
	if err := decode(resp, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *Client) ListTags(ctx context.Context) ([]handlers.TagResource, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/tags", nil)
	if err != nil {
		return nil, err
	}
	var list handlers.TagCollection
	if err := decode(resp, &list); err != nil {
		return nil, err
	}
	return list.Embedded.Tags, nil
}

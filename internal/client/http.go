// Package client provides an HTTP client for the taskgraph REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
)

// HTTPClient talks to a taskgraph server over its HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Dependency CRUD ---

func (c *HTTPClient) CreateDependency(ctx context.Context, spec model.DependencySpec) (*model.Dependency, error) {
	body := map[string]any{
		"depends_on": spec.DependsOn,
		"type":       spec.Type,
	}
	if spec.LinkID != "" {
		body["link_id"] = spec.LinkID
	}
	if spec.CreatedBy != "" {
		body["created_by"] = spec.CreatedBy
	}
	if spec.Force {
		body["force"] = true
	}

	var dep model.Dependency
	path := "/v1/tasks/" + url.PathEscape(spec.TaskID) + "/dependencies"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (c *HTTPClient) GetTaskDependencies(ctx context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/dependencies"
	if q := filterQuery(filter); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Dependencies []*model.Dependency `json:"dependencies"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Dependencies, nil
}

func (c *HTTPClient) UpdateDependency(ctx context.Context, id string, patch model.DependencyPatch) (*model.Dependency, error) {
	body := map[string]any{}
	if patch.Type != nil {
		body["type"] = *patch.Type
	}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.Force {
		body["force"] = true
	}

	var dep model.Dependency
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/dependencies/"+url.PathEscape(id), body, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

func (c *HTTPClient) DeleteDependency(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/dependencies/"+url.PathEscape(id), nil, nil)
}

// ListWorkspaceDependencies returns a workspace's dependencies and the total
// count before pagination.
func (c *HTTPClient) ListWorkspaceDependencies(ctx context.Context, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error) {
	path := "/v1/workspaces/" + url.PathEscape(workspaceID) + "/dependencies"
	if q := filterQuery(filter); len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Dependencies []*model.Dependency `json:"dependencies"`
		Total        int                 `json:"total"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Dependencies, resp.Total, nil
}

// --- Graph ---

func (c *HTTPClient) GetDependencyGraph(ctx context.Context, taskID string, opts graph.TraverseOptions) (*model.DependencyGraphSnapshot, error) {
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/graph?" + traverseQuery(opts).Encode()

	var snap model.DependencyGraphSnapshot
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *HTTPClient) ExportGraph(ctx context.Context, taskID, format string, opts graph.TraverseOptions) (*model.GraphExport, error) {
	q := traverseQuery(opts)
	q.Set("format", format)
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/graph/export?" + q.Encode()

	var export model.GraphExport
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// --- Conflicts ---

func (c *HTTPClient) CheckConflicts(ctx context.Context, taskID string, proposed []model.DependencySpec) (*model.ConflictReport, error) {
	body := map[string]any{}
	if len(proposed) > 0 {
		body["proposed"] = proposed
	}

	var report model.ConflictReport
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/conflicts/check"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *HTTPClient) ResolveConflicts(ctx context.Context, taskID string, opts model.ResolutionOptions) (*model.ResolutionResult, error) {
	var result model.ResolutionResult
	path := "/v1/tasks/" + url.PathEscape(taskID) + "/conflicts/resolve"
	if err := c.doJSON(ctx, http.MethodPost, path, opts, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Bulk ---

func (c *HTTPClient) BulkMutate(ctx context.Context, ops []model.BulkOp, continueOnError bool) (*model.BulkOperationResult, error) {
	body := map[string]any{
		"operations":        ops,
		"continue_on_error": continueOnError,
	}

	var result model.BulkOperationResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/dependencies/bulk", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/v1/health", nil, nil)
}

func filterQuery(filter model.DependencyFilter) url.Values {
	q := url.Values{}
	if len(filter.Types) > 0 {
		parts := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			parts[i] = string(t)
		}
		q.Set("type", strings.Join(parts, ","))
	}
	if len(filter.Statuses) > 0 {
		parts := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			parts[i] = string(st)
		}
		q.Set("status", strings.Join(parts, ","))
	}
	if filter.LinkID != "" {
		q.Set("link_id", filter.LinkID)
	}
	if filter.IncludeResolved {
		q.Set("include_resolved", "true")
	}
	if filter.IncludeBroken {
		q.Set("include_broken", "true")
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	return q
}

func traverseQuery(opts graph.TraverseOptions) url.Values {
	q := url.Values{}
	if opts.Depth > 0 {
		q.Set("depth", strconv.Itoa(opts.Depth))
	}
	if opts.Direction != "" {
		q.Set("direction", string(opts.Direction))
	}
	if opts.IncludeResolved {
		q.Set("include_resolved", "true")
	}
	if opts.IncludeBroken {
		q.Set("include_broken", "true")
	}
	return q
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content, success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

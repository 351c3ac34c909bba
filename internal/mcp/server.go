package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/crud-docs/internal/api"
)

const instructions = `You are connected to a crud service that stores resources ("crud") with
a title, a body and an ordered list of tags.

- list_crud / get_crud read resources.
- create_crud creates one; tags are tag locations returned by create_tag.
- update_crud changes only the fields you pass.
- replace_crud replaces title, body and tags; omitted tags are cleared.
- delete_crud removes a resource; its tags are kept.
- create_tag creates a tag, optionally appending it to a resource.`

// NewServer returns an MCP server whose tools call the API through client
func NewServer(client *api.Client, version string) (*mcp.Server, error) {
	if client == nil {
		return nil, errors.New("api client is required")
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "crudctl",
			Version: version,
		},
		&mcp.ServerOptions{Instructions: instructions},
	)

	t := &tools{client: client}
	t.register(server)
	return server, nil
}

// ServeStdio runs the MCP server over stdio until ctx is done or the peer
// disconnects.
func ServeStdio(ctx context.Context, client *api.Client, version string) error {
	server, err := NewServer(client, version)
	if err != nil {
		return err
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

// wrapResultAsObject ensures the result is always an object; MCP structured
// content may not be an array or null.
func wrapResultAsObject(result interface{}) map[string]interface{} {
	if result == nil {
		return map[string]interface{}{"items": []interface{}{}, "count": 0}
	}

	b, err := json.Marshal(result)
	if err != nil {
		return map[string]interface{}{"data": fmt.Sprint(result)}
	}

	if len(b) > 0 && b[0] == '[' {
		var arr []interface{}
		if err := json.Unmarshal(b, &arr); err == nil {
			return map[string]interface{}{"items": arr, "count": len(arr)}
		}
	}
	if len(b) > 0 && b[0] == '{' {
		var obj map[string]interface{}
		if err := json.Unmarshal(b, &obj); err == nil {
			return obj
		}
	}
	return map[string]interface{}{"data": result}
}

func boolPtr(b bool) *bool { return &b }

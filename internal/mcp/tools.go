package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kutbudev/crud-docs/internal/api"
)

type tools struct {
	client *api.Client
}

func (t *tools) register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_crud",
		Description: "List crud resources, optionally only those with an exact title.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Crud",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.listCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_crud",
		Description: "Get one crud resource by id.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Crud",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.getCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_crud",
		Description: "Create a crud resource. REQUIRED: title, body. OPTIONAL: tags (tag locations).",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Crud",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.createCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_crud",
		Description: "Partially update a crud resource. Only the fields passed are changed.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Update Crud",
			DestructiveHint: boolPtr(false),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.updateCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "replace_crud",
		Description: "Replace a crud resource. REQUIRED: id, title, body. Omitted tags are cleared.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Replace Crud",
			DestructiveHint: boolPtr(true),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.replaceCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_crud",
		Description: "Delete a crud resource by id. Its tags are kept.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Crud",
			DestructiveHint: boolPtr(true),
			IdempotentHint:  true,
			OpenWorldHint:   boolPtr(false),
		},
	}, t.deleteCrud)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_tag",
		Description: "Create a tag. With crud_id the tag is appended to that resource's tags.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Tag",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.createTag)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tags",
		Description: "List every tag.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Tags",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(false),
		},
	}, t.listTags)
}

type ListCrudInput struct {
	Title string `json:"title,omitempty" jsonschema:"exact title to match"`
}

func (t *tools) listCrud(ctx context.Context, req *mcp.CallToolRequest, input ListCrudInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	cruds, err := t.client.ListCrud(ctx, strings.TrimSpace(input.Title))
	if err != nil {
		return nil, nil, err
	}
	return nil, wrapResultAsObject(cruds), nil
}

type IDInput struct {
	ID uint `json:"id" jsonschema:"crud resource id"`
}

func (t *tools) getCrud(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	crud, err := t.client.GetCrud(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}
	return nil, wrapResultAsObject(crud), nil
}

type CreateCrudInput struct {
	Title string   `json:"title" jsonschema:"resource title"`
	Body  string   `json:"body" jsonschema:"resource body"`
	Tags  []string `json:"tags,omitempty" jsonschema:"tag locations such as /tags/1"`
}

func (t *tools) createCrud(ctx context.Context, req *mcp.CallToolRequest, input CreateCrudInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Body) == "" {
		return nil, nil, errors.New("title and body are required")
	}
	crud, location, err := t.client.CreateCrud(ctx, api.CrudInput{Title: input.Title, Body: input.Body, Tags: input.Tags})
	if err != nil {
		return nil, nil, err
	}
	out := wrapResultAsObject(crud)
	out["location"] = location
	return nil, out, nil
}

type UpdateCrudInput struct {
	ID    uint      `json:"id" jsonschema:"crud resource id"`
	Title *string   `json:"title,omitempty" jsonschema:"new title"`
	Body  *string   `json:"body,omitempty" jsonschema:"new body"`
	Tags  *[]string `json:"tags,omitempty" jsonschema:"new tag locations, replacing the current ones"`
}

func (t *tools) updateCrud(ctx context.Context, req *mcp.CallToolRequest, input UpdateCrudInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	if input.Title == nil && input.Body == nil && input.Tags == nil {
		return nil, nil, errors.New("nothing to update: pass title, body or tags")
	}
	if err := t.client.PatchCrud(ctx, input.ID, api.CrudPatch{Title: input.Title, Body: input.Body, Tags: input.Tags}); err != nil {
		return nil, nil, err
	}
	crud, err := t.client.GetCrud(ctx, input.ID)
	if err != nil {
		return nil, nil, err
	}
	return nil, wrapResultAsObject(crud), nil
}

type ReplaceCrudInput struct {
	ID    uint     `json:"id" jsonschema:"crud resource id"`
	Title string   `json:"title" jsonschema:"resource title"`
	Body  string   `json:"body" jsonschema:"resource body"`
	Tags  []string `json:"tags,omitempty" jsonschema:"tag locations; omitted clears the tags"`
}

func (t *tools) replaceCrud(ctx context.Context, req *mcp.CallToolRequest, input ReplaceCrudInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	crud, err := t.client.PutCrud(ctx, input.ID, api.CrudInput{Title: input.Title, Body: input.Body, Tags: input.Tags})
	if err != nil {
		return nil, nil, err
	}
	return nil, wrapResultAsObject(crud), nil
}

func (t *tools) deleteCrud(ctx context.Context, req *mcp.CallToolRequest, input IDInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if input.ID == 0 {
		return nil, nil, errors.New("id is required")
	}
	if err := t.client.DeleteCrud(ctx, input.ID); err != nil {
		return nil, nil, err
	}
	return nil, map[string]interface{}{"deleted": input.ID}, nil
}

type CreateTagInput struct {
	Name   string `json:"name" jsonschema:"tag name"`
	CrudID uint   `json:"crud_id,omitempty" jsonschema:"resource to append the new tag to"`
}

func (t *tools) createTag(ctx context.Context, req *mcp.CallToolRequest, input CreateTagInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, errors.New("name is required")
	}

	if input.CrudID != 0 {
		location, err := t.client.AttachTag(ctx, http.MethodPatch, input.CrudID, name)
		if err != nil {
			return nil, nil, err
		}
		return nil, map[string]interface{}{
			"location": location,
			"crud_id":  input.CrudID,
			"message":  fmt.Sprintf("tag %q appended to crud %d", name, input.CrudID),
		}, nil
	}

	tag, location, err := t.client.CreateTag(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	out := wrapResultAsObject(tag)
	out["location"] = location
	return nil, out, nil
}

type EmptyInput struct{}

func (t *tools) listTags(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	tags, err := t.client.ListTags(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, wrapResultAsObject(tags), nil
}

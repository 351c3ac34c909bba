package restdocs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrUndocumented is returned when an exchange carries something no descriptor covers
	ErrUndocumented = errors.New("undocumented")
	// ErrMissing is returned when a documented item is absent from the exchange
	ErrMissing = errors.New("documented but not present")
)

// FieldDescriptor documents one JSON payload field
type FieldDescriptor struct {
	path        string
	description string
	fieldType   string
	optional    bool
	subsection  bool
}

// FieldWithPath documents the field at a dotted path; `a[]` addresses an array
// and `a[].b` a field of its elements.
func FieldWithPath(path string) FieldDescriptor {
	return FieldDescriptor{path: path}
}

// SubsectionWithPath documents a field and everything beneath it
func SubsectionWithPath(path string) FieldDescriptor {
	return FieldDescriptor{path: path, subsection: true}
}

func (d FieldDescriptor) Description(text string) FieldDescriptor {
	d.description = text
	return d
}

func (d FieldDescriptor) Type(t string) FieldDescriptor {
	d.fieldType = t
	return d
}

func (d FieldDescriptor) Optional() FieldDescriptor {
	d.optional = true
	return d
}

// RequestFields documents the request payload
func RequestFields(fields ...FieldDescriptor) Snippet {
	return fieldsSnippet{name: "request-fields", fields: fields, body: func(ex Exchange) []byte { return ex.Request.Body }}
}

// ResponseFields documents the response payload
func ResponseFields(fields ...FieldDescriptor) Snippet {
	return fieldsSnippet{name: "response-fields", fields: fields, body: func(ex Exchange) []byte { return ex.Response.Body }}
}

type fieldsSnippet struct {
	name   string
	fields []FieldDescriptor
	body   func(ex Exchange) []byte
}

func (s fieldsSnippet) Name() string { return s.name }

func (s fieldsSnippet) Render(ex Exchange) ([]byte, error) {
	var payload interface{}
	if err := json.Unmarshal(s.body(ex), &payload); err != nil {
		return nil, fmt.Errorf("%s: payload is not JSON: %w", s.name, err)
	}

	rows := make([][]string, 0, len(s.fields))
	for _, f := range s.fields {
		values, ok := resolvePath(payload, splitPath(f.path))
		if !ok && !f.optional {
			return nil, fmt.Errorf("%s: field %q %w", s.name, f.path, ErrMissing)
		}
		typ := f.fieldType
		if typ == "" {
			typ = jsonType(values)
		}
		rows = append(rows, []string{"`" + f.path + "`", "`" + typ + "`", f.description})
	}

	var leaves []string
	collectLeaves(payload, "", &leaves)
	seen := make(map[string]bool)
	var undocumented []string
	for _, leaf := range leaves {
		if !seen[leaf] && !s.covers(leaf) {
			undocumented = append(undocumented, leaf)
		}
		seen[leaf] = true
	}
	if len(undocumented) > 0 {
		sort.Strings(undocumented)
		return nil, fmt.Errorf("%s: fields %v are %w", s.name, undocumented, ErrUndocumented)
	}

	return table([]string{"Path", "Type", "Description"}, rows), nil
}

// covers reports whether a descriptor documents leaf or one of its ancestors.
// Documenting a.b leaves a.c undocumented.
func (s fieldsSnippet) covers(leaf string) bool {
	for _, f := range s.fields {
		if leaf == f.path || strings.HasPrefix(leaf, f.path+".") || strings.HasPrefix(leaf, f.path+"[]") {
			return true
		}
	}
	return false
}

// collectLeaves lists the paths of every scalar, empty object and empty array
// in v, using the descriptor path syntax.
func collectLeaves(v interface{}, prefix string, out *[]string) {
	switch v := v.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			if prefix != "" {
				*out = append(*out, prefix)
			}
			return
		}
		for key, child := range v {
			path := key
			if prefix != "" {
				path = prefix + "." + key
			}
			collectLeaves(child, path, out)
		}
	case []interface{}:
		path := prefix + "[]"
		if len(v) == 0 {
			*out = append(*out, path)
			return
		}
		for _, item := range v {
			collectLeaves(item, path, out)
		}
	default:
		if prefix != "" {
			*out = append(*out, prefix)
		}
	}
}

func splitPath(path string) []string {
	return strings.Split(path, ".")
}

func resolvePath(v interface{}, segments []string) ([]interface{}, bool) {
	if len(segments) == 0 {
		return []interface{}{v}, true
	}
	key := strings.TrimSuffix(segments[0], "[]")
	isArray := key != segments[0]
	rest := segments[1:]

	object, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	child, ok := object[key]
	if !ok {
		return nil, false
	}
	if !isArray {
		return resolvePath(child, rest)
	}

	items, ok := child.([]interface{})
	if !ok {
		return nil, false
	}
	if len(rest) == 0 {
		return []interface{}{child}, true
	}
	var out []interface{}
	for _, item := range items {
		if values, ok := resolvePath(item, rest); ok {
			out = append(out, values...)
		}
	}
	return out, len(out) > 0
}

func jsonType(values []interface{}) string {
	typ := ""
	for _, v := range values {
		t := jsonTypeOf(v)
		if typ != "" && typ != t {
			return "Varies"
		}
		typ = t
	}
	if typ == "" {
		return "Null"
	}
	return typ
}

func jsonTypeOf(v interface{}) string {
	switch v.(type) {
	case string:
		return "String"
	case float64:
		return "Number"
	case bool:
		return "Boolean"
	case []interface{}:
		return "Array"
	case map[string]interface{}:
		return "Object"
	default:
		return "Null"
	}
}

// LinkDescriptor documents one HAL link relation
type LinkDescriptor struct {
	rel         string
	description string
	optional    bool
}

func LinkWithRel(rel string) LinkDescriptor {
	return LinkDescriptor{rel: rel}
}

func (d LinkDescriptor) Description(text string) LinkDescriptor {
	d.description = text
	return d
}

func (d LinkDescriptor) Optional() LinkDescriptor {
	d.optional = true
	return d
}

// Links documents the `_links` of a HAL response
func Links(links ...LinkDescriptor) Snippet {
	return linksSnippet{links: links}
}

type linksSnippet struct {
	links []LinkDescriptor
}

func (s linksSnippet) Name() string { return "links" }

func (s linksSnippet) Render(ex Exchange) ([]byte, error) {
	var payload struct {
		Links map[string]json.RawMessage `json:"_links"`
	}
	if err := json.Unmarshal(ex.Response.Body, &payload); err != nil {
		return nil, fmt.Errorf("links: payload is not JSON: %w", err)
	}

	documented := make(map[string]bool, len(s.links))
	rows := make([][]string, 0, len(s.links))
	for _, l := range s.links {
		documented[l.rel] = true
		if _, ok := payload.Links[l.rel]; !ok && !l.optional {
			return nil, fmt.Errorf("links: rel %q %w", l.rel, ErrMissing)
		}
		rows = append(rows, []string{"`" + l.rel + "`", l.description})
	}

	var undocumented []string
	for rel := range payload.Links {
		if !documented[rel] {
			undocumented = append(undocumented, rel)
		}
	}
	if len(undocumented) > 0 {
		sort.Strings(undocumented)
		return nil, fmt.Errorf("links: rels %v are %w", undocumented, ErrUndocumented)
	}

	return table([]string{"Relation", "Description"}, rows), nil
}

// HeaderDescriptor documents one HTTP header
type HeaderDescriptor struct {
	name        string
	description string
	optional    bool
}

func HeaderWithName(name string) HeaderDescriptor {
	return HeaderDescriptor{name: name}
}

func (d HeaderDescriptor) Description(text string) HeaderDescriptor {
	d.description = text
	return d
}

func (d HeaderDescriptor) Optional() HeaderDescriptor {
	d.optional = true
	return d
}

// RequestHeaders documents request headers
func RequestHeaders(headers ...HeaderDescriptor) Snippet {
	return headersSnippet{name: "request-headers", headers: headers, source: func(ex Exchange) http.Header { return ex.Request.Header }}
}

// ResponseHeaders documents response headers
func ResponseHeaders(headers ...HeaderDescriptor) Snippet {
	return headersSnippet{name: "response-headers", headers: headers, source: func(ex Exchange) http.Header { return ex.Response.Header }}
}

type headersSnippet struct {
	name    string
	headers []HeaderDescriptor
	source  func(ex Exchange) http.Header
}

func (s headersSnippet) Name() string { return s.name }

func (s headersSnippet) Render(ex Exchange) ([]byte, error) {
	header := s.source(ex)
	rows := make([][]string, 0, len(s.headers))
	for _, h := range s.headers {
		if header.Get(h.name) == "" && !h.optional {
			return nil, fmt.Errorf("%s: header %q %w", s.name, h.name, ErrMissing)
		}
		rows = append(rows, []string{"`" + h.name + "`", h.description})
	}
	return table([]string{"Name", "Description"}, rows), nil
}

// ParameterDescriptor documents one path parameter
type ParameterDescriptor struct {
	name        string
	description string
}

func ParameterWithName(name string) ParameterDescriptor {
	return ParameterDescriptor{name: name}
}

func (d ParameterDescriptor) Description(text string) ParameterDescriptor {
	d.description = text
	return d
}

// PathParameters documents the parameters of the matched route
func PathParameters(params ...ParameterDescriptor) Snippet {
	return pathParametersSnippet{params: params}
}

type pathParametersSnippet struct {
	params []ParameterDescriptor
}

var routeParam = regexp.MustCompile(`[:*]([A-Za-z0-9_]+)`)

func (s pathParametersSnippet) Name() string { return "path-parameters" }

func (s pathParametersSnippet) Render(ex Exchange) ([]byte, error) {
	documented := make(map[string]bool, len(s.params))
	rows := make([][]string, 0, len(s.params))
	for _, p := range s.params {
		documented[p.name] = true
		if _, ok := ex.PathParameters[p.name]; !ok {
			return nil, fmt.Errorf("path-parameters: parameter %q %w", p.name, ErrMissing)
		}
		rows = append(rows, []string{"`" + p.name + "`", p.description})
	}
	for name := range ex.PathParameters {
		if !documented[name] {
			return nil, fmt.Errorf("path-parameters: parameter %q is %w", name, ErrUndocumented)
		}
	}

	title := ".+" + routeParam.ReplaceAllString(ex.Route, "{$1}") + "+\n"
	return append([]byte(title), table([]string{"Parameter", "Description"}, rows)...), nil
}

package restdocs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/alessio/shellescape"
)

// Snippet renders one documentation file for an exchange.
type Snippet interface {
	Name() string
	Render(ex Exchange) ([]byte, error)
}

// DefaultSnippets are written for every documented exchange
func DefaultSnippets() []Snippet {
	return []Snippet{
		CurlRequest(),
		HTTPRequest(),
		HTTPResponse(),
		RequestBody(),
		ResponseBody(),
	}
}

type snippetFunc struct {
	name   string
	render func(ex Exchange) ([]byte, error)
}

func (s snippetFunc) Name() string                       { return s.name }
func (s snippetFunc) Render(ex Exchange) ([]byte, error) { return s.render(ex) }

// CurlRequest renders the request as a curl command line
func CurlRequest() Snippet {
	return snippetFunc{name: "curl-request", render: func(ex Exchange) ([]byte, error) {
		var b bytes.Buffer
		b.WriteString("[source,bash]\n----\n$ curl ")
		b.WriteString(shellescape.Quote(ex.Request.URL.String()))
		b.WriteString(" -i -X ")
		b.WriteString(ex.Request.Method)
		for _, name := range sortedHeaderNames(ex.Request.Header) {
			for _, value := range ex.Request.Header.Values(name) {
				b.WriteString(" \\\n    -H ")
				b.WriteString(shellescape.Quote(name + ": " + value))
			}
		}
		if len(ex.Request.Body) > 0 {
			b.WriteString(" \\\n    -d ")
			b.WriteString(shellescape.Quote(string(compact(ex.Request.Body))))
		}
		b.WriteString("\n----\n")
		return b.Bytes(), nil
	}}
}

// HTTPRequest renders the raw HTTP request
func HTTPRequest() Snippet {
	return snippetFunc{name: "http-request", render: func(ex Exchange) ([]byte, error) {
		var b bytes.Buffer
		b.WriteString("[source,http,options=\"nowrap\"]\n----\n")
		fmt.Fprintf(&b, "%s %s HTTP/1.1\n", ex.Request.Method, ex.Request.URL.RequestURI())
		writeHeaders(&b, ex.Request.Header, ex.Request.Body)
		fmt.Fprintf(&b, "Host: %s\n", ex.Request.URL.Host)
		b.WriteString("\n")
		b.Write(ex.Request.Body)
		b.WriteString("\n----\n")
		return b.Bytes(), nil
	}}
}

// HTTPResponse renders the raw HTTP response
func HTTPResponse() Snippet {
	return snippetFunc{name: "http-response", render: func(ex Exchange) ([]byte, error) {
		var b bytes.Buffer
		b.WriteString("[source,http,options=\"nowrap\"]\n----\n")
		fmt.Fprintf(&b, "HTTP/1.1 %d %s\n", ex.Response.Status, http.StatusText(ex.Response.Status))
		writeHeaders(&b, ex.Response.Header, ex.Response.Body)
		b.WriteString("\n")
		b.Write(ex.Response.Body)
		b.WriteString("\n----\n")
		return b.Bytes(), nil
	}}
}

// RequestBody renders the request payload alone
func RequestBody() Snippet {
	return snippetFunc{name: "request-body", render: func(ex Exchange) ([]byte, error) {
		return sourceBlock(ex.Request.Body), nil
	}}
}

// ResponseBody renders the response payload alone
func ResponseBody() Snippet {
	return snippetFunc{name: "response-body", render: func(ex Exchange) ([]byte, error) {
		return sourceBlock(ex.Response.Body), nil
	}}
}

func sourceBlock(body []byte) []byte {
	var b bytes.Buffer
	b.WriteString("[source,options=\"nowrap\"]\n----\n")
	b.Write(body)
	b.WriteString("\n----\n")
	return b.Bytes()
}

func writeHeaders(b *bytes.Buffer, header http.Header, body []byte) {
	for _, name := range sortedHeaderNames(header) {
		if name == "Content-Length" {
			continue
		}
		for _, value := range header.Values(name) {
			fmt.Fprintf(b, "%s: %s\n", name, value)
		}
	}
	if len(body) > 0 {
		fmt.Fprintf(b, "Content-Length: %d\n", len(body))
	}
}

func sortedHeaderNames(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, http.CanonicalHeaderKey(name))
	}
	sort.Strings(names)
	return names
}

// PrettyPrint indents JSON bodies. Non-JSON bodies are returned unchanged.
func PrettyPrint(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return body
	}
	var out bytes.Buffer
	if err := json.Indent(&out, trimmed, "", "  "); err != nil {
		return body
	}
	return out.Bytes()
}

func compact(body []byte) []byte {
	var out bytes.Buffer
	if err := json.Compact(&out, body); err != nil {
		return body
	}
	return out.Bytes()
}

// table renders an asciidoc table with a header row
func table(header []string, rows [][]string) []byte {
	var b bytes.Buffer
	b.WriteString("|===\n|")
	b.WriteString(strings.Join(header, "|"))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("\n")
		for _, cell := range row {
			b.WriteString("|")
			b.WriteString(cell)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n|===\n")
	return b.Bytes()
}

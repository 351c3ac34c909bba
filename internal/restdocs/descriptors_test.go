package restdocs

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exchangeWith(reqBody, respBody string) Exchange {
	u, _ := url.Parse("http://localhost:8080/crud/1")
	return Exchange{
		Request: Request{
			Method: http.MethodPatch,
			URL:    u,
			Header: http.Header{"Content-Type": {"application/hal+json"}},
			Body:   []byte(reqBody),
		},
		Response: Response{
			Status: http.StatusOK,
			Header: http.Header{"Content-Type": {"application/hal+json"}, "Location": {"http://localhost:8080/tags/1"}},
			Body:   []byte(respBody),
		},
		Route:          "/crud/:id",
		PathParameters: map[string]string{"id": "1"},
	}
}

func TestFieldsSnippet(t *testing.T) {
	ex := exchangeWith(
		`{"title":"Sample Model","tags":["http://localhost:8080/tags/1"],"meta":{"a":1,"b":true}}`,
		`{"_embedded":{"crud":[{"id":1},{"id":"x"}]}}`,
	)

	tests := []struct {
		name    string
		snippet Snippet
		wantErr error
		want    []string
	}{
		{
			name: "all documented",
			snippet: RequestFields(
				FieldWithPath("title").Description("The title"),
				FieldWithPath("tags").Description("Tag locations"),
				SubsectionWithPath("meta"),
			),
			want: []string{"|`title`\n|`String`\n|The title", "|`tags`\n|`Array`", "|`meta`\n|`Object`"},
		},
		{
			name:    "array element field",
			snippet: RequestFields(FieldWithPath("tags[]"), FieldWithPath("title"), FieldWithPath("meta.b"), FieldWithPath("meta.a")),
			want:    []string{"|`tags[]`\n|`Array`", "|`meta.b`\n|`Boolean`", "|`meta.a`\n|`Number`"},
		},
		{
			name:    "explicit type",
			snippet: RequestFields(FieldWithPath("title").Type("Text"), FieldWithPath("tags"), FieldWithPath("meta")),
			want:    []string{"|`title`\n|`Text`"},
		},
		{
			name:    "undocumented field",
			snippet: RequestFields(FieldWithPath("title"), FieldWithPath("tags")),
			wantErr: ErrUndocumented,
		},
		{
			name:    "undocumented nested sibling",
			snippet: RequestFields(FieldWithPath("title"), FieldWithPath("tags"), FieldWithPath("meta.b")),
			wantErr: ErrUndocumented,
		},
		{
			name:    "parent documents descendants",
			snippet: RequestFields(FieldWithPath("title"), FieldWithPath("tags[]"), FieldWithPath("meta").Description("Free form")),
			want:    []string{"|`meta`\n|`Object`\n|Free form"},
		},
		{
			name:    "missing field",
			snippet: RequestFields(FieldWithPath("title"), FieldWithPath("tags"), FieldWithPath("meta"), FieldWithPath("body")),
			wantErr: ErrMissing,
		},
		{
			name:    "optional missing field",
			snippet: RequestFields(FieldWithPath("title"), FieldWithPath("tags"), FieldWithPath("meta"), FieldWithPath("body").Optional()),
			want:    []string{"|`body`\n|`Null`"},
		},
		{
			name:    "varying types",
			snippet: ResponseFields(FieldWithPath("_embedded.crud[].id")),
			want:    []string{"|`_embedded.crud[].id`\n|`Varies`"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.snippet.Render(ex)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(out), "|===\n|Path|Type|Description\n"))
			for _, w := range tt.want {
				assert.Contains(t, string(out), w)
			}
		})
	}
}

func TestFieldsSnippetNamesUndocumentedLeaves(t *testing.T) {
	ex := exchangeWith(`{"a":{"b":1,"c":{"d":[{"e":1,"f":2}]}},"empty":{},"list":[]}`, "")

	_, err := RequestFields(
		FieldWithPath("a.b"),
		FieldWithPath("a.c.d[].e"),
		FieldWithPath("empty"),
		FieldWithPath("list"),
	).Render(ex)
	require.ErrorIs(t, err, ErrUndocumented)
	assert.Contains(t, err.Error(), "[a.c.d[].f]")

	_, err = RequestFields(
		FieldWithPath("a.b"),
		SubsectionWithPath("a.c"),
		FieldWithPath("empty"),
		FieldWithPath("list[]"),
	).Render(ex)
	assert.NoError(t, err)
}

func TestFieldsSnippetRejectsNonJSON(t *testing.T) {
	_, err := RequestFields(FieldWithPath("a")).Render(exchangeWith("plain text", ""))
	assert.Error(t, err)
}

func TestLinksSnippet(t *testing.T) {
	ex := exchangeWith("", `{"_links":{"self":{"href":"http://localhost:8080/crud/1"},"crud":{"href":"http://localhost:8080/crud"}}}`)

	out, err := Links(LinkWithRel("self").Description("This resource"), LinkWithRel("crud")).Render(ex)
	require.NoError(t, err)
	assert.Contains(t, string(out), "|`self`\n|This resource")

	_, err = Links(LinkWithRel("self")).Render(ex)
	assert.ErrorIs(t, err, ErrUndocumented)

	_, err = Links(LinkWithRel("self"), LinkWithRel("crud"), LinkWithRel("tags")).Render(ex)
	assert.ErrorIs(t, err, ErrMissing)

	_, err = Links(LinkWithRel("self"), LinkWithRel("crud"), LinkWithRel("tags").Optional()).Render(ex)
	assert.NoError(t, err)
}

func TestHeadersSnippet(t *testing.T) {
	ex := exchangeWith("", "")

	out, err := ResponseHeaders(HeaderWithName("Location").Description("The new tag")).Render(ex)
	require.NoError(t, err)
	assert.Contains(t, string(out), "|`Location`\n|The new tag")

	_, err = RequestHeaders(HeaderWithName("Authorization")).Render(ex)
	assert.ErrorIs(t, err, ErrMissing)

	_, err = RequestHeaders(HeaderWithName("Authorization").Optional()).Render(ex)
	assert.NoError(t, err)
}

func TestPathParametersSnippet(t *testing.T) {
	ex := exchangeWith("", "")

	out, err := PathParameters(ParameterWithName("id").Description("The id")).Render(ex)
	require.NoError(t, err)
	assert.Equal(t, ".+/crud/{id}+\n|===\n|Parameter|Description\n\n|`id`\n|The id\n\n|===\n", string(out))

	_, err = PathParameters().Render(ex)
	assert.ErrorIs(t, err, ErrUndocumented)

	_, err = PathParameters(ParameterWithName("id"), ParameterWithName("tag")).Render(ex)
	assert.ErrorIs(t, err, ErrMissing)
}

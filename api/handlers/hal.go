package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/crud-docs/pkg/models"
)

// MediaTypeHAL is the content type of every representation
const MediaTypeHAL = "application/hal+json"

// Link is a HAL link object
type Link struct {
	Href string `json:"href"`
}

// Links maps relation names to links
type Links map[string]Link

// IndexResource is the API entry point
type IndexResource struct {
	Links Links `json:"_links"`
}

// CrudResource is the HAL representation of a crud
type CrudResource struct {
	ID    uint     `json:"id"`
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
	Links Links    `json:"_links"`
}

// TagResource is the HAL representation of a tag
type TagResource struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Links Links  `json:"_links"`
}

// CrudCollection is the HAL representation of /crud
type CrudCollection struct {
	Embedded struct {
		Crud []CrudResource `json:"crud"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// TagCollection is the HAL representation of /tags
type TagCollection struct {
	Embedded struct {
		Tags []TagResource `json:"tags"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// baseURL returns the configured base URL or the one the client used
func (h *Handler) baseURL(c *gin.Context) string {
	if h.base != "" {
		return h.base
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

func crudHref(base string, id uint) string {
	return fmt.Sprintf("%s/crud/%d", base, id)
}

func tagHref(base string, id uint) string {
	return fmt.Sprintf("%s/tags/%d", base, id)
}

func toCrudResource(base string, crud *models.Crud) CrudResource {
	tags := make([]string, 0, len(crud.TagIDs))
	for _, id := range crud.TagIDs {
		tags = append(tags, tagHref(base, id))
	}
	return CrudResource{
		ID:    crud.ID,
		Title: crud.Title,
		Body:  crud.Body,
		Tags:  tags,
		Links: Links{
			"self": {Href: crudHref(base, crud.ID)},
			"crud": {Href: base + "/crud"},
		},
	}
}

func toTagResource(base string, tag *models.Tag) TagResource {
	return TagResource{
		ID:    tag.ID,
		Name:  tag.Name,
		Links: Links{"self": {Href: tagHref(base, tag.ID)}},
	}
}

// respondHAL writes body with the HAL media type
func respondHAL(c *gin.Context, status int, body interface{}) {
	c.Header("Content-Type", MediaTypeHAL)
	c.JSON(status, body)
}

// respondEmpty writes a bodiless response that still carries the HAL media type
func respondEmpty(c *gin.Context, status int) {
	c.Header("Content-Type", MediaTypeHAL)
	c.Status(status)
}

func trimBase(s string) string {
	return strings.TrimRight(s, "/")
}

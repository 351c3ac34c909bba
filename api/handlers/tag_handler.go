package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateTagInput DTO for creating a new tag
type CreateTagInput struct {
	Name string `json:"name" binding:"required"`
}

// CreateTag creates a tag and answers 201 with its Location.
func (h *Handler) CreateTag(c *gin.Context) {
	var input CreateTagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, badRequestError(err))
		return
	}
	h.createTag(c, input.Name, http.StatusCreated)
}

// GetTag retrieves a single tag by its ID.
func (h *Handler) GetTag(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	tag, err := h.svc.GetTag(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondHAL(c, http.StatusOK, toTagResource(h.baseURL(c), tag))
}

// ListTags retrieves all tags.
func (h *Handler) ListTags(c *gin.Context) {
	tags, err := h.svc.ListTags(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	base := h.baseURL(c)
	var out TagCollection
	out.Embedded.Tags = make([]TagResource, 0, len(tags))
	for i := range tags {
		out.Embedded.Tags = append(out.Embedded.Tags, toTagResource(base, &tags[i]))
	}
	out.Links = Links{"self": {Href: base + "/tags"}}
	respondHAL(c, http.StatusOK, out)
}

func (h *Handler) createTag(c *gin.Context, name string, status int) {
	tag, err := h.svc.CreateTag(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	base := h.baseURL(c)
	c.Header("Location", tagHref(base, tag.ID))
	respondHAL(c, status, toTagResource(base, tag))
}

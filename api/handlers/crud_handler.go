package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kutbudev/crud-docs/pkg/service"
)

// CreateCrudInput DTO for creating a new crud
type CreateCrudInput struct {
	Title string   `json:"title" binding:"required"`
	Body  string   `json:"body" binding:"required"`
	Tags  []string `json:"tags"`
}

// ListCrud serves GET /crud. Without a body it lists the collection, with a
// tag payload it creates a tag and with crud fields it filters by them.
func (h *Handler) ListCrud(c *gin.Context) {
	p, present, err := readPayload(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	if present && p.isTag() {
		h.createTag(c, *p.Name, http.StatusOK)
		return
	}

	filter := service.Filter{
		Title: c.Query("title"),
		Body:  c.Query("body"),
	}
	if present {
		if p.Title != nil {
			filter.Title = *p.Title
		}
		if p.Body != nil {
			filter.Body = *p.Body
		}
		if p.Tags != nil {
			if filter.TagIDs, err = h.parseTagLocations(*p.Tags); err != nil {
				h.fail(c, err)
				return
			}
		}
	}

	cruds, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	base := h.baseURL(c)
	var out CrudCollection
	out.Embedded.Crud = make([]CrudResource, 0, len(cruds))
	for i := range cruds {
		out.Embedded.Crud = append(out.Embedded.Crud, toCrudResource(base, &cruds[i]))
	}
	out.Links = Links{"self": {Href: base + "/crud"}}
	respondHAL(c, http.StatusOK, out)
}

// CreateCrud creates a new crud.
func (h *Handler) CreateCrud(c *gin.Context) {
	var input CreateCrudInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	tagIDs, err := h.parseTagLocations(input.Tags)
	if err != nil {
		h.fail(c, err)
		return
	}

	crud, err := h.svc.Create(c.Request.Context(), service.CreateInput{
		Title:  input.Title,
		Body:   input.Body,
		TagIDs: tagIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	base := h.baseURL(c)
	c.Header("Location", crudHref(base, crud.ID))
	respondHAL(c, http.StatusCreated, toCrudResource(base, crud))
}

// GetCrud retrieves a single crud by its ID.
func (h *Handler) GetCrud(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	crud, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondHAL(c, http.StatusOK, toCrudResource(h.baseURL(c), crud))
}

// PatchCrud applies a partial update and answers 204. A tag payload creates
// the tag, appends it and returns its Location.
func (h *Handler) PatchCrud(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	p, present, err := readPayload(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}
	if !present {
		h.fail(c, badRequestError(errEmptyBody))
		return
	}

	if p.isTag() {
		h.attachTag(c, id, *p.Name, http.StatusNoContent)
		return
	}

	in := service.PatchInput{Title: p.Title, Body: p.Body}
	if p.Tags != nil {
		ids, err := h.parseTagLocations(*p.Tags)
		if err != nil {
			h.fail(c, err)
			return
		}
		in.TagIDs = &ids
	}

	if _, err := h.svc.PartialUpdate(c.Request.Context(), id, in); err != nil {
		h.fail(c, err)
		return
	}
	respondEmpty(c, http.StatusNoContent)
}

// PutCrud replaces every mutable field and answers 202. A tag payload
// creates the tag, appends it and returns its Location.
func (h *Handler) PutCrud(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	p, present, err := readPayload(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}
	if !present {
		h.fail(c, badRequestError(errEmptyBody))
		return
	}

	if p.isTag() {
		h.attachTag(c, id, *p.Name, http.StatusAccepted)
		return
	}

	in := service.PutInput{}
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Body != nil {
		in.Body = *p.Body
	}
	if p.Tags != nil {
		if in.TagIDs, err = h.parseTagLocations(*p.Tags); err != nil {
			h.fail(c, err)
			return
		}
	}

	crud, err := h.svc.FullUpdate(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respondHAL(c, http.StatusAccepted, toCrudResource(h.baseURL(c), crud))
}

// DeleteCrud deletes a crud.
func (h *Handler) DeleteCrud(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		h.fail(c, badRequestError(err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	respondEmpty(c, http.StatusOK)
}

func (h *Handler) attachTag(c *gin.Context, id uint, name string, status int) {
	tag, err := h.svc.AttachNewTag(c.Request.Context(), id, name)
	if err != nil {
		h.fail(c, err)
		return
	}

	base := h.baseURL(c)
	c.Header("Location", tagHref(base, tag.ID))
	if status == http.StatusNoContent {
		respondEmpty(c, status)
		return
	}
	respondHAL(c, status, toTagResource(base, tag))
}

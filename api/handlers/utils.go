package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/kutbudev/crud-docs/pkg/service"
)

var errEmptyBody = errors.New("request body is required")

// payload accepts both crud fields and a tag name; which one a request
// carries decides the operation on the /crud endpoints.
type payload struct {
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags"`
	Name  *string   `json:"name"`
}

// isTag reports a payload that only names a new tag
func (p *payload) isTag() bool {
	return p.Name != nil && p.Title == nil && p.Body == nil && p.Tags == nil
}

// readPayload decodes an optional JSON body. present is false for an empty body.
func readPayload(c *gin.Context) (p payload, present bool, err error) {
	data, err := c.GetRawData()
	if err != nil {
		return p, false, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return p, false, nil
	}
	if err := binding.JSON.BindBody(data, &p); err != nil {
		return p, true, err
	}
	return p, true, nil
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

var errNotTagLocation = errors.New("not a tag location")

// ParseTagLocation extracts the tag id from an absolute or relative tag
// location. The path must be /tags/{id}, or basePath/tags/{id} when the
// service is mounted under a prefix.
func ParseTagLocation(location, basePath string) (uint, error) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil {
		return 0, err
	}
	path := strings.TrimSuffix(u.Path, "/")
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return 0, errNotTagLocation
	}
	if prefix := path[:i]; prefix != "/tags" && prefix != strings.TrimRight(basePath, "/")+"/tags" {
		return 0, errNotTagLocation
	}
	id, err := strconv.ParseUint(path[i+1:], 10, 64)
	if err != nil || id == 0 {
		return 0, errNotTagLocation
	}
	return uint(id), nil
}

func (h *Handler) parseTagLocations(locations []string) ([]uint, error) {
	ids := make([]uint, 0, len(locations))
	for _, loc := range locations {
		id, err := ParseTagLocation(loc, h.basePath)
		if err != nil {
			return nil, invalidTagError(loc)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func invalidTagError(loc string) error {
	return badRequest{msg: "invalid tag location: " + loc}
}

// fail maps an error to a status and writes it
func (h *Handler) fail(c *gin.Context, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, service.ErrValidation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequestError(err error) error {
	return badRequest{msg: err.Error()}
}

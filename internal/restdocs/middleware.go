package restdocs

import (
	"bytes"
	"io"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware hands every exchange handled by the engine to observer.
func Middleware(observer Observer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var reqBody []byte
		if c.Request.Body != nil {
			reqBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		params := make(map[string]string, len(c.Params))
		for _, p := range c.Params {
			params[p.Key] = p.Value
		}

		observer.Observe(Exchange{
			ID: uuid.NewString(),
			Request: Request{
				Method: c.Request.Method,
				URL:    requestURL(c),
				Header: c.Request.Header.Clone(),
				Body:   reqBody,
			},
			Response: Response{
				Status: writer.Status(),
				Header: writer.Header().Clone(),
				Body:   writer.body.Bytes(),
			},
			Route:          c.FullPath(),
			PathParameters: params,
		})
	}
}

func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil {
		u.Scheme = "https"
	}
	return &u
}

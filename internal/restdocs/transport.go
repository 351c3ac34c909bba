package restdocs

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// Transport reports every round trip of an http.Client to Observer. Route
// and PathParameters are unknown on the client side and left empty.
type Transport struct {
	Base     http.RoundTripper
	Observer Observer
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var reqBody []byte
	out := req
	if req.Body != nil && req.Body != http.NoBody {
		data, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		reqBody = data
		out = req.Clone(req.Context())
		out.Body = io.NopCloser(bytes.NewReader(data))
	}

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))

	u := *req.URL
	t.Observer.Observe(Exchange{
		ID: uuid.NewString(),
		Request: Request{
			Method: req.Method,
			URL:    &u,
			Header: req.Header.Clone(),
			Body:   reqBody,
		},
		Response: Response{
			Status: resp.StatusCode,
			Header: resp.Header.Clone(),
			Body:   respBody,
		},
	})
	return resp, nil
}

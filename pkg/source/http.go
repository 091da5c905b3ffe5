package source

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/observability"
	"github.com/matzehuels/familytree/pkg/tree"
)

// HTTP fetches a tree document with a single GET request.
type HTTP struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// NewHTTP creates an HTTP source. A nil client uses a client without a
// timeout; bound the fetch with the context instead.
func NewHTTP(rawURL string, client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTP{
		url:     rawURL,
		client:  client,
		headers: map[string]string{"Accept": "application/json"},
	}
}

// WithHeader sets a request header sent with every fetch.
func (s *HTTP) WithHeader(key, value string) *HTTP {
	s.headers[key] = value
	return s
}

// Fetch performs one GET and decodes the body. Any status other than 200
// is a failure.
func (s *HTTP) Fetch(ctx context.Context) (*tree.Document, error) {
	if err := errors.ValidateURL(s.url); err != nil {
		return nil, err
	}
	resp, err := s.doRequest(ctx)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return decode(resp.Body, s.url)
}

func (s *HTTP) doRequest(ctx context.Context) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "build request")
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	host, path := hostPath(s.url)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := s.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", s.url)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := s.checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (s *HTTP) checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return notFound(s.url)
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", s.url, code)
	}
}

// String returns the URL.
func (s *HTTP) String() string { return s.url }

// Close does nothing for HTTP sources.
func (s *HTTP) Close() error { return nil }

func hostPath(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw
	}
	return u.Host, u.Path
}

var _ Source = (*HTTP)(nil)

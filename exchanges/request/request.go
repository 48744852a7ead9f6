package request

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/log"
	"golang.org/x/time/rate"
)

// New returns a new Requester
func New(name string, httpRequester *http.Client, opts ...RequesterOption) *Requester {
	if httpRequester == nil {
		httpRequester = &http.Client{Timeout: DefaultTimeout}
	}
	r := &Requester{
		HTTPClient: httpRequester,
		Name:       name,
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SendPayload waits on the rate limiter, sends the request once and returns
// the response body. Requests are never retried.
func (r *Requester) SendPayload(ctx context.Context, newRequest Generate) ([]byte, error) {
	if r == nil {
		return nil, errRequestSystemIsNil
	}
	if newRequest == nil {
		return nil, errRequestFunctionIsNil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	p, err := newRequest()
	if err != nil {
		return nil, err
	}
	req, err := p.validateRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	verbose := IsVerbose(ctx, p.Verbose)
	if verbose {
		log.Debugf(log.ExchangeSys, "%s request %s %s", r.Name, p.Method, p.Path)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer r.drainBody(resp.Body)

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if verbose {
		log.Debugf(log.ExchangeSys, "%s HTTP status: %s raw response: %s", r.Name, resp.Status, contents)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: contents}
	}
	return contents, nil
}

func (i *Item) validateRequest(ctx context.Context, r *Requester) (*http.Request, error) {
	if i == nil {
		return nil, errRequestItemNil
	}
	if i.Path == "" {
		return nil, errInvalidPath
	}
	req, err := http.NewRequestWithContext(ctx, i.Method, i.Path, i.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name, err)
	}
	for k, v := range i.Headers {
		req.Header.Add(k, v)
	}
	if r.UserAgent != "" && req.Header.Get(userAgent) == "" {
		req.Header.Add(userAgent, r.UserAgent)
	}
	return req, nil
}

func (r *Requester) drainBody(body io.ReadCloser) {
	defer body.Close()
	if _, err := io.Copy(io.Discard, io.LimitReader(body, drainBodyLimit)); err != nil {
		log.Errorf(log.ExchangeSys, "%s failed to drain request body %s", r.Name, err)
	}
}

type ctxKey uint8

const verboseKey ctxKey = iota

// WithVerbose marks requests sent with ctx for debug logging
func WithVerbose(ctx context.Context) context.Context {
	return context.WithValue(ctx, verboseKey, true)
}

// IsVerbose reports whether the requester or ctx asks for verbose output
func IsVerbose(ctx context.Context, verbose bool) bool {
	if verbose {
		return true
	}
	v, _ := ctx.Value(verboseKey).(bool)
	return v
}

package request

import (
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is applied when the HTTP client has none
	DefaultTimeout = 15 * time.Second
	userAgent      = "User-Agent"
	drainBodyLimit = 8 << 10
)

var (
	errRequestSystemIsNil   = errors.New("request system is nil")
	errRequestFunctionIsNil = errors.New("request function is nil")
	errRequestItemNil       = errors.New("request item is nil")
	errInvalidPath          = errors.New("invalid path")

	// ErrUnsuccessfulStatus is returned for responses outside the 2xx range
	ErrUnsuccessfulStatus = errors.New("unsuccessful HTTP status code")
)

// Requester sends rate limited HTTP requests for one service
type Requester struct {
	HTTPClient *http.Client
	Name       string
	UserAgent  string
	limiter    *rate.Limiter
}

// RequesterOption is a function option that can be applied to a Requester
type RequesterOption func(*Requester)

// Item is a single request
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
	Verbose bool
}

// Generate returns a fresh Item for each send
type Generate func() (*Item, error)

// StatusError holds the status and body of an unsuccessful response
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return ErrUnsuccessfulStatus.Error() + ": " + http.StatusText(e.StatusCode) + " " + string(e.Body)
}

// Unwrap allows errors.Is(err, ErrUnsuccessfulStatus)
func (e *StatusError) Unwrap() error {
	return ErrUnsuccessfulStatus
}

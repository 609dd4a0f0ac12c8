// Package fetch retrieves source documents over HTTP(S) or from the local
// filesystem.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// FetchError reports a transport failure, a non-success response, or an
// unreadable local file.
type FetchError struct {
	Locator    string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Locator, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration // 0 keeps the transport default
	UserAgent string
}

// Fetcher reads documents by locator. It performs no retries and no caching.
type Fetcher struct {
	http *resty.Client
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	client := resty.New()
	client.SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	return &Fetcher{http: client}
}

// Fetch returns the body behind locator. http and https URLs are requested
// with GET; file:// URLs and plain paths are read from disk.
func (f *Fetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if path, ok := localPath(locator); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &FetchError{Locator: locator, Err: err}
		}
		return data, nil
	}

	resp, err := f.http.R().SetContext(ctx).Get(locator)
	if err != nil {
		return nil, &FetchError{Locator: locator, Err: err}
	}
	if !resp.IsSuccess() {
		return nil, &FetchError{
			Locator:    locator,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("%s", resp.Status()),
		}
	}
	return resp.Body(), nil
}

// IsRemote reports whether locator is fetched over the network.
func IsRemote(locator string) bool {
	_, local := localPath(locator)
	return !local
}

func localPath(locator string) (string, bool) {
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" {
		return locator, true
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return "", false
	case "file":
		return u.Path, true
	default:
		// Windows drive letters parse as a one-letter scheme.
		if len(u.Scheme) == 1 {
			return locator, true
		}
		return "", false
	}
}

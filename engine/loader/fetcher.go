package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when a model URI resolves to nothing (missing file or HTTP 404).
var ErrNotFound = errors.New("asset not found")

// maxAssetBytes bounds a single fetched file.
const maxAssetBytes = 256 << 20

// Fetcher retrieves the bytes behind a model URI.
type Fetcher interface {
	// Fetch reads the resource at uri. Relative URIs resolve against the fetcher's base.
	//
	// Parameters:
	//   - ctx: cancels the read
	//   - uri: a path, file:// URI or http(s):// URL
	//
	// Returns:
	//   - []byte: the resource contents
	//   - error: ErrNotFound for missing resources, the context error when cancelled
	Fetch(ctx context.Context, uri string) ([]byte, error)

	// Resolve returns the absolute location uri refers to.
	Resolve(uri string) string
}

// fetcherImpl implements the Fetcher interface for local files and HTTP.
type fetcherImpl struct {
	base   string
	client *http.Client
}

var _ Fetcher = &fetcherImpl{}

// NewFetcher creates a fetcher resolving relative paths against base, which may be a
// directory or an http(s) URL. A nil client uses a client with a 30 second timeout.
//
// Parameters:
//   - base: the asset base location
//   - client: the HTTP client for remote assets
//
// Returns:
//   - Fetcher: the new fetcher
func NewFetcher(base string, client *http.Client) Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &fetcherImpl{base: base, client: client}
}

func isRemote(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (f *fetcherImpl) Resolve(uri string) string {
	return joinURI(f.base, uri)
}

// joinURI resolves ref against base the way a browser resolves a relative link,
// treating a non-URL base as a directory.
func joinURI(base, ref string) string {
	if isRemote(ref) || strings.HasPrefix(strings.ToLower(ref), "file://") || base == "" {
		return ref
	}
	if isRemote(base) {
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	}
	if filepath.IsAbs(ref) || strings.HasPrefix(ref, "/") {
		return ref
	}
	return filepath.Join(strings.TrimPrefix(base, "file://"), filepath.FromSlash(ref))
}

// siblingURI resolves ref relative to the resource at asset (used for external glTF buffers).
func siblingURI(asset, ref string) string {
	if isRemote(asset) {
		return joinURI(asset, ref)
	}
	ref, _ = url.PathUnescape(ref)
	return joinURI(filepath.Dir(strings.TrimPrefix(asset, "file://")), ref)
}

func (f *fetcherImpl) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	location := f.Resolve(uri)
	if isRemote(location) {
		return f.fetchHTTP(ctx, location)
	}
	return f.fetchFile(ctx, location)
}

func (f *fetcherImpl) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", location, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, location, resp.Status)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("get %s: %s", location, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	if len(data) > maxAssetBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", location, maxAssetBytes)
	}
	return data, nil
}

func (f *fetcherImpl) fetchFile(ctx context.Context, location string) ([]byte, error) {
	path := filepath.Clean(strings.TrimPrefix(location, "file://"))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

package loader

import "net/http"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithAssetBase sets the directory or http(s) URL relative model paths resolve against.
//
// Parameters:
//   - base: the asset base
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithAssetBase(base string) LoaderBuilderOption {
	return func(l *loader) {
		l.base = base
	}
}

// WithHTTPClient sets the client used for remote models.
//
// Parameters:
//   - client: the HTTP client
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithHTTPClient(client *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		l.client = client
	}
}

// WithFetcher replaces the default file/HTTP fetcher. Base and client options are then ignored.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - LoaderBuilderOption: option function to apply
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		l.fetcher = f
	}
}

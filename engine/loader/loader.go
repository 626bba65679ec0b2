// Package loader fetches, parses and normalizes character models. Any failure other than
// cancellation degrades to a placeholder figure so the stage always has something to show.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"

	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
)

// ErrUnsupportedAsset is recorded when a descriptor's asset kind has no parser.
var ErrUnsupportedAsset = errors.New("unsupported asset kind")

// ErrMalformedAsset is recorded when a model file is corrupt beyond what the parsers report.
var ErrMalformedAsset = errors.New("malformed asset")

// Options tune a single load.
type Options struct {
	// Shadows flags every loaded mesh to cast and receive shadows (high quality).
	Shadows bool
}

// Asset is the outcome of a load: either the normalized model with its clips, or the
// placeholder with the failure that caused it.
type Asset struct {
	Descriptor catalog.Descriptor
	Root       *scene.Node
	Clips      []*animator.Clip

	// Placeholder is true when Root is the stand-in figure.
	Placeholder bool

	// Err is the fetch or parse failure behind a placeholder.
	Err error
}

// parsedModel is what a format importer produces before normalization.
type parsedModel struct {
	root  *scene.Node
	clips []*animator.Clip
}

// Loader turns descriptors into renderable assets.
type Loader interface {
	// Load fetches, parses and normalizes the descriptor's model.
	//
	// Parameters:
	//   - ctx: cancels the fetch and is checked between parse stages
	//   - d: the character descriptor
	//   - opts: load options
	//
	// Returns:
	//   - *Asset: the model or the placeholder, never nil when err is nil
	//   - error: only the context error when ctx is cancelled
	Load(ctx context.Context, d catalog.Descriptor, opts Options) (*Asset, error)
}

// loader implements the Loader interface.
type loader struct {
	fetcher Fetcher
	base    string
	client  *http.Client
}

var _ Loader = &loader{}

// NewLoader creates a loader. Without options it reads paths relative to the working directory.
//
// Parameters:
//   - options: functional options for the fetcher
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{base: "."}
	for _, opt := range options {
		opt(l)
	}
	if l.fetcher == nil {
		l.fetcher = NewFetcher(l.base, l.client)
	}
	return l
}

func (l *loader) Load(ctx context.Context, d catalog.Descriptor, opts Options) (*Asset, error) {
	if d.Asset() == catalog.AssetUnknown {
		v, err := catalog.Validate(d)
		if err != nil {
			return l.fallback(d, opts, err), nil
		}
		d = v
	}

	parsed, err := l.decode(ctx, d)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		return l.fallback(d, opts, err), nil
	}

	if opts.Shadows {
		applyShadows(parsed.root)
	}
	log.Printf("[Loader] %s: loaded %s (%d meshes, %d clips)", d.ID, d.ModelPath, parsed.root.MeshCount(), len(parsed.clips))
	return &Asset{Descriptor: d, Root: parsed.root, Clips: parsed.clips}, nil
}

// decode parses and normalizes the model. A panic anywhere in the importers is reported
// as ErrMalformedAsset.
func (l *loader) decode(ctx context.Context, d catalog.Descriptor) (parsed *parsedModel, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed, err = nil, fmt.Errorf("%w: %v", ErrMalformedAsset, r)
		}
	}()
	parsed, err = l.parse(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := Normalize(parsed.root); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (l *loader) parse(ctx context.Context, d catalog.Descriptor) (*parsedModel, error) {
	data, err := l.fetcher.Fetch(ctx, d.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := path.Base(d.ModelPath)
	switch d.Asset() {
	case catalog.AssetGLTF:
		location := l.fetcher.Resolve(d.ModelPath)
		return importGLTF(name, data, func(uri string) ([]byte, error) {
			return l.fetcher.Fetch(ctx, siblingURI(location, uri))
		})
	case catalog.AssetSkeletal:
		return importFBX(name, data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, d.Asset())
	}
}

func (l *loader) fallback(d catalog.Descriptor, opts Options, err error) *Asset {
	log.Printf("[Loader] %s: failed to load %q: %v; showing placeholder", d.ID, d.ModelPath, err)
	return &Asset{
		Descriptor:  d,
		Root:        Placeholder(d, opts.Shadows),
		Placeholder: true,
		Err:         err,
	}
}

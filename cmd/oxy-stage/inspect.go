package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
)

// runInspect loads one model the way a session would and prints what it produced.
func runInspect(ctx context.Context, out io.Writer, cfg config.Config, modelPath string) error {
	name := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath))
	d, err := catalog.Validate(catalog.Descriptor{
		ID:        name,
		Name:      name,
		Color:     "#8888ff",
		ModelPath: modelPath,
	})
	if err != nil {
		return err
	}

	l := loader.NewLoader(loader.WithAssetBase(cfg.AssetBase))
	asset, err := l.Load(ctx, d, loader.Options{Shadows: cfg.Quality.Shadows()})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "model:    %s (%s)\n", modelPath, d.Asset())
	if asset.Placeholder {
		fmt.Fprintf(out, "result:   placeholder (%v)\n", asset.Err)
	} else {
		fmt.Fprintln(out, "result:   loaded")
	}

	nodes := 0
	asset.Root.Traverse(func(*scene.Node) bool {
		nodes++
		return true
	})
	box := asset.Root.Bounds()
	size := box.Size()
	fmt.Fprintf(out, "nodes:    %d\n", nodes)
	fmt.Fprintf(out, "meshes:   %d\n", asset.Root.MeshCount())
	fmt.Fprintf(out, "bounds:   %.3f x %.3f x %.3f (min y %.3f)\n", size[0], size[1], size[2], box.Min[1])
	fmt.Fprintf(out, "clips:    %d\n", len(asset.Clips))
	for i, c := range asset.Clips {
		fmt.Fprintf(out, "  %2d  %-24s %-24s %6.2fs  %d tracks\n", i, c.Name, catalog.FormatAnimationName(c.Name), c.Duration, len(c.Tracks))
	}
	return nil
}

// runCatalog prints every descriptor with its lock state.
func runCatalog(ctx context.Context, out io.Writer, cfg config.Config) error {
	descriptors, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	store, err := unlock.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	unlocked, err := store.Load(ctx)
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		state := "free"
		if d.IsPremium {
			state = fmt.Sprintf("locked (%.2f)", d.Price)
			if unlocked.Has(d.ID) {
				state = "unlocked"
			}
		}
		fmt.Fprintf(out, "%-18s %-20s %-14s %-8s %s\n", d.ID, d.Name, d.Role, d.Asset(), state)
	}
	return nil
}

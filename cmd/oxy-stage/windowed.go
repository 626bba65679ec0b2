package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/gate"
	"github.com/Carmen-Shannon/oxy-stage/engine/layout"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

type layoutKind int

const (
	layoutLobby layoutKind = iota
	layoutGallery
)

// loadCatalog returns the configured descriptor file, or the embedded dataset.
func loadCatalog(cfg config.Config) ([]catalog.Descriptor, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog)
}

// runWindowed opens the window, waits for the readiness gate and then runs the chosen
// layout until the window closes. A readiness timeout ends the loop with an error.
func runWindowed(ctx context.Context, cfg config.Config, kind layoutKind) error {
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

	win, err := window.NewWindow(
		window.WithTitle("oxy-stage"),
		window.WithSize(cfg.Width, cfg.Height),
	)
	if err != nil {
		return err
	}
	defer win.Close()

	host := engine.NewHost(
		engine.WithWindow(win),
		engine.WithFrameRate(float64(cfg.FrameRate)),
		engine.WithProfiling(cfg.Profile),
	)

	go func() {
		<-ctx.Done()
		host.Post(host.Quit)
	}()

	caps := &gate.Capabilities{}
	g := gate.NewGate(caps.Probes(),
		gate.WithInterval(cfg.ReadyInterval),
		gate.WithTimeout(cfg.ReadyTimeout),
	)

	// Capabilities are resolved on the loop, after the window exists.
	host.Post(func() {
		caps.NewRenderer = renderer.NewRenderer
		caps.NewTweens = tween.NewEngine
		caps.Loader = loader.NewAsync(host, loader.NewLoader(loader.WithAssetBase(cfg.AssetBase)), cfg.LoadWorkers)
	})

	var runErr error
	var dispose func()
	g.Watch(host, func(err error) {
		if err != nil {
			runErr = err
			log.Printf("[Stage] %v", err)
			host.Quit()
			return
		}
		factory := layout.NewSessionFactory(host, *caps, stage.WithContext(ctx))
		title := func(loading bool) {
			state := "ready"
			if loading {
				state = "loading"
			}
			win.SetTitle(fmt.Sprintf("oxy-stage - %s", state))
		}

		switch kind {
		case layoutLobby:
			l, err := layout.NewLobby(factory, win, descriptors,
				layout.WithLobbyQuality(cfg.Quality),
				layout.WithLobbyAutoRotate(cfg.AutoRotate),
				layout.WithUnlocked(unlocked),
				layout.WithPurchaseStore(store),
				layout.WithLobbySessionOptions(stage.WithOnLoadStateChanged(title)),
			)
			if err != nil {
				runErr = err
				host.Quit()
				return
			}
			win.SetKeyDownCallback(func(key uint32) { l.HandleKey(key) })
			dispose = l.Dispose
		case layoutGallery:
			gl, err := layout.NewGallery(host, factory, win, descriptors,
				layout.WithGalleryQuality(cfg.Quality),
				layout.WithGalleryAutoRotate(cfg.AutoRotate),
				layout.WithGallerySessionOptions(stage.WithOnLoadStateChanged(title)),
			)
			if err != nil {
				runErr = err
				host.Quit()
				return
			}
			win.SetScrollCallback(gl.Scroll)
			win.SetKeyDownCallback(func(key uint32) { gl.HandleKey(key) })
			dispose = gl.Dispose
		}
	})

	host.Run()
	if dispose != nil {
		dispose()
	}
	if runErr != nil {
		return fmt.Errorf("oxy-stage: %w", runErr)
	}
	return nil
}

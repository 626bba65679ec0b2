// Command oxy-stage browses the avatar catalog in a window, either as a lobby carousel or
// as a scrolling gallery, and offers offline helpers for inspecting models and unlocks.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// flags are the command-line overrides of the OXY_STAGE_* environment.
type flags struct {
	catalog    string
	assetBase  string
	db         string
	quality    string
	autoRotate bool
	profile    bool
	width      int
	height     int
}

// apply copies every flag the user set onto cfg and revalidates it.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	set := cmd.Flags().Changed
	if set("catalog") {
		cfg.Catalog = f.catalog
	}
	if set("assets") {
		cfg.AssetBase = f.assetBase
	}
	if set("db") {
		cfg.DB = f.db
	}
	if set("quality") {
		cfg.Quality = config.Quality(f.quality)
	}
	if set("auto-rotate") {
		cfg.AutoRotate = f.autoRotate
	}
	if set("profile") {
		cfg.Profile = f.profile
	}
	if set("width") {
		cfg.Width = f.width
	}
	if set("height") {
		cfg.Height = f.height
	}
	return cfg.Validate()
}

// loadConfig reads the environment and applies flag overrides.
func (f *flags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if err := config.ParseEnv(&cfg); err != nil {
		return config.Config{}, err
	}
	if err := f.apply(cmd, &cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "oxy-stage",
		Short: "Avatar stage viewer",
		Long: `oxy-stage - Avatar stage viewer

Browse the character catalog with a live 3D preview.

Lobby controls:
  Left/Right  - Previous/next character
  Up/Down     - Previous/next animation
  R           - Toggle auto-rotate
  Q           - Toggle quality
  Enter       - Equip
  P           - Confirm purchase
  Esc         - Quit

Gallery controls:
  Wheel, arrows - Scroll through characters
  Esc           - Quit`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.catalog, "catalog", "", "Descriptor YAML file (default: embedded catalog)")
	pf.StringVar(&f.assetBase, "assets", ".", "Directory or URL relative model paths resolve against")
	pf.StringVar(&f.db, "db", "oxy-stage.db", "Unlocked-avatar sqlite file")
	pf.StringVar(&f.quality, "quality", "high", "Rendering quality: high or low")
	pf.BoolVar(&f.autoRotate, "auto-rotate", true, "Spin models that have no animation clips")
	pf.BoolVar(&f.profile, "profile", false, "Log frame and memory statistics every second")
	pf.IntVar(&f.width, "width", 1280, "Window width in pixels")
	pf.IntVar(&f.height, "height", 720, "Window height in pixels")

	root.AddCommand(
		&cobra.Command{
			Use:   "lobby",
			Short: "Carousel with one persistent preview",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := f.loadConfig(cmd)
				if err != nil {
					return err
				}
				return runWindowed(cmd.Context(), cfg, layoutLobby)
			},
		},
		&cobra.Command{
			Use:   "gallery",
			Short: "Scrolling list where the nearest slot shows the preview",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := f.loadConfig(cmd)
				if err != nil {
					return err
				}
				return runWindowed(cmd.Context(), cfg, layoutGallery)
			},
		},
		&cobra.Command{
			Use:   "inspect <model>",
			Short: "Load a model file and print its structure and clips",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := f.loadConfig(cmd)
				if err != nil {
					return err
				}
				return runInspect(cmd.Context(), cmd.OutOrStdout(), cfg, args[0])
			},
		},
		newUnlockCommand(f),
		&cobra.Command{
			Use:   "catalog",
			Short: "List the characters and whether they can be equipped",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := f.loadConfig(cmd)
				if err != nil {
					return err
				}
				return runCatalog(cmd.Context(), cmd.OutOrStdout(), cfg)
			},
		},
	)
	return root
}

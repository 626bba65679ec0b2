package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/unlock"
	"github.com/spf13/cobra"
)

func newUnlockCommand(f *flags) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "unlock [id...]",
		Short: "Record purchased characters, or list the unlocked ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig(cmd)
			if err != nil {
				return err
			}
			if !list && len(args) == 0 {
				return fmt.Errorf("unlock needs at least one id, or --list")
			}
			descriptors, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := unlock.Open(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				if catalog.Find(descriptors, id) < 0 {
					return fmt.Errorf("unknown character %q", id)
				}
				if err := store.Add(ctx, id); err != nil {
					return err
				}
			}

			set, err := store.Load(ctx)
			if err != nil {
				return err
			}
			for _, id := range set.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "Only list unlocked ids")
	return cmd
}

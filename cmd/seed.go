package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npole/herodispatch/config"
	"github.com/npole/herodispatch/core/store"
	infrastore "github.com/npole/herodispatch/infra/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the hero roster into the SQLite store",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Storage.Backend != "sqlite" {
		return fmt.Errorf("seed requires the sqlite backend, got %s", cfg.Storage.Backend)
	}

	db, err := infrastore.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close store: %v\n", cerr)
		}
	}()

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	heroes := db.Heroes()
	seeded := 0
	for _, h := range roster {
		_, err := heroes.Get(h.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check hero %s: %w", h.ID, err)
		}
		if err := heroes.Put(h); err != nil {
			return fmt.Errorf("seed hero %s: %w", h.ID, err)
		}
		seeded++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d heroes into %s\n", seeded, cfg.Storage.Path)
	return nil
}

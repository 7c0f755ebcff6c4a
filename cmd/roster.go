package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npole/herodispatch/config"
	"github.com/npole/herodispatch/core/store"
	infrastore "github.com/npole/herodispatch/infra/store"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Hero roster commands",
}

var rosterLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the configured heroes",
	RunE:  runRosterLs,
}

func init() {
	rosterCmd.AddCommand(rosterLsCmd)
	rootCmd.AddCommand(rosterCmd)
}

func runRosterLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var heroes store.HeroStore
	if cfg.Storage.Backend == "sqlite" {
		db, err := infrastore.Open(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "close store: %v\n", cerr)
			}
		}()
		heroes = db.Heroes()
	}

	if heroes != nil {
		if persisted, err := heroes.List(); err == nil && len(persisted) > 0 {
			for _, h := range persisted {
				state := "free"
				if h.Busy {
					state = fmt.Sprintf("busy on %s, %d queued", h.CurrentTask, len(h.Queue))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s speed=%.1f %s\n", h.Name, h.SpeedFactor, state)
			}
			return nil
		}
	}

	roster, err := cfg.Roster()
	if err != nil {
		return err
	}
	for _, h := range roster {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s speed=%.1f\n", h.Name, h.SpeedFactor)
	}
	return nil
}

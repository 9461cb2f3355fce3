package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/target"
)

// cleanCmd drops stale targets from the store: ones whose file has gone
// missing, become unreadable, or whose content hash no longer matches what
// was recorded (the file changed on disk since it was last mutated).
// Cascading foreign keys remove their mutants and outcomes along with
// them.
func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove targets whose file is missing, unreadable, or has changed since it was loaded",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			targets, err := a.store.GetAllTargets()
			if err != nil {
				return err
			}

			cleaned := 0
			for _, t := range targets {
				if stale, reason := staleTarget(t); stale {
					if err := a.store.RemoveTarget(t.ID); err != nil {
						return fmt.Errorf("clean %s: %w", t.Path, err)
					}
					log.Info().Str("path", t.Path).Str("reason", reason).Msg("cleaned stale target")
					cleaned++
				}
			}

			fmt.Printf("%d stale target(s) removed\n", cleaned)
			return nil
		},
	}
}

func staleTarget(t target.Target) (stale bool, reason string) {
	content, err := os.ReadFile(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, "file missing"
		}
		return true, "file unreadable"
	}
	if target.Digest(content) != t.FileHash {
		return true, "content hash diverged"
	}
	return false, ""
}

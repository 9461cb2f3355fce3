package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/target"
)

func mutateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mutate <target>",
		Short: "Load a target (file or directory) and generate its mutants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.validatePath(args[0])
			if err != nil {
				return err
			}

			loader := target.NewLoader(a.store, a.cfg.IgnoreTargets)
			targets, err := loader.Load(path)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("no recognized targets found under %s", path)
			}

			var totalNew, totalMutants int
			for _, t := range targets {
				inserted, total, err := a.ensureMutants(t)
				if err != nil {
					return fmt.Errorf("%s: %w", t.Path, err)
				}
				totalNew += inserted
				totalMutants += total
				log.Info().
					Str("target", t.Path).
					Str("language", string(t.Language)).
					Int("new_mutants", inserted).
					Int("total_mutants", total).
					Msg("mutated target")
			}

			fmt.Printf("%d target(s) loaded, %d mutant(s) generated (%d new)\n", len(targets), totalMutants, totalNew)
			return nil
		},
	}
	return cmd
}

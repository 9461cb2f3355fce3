package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/report"
	"github.com/trailofbits/muton/internal/store"
	"github.com/trailofbits/muton/internal/target"
)

func printCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print catalog, target, mutant, or result information",
	}
	cmd.AddCommand(printMutationsCmd())
	cmd.AddCommand(printTargetsCmd())
	cmd.AddCommand(printMutantsCmd())
	cmd.AddCommand(printMutantCmd())
	cmd.AddCommand(printResultsCmd())
	return cmd
}

func printMutationsCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "mutations",
		Short: "List the mutation catalog, optionally filtered to one dialect",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(false)
			if err != nil {
				return err
			}

			langs := target.Languages()
			if language != "" {
				l, ok := target.ParseLanguage(language)
				if !ok {
					return fmt.Errorf("unrecognized --language %q", language)
				}
				langs = []target.Language{l}
			}

			for _, l := range langs {
				engine, ok := a.registry.Get(l)
				if !ok {
					continue
				}
				fmt.Printf("%s:\n", engine.Name())
				for _, m := range engine.Mutations() {
					fmt.Printf("  %-4s %-8s %s\n", m.Slug, m.Severity, m.Description)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "language", "", "restrict to one dialect: func, tact, or tolk")
	return cmd
}

func printTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List every tracked target",
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
			for _, t := range targets {
				commit := t.GitCommit
				if commit == "" {
					commit = "-"
				}
				fmt.Printf("%-6d %-6s %-12s %s\n", t.ID, t.Language, commit, t.Path)
			}
			return nil
		},
	}
}

func printMutantsCmd() *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "mutants",
		Short: "List mutants, optionally filtered to one target",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			targets, err := a.targetsForFilter(targetPath)
			if err != nil {
				return err
			}

			ctx := context.Background()
			for _, t := range targets {
				mutants, err := a.store.GetMutants(t.ID)
				if err != nil {
					return err
				}
				for _, m := range mutants {
					fmt.Printf("%s: %s\n", t.Path, report.FormatMutantLine(ctx, m))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetPath, "target", "", "restrict to the target at this path")
	return cmd
}

func printMutantCmd() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "mutant --id N",
		Short: "Print one mutant's detail, including a word diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == 0 {
				return fmt.Errorf("--id is required")
			}
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			m, err := a.store.GetMutant(id)
			if err != nil {
				return err
			}
			t, err := a.store.GetTarget(m.TargetID)
			if err != nil {
				return err
			}

			fmt.Printf("target: %s\n", t.Path)
			fmt.Println(report.FormatMutantLine(context.Background(), m))

			o, found, err := a.store.GetOutcome(id)
			if err != nil {
				return err
			}
			if found {
				fmt.Printf("status: %s\n", o.Status)
				if o.Output != "" {
					fmt.Printf("output:\n%s\n", o.Output)
				}
			} else {
				fmt.Println("status: untested")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "mutant ID")
	return cmd
}

func printResultsCmd() *cobra.Command {
	var (
		targetPath string
		id         int64
		verbose    bool
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "Print recorded outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			if id != 0 {
				o, found, err := a.store.GetOutcome(id)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("mutant %d has no recorded outcome", id)
				}
				printOutcome(id, o, verbose)
				return nil
			}

			targets, err := a.targetsForFilter(targetPath)
			if err != nil {
				return err
			}
			for _, t := range targets {
				outcomes, err := a.store.GetOutcomes(t.ID)
				if err != nil {
					return err
				}
				for _, o := range outcomes {
					if !all && o.Status == store.Skipped {
						continue
					}
					printOutcome(o.MutantID, o, verbose)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&targetPath, "target", "", "restrict to the target at this path")
	cmd.Flags().Int64Var(&id, "id", 0, "restrict to one mutant ID")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include captured command output")
	cmd.Flags().BoolVar(&all, "all", false, "include Skipped outcomes")
	return cmd
}

func printOutcome(id int64, o store.Outcome, verbose bool) {
	fmt.Printf("[%d] %s (%dms)\n", id, o.Status, o.DurationMS)
	if verbose && o.Output != "" {
		fmt.Printf("  %s\n", o.Output)
	}
}

// targetsForFilter returns every tracked target, or just the one at path
// if path is non-empty.
func (a *app) targetsForFilter(path string) ([]target.Target, error) {
	all, err := a.store.GetAllTargets()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return all, nil
	}
	abs, err := a.validatePath(path)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.Path == abs {
			return []target.Target{t}, nil
		}
	}
	return nil, fmt.Errorf("no tracked target matches %s", abs)
}

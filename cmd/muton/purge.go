package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func purgeCmd() *cobra.Command {
	var (
		targetPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove a target (and its mutants and outcomes), or every target if --target is omitted",
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

			var abs string
			if targetPath != "" {
				abs, err = a.validatePath(targetPath)
				if err != nil {
					return err
				}
			}

			var toPurge []int64
			var paths []string
			var totalRuntime time.Duration
			for _, t := range targets {
				if abs != "" && t.Path != abs {
					continue
				}
				outcomes, err := a.store.GetOutcomes(t.ID)
				if err != nil {
					return err
				}
				for _, o := range outcomes {
					totalRuntime += time.Duration(o.DurationMS) * time.Millisecond
				}
				toPurge = append(toPurge, t.ID)
				paths = append(paths, t.Path)
			}

			if abs != "" && len(toPurge) == 0 {
				return fmt.Errorf("no tracked target matches %s", abs)
			}
			if len(toPurge) == 0 {
				fmt.Println("nothing to purge")
				return nil
			}

			fmt.Printf("about to purge %d target(s), discarding %s of recorded test runtime:\n", len(toPurge), totalRuntime)
			for _, p := range paths {
				fmt.Printf("  %s\n", p)
			}
			if !yes && !confirm("proceed? [y/N] ") {
				fmt.Println("aborted")
				return nil
			}

			for i, id := range toPurge {
				if err := a.store.RemoveTarget(id); err != nil {
					return fmt.Errorf("purge %s: %w", paths[i], err)
				}
				log.Info().Str("path", paths[i]).Msg("purged target")
			}

			fmt.Printf("%d target(s) purged\n", len(toPurge))
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "target", "", "purge only the target at this path instead of every tracked target")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

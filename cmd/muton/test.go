package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/runner"
)

func testCmd() *cobra.Command {
	var (
		idsCSV      string
		testCmdFlag string
		timeoutSecs int
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "test --ids <csv of ids>",
		Short: "Re-run specific mutants by ID, bypassing severity pruning",
		RunE: func(cmd *cobra.Command, args []string) error {
			if idsCSV == "" {
				return fmt.Errorf("--ids is required")
			}
			ids, err := parseIDs(idsCSV)
			if err != nil {
				return err
			}

			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			rn := runner.New(a.store, a.registry)
			stop := installCancelOnInterrupt(rn.Cancelled)
			defer stop()

			for _, id := range ids {
				if rn.Cancelled.Load() {
					break
				}
				m, err := a.store.GetMutant(id)
				if err != nil {
					return fmt.Errorf("mutant %d: %w", id, err)
				}
				t, err := a.store.GetTarget(m.TargetID)
				if err != nil {
					return fmt.Errorf("mutant %d: target %d: %w", id, m.TargetID, err)
				}

				command, timeout := a.cfg.ResolveCommand(t.Path, matchGlob)
				if testCmdFlag != "" {
					command = testCmdFlag
				}
				if timeoutSecs > 0 {
					timeout = time.Duration(timeoutSecs) * time.Second
				}
				if timeout == 0 {
					timeout, err = rn.ResolveTimeout(context.Background(), command, 0)
					if err != nil {
						return err
					}
				}

				status, err := rn.TestMutant(t, m, command, timeout)
				if err != nil {
					return fmt.Errorf("mutant %d: %w", id, err)
				}
				if verbose {
					log.Info().Int64("id", id).Str("status", string(status)).Msg("tested mutant")
				} else {
					fmt.Printf("[%d] %s\n", id, status)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idsCSV, "ids", "", "comma-separated mutant IDs to test")
	cmd.Flags().StringVar(&testCmdFlag, "test-cmd", "", "test command override")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "timeout in seconds (0 derives it from a baseline run)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "log structured per-mutant results instead of printing plain lines")
	return cmd
}

func parseIDs(csv string) ([]int64, error) {
	parts := strings.Split(csv, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid mutant id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

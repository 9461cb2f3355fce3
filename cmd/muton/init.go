package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/config"
)

const defaultConfigTemplate = `[general]
db = "muton.sqlite"
ignore_targets = []

[mutations]
slugs = []

[test]
cmd = ""
timeout = 0

[log]
level = "info"
color = true
`

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default muton.toml in the working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(false)
			if err != nil {
				return err
			}

			path := filepath.Join(a.cwd, config.ConfigFileName)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			log.Info().Str("path", path).Msg("wrote default config")
			return nil
		},
	}
}

package main

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/trailofbits/muton/internal/api"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP API over the store (GET /targets, /mutants, /outcomes, /healthz)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.New(a.store)
			log.Info().Str("addr", addr).Msg("serving muton API")
			return http.ListenAndServe(addr, srv)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

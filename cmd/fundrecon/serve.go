package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fundrecon/api"
	"fundrecon/logger"
)

// newServeCommand creates the command exposing reconciliation over HTTP.
func newServeCommand() *cobra.Command {
	opts := api.ServerOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reconciliation HTTP server",
		Long: `The serve command starts an HTTP server exposing comparison over a
REST API. POST /compare accepts two dataset paths and comparison settings
and returns the summary and key differences as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			server := api.NewServer(opts)

			ctx, cancel := signalContext()
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			fmt.Printf("Listening on port %s\n", opts.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info("shutting down server")
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVarP(&opts.Port, "port", "p", "3000", "Port to listen on")
	cmd.Flags().BoolVar(&opts.Prefork, "prefork", false, "Use prefork mode for multiple processes")

	return cmd
}

package cli

import (
	"github.com/jo-hoe/leafcollector/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the kiosk web interface",
		Example: `  # Start with ./config.yaml
  leafctl serve

  # Start on a custom port against a local storage service
  leafctl serve --port 3000 --storage-url http://localhost:5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if port > 0 {
				config.Port = port
			}
			return server.Run(cmd.Context(), config)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides the config)")

	return cmd
}

// Package cli implements the leafctl command line.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	storageURL string
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "leafctl",
		Short: "Collect labeled plant-leaf images into a remote image store",
		Long: `leafctl captures, crops and uploads labeled plant-leaf images and lists
the images already stored by the remote storage service.

Configuration is read from a YAML file (--config, $CONFIG_PATH or ./config.yaml).
Without a config file, --storage-url or $STORAGE_BASE_URL is enough to talk to the service.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&opts.storageURL, "storage-url", "", "Base URL of the storage service (overrides the config)")

	cmd.AddCommand(
		newServeCmd(opts),
		newUploadCmd(opts),
		newGalleryCmd(opts),
		newCropCmd(),
		newCategoriesCmd(opts),
	)

	return cmd
}

// loadConfig reads the config file, falling back to defaults when none exists
func (opts *rootOptions) loadConfig() (*core.ServiceConfig, error) {
	path := opts.configPath
	explicit := path != ""
	if !explicit {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
	}
	if path == "" {
		path = "config.yaml"
	}

	config, err := core.LoadConfig(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		baseURL := opts.storageURL
		if baseURL == "" {
			baseURL = os.Getenv("STORAGE_BASE_URL")
		}
		config = core.DefaultConfig(baseURL)
	}

	if opts.storageURL != "" {
		config.Storage.BaseURL = opts.storageURL
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/jo-hoe/leafcollector/internal/crop"
	"github.com/jo-hoe/leafcollector/internal/processing"
	"github.com/spf13/cobra"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var (
		category  string
		rect      string
		displayed string
	)

	cmd := &cobra.Command{
		Use:   "upload <image>",
		Short: "Upload a labeled JPEG or PNG image",
		Example: `  # Upload a photo as a healthy tomato leaf
  leafctl upload leaf.jpg --category "good tomato leaf"

  # Crop the upper left quarter of a 400x300 preview before uploading
  leafctl upload leaf.jpg -C "diseased chilli leaf" --rect 0,0,200,150 --displayed 400,300`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			coreService, err := core.NewCoreService(config)
			if err != nil {
				return err
			}
			defer coreService.Close()
			controller := coreService.Controller()

			if err := controller.SelectFile(filepath.Base(args[0]), data); err != nil {
				return fmt.Errorf("%s: %w", controller.State().Message, err)
			}
			if err := controller.SetCategory(category); err != nil {
				return err
			}
			if rect != "" {
				img, err := processing.DecodeImage(data)
				if err != nil {
					return err
				}
				bounds := img.Bounds()
				selection, err := parseSelection(rect, displayed, crop.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())})
				if err != nil {
					return err
				}
				if err := controller.SetCrop(selection); err != nil {
					return err
				}
			}

			submitErr := controller.Submit(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), controller.State().Message)
			return submitErr
		},
	}

	cmd.Flags().StringVarP(&category, "category", "C", "", "Category label of the image")
	cmd.Flags().StringVar(&rect, "rect", "", "Crop rectangle as x,y,width,height")
	cmd.Flags().StringVar(&displayed, "displayed", "", "Displayed size the rectangle refers to, as width,height")

	return cmd
}

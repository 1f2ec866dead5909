package cli

import (
	"fmt"
	"os"

	"github.com/jo-hoe/leafcollector/internal/crop"
	"github.com/jo-hoe/leafcollector/internal/processing"
	"github.com/spf13/cobra"
)

func newCropCmd() *cobra.Command {
	var (
		rect       string
		displayed  string
		pixelRatio float64
		quality    int
	)

	cmd := &cobra.Command{
		Use:   "crop <input> <output>",
		Short: "Crop an image locally and write it as JPEG",
		Example: `  # Crop a 100x100 region at natural resolution
  leafctl crop leaf.png out.jpg --rect 10,10,100,100

  # Crop in preview coordinates for a 2x display
  leafctl crop leaf.png out.jpg --rect 0,0,50,50 --displayed 200,150 --pixel-ratio 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			img, err := processing.DecodeImage(data)
			if err != nil {
				return err
			}
			bounds := img.Bounds()
			selection, err := parseSelection(rect, displayed, crop.Size{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())})
			if err != nil {
				return err
			}

			out, err := crop.Transform(data, selection, crop.Options{PixelRatio: pixelRatio, JPEGQuality: quality})
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", args[1], len(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&rect, "rect", "", "Crop rectangle as x,y,width,height")
	cmd.Flags().StringVar(&displayed, "displayed", "", "Displayed size the rectangle refers to, as width,height")
	cmd.Flags().Float64Var(&pixelRatio, "pixel-ratio", 1, "Device pixel ratio applied to the output")
	cmd.Flags().IntVar(&quality, "quality", processing.DefaultJPEGQuality, "JPEG quality (1-100)")
	_ = cmd.MarkFlagRequired("rect")

	return cmd
}

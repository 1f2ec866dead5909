package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/jo-hoe/leafcollector/internal/gallery"
	"github.com/spf13/cobra"
)

func newGalleryCmd(opts *rootOptions) *cobra.Command {
	var (
		page     int
		pageSize int
		saveDir  string
	)

	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "List the images stored by the service",
		Example: `  # List every stored image
  leafctl gallery

  # Show the second page of ten and save the images
  leafctl gallery --page-size 10 --page 2 --save ./leaves`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("page-size") {
				config.Gallery.PageSize = pageSize
			}

			coreService, err := core.NewCoreService(config)
			if err != nil {
				return err
			}
			defer coreService.Close()

			g := gallery.New(gallery.NewFetcher(coreService.Client(), config.Gallery.PageSize))
			if err := g.GoTo(cmd.Context(), page); err != nil {
				return fmt.Errorf("%s", g.Snapshot().Message)
			}
			snapshot := g.Snapshot()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCATEGORY\tFILENAME\tTYPE\tBYTES\tUPLOADED")
			for _, record := range snapshot.Images {
				uploaded := "-"
				if !record.UploadDate.IsZero() {
					uploaded = record.UploadDate.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					record.ID, record.Category, record.Filename, record.ContentType, len(record.Content), uploaded)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if snapshot.Paginated {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d\n", snapshot.Pagination.Page, snapshot.Pagination.TotalPages)
			}

			if saveDir != "" {
				return saveRecords(saveDir, snapshot.Images)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page to show when paginated")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Use the paginated listing with this many images per page")
	cmd.Flags().StringVar(&saveDir, "save", "", "Directory to write the images to")

	return cmd
}

func saveRecords(dir string, records []gallery.ImageRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	for _, record := range records {
		name := record.ID + mimetype.Detect(record.Content).Extension()
		if err := os.WriteFile(filepath.Join(dir, name), record.Content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

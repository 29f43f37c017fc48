package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	mediaDomain "github.com/pendergraft/listingdesk/internal/media/domain"
	"github.com/pendergraft/listingdesk/internal/notify"
)

func createMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Listing media gallery",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <listingId>",
		Short: "Show the gallery in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWidgets(cmd)
			if err != nil {
				return err
			}
			var images []mediaDomain.Image
			notes, err := run(cmd, func(ctx context.Context) error {
				images, err = w.media().List(ctx, args[0])
				return err
			})
			if err != nil {
				return failed(cmd, notes, err)
			}
			renderGallery(cmd, images, notes)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "upload <listingId> <file>...",
		Short: "Upload images to a listing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readFiles(args[1:])
			if err != nil {
				return err
			}
			return runMediaUpload(cmd, args[0], files)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "move <listingId> <from> <to>",
		Short: "Swap two images by their 1-based positions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err1 := strconv.Atoi(args[1])
			to, err2 := strconv.Atoi(args[2])
			if err1 != nil || err2 != nil {
				logUsage(cmd, "listingdesk media move <listingId> <from> <to>")
				return fmt.Errorf("positions must be numbers")
			}
			return runMediaMove(cmd, args[0], from-1, to-1)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "hero <listingId>",
		Short: "Show the hero image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWidgets(cmd)
			if err != nil {
				return err
			}
			var url string
			notes, _ := run(cmd, func(ctx context.Context) error {
				url = w.media().HeroImage(ctx, args[0])
				return nil
			})
			var v any
			if url != "" {
				v = url
			}
			render(cmd, "imageUrl", v, notes, func(out io.Writer) {
				if url == "" {
					fmt.Fprintln(out, "(no hero image)")
					return
				}
				fmt.Fprintln(out, url)
			})
			return nil
		},
	})

	return cmd
}

// readFiles loads and base64-encodes local files for upload.
func readFiles(paths []string) ([]mediaDomain.File, error) {
	files := make([]mediaDomain.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, mediaDomain.File{
			FileName: filepath.Base(p),
			Data:     base64.StdEncoding.EncodeToString(data),
		})
	}
	return files, nil
}

func runMediaUpload(cmd *cobra.Command, listingID string, files []mediaDomain.File) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var res *mediaDomain.UploadResult
	notes, err := run(cmd, func(ctx context.Context) error {
		res, err = w.media().Upload(ctx, listingID, files)
		return err
	})
	if err != nil {
		return failed(cmd, notes, err)
	}
	if jsonOutput {
		render(cmd, "result", res, notes, nil)
	} else {
		for _, f := range res.Failed {
			fmt.Fprintf(cmd.OutOrStdout(), "failed %s: %s\n", f.FileName, f.Message)
		}
		renderGallery(cmd, res.Images, notes)
	}
	if len(res.Uploaded) == 0 {
		return errReported
	}
	return nil
}

func runMediaMove(cmd *cobra.Command, listingID string, from, to int) error {
	w, err := newWidgets(cmd)
	if err != nil {
		return err
	}
	var images []mediaDomain.Image
	notes, err := run(cmd, func(ctx context.Context) error {
		images, err = w.media().Move(ctx, listingID, from, to)
		return err
	})
	if images == nil {
		return failed(cmd, notes, err)
	}
	renderGallery(cmd, images, notes)
	if err != nil {
		return errReported
	}
	return nil
}

func renderGallery(cmd *cobra.Command, images []mediaDomain.Image, notes []notify.Notification) {
	render(cmd, "images", images, notes, func(out io.Writer) {
		if len(images) == 0 {
			fmt.Fprintln(out, "(no images)")
			return
		}
		rows := make([][]string, len(images))
		for i, img := range images {
			rows[i] = []string{strconv.Itoa(img.SerialNumber), img.ID, img.URL}
		}
		table(out, []string{"#", "ID", "URL"}, rows)
	})
}

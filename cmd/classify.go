package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/stickerlabel/internal/classifier"
	"github.com/lehigh-university-libraries/stickerlabel/internal/history"
	"github.com/lehigh-university-libraries/stickerlabel/internal/images"
	"github.com/lehigh-university-libraries/stickerlabel/internal/models"
	"github.com/lehigh-university-libraries/stickerlabel/internal/presenter"
	"github.com/lehigh-university-libraries/stickerlabel/internal/selector"
	"github.com/lehigh-university-libraries/stickerlabel/internal/widget"
	"github.com/spf13/cobra"
)

func newClassifyCmd() *cobra.Command {
	var (
		saveDir    string
		exportPath string
		flags      classifierFlags
	)

	cmd := &cobra.Command{
		Use:   "classify FILE|URL",
		Short: "Classify a single sticker image",
		Long: `Uploads one PNG or JPEG sticker, read from disk or downloaded from an
http(s) URL, to the classifier and prints the returned labels together with
the history entry the upload produced.`,
		Example: `  # Classify a sticker against the default endpoint
  stickerlabel classify cat.png

  # Save the image under its label name and export the history
  stickerlabel classify cat.png --save ./out --export history.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			c, err := classifier.New(cfg)
			if err != nil {
				return err
			}

			var format history.Format
			if exportPath != "" {
				format, err = history.ParseFormat(filepath.Ext(exportPath))
				if err != nil {
					return err
				}
			}

			file, err := readSticker(cmd.Context(), selector.New(cfg.MaxUploadBytes), args[0])
			if err != nil {
				return err
			}

			w := widget.New(uuid.New().String(), c)
			defer w.Close()

			w.Select(file)
			if _, err := w.AwaitPreview(cmd.Context()); err != nil {
				return fmt.Errorf("failed to build preview: %w", err)
			}

			labels, err := w.Submit(cmd.Context())
			if err != nil {
				return errors.New(classifier.UserMessage(err))
			}

			out := cmd.OutOrStdout()
			printLabels(out, presenter.Rows(labels))

			snap := w.Snapshot()
			if len(snap.History) > 0 {
				e := snap.History[0]
				fmt.Fprintf(out, "\nFile: %s\nSize: %d KB\nLabel: %s\nUploaded at: %s\n",
					e.FileName, history.SizeKB(e.FileSize), e.Label, e.Timestamp)
			}

			if saveDir != "" {
				if err := saveSticker(w, saveDir); err != nil {
					return err
				}
			}
			if exportPath != "" {
				if err := exportHistory(w, exportPath, format); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&saveDir, "save", "", "Directory to save the image under its label name")
	cmd.Flags().StringVar(&exportPath, "export", "", "Write the session history to this file (.json, .yaml, or .parquet)")
	flags.bind(cmd)

	return cmd
}

func readSticker(ctx context.Context, sel *selector.Selector, src string) (*models.SelectedFile, error) {
	name, rc, err := images.NewFetcher().Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	file, err := sel.Read(name, rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", src, err)
	}
	return file, nil
}

func printLabels(out io.Writer, rows []presenter.Row) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "No.\tTitle")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\n", r.Number, r.Label)
	}
	tw.Flush()
}

func saveSticker(w *widget.Widget, dir string) error {
	d, err := w.Save()
	if err != nil {
		return fmt.Errorf("failed to save sticker: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	path := filepath.Join(dir, d.Filename)
	if err := os.WriteFile(path, d.Data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Info("Saved sticker", "path", path, "content_type", d.ContentType)
	return nil
}

func exportHistory(w *widget.Widget, path string, format history.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := w.ExportHistory(f, format); err != nil {
		return fmt.Errorf("failed to export history: %w", err)
	}
	slog.Info("Exported history", "path", path, "format", format)
	return nil
}

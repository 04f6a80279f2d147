package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "stickerlabel",
		Short: "Upload sticker images to a classifier and collect their labels",
		Long: `Stickerlabel sends a sticker image to a remote classification service
and shows the labels it gets back, with copy and save actions and a
history of the uploads made in the current session.

Run "serve" for the browser widget or "classify" for a single image.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newClassifyCmd())

	return cmd
}

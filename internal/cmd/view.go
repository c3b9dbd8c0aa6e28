package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/crawlview/internal/config"
	"github.com/charmbracelet/crawlview/internal/ui/model"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().Float64P("zoom", "z", 0, "Initial zoom factor")
	viewCmd.Flags().StringP("encoding", "e", "", fmt.Sprintf("Image encoding: %s, %s or %s", config.EncodingAuto, config.EncodingBlocks, config.EncodingKitty))
}

var viewCmd = &cobra.Command{
	Use:   "view <path>",
	Short: "Open a document in the page viewer",
	Long: `Open a page image directory, an image, or a markdown, HTML or text file
directly in the page viewer. Leaving the viewer quits.`,
	Example: `
# Read a scanned document at twice the size
crawlview view --zoom 2 scans/report-0042

# Force half block rendering
crawlview view --encoding blocks scans/report-0042/page-1.png
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := applyViewFlags(cmd, cfg); err != nil {
			return err
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve document path: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to open document: %w", err)
		}
		return runTUI(cmd, cfg, model.Options{
			Root:     filepath.Dir(path),
			Document: path,
		})
	},
}

// applyViewFlags overrides the page options with the flags that were set and
// validates the result.
func applyViewFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("zoom") {
		cfg.Pages.Zoom, _ = cmd.Flags().GetFloat64("zoom")
	}
	if cmd.Flags().Changed("encoding") {
		cfg.Pages.Encoding, _ = cmd.Flags().GetString("encoding")
	}
	return cfg.Validate()
}

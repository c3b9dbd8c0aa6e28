package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/crawlview/internal/ui/model"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(browseCmd)
}

var browseCmd = &cobra.Command{
	Use:   "browse [dir]",
	Short: "Browse an archive directory",
	Long:  `Open the file list on an archive directory. This is what crawlview does when no command is given.`,
	Example: `
# Browse the archive in the current directory
crawlview browse

# Browse an archive elsewhere
crawlview browse ~/crawls/2024-03
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	root, err := resolveDir(dir)
	if err != nil {
		return err
	}
	return runTUI(cmd, cfg, model.Options{Root: root})
}

func resolveDir(dir string) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve archive directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return root, nil
}

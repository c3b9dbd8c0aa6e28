package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/crawlview/internal/config"
	"github.com/charmbracelet/crawlview/internal/log"
	"github.com/charmbracelet/crawlview/internal/ui/common"
	"github.com/charmbracelet/crawlview/internal/ui/model"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "devel"

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("config", "C", "", "Config file to merge on top of the global and local ones")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
}

var rootCmd = &cobra.Command{
	Use:   "crawlview [dir]",
	Short: "Browse crawl archives in the terminal",
	Long: heredoc.Doc(`
		Crawlview browses a directory of crawled documents and scanned page
		images. Large archives and long documents stay responsive because only
		the entries and pages near the viewport are ever rendered.
	`),
	Example: heredoc.Doc(`
		# Browse the archive in the current directory
		crawlview

		# Browse another archive
		crawlview ~/crawls/2024-03

		# Open a scanned document directly
		crawlview view ~/crawls/2024-03/scan-0042
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: runBrowse,
}

// Execute runs the root command.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// loadConfig changes to --cwd when given and loads the configuration for the
// resulting working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return nil, fmt.Errorf("failed to change directory: %w", err)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	return config.Load(cwd, configPath, debug)
}

// runTUI starts the interface and blocks until it quits.
func runTUI(cmd *cobra.Command, cfg *config.Config, opts model.Options) error {
	log.Setup(cfg.LogFile(), cfg.Options.Debug)
	defer log.RecoverPanic("main", nil)

	slog.Info("Starting crawlview", "version", Version, "root", opts.Root, "document", opts.Document, "sources", cfg.Sources())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ui := model.New(ctx, common.DefaultCommon(cfg), opts)
	program := tea.NewProgram(ui, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		slog.Error("TUI run error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/crawlview/internal/config"
	"github.com/charmbracelet/crawlview/internal/log"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd, configSetCmd)
	configSetCmd.Flags().BoolP("local", "l", false, "Write to .crawlview.json in the working directory instead of the global config")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change configuration",
	Long:  `Read the effective configuration or change a field of a config file.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print an effective configuration value",
	Example: `
# Print the number of pages decoded at once
crawlview config get pages.workers

# Print the whole list section
crawlview config get list
  `,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetupStderr(debug)

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		res, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), configValue(res))
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration field",
	Long: `Write a field of the global config file, or of the local one with --local.
Values that are valid JSON are stored as is, anything else as a string.`,
	Example: `
# Keep more decoded pages in memory
crawlview config set pages.cache_size 64

# Only list HTML captures
crawlview config set list.match '["**/*.html"]'
  `,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetupStderr(debug)

		path := config.GlobalConfig()
		if local, _ := cmd.Flags().GetBool("local"); local {
			cwd, _ := cmd.Flags().GetString("cwd")
			if cwd == "" {
				var err error
				if cwd, err = os.Getwd(); err != nil {
					return fmt.Errorf("failed to get current working directory: %w", err)
				}
			}
			path = filepath.Join(cwd, ".crawlview.json")
		}
		if err := config.SetConfigField(path, args[0], args[1]); err != nil {
			return err
		}
		slog.Info("Updated config", "path", path, "key", args[0])
		return nil
	},
}

// configValue prints strings bare and everything else as JSON.
func configValue(res gjson.Result) string {
	if res.Type == gjson.String {
		return res.String()
	}
	return res.Raw
}

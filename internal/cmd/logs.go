package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	charmlog "charm.land/log/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/term"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"
)

const defaultTailLines = 1000

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("tail", "t", defaultTailLines, "Show only the last N lines")
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View crawlview logs",
	Long:  `View the logs written by crawlview while the interface runs.`,
	Example: `
# Show the latest log lines
crawlview logs

# Keep printing new lines as they are written
crawlview logs --follow
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		tailLines, _ := cmd.Flags().GetInt("tail")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logsFile := cfg.LogFile()
		if _, err := os.Stat(logsFile); os.IsNotExist(err) {
			fmt.Fprintln(cmd.OutOrStdout(), "No logs found yet. Run crawlview to generate some.")
			return nil
		}

		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); !ok || !term.IsTerminal(f.Fd()) {
			out = &colorprofile.Writer{Forward: out, Profile: colorprofile.NoTTY}
		}
		logger := charmlog.NewWithOptions(out, charmlog.Options{
			Level:           charmlog.DebugLevel,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})

		t, err := tail.TailFile(logsFile, tail.Config{
			Follow:    follow,
			ReOpen:    follow,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to tail log file: %w", err)
		}
		defer t.Cleanup()

		if follow {
			for {
				select {
				case <-cmd.Context().Done():
					return t.Stop()
				case line, ok := <-t.Lines:
					if !ok {
						return t.Err()
					}
					if line.Err != nil {
						return line.Err
					}
					printLogLine(logger, out, line.Text)
				}
			}
		}

		// Without follow the channel closes at the end of the file.
		var lines []string
		for line := range t.Lines {
			if line.Err != nil {
				return line.Err
			}
			lines = append(lines, line.Text)
			if tailLines > 0 && len(lines) > tailLines {
				lines = slices.Delete(lines, 0, 1)
			}
		}
		for _, line := range lines {
			printLogLine(logger, out, line)
		}
		return nil
	},
}

// printLogLine prints a JSON log record through logger. Lines that are not
// records are written to w as they are.
func printLogLine(logger *charmlog.Logger, w io.Writer, text string) {
	var record map[string]any
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		fmt.Fprintln(w, text)
		return
	}

	msg, _ := record["msg"].(string)
	levelName, _ := record["level"].(string)
	level, err := charmlog.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		level = charmlog.InfoLevel
	}
	if ts, ok := record["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			logger.SetTimeFunction(func(time.Time) time.Time { return parsed })
		}
	}

	keys := make([]string, 0, len(record))
	for k := range record {
		switch k {
		case "msg", "level", "time":
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	keyvals := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		v := record[k]
		if k == "source" {
			if src, ok := v.(map[string]any); ok {
				v = fmt.Sprintf("%v:%v", src["file"], src["line"])
			}
		}
		keyvals = append(keyvals, k, v)
	}
	logger.Log(level, msg, keyvals...)
}

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/crawlview/internal/log"
	"github.com/charmbracelet/crawlview/internal/viewport"
	"github.com/charmbracelet/x/exp/charmtone"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the window command.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func init() {
	rootCmd.AddCommand(windowCmd)
	flags := windowCmd.Flags()
	flags.IntP("count", "n", 0, "Number of items in the collection")
	flags.Float64("container", 0, "Extent of the viewport")
	flags.Float64("extent", 0, "Extent of one item at zoom 1")
	flags.Float64("offset", 0, "Scroll offset")
	flags.Float64("zoom", 1, "Zoom factor applied to the item extent")
	flags.Float64("chrome", 0, "Unscaled extent added to every item")
	flags.Int("leading", viewport.DefaultLeading, "Items kept above the visible band")
	flags.Int("trailing", viewport.DefaultTrailing, "Items kept below the visible band")
	flags.StringP("format", "f", "", "Output format: table, json or yaml (default table on a terminal, json otherwise)")
}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the render window for a viewport",
	Long: `Compute which items of a collection are materialized for a viewport and
where each of them is placed. This is the same computation the file list and
the page viewer run on every scroll, resize and zoom change.`,
	Example: `
# 1000 rows of 64 in a 600 tall viewport, scrolled to 640
crawlview window --count 1000 --container 600 --extent 64 --offset 640

# Pages of 1100 zoomed to 150% as YAML
crawlview window -n 40 --container 900 --extent 1100 --zoom 1.5 -f yaml
  `,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetupStderr(debug)

		var in windowInput
		flags := cmd.Flags()
		in.Count, _ = flags.GetInt("count")
		in.Container, _ = flags.GetFloat64("container")
		in.Extent, _ = flags.GetFloat64("extent")
		in.Offset, _ = flags.GetFloat64("offset")
		in.Zoom, _ = flags.GetFloat64("zoom")
		in.Chrome, _ = flags.GetFloat64("chrome")
		in.Leading, _ = flags.GetInt("leading")
		in.Trailing, _ = flags.GetInt("trailing")
		format, _ := flags.GetString("format")

		report, err := computeWindow(in)
		if err != nil {
			return err
		}
		slog.Debug("Computed window", "range", report.Range.String())

		out := cmd.OutOrStdout()
		if format == "" {
			format = formatJSON
			if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
				format = formatTable
			}
		}
		return writeWindow(out, format, report)
	},
}

type windowInput struct {
	Count     int
	Container float64
	Extent    float64
	Offset    float64
	Zoom      float64
	Chrome    float64
	Leading   int
	Trailing  int
}

type windowReport struct {
	Count      int                   `json:"count" yaml:"count"`
	Container  float64               `json:"container" yaml:"container"`
	Extent     float64               `json:"extent" yaml:"extent"`
	Offset     float64               `json:"offset" yaml:"offset"`
	MaxOffset  float64               `json:"max_offset" yaml:"max_offset"`
	Range      viewport.VisibleRange `json:"range" yaml:"range"`
	Placements []windowPlacement     `json:"placements" yaml:"placements"`
}

type windowPlacement struct {
	Index    int     `json:"index" yaml:"index"`
	Position float64 `json:"position" yaml:"position"`
	// Row is where the item starts relative to the top of the viewport.
	Row int `json:"row" yaml:"row"`
}

func computeWindow(in windowInput) (windowReport, error) {
	layout, err := viewport.NewLayout(viewport.Geometry{
		Count:     in.Count,
		Container: in.Container,
		Extent: viewport.ScaledExtent{
			Base:   in.Extent,
			Zoom:   in.Zoom,
			Chrome: in.Chrome,
		},
		Buffer: viewport.Buffer{Leading: in.Leading, Trailing: in.Trailing},
	})
	if err != nil {
		return windowReport{}, err
	}

	offset := layout.ClampOffset(in.Offset)
	r := layout.Range(offset)
	report := windowReport{
		Count:      layout.Count(),
		Container:  layout.Container(),
		Extent:     layout.ItemExtent(),
		Offset:     offset,
		MaxOffset:  layout.MaxOffset(),
		Range:      r,
		Placements: make([]windowPlacement, 0, r.Len()),
	}
	for i := range r.Indices() {
		pos := layout.Position(i)
		report.Placements = append(report.Placements, windowPlacement{
			Index:    i,
			Position: pos,
			Row:      int(math.Floor(pos - offset)),
		})
	}
	return report, nil
}

func writeWindow(w io.Writer, format string, report windowReport) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		return writeWindowTable(colorprofile.NewWriter(w, os.Environ()), report)
	}
	return fmt.Errorf("unknown format %q", format)
}

func writeWindowTable(w io.Writer, report windowReport) error {
	var (
		header = lipgloss.NewStyle().Bold(true).Foreground(charmtone.Charple).Padding(0, 1)
		cell   = lipgloss.NewStyle().Padding(0, 1)
		muted  = lipgloss.NewStyle().Foreground(charmtone.Squid)
	)

	summary := fmt.Sprintf("range %s  extent %s  offset %s/%s",
		report.Range, formatFloat(report.Extent), formatFloat(report.Offset), formatFloat(report.MaxOffset))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(muted).
		Headers("INDEX", "POSITION", "ROW").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, p := range report.Placements {
		t.Row(strconv.Itoa(p.Index), formatFloat(p.Position), strconv.Itoa(p.Row))
	}

	_, err := fmt.Fprintln(w, muted.Render(summary)+"\n"+t.String())
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

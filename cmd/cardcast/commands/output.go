package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fivetwenty-io/cardcast/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const defaultJSONIndent = 2

// outputFormat returns the configured format. Without one, tables go to
// terminals and JSON everywhere else.
func outputFormat(cmd *cobra.Command) string {
	if format := viper.GetString("output"); format != "" {
		return format
	}

	if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return constants.FormatTable
	}

	return constants.FormatJSON
}

// render writes value as JSON or YAML, or calls table for the table format.
func render(cmd *cobra.Command, value interface{}, table func(w io.Writer) error) error {
	out := cmd.OutOrStdout()

	switch format := outputFormat(cmd); format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		encoder.SetIndent(defaultJSONIndent)

		defer func() { _ = encoder.Close() }()

		return encoder.Encode(value)
	case constants.FormatTable:
		return table(out)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// renderTable renders a header and rows with tablewriter.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(lo.ToAnySlice(header)...)

	for _, row := range rows {
		_ = table.Append(row)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderProperties renders a two-column Property/Value table.
func renderProperties(w io.Writer, pairs [][2]string) error {
	rows := make([][]string, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, []string{pair[0], pair[1]})
	}

	return renderTable(w, []string{"Property", "Value"}, rows)
}

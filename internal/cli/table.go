package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/autosub/internal/domain/subtitles"
	"github.com/forPelevin/autosub/internal/language"
)

func renderTable(headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func printFormats(w io.Writer) {
	names := subtitles.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, "." + subtitles.Extension(name)})
	}
	fmt.Fprintln(w, "List of formats:")
	fmt.Fprintln(w, renderTable([]string{"Format", "Extension"}, rows))
}

func printLanguages(w io.Writer) {
	codes := language.Codes()
	rows := make([][]string, 0, len(codes))
	for _, c := range codes {
		rows = append(rows, []string{c.Code, c.Display, c.Tag})
	}
	fmt.Fprintln(w, "List of all languages:")
	fmt.Fprintln(w, renderTable([]string{"Code", "Language", "Tag"}, rows))
}

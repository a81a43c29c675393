package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// maxColumnWidth is the width at which cell values are truncated.
const maxColumnWidth = 60

// renderTable writes rows as a borderless, left aligned table to w. Nothing is
// written if there are no rows.
func renderTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	off := tw.Lines{
		ShowTop: tw.Off, ShowBottom: tw.Off,
		ShowHeaderLine: tw.Off, ShowFooterLine: tw.Off,
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Symbols: tw.NewSymbols(tw.StyleASCII),
			Settings: tw.Settings{
				Lines: off,
				Separators: tw.Separators{
					ShowHeader: tw.Off, ShowFooter: tw.Off,
					BetweenRows: tw.Off, BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapTruncate},
				Alignment:    tw.CellAlignment{Global: tw.AlignLeft},
				ColMaxWidths: tw.CellWidth{Global: maxColumnWidth},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}

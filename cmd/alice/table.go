package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one history table column. Numeric columns are right
// aligned.
type column struct {
	title   string
	numeric bool
}

var (
	jobColumns = []column{
		{"ID", false}, {"Status", false}, {"Started", false}, {"Inputs", true},
		{"Audio", true}, {"Outputs", true}, {"Merges", true}, {"Elapsed", true},
	}
	fileColumns = []column{
		{"#", true}, {"Input", false}, {"Audio", true}, {"Elapsed", true}, {"Calibration", true},
	}
	outputColumns = []column{
		{"Output", false}, {"Kind", false}, {"Audio", true}, {"Members", true},
	}
)

// renderTable lays rows out under columns. Short rows are padded with
// blanks and extra cells are dropped.
func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range r {
			r[i] = ""
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mediakeep/internal/catalog"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
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

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    80,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderOutcomeCounts renders one row per outcome in a fixed order, followed
// by a total.
func renderOutcomeCounts(counts map[catalog.WriteStatus]int) string {
	order := append([]catalog.WriteStatus{catalog.StatusNone}, catalog.WriteStatuses()...)
	rows := make([][]string, 0, len(order)+1)
	total := 0
	for _, status := range order {
		n := counts[status]
		total += n
		rows = append(rows, []string{status.Label(), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"total", strconv.Itoa(total)})
	return renderTable([]string{"Status", "Files"}, rows, []columnAlignment{alignLeft, alignRight})
}

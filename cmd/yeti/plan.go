package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/yeti/pkg/auto"
)

type PlanCommand struct{}

func (c *PlanCommand) Execute(args []string) error {
	seq := auto.DefaultSequence()

	fmt.Println(headerStyle.Render("Autonomous Plan"))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d phases over %.0f seconds", len(seq.Phases), seq.Duration)))
	fmt.Println()
	fmt.Println(renderPlan(seq))
	return nil
}

func renderPlan(seq *auto.Sequence) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tablePhaseStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableWindowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(seq.Phases))
	for i, p := range seq.Phases {
		open, closing := "(", "]"
		if i == 0 {
			open = "["
		}
		// The sequence ends at Duration, exclusive.
		if i == len(seq.Phases)-1 && p.End >= seq.Duration {
			closing = ")"
		}
		cmds := make([]string, 0, len(p.Commands))
		for _, cmd := range p.Commands {
			cmds = append(cmds, cmd.String())
		}
		rows = append(rows, []string{
			string(p.Name),
			fmt.Sprintf("%s%.1f, %.1f%s", open, p.Start, p.End, closing),
			strings.Join(cmds, "\n"),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		BorderRow(true).
		Headers("Phase", "Window (s)", "Commands").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tablePhaseStyle
			case 1:
				return tableWindowStyle
			default:
				return tableCellStyle
			}
		})

	return t.Render()
}

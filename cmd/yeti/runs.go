package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/gwillem/yeti/pkg/telemetry"
)

type RunsCommand struct {
	DB   string `long:"db" default:"runs.db" description:"Recorded runs database"`
	Show string `long:"show" value-name:"RUN_ID" description:"Print the telemetry of one run"`
}

func (c *RunsCommand) Execute(args []string) error {
	store, err := telemetry.OpenStore(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if c.Show != "" {
		return showRun(ctx, store, c.Show)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs. Record one with: " + headerStyle.Render("yeti run --record "+c.DB))
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Label,
			humanize.Time(r.StartedAt),
			humanize.Comma(int64(r.Frames)),
			humanize.Comma(int64(r.Samples)),
		})
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Run", "Label", "Started", "Frames", "Samples").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true).Foreground(lipgloss.Color("12"))
			}
			if col == 0 {
				return cellStyle.Foreground(lipgloss.Color("14"))
			}
			return cellStyle
		})

	fmt.Println(t.Render())
	return nil
}

func showRun(ctx context.Context, store *telemetry.Store, runID string) error {
	samples, err := store.Samples(ctx, runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("run %s has no telemetry", runID)
	}

	frame := -1
	for _, s := range samples {
		if s.Frame != frame {
			frame = s.Frame
			fmt.Println(dimStyle.Render(fmt.Sprintf("── frame %s ──", humanize.Comma(int64(frame)))))
		}
		fmt.Println(telemetry.Item{Key: s.Key, Value: s.Value})
	}
	return nil
}
